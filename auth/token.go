package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of an access token.
type Claims struct {
	UserID  int64       `json:"user_id"`
	Name    string      `json:"name"`
	LoginID string      `json:"login_id"`
	Role    models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for u and the moment it stops being accepted.
func (t *TokenIssuer) Issue(u models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		UserID:  u.UserID,
		Name:    u.Name,
		LoginID: u.LoginID,
		Role:    u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns who it speaks for.
// An empty token is Unauthenticated; any token that fails checks is Forbidden.
func (t *TokenIssuer) Verify(token string) (*models.Subject, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("Access token required.")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Forbidden("Access token has expired.")
		}
		return nil, apperr.Forbidden("Invalid access token.")
	}
	if !parsed.Valid || claims.ExpiresAt == nil {
		return nil, apperr.Forbidden("Invalid access token.")
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, apperr.Forbidden("Invalid access token.")
	}

	return &models.Subject{
		UserID:  claims.UserID,
		Name:    claims.Name,
		LoginID: claims.LoginID,
		Role:    claims.Role,
	}, nil
}
