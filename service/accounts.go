package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/auth"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/apex/log"
)

type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (int64, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*models.User, error)
}

type TokenSigner interface {
	Issue(u models.User) (string, time.Time, error)
}

// AccountService registers crew accounts and signs them in.
type AccountService struct {
	store  UserStore
	tokens TokenSigner
}

func NewAccountService(store UserStore, tokens TokenSigner) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

// Signup creates a user-role account. Admins are provisioned out of band.
func (s *AccountService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	loginID := strings.TrimSpace(req.Username)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if loginID == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(req.Designation) == "" {
		missing = append(missing, "designation")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("All fields are required.", missing...)
	}

	designation, ok := models.ParseDesignation(req.Designation)
	if !ok {
		return nil, apperr.Validation("Invalid designation. Must be Pilot, Cabin crew, or Ground Staff.", "designation")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("Password must be at least %d characters.", auth.MinPasswordLength), "password")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Storage("Failed to create user.", err)
	}

	u := models.User{
		Name:         name,
		LoginID:      loginID,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Designation:  designation,
	}
	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	u.UserID = id

	log.WithFields(log.Fields{"user_id": id, "designation": designation}).Info("User registered")
	return &u, nil
}

// Login checks the credentials and returns a signed token. Unknown login ids
// and wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		return nil, apperr.Validation("Login ID and password are required.")
	}

	u, err := s.store.GetUserByLoginID(ctx, loginID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthenticated("Invalid login ID or password.")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		log.WithField("user_id", u.UserID).Warn("Failed login attempt")
		return nil, apperr.Unauthenticated("Invalid login ID or password.")
	}

	token, expiresAt, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, apperr.Storage("Failed to sign in.", err)
	}
	return &models.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User: models.Subject{
			UserID:  u.UserID,
			Name:    u.Name,
			LoginID: u.LoginID,
			Role:    u.Role,
		},
	}, nil
}
