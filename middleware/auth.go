package middleware

import (
	"strings"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/gin-gonic/gin"
)

const subjectKey = "subject"

// Verifier turns a bearer token into the identity it was issued for.
type Verifier interface {
	Verify(token string) (*models.Subject, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := authenticate(c, v)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

// RequireAdmin is RequireAuth restricted to the admin role.
func RequireAdmin(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := authenticate(c, v)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !subject.IsAdmin() {
			Logger(c).WithField("user_id", subject.UserID).Warn("Admin route refused")
			abortWithError(c, apperr.Forbidden("Admin access required."))
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A credential that is
// presented must still be valid.
func OptionalAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		subject, err := authenticate(c, v)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

// SubjectFrom returns the identity set by one of the auth middlewares.
func SubjectFrom(c *gin.Context) (*models.Subject, bool) {
	v, ok := c.Get(subjectKey)
	if !ok {
		return nil, false
	}
	subject, ok := v.(*models.Subject)
	return subject, ok && subject != nil
}

func authenticate(c *gin.Context, v Verifier) (*models.Subject, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, apperr.Unauthenticated("Access token required.")
	}
	token := extractToken(header)
	if token == "" {
		return nil, apperr.Unauthenticated("Invalid authorization format.")
	}
	subject, err := v.Verify(token)
	if err != nil {
		Logger(c).WithError(err).Debug("Token rejected")
		return nil, err
	}
	return subject, nil
}

// extractToken extracts the token from the Authorization header
func extractToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{
		"success": false,
		"message": apperr.PublicMessage(err),
	})
}
