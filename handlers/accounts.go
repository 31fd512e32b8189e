package handlers

import (
	"net/http"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/gin-gonic/gin"
)

// Signup handles POST /signup.
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("All fields are required."))
		return
	}
	u, err := h.accounts.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully!",
		"user_id": u.UserID,
	})
}

// Login handles POST /login.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Both login ID and password are required."))
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful!",
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}
