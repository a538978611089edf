package handlers

import (
	"context"
	"net/http"

	"github.com/MK-codes365/greenwipe/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator exchanges credentials for a token
type Authenticator interface {
	AuthenticateUser(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles authentication operations
type AuthHandler struct {
	userService Authenticator
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user
// @Summary User login
// @Description Authenticate user and return JWT token
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]string
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.userService.AuthenticateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("username", req.Username), zap.Error(err))
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.logger.Info("User logged in", zap.String("username", req.Username))

	respondOK(c, http.StatusOK, gin.H{"token": token})
}

// GetCurrentUser returns the currently authenticated user
// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Success 200 {object} map[string]string
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"userId":   middleware.UserID(c),
		"username": c.GetString(middleware.ContextUsername),
		"role":     c.GetString(middleware.ContextRole),
	})
}
