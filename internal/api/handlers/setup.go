package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/MK-codes365/greenwipe/internal/auth"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupService performs the one-time administrator setup
type SetupService interface {
	IsSetupComplete(ctx context.Context) (bool, error)
	PerformInitialSetup(ctx context.Context, req *service.SetupRequest) (*service.SetupResponse, error)
}

// SetupHandler handles setup operations
type SetupHandler struct {
	userService SetupService
	logger      *zap.Logger
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(userService SetupService, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetStatus checks if initial setup has been completed.
// @Summary Check setup status
// @Description Check if initial setup has been completed
// @Success 200 {object} map[string]bool
// @Router /api/v1/setup/status [get]
func (h *SetupHandler) GetStatus(c *gin.Context) {
	isComplete, err := h.userService.IsSetupComplete(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to check setup status", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to check setup status")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"setupComplete": isComplete})
}

// SetupRequest represents initial setup request
type SetupRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
}

// PerformSetup handles initial setup
// @Summary Perform initial setup
// @Description Create the administrator account
// @Accept json
// @Produce json
// @Param request body SetupRequest true "Setup request"
// @Success 200 {object} map[string]string
// @Router /api/v1/setup [post]
func (h *SetupHandler) PerformSetup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.userService.PerformInitialSetup(c.Request.Context(), &service.SetupRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSetupComplete):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Setup failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "setup failed")
		}
		return
	}

	h.logger.Info("Initial setup completed", zap.String("username", req.Username))

	respondOK(c, http.StatusOK, gin.H{
		"token":    result.Token,
		"username": result.User.Username,
		"role":     result.User.Role,
	})
}
