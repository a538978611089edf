package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Suggester recommends a wipe method
type Suggester interface {
	Suggest(ctx context.Context, req *service.SuggestionRequest) (*service.Suggestion, error)
}

// SuggestionHandler handles wipe method suggestions
type SuggestionHandler struct {
	suggester Suggester
	logger    *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggester Suggester, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggester: suggester,
		logger:    logger,
	}
}

// SuggestionRequest describes the item to be wiped
type SuggestionRequest struct {
	FileName string `json:"fileName"`
	FileSize string `json:"fileSize"`
}

// Suggest asks the provider for a wipe procedure
// @Summary Suggest a wipe method
// @Accept json
// @Produce json
// @Param request body SuggestionRequest true "File properties"
// @Success 200 {object} service.Suggestion
// @Failure 502 {object} Response
// @Router /api/v1/suggestions [post]
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	suggestion, err := h.suggester.Suggest(c.Request.Context(), &service.SuggestionRequest{
		FileName: req.FileName,
		FileSize: req.FileSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Warn("Suggestion failed", zap.String("file", req.FileName), zap.Error(err))

		status := http.StatusBadGateway
		if errors.Is(err, service.ErrSuggestionsDisabled) {
			status = http.StatusServiceUnavailable
		}
		respondError(c, status, "suggestion unavailable")
		return
	}

	respondOK(c, http.StatusOK, suggestion)
}
