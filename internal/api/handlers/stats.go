package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsProvider reads and updates the impact counters
type StatsProvider interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error)
	Reset(ctx context.Context) (*models.Stats, error)
	ListWipeEvents(ctx context.Context) ([]service.WipeEventPayload, error)
}

// StatsHandler handles the impact statistics endpoints
type StatsHandler struct {
	stats  StatsProvider
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsProvider, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

// GetStats returns the current counters
// @Summary Get impact statistics
// @Produce json
// @Success 200 {object} models.Stats
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get stats")
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// RecordWipeRequest represents a wipe counted outside certificate creation
type RecordWipeRequest struct {
	WipeMethod string `json:"wipeMethod"`
}

// RecordWipe counts one wipe
// @Summary Increment wipe counters
// @Accept json
// @Produce json
// @Param request body RecordWipeRequest false "Wipe method"
// @Success 200 {object} models.Stats
// @Router /api/v1/stats/wipes [post]
func (h *StatsHandler) RecordWipe(c *gin.Context) {
	var req RecordWipeRequest
	// The body is optional
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	stats, err := h.stats.RecordWipe(c.Request.Context(), req.WipeMethod, "")
	if err != nil {
		h.logger.Error("Failed to record wipe", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to record wipe")
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// ListWipeEvents returns the impact chart series
// @Summary List wipe events
// @Produce json
// @Success 200 {array} service.WipeEventPayload
// @Router /api/v1/stats/events [get]
func (h *StatsHandler) ListWipeEvents(c *gin.Context) {
	events, err := h.stats.ListWipeEvents(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list wipe events", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list wipe events")
		return
	}
	respondOK(c, http.StatusOK, events)
}

// ResetStats zeroes the counters
// @Summary Reset impact statistics
// @Produce json
// @Success 200 {object} models.Stats
// @Router /api/v1/stats/reset [post]
func (h *StatsHandler) ResetStats(c *gin.Context) {
	stats, err := h.stats.Reset(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to reset stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to reset stats")
		return
	}

	h.logger.Info("Stats reset", zap.String("username", c.GetString("username")))
	respondOK(c, http.StatusOK, stats)
}
