package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newStatsRouter(stats *MockStats) *gin.Engine {
	handler := NewStatsHandler(stats, zap.NewNop())
	router := setupTestRouter()
	router.GET("/api/v1/stats", handler.GetStats)
	router.POST("/api/v1/stats/wipes", handler.RecordWipe)
	router.GET("/api/v1/stats/events", handler.ListWipeEvents)
	router.POST("/api/v1/stats/reset", handler.ResetStats)
	return router
}

func TestStatsHandler_GetStats(t *testing.T) {
	t.Run("Counters use the camelCase wire names", func(t *testing.T) {
		stats := new(MockStats)
		stats.On("GetStats", mock.Anything).Return(&models.Stats{
			ID:                     "stats",
			TotalWipes:             3,
			CO2Saved:               0.3,
			LastCertificateID:      "cert-3",
			WipeMethodDistribution: map[string]int{"NIST SP 800-88 Purge": 3},
		}, nil)

		w, env := doJSON(t, newStatsRouter(stats), http.MethodGet, "/api/v1/stats", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Contains(t, string(env.Data), `"totalWipes":3`)
		assert.Contains(t, string(env.Data), `"lastCertificateId":"cert-3"`)
		assert.NotContains(t, string(env.Data), `"stats"`)
	})

	t.Run("Storage failure", func(t *testing.T) {
		stats := new(MockStats)
		stats.On("GetStats", mock.Anything).Return(nil, errors.New("boom"))

		w, env := doJSON(t, newStatsRouter(stats), http.MethodGet, "/api/v1/stats", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "failed to get stats", env.Error)
	})
}

func TestStatsHandler_RecordWipe(t *testing.T) {
	t.Run("Method from the body", func(t *testing.T) {
		stats := new(MockStats)
		stats.On("RecordWipe", mock.Anything, "DoD 5220.22-M", "").Return(&models.Stats{TotalWipes: 1}, nil)

		w, _ := doJSON(t, newStatsRouter(stats), http.MethodPost, "/api/v1/stats/wipes", RecordWipeRequest{WipeMethod: "DoD 5220.22-M"})

		assert.Equal(t, http.StatusOK, w.Code)
		stats.AssertExpectations(t)
	})

	t.Run("Empty body records an unknown method", func(t *testing.T) {
		stats := new(MockStats)
		stats.On("RecordWipe", mock.Anything, "", "").Return(&models.Stats{TotalWipes: 1}, nil)

		w, _ := doJSON(t, newStatsRouter(stats), http.MethodPost, "/api/v1/stats/wipes", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		stats.AssertExpectations(t)
	})

	t.Run("Malformed body", func(t *testing.T) {
		stats := new(MockStats)
		w, _ := doJSON(t, newStatsRouter(stats), http.MethodPost, "/api/v1/stats/wipes", "[")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		stats.AssertNotCalled(t, "RecordWipe", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStatsHandler_ListWipeEvents(t *testing.T) {
	stats := new(MockStats)
	ts := time.Date(2024, 5, 21, 10, 0, 0, 0, time.UTC)
	stats.On("ListWipeEvents", mock.Anything).Return([]service.WipeEventPayload{
		{WipeEvent: &models.WipeEvent{ID: "e1", Timestamp: ts, TotalWipes: 1, CO2Saved: 0.1}, Date: "2024-05-21"},
	}, nil)

	w, env := doJSON(t, newStatsRouter(stats), http.MethodGet, "/api/v1/stats/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"date":"2024-05-21"`)
	assert.Contains(t, string(env.Data), `"totalWipes":1`)
}

func TestStatsHandler_ResetStats(t *testing.T) {
	stats := new(MockStats)
	stats.On("Reset", mock.Anything).Return(&models.Stats{WipeMethodDistribution: map[string]int{}}, nil)

	w, env := doJSON(t, newStatsRouter(stats), http.MethodPost, "/api/v1/stats/reset", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"totalWipes":0`)
	stats.AssertExpectations(t)
}
