package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/google/uuid"
)

// Environmental impact attributed to one wipe
const (
	EWastePerWipeKg   = 0.05
	CO2PerWipeKg      = 0.1
	EnergyPerWipeKWh  = 0.02
	WipesPerTree      = 50
	unknownWipeMethod = "N/A"
)

// StatsService maintains the aggregate impact counters
type StatsService struct {
	store StatsStore
	now   func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{
		store: store,
		now:   time.Now,
	}
}

// WipeEventPayload is a chart point with its calendar date
type WipeEventPayload struct {
	*models.WipeEvent
	Date string `json:"date"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetStats returns the current counters
func (s *StatsService) GetStats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// RecordWipe adds one wipe to the counters and appends a chart point.
// certificateID is recorded as the last certificate when not empty.
func (s *StatsService) RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error) {
	if wipeMethod == "" {
		wipeMethod = unknownWipeMethod
	}

	stats, err := s.store.MutateStats(ctx, func(st *models.Stats) (*models.WipeEvent, error) {
		st.TotalWipes++
		st.EWasteDiverted = round2(st.EWasteDiverted + EWastePerWipeKg)
		st.CO2Saved = round2(st.CO2Saved + CO2PerWipeKg)
		st.EnergySaved = round2(st.EnergySaved + EnergyPerWipeKWh)
		st.TreesSaved = st.TotalWipes / WipesPerTree
		st.WipeMethodDistribution[wipeMethod]++
		if certificateID != "" {
			st.LastCertificateID = certificateID
		}

		return &models.WipeEvent{
			ID:             uuid.NewString(),
			Timestamp:      s.now().UTC().Truncate(time.Millisecond),
			TotalWipes:     st.TotalWipes,
			CO2Saved:       st.CO2Saved,
			EWasteDiverted: st.EWasteDiverted,
			EnergySaved:    st.EnergySaved,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record wipe: %w", err)
	}
	return stats, nil
}

// RecordDownload counts one report download
func (s *StatsService) RecordDownload(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.MutateStats(ctx, func(st *models.Stats) (*models.WipeEvent, error) {
		st.PDFDownloads++
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}
	return stats, nil
}

// Reset zeroes every counter. The wipe event history is kept.
func (s *StatsService) Reset(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.MutateStats(ctx, func(st *models.Stats) (*models.WipeEvent, error) {
		*st = models.Stats{ID: st.ID, WipeMethodDistribution: map[string]int{}}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset stats: %w", err)
	}
	return stats, nil
}

// ListWipeEvents returns the chart series in chronological order
func (s *StatsService) ListWipeEvents(ctx context.Context) ([]WipeEventPayload, error) {
	events, err := s.store.ListWipeEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wipe events: %w", err)
	}

	out := make([]WipeEventPayload, 0, len(events))
	for _, event := range events {
		out = append(out, WipeEventPayload{
			WipeEvent: event,
			Date:      event.Timestamp.UTC().Format(time.DateOnly),
		})
	}
	return out, nil
}
