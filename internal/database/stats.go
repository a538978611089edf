package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database/models"
)

// StatsID is the primary key of the singleton stats row
const StatsID = "stats"

// StatsMutation edits the locked stats row in place. A non-nil WipeEvent is
// appended to the time series in the same transaction.
type StatsMutation func(stats *models.Stats) (*models.WipeEvent, error)

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *Database) ensureStatsRow(ctx context.Context, q queryer) error {
	query := `INSERT OR IGNORE INTO stats (id, updated_at) VALUES (?, ?)`
	if d.dbType == "postgres" {
		query = `INSERT INTO stats (id, updated_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	}
	_, err := q.ExecContext(ctx, query, StatsID, time.Now().UTC())
	return err
}

func (d *Database) selectStats(ctx context.Context, q queryer, forUpdate bool) (*models.Stats, error) {
	query := `SELECT id, total_wipes, pdf_downloads, e_waste_diverted, co2_saved, energy_saved,
	                 trees_saved, last_certificate_id, wipe_method_distribution, updated_at
	          FROM stats WHERE id = ?`
	if forUpdate && d.dbType == "postgres" {
		query += ` FOR UPDATE`
	}

	var stats models.Stats
	var distribution string
	err := q.QueryRowContext(ctx, d.rebind(query), StatsID).Scan(
		&stats.ID, &stats.TotalWipes, &stats.PDFDownloads, &stats.EWasteDiverted, &stats.CO2Saved,
		&stats.EnergySaved, &stats.TreesSaved, &stats.LastCertificateID, &distribution, &stats.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	stats.WipeMethodDistribution = map[string]int{}
	if distribution != "" {
		if err := json.Unmarshal([]byte(distribution), &stats.WipeMethodDistribution); err != nil {
			return nil, fmt.Errorf("failed to decode wipe method distribution: %w", err)
		}
	}
	stats.UpdatedAt = stats.UpdatedAt.UTC()
	return &stats, nil
}

// GetStats returns the stats row, creating it on first use
func (d *Database) GetStats(ctx context.Context) (*models.Stats, error) {
	if err := d.ensureStatsRow(ctx, d.db); err != nil {
		return nil, fmt.Errorf("failed to initialise stats: %w", err)
	}
	return d.selectStats(ctx, d.db, false)
}

// MutateStats applies fn to the stats row inside a transaction so that concurrent
// increments from several server instances never lose updates.
func (d *Database) MutateStats(ctx context.Context, fn StatsMutation) (*models.Stats, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	if err := d.ensureStatsRow(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to initialise stats: %w", err)
	}

	stats, err := d.selectStats(ctx, tx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	event, err := fn(stats)
	if err != nil {
		return nil, err
	}

	if stats.WipeMethodDistribution == nil {
		stats.WipeMethodDistribution = map[string]int{}
	}
	distribution, err := json.Marshal(stats.WipeMethodDistribution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wipe method distribution: %w", err)
	}
	stats.UpdatedAt = time.Now().UTC()

	update := d.rebind(`UPDATE stats SET total_wipes = ?, pdf_downloads = ?, e_waste_diverted = ?,
	                 co2_saved = ?, energy_saved = ?, trees_saved = ?, last_certificate_id = ?,
	                 wipe_method_distribution = ?, updated_at = ?
	          WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, update,
		stats.TotalWipes, stats.PDFDownloads, stats.EWasteDiverted, stats.CO2Saved, stats.EnergySaved,
		stats.TreesSaved, stats.LastCertificateID, string(distribution), stats.UpdatedAt, StatsID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	if event != nil {
		insert := d.rebind(`INSERT INTO wipe_events (id, occurred_at, total_wipes, co2_saved, e_waste_diverted, energy_saved)
		          VALUES (?, ?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, insert,
			event.ID, event.Timestamp, event.TotalWipes, event.CO2Saved, event.EWasteDiverted, event.EnergySaved,
		); err != nil {
			return nil, fmt.Errorf("failed to record wipe event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stats transaction: %w", err)
	}

	return stats, nil
}

// ListWipeEvents returns the impact time series in chronological order
func (d *Database) ListWipeEvents(ctx context.Context) ([]*models.WipeEvent, error) {
	query := `SELECT id, occurred_at, total_wipes, co2_saved, e_waste_diverted, energy_saved
	          FROM wipe_events ORDER BY occurred_at ASC, total_wipes ASC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.WipeEvent
	for rows.Next() {
		var event models.WipeEvent
		if err := rows.Scan(
			&event.ID, &event.Timestamp, &event.TotalWipes, &event.CO2Saved, &event.EWasteDiverted, &event.EnergySaved,
		); err != nil {
			return nil, err
		}
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, &event)
	}

	return events, rows.Err()
}
