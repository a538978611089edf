// Package models defines the data structures for database entities in GreenWipe.
// It includes models for users, wipe certificates with their audit trail,
// aggregate impact statistics, wipe events, and system configuration.
package models

import (
	"database/sql"
	"time"
)

// User represents a system user
type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// AuditEntry is one append-only event in a certificate's history
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
}

// Certificate represents a data erasure certificate
type Certificate struct {
	ID                 string         `db:"id"`
	UserID             string         `db:"user_id"`
	ItemName           string         `db:"item_name"`
	ItemSize           string         `db:"item_size"`
	ClientName         string         `db:"client_name"`
	WipeMethod         string         `db:"wipe_method"`
	WipeCompletionDate time.Time      `db:"wipe_completion_date"`
	VerificationMethod string         `db:"verification_method"`
	ReportJSON         string         `db:"report_json"`
	Anchored           bool           `db:"anchored"`
	TransactionID      sql.NullString `db:"transaction_id"`
	AuditTrail         []AuditEntry   `db:"audit_trail"`
	CreatedAt          time.Time      `db:"created_at"`
}

// Stats is the singleton row of aggregate environmental impact counters
type Stats struct {
	ID                     string         `db:"id" json:"-"`
	TotalWipes             int            `db:"total_wipes" json:"totalWipes"`
	PDFDownloads           int            `db:"pdf_downloads" json:"pdfDownloads"`
	EWasteDiverted         float64        `db:"e_waste_diverted" json:"eWasteDiverted"`
	CO2Saved               float64        `db:"co2_saved" json:"co2Saved"`
	EnergySaved            float64        `db:"energy_saved" json:"energySaved"`
	TreesSaved             int            `db:"trees_saved" json:"treesSaved"`
	LastCertificateID      string         `db:"last_certificate_id" json:"lastCertificateId"`
	WipeMethodDistribution map[string]int `db:"wipe_method_distribution" json:"wipeMethodDistribution"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updatedAt"`
}

// WipeEvent is a point in the cumulative impact time series
type WipeEvent struct {
	ID             string    `db:"id" json:"id"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	TotalWipes     int       `db:"total_wipes" json:"totalWipes"`
	CO2Saved       float64   `db:"co2_saved" json:"co2Saved"`
	EWasteDiverted float64   `db:"e_waste_diverted" json:"eWasteDiverted"`
	EnergySaved    float64   `db:"energy_saved" json:"energySaved"`
}

// SystemConfig represents system-wide configuration stored in the database
type SystemConfig struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
