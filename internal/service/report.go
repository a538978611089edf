package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database/models"
)

// VerificationMethod is recorded on every certificate
const VerificationMethod = "Cryptographic Signature (Simulated)"

// isoMillis is ISO-8601 in UTC with millisecond precision
const isoMillis = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// AuditEntryPayload is the wire form of an audit entry
type AuditEntryPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// CertificatePayload is the wire form of a certificate
type CertificatePayload struct {
	CertificateID      string              `json:"certificateId"`
	ItemName           string              `json:"itemName"`
	ItemSize           string              `json:"itemSize"`
	WipeMethod         string              `json:"wipeMethod"`
	WipeCompletionDate string              `json:"wipeCompletionDate"`
	VerificationMethod string              `json:"verificationMethod"`
	ClientName         string              `json:"clientName"`
	ReportJSON         string              `json:"reportJson"`
	Anchored           bool                `json:"anchored"`
	TransactionID      *string             `json:"transactionId"`
	AuditTrail         []AuditEntryPayload `json:"auditTrail"`
}

// Report is the downloadable snapshot stored in reportJson. It carries every
// payload field except reportJson itself.
type Report struct {
	CertificateID      string              `json:"certificateId"`
	ItemName           string              `json:"itemName"`
	ItemSize           string              `json:"itemSize"`
	WipeMethod         string              `json:"wipeMethod"`
	WipeCompletionDate string              `json:"wipeCompletionDate"`
	VerificationMethod string              `json:"verificationMethod"`
	ClientName         string              `json:"clientName"`
	Anchored           bool                `json:"anchored"`
	TransactionID      *string             `json:"transactionId"`
	AuditTrail         []AuditEntryPayload `json:"auditTrail"`
}

func auditPayload(trail []models.AuditEntry) []AuditEntryPayload {
	out := make([]AuditEntryPayload, 0, len(trail))
	for _, entry := range trail {
		out = append(out, AuditEntryPayload{Timestamp: formatTime(entry.Timestamp), Event: entry.Event})
	}
	return out
}

func transactionID(cert *models.Certificate) *string {
	if !cert.TransactionID.Valid {
		return nil
	}
	id := cert.TransactionID.String
	return &id
}

// NewCertificatePayload maps a stored certificate to its wire form
func NewCertificatePayload(cert *models.Certificate) *CertificatePayload {
	return &CertificatePayload{
		CertificateID:      cert.ID,
		ItemName:           cert.ItemName,
		ItemSize:           cert.ItemSize,
		WipeMethod:         cert.WipeMethod,
		WipeCompletionDate: formatTime(cert.WipeCompletionDate),
		VerificationMethod: cert.VerificationMethod,
		ClientName:         cert.ClientName,
		ReportJSON:         cert.ReportJSON,
		Anchored:           cert.Anchored,
		TransactionID:      transactionID(cert),
		AuditTrail:         auditPayload(cert.AuditTrail),
	}
}

// renderReport serialises the current fields of cert as an indented report
func renderReport(cert *models.Certificate) (string, error) {
	report := Report{
		CertificateID:      cert.ID,
		ItemName:           cert.ItemName,
		ItemSize:           cert.ItemSize,
		WipeMethod:         cert.WipeMethod,
		WipeCompletionDate: formatTime(cert.WipeCompletionDate),
		VerificationMethod: cert.VerificationMethod,
		ClientName:         cert.ClientName,
		Anchored:           cert.Anchored,
		TransactionID:      transactionID(cert),
		AuditTrail:         auditPayload(cert.AuditTrail),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return string(data), nil
}
