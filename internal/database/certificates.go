package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MK-codes365/greenwipe/internal/database/models"
)

const certificateColumns = `id, user_id, item_name, item_size, client_name, wipe_method,
	wipe_completion_date, verification_method, report_json, anchored, transaction_id,
	audit_trail, created_at`

// AnchorPatch carries the fields written when a certificate is anchored
type AnchorPatch struct {
	TransactionID string
	AuditTrail    []models.AuditEntry
	ReportJSON    string
}

// CreateCertificate inserts a new certificate. A primary key collision returns ErrDuplicateID.
func (d *Database) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	auditJSON, err := json.Marshal(cert.AuditTrail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	query := d.rebind(`INSERT INTO certificates (` + certificateColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = d.db.ExecContext(ctx, query,
		cert.ID, cert.UserID, cert.ItemName, cert.ItemSize, cert.ClientName, cert.WipeMethod,
		cert.WipeCompletionDate, cert.VerificationMethod, cert.ReportJSON, cert.Anchored,
		cert.TransactionID, string(auditJSON), cert.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("certificate %s: %w", cert.ID, ErrDuplicateID)
		}
		return err
	}
	return nil
}

// FindCertificate retrieves a certificate by ID. A missing certificate is reported
// through the boolean, not as an error.
func (d *Database) FindCertificate(ctx context.Context, id string) (*models.Certificate, bool, error) {
	query := d.rebind(`SELECT ` + certificateColumns + ` FROM certificates WHERE id = ?`)

	var cert models.Certificate
	var auditJSON string
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&cert.ID, &cert.UserID, &cert.ItemName, &cert.ItemSize, &cert.ClientName, &cert.WipeMethod,
		&cert.WipeCompletionDate, &cert.VerificationMethod, &cert.ReportJSON, &cert.Anchored,
		&cert.TransactionID, &auditJSON, &cert.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal([]byte(auditJSON), &cert.AuditTrail); err != nil {
		return nil, false, fmt.Errorf("failed to decode audit trail of %s: %w", id, err)
	}

	cert.WipeCompletionDate = cert.WipeCompletionDate.UTC()
	cert.CreatedAt = cert.CreatedAt.UTC()
	for i := range cert.AuditTrail {
		cert.AuditTrail[i].Timestamp = cert.AuditTrail[i].Timestamp.UTC()
	}

	return &cert, true, nil
}

// AnchorCertificate marks an unanchored certificate as anchored in a single
// compare-and-set update. It returns ErrAlreadyAnchored when the certificate was
// anchored by someone else first and ErrNotFound when it does not exist.
func (d *Database) AnchorCertificate(ctx context.Context, id string, patch AnchorPatch) error {
	auditJSON, err := json.Marshal(patch.AuditTrail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	query := d.rebind(`UPDATE certificates
	          SET anchored = ?, transaction_id = ?, audit_trail = ?, report_json = ?
	          WHERE id = ? AND anchored = ?`)

	res, err := d.db.ExecContext(ctx, query,
		true, patch.TransactionID, string(auditJSON), patch.ReportJSON, id, false,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 1 {
		return nil
	}

	var anchored bool
	err = d.db.QueryRowContext(ctx, d.rebind(`SELECT anchored FROM certificates WHERE id = ?`), id).Scan(&anchored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyAnchored
}
