package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/MK-codes365/greenwipe/internal/crypto"
	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AnchoredEvent is the audit entry appended when a certificate is anchored
const AnchoredEvent = "Certificate anchored to blockchain."

// AnchorResult is the outcome of an anchoring call. Success is false when the
// certificate does not exist.
type AnchorResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
}

// AnchorService moves certificates from unanchored to anchored
type AnchorService struct {
	store   CertificateStore
	ids     crypto.AnchorIDGenerator
	delay   time.Duration
	timeout time.Duration
	group   singleflight.Group
	now     func() time.Time
	logger  *zap.Logger
}

// NewAnchorService creates a new anchoring service
func NewAnchorService(store CertificateStore, ids crypto.AnchorIDGenerator, cfg config.AnchoringConfig, logger *zap.Logger) *AnchorService {
	return &AnchorService{
		store:   store,
		ids:     ids,
		delay:   cfg.Delay,
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Anchor waits out the simulated ledger latency, then records a transaction id
// and the anchor audit entry in one conditional update. Anchoring an anchored
// certificate returns its existing transaction id without writing anything.
//
// Concurrent calls for the same id share one execution. The shared run is
// detached from the callers' cancellation and bounded by the anchoring timeout
// alone, so a disconnecting caller cannot abort it for the others. Each caller
// still stops waiting when its own context ends.
func (s *AnchorService) Anchor(ctx context.Context, id string) (*AnchorResult, error) {
	ch := s.group.DoChan(id, func() (interface{}, error) {
		runCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		defer func() { anchoringDuration.Observe(time.Since(start).Seconds()) }()
		return s.anchor(runCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*AnchorResult)
		return &result, nil
	}
}

func (s *AnchorService) anchor(ctx context.Context, id string) (*AnchorResult, error) {
	if err := sleepContext(ctx, s.delay); err != nil {
		return nil, err
	}

	cert, found, err := s.store.FindCertificate(ctx, id)
	if err != nil {
		anchoringTotal.WithLabelValues("failed").Inc()
		return nil, &AnchoringFailedError{CertificateID: id, Err: err}
	}
	if !found {
		anchoringTotal.WithLabelValues("not_found").Inc()
		return &AnchorResult{Success: false}, nil
	}
	if cert.Anchored {
		anchoringTotal.WithLabelValues("already_anchored").Inc()
		return &AnchorResult{Success: true, TransactionID: cert.TransactionID.String}, nil
	}

	txID := s.ids.NewTransactionID()
	cert.Anchored = true
	cert.TransactionID = sql.NullString{String: txID, Valid: true}
	cert.AuditTrail = append(cert.AuditTrail, models.AuditEntry{
		Timestamp: s.anchorTime(cert.AuditTrail),
		Event:     AnchoredEvent,
	})

	report, err := renderReport(cert)
	if err != nil {
		anchoringTotal.WithLabelValues("failed").Inc()
		return nil, &AnchoringFailedError{CertificateID: id, Err: err}
	}
	cert.ReportJSON = report

	err = s.store.AnchorCertificate(ctx, id, database.AnchorPatch{
		TransactionID: txID,
		AuditTrail:    cert.AuditTrail,
		ReportJSON:    report,
	})
	switch {
	case err == nil:
		anchoringTotal.WithLabelValues("anchored").Inc()
		s.logger.Info("Certificate anchored", zap.String("id", id), zap.String("transaction_id", txID))
		return &AnchorResult{Success: true, TransactionID: txID}, nil

	case errors.Is(err, database.ErrAlreadyAnchored):
		// Another process won the update; report its transaction id
		winner, found, findErr := s.store.FindCertificate(ctx, id)
		if findErr != nil {
			anchoringTotal.WithLabelValues("failed").Inc()
			return nil, &AnchoringFailedError{CertificateID: id, Err: findErr}
		}
		if !found {
			anchoringTotal.WithLabelValues("not_found").Inc()
			return &AnchorResult{Success: false}, nil
		}
		anchoringTotal.WithLabelValues("already_anchored").Inc()
		return &AnchorResult{Success: true, TransactionID: winner.TransactionID.String}, nil

	case errors.Is(err, database.ErrNotFound):
		anchoringTotal.WithLabelValues("not_found").Inc()
		return &AnchorResult{Success: false}, nil

	default:
		anchoringTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Failed to anchor certificate", zap.String("id", id), zap.Error(err))
		return nil, &AnchoringFailedError{CertificateID: id, Err: err}
	}
}

// anchorTime keeps the audit trail non-decreasing even if the clock stepped back
func (s *AnchorService) anchorTime(trail []models.AuditEntry) time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if n := len(trail); n > 0 && now.Before(trail[n-1].Timestamp) {
		return trail[n-1].Timestamp
	}
	return now
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
