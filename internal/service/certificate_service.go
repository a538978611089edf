package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Verification messages
const (
	MessageVerified = "Certificate verified successfully."
	MessageNotFound = "Certificate not found. Please check the ID and try again."
)

// AnonymousUserID is recorded when a certificate is created without a signed-in user
const AnonymousUserID = "anonymous"

// CertificateCreator creates certificates. CertificateService is the
// deterministic implementation and AssistedCreator decorates it.
type CertificateCreator interface {
	Create(ctx context.Context, req *CreateCertificateRequest) (*CreateCertificateResult, error)
}

// WipeRecorder receives one call per created certificate
type WipeRecorder interface {
	RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error)
}

// AnchorScheduler queues certificates for background anchoring
type AnchorScheduler interface {
	Enqueue(id string) bool
}

// CreateCertificateRequest represents a request to create a certificate
type CreateCertificateRequest struct {
	ItemName   string
	ItemSize   string
	ClientName string
	WipeMethod string
	UserID     string
}

func (r *CreateCertificateRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.ItemName) == "" {
		missing = append(missing, "itemName")
	}
	if strings.TrimSpace(r.ItemSize) == "" {
		missing = append(missing, "itemSize")
	}
	if strings.TrimSpace(r.ClientName) == "" {
		missing = append(missing, "clientName")
	}
	if strings.TrimSpace(r.WipeMethod) == "" {
		missing = append(missing, "wipeMethod")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// CreateCertificateResult is returned by a successful creation
type CreateCertificateResult struct {
	CertificateID string `json:"certificateId"`
}

// VerificationResult is the outcome of a lookup
type VerificationResult struct {
	Found       bool                `json:"found"`
	Message     string              `json:"message"`
	Certificate *CertificatePayload `json:"certificate,omitempty"`
}

// ReportDownload is a rendered report ready to be served
type ReportDownload struct {
	CertificateID string
	ItemName      string
	Content       []byte
}

// CertificateOption configures a CertificateService
type CertificateOption func(*CertificateService)

// WithWipeRecorder records every creation in the impact statistics
func WithWipeRecorder(r WipeRecorder) CertificateOption {
	return func(s *CertificateService) { s.recorder = r }
}

// WithAnchorScheduler queues every new certificate for background anchoring
func WithAnchorScheduler(a AnchorScheduler) CertificateOption {
	return func(s *CertificateService) { s.scheduler = a }
}

// WithDownloadRecorder counts report downloads
func WithDownloadRecorder(r DownloadRecorder) CertificateOption {
	return func(s *CertificateService) { s.downloads = r }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(fn func() string) CertificateOption {
	return func(s *CertificateService) { s.newID = fn }
}

// WithClock replaces the wall clock
func WithClock(fn func() time.Time) CertificateOption {
	return func(s *CertificateService) { s.now = fn }
}

// DownloadRecorder receives one call per served report
type DownloadRecorder interface {
	RecordDownload(ctx context.Context) (*models.Stats, error)
}

// CertificateService handles certificate creation and verification
type CertificateService struct {
	store     CertificateStore
	recorder  WipeRecorder
	downloads DownloadRecorder
	scheduler AnchorScheduler
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger
}

// NewCertificateService creates a new certificate service
func NewCertificateService(store CertificateStore, logger *zap.Logger, opts ...CertificateOption) *CertificateService {
	s := &CertificateService{
		store:  store,
		newID:  uuid.NewString,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds and persists a new unanchored certificate. A duplicate id is
// regenerated once before the creation fails.
func (s *CertificateService) Create(ctx context.Context, req *CreateCertificateRequest) (*CreateCertificateResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		r := *req
		r.UserID = AnonymousUserID
		req = &r
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		cert, err := s.assemble(req)
		if err != nil {
			certificateCreationFailuresTotal.Inc()
			return nil, &CreationFailedError{Err: err}
		}

		err = s.store.CreateCertificate(ctx, cert)
		if err == nil {
			s.afterCreate(ctx, cert)
			return &CreateCertificateResult{CertificateID: cert.ID}, nil
		}
		if !errors.Is(err, database.ErrDuplicateID) {
			certificateCreationFailuresTotal.Inc()
			return nil, &CreationFailedError{Err: err}
		}

		s.logger.Warn("Certificate id collision, regenerating", zap.String("id", cert.ID), zap.Int("attempt", attempt+1))
		lastErr = err
	}

	certificateCreationFailuresTotal.Inc()
	return nil, &CreationFailedError{Err: lastErr}
}

// assemble builds the certificate with its creation audit entries and report
func (s *CertificateService) assemble(req *CreateCertificateRequest) (*models.Certificate, error) {
	id := s.newID()
	now := s.now().UTC().Truncate(time.Millisecond)

	cert := &models.Certificate{
		ID:                 id,
		UserID:             req.UserID,
		ItemName:           req.ItemName,
		ItemSize:           req.ItemSize,
		ClientName:         req.ClientName,
		WipeMethod:         req.WipeMethod,
		WipeCompletionDate: now,
		VerificationMethod: VerificationMethod,
		AuditTrail: []models.AuditEntry{
			{Timestamp: now.Add(-5 * time.Second), Event: fmt.Sprintf("Wipe process initiated for %s.", req.ItemName)},
			{Timestamp: now.Add(-1 * time.Second), Event: fmt.Sprintf("Wipe completed using %s.", req.WipeMethod)},
			{Timestamp: now, Event: fmt.Sprintf("Certificate %s created.", id)},
		},
		CreatedAt: now,
	}

	report, err := renderReport(cert)
	if err != nil {
		return nil, err
	}
	cert.ReportJSON = report
	return cert, nil
}

func (s *CertificateService) afterCreate(ctx context.Context, cert *models.Certificate) {
	certificatesCreatedTotal.Inc()
	s.logger.Info("Certificate created",
		zap.String("id", cert.ID),
		zap.String("item", cert.ItemName),
		zap.String("wipe_method", cert.WipeMethod),
	)

	// Committed certificates are counted even after the client went away
	if s.recorder != nil {
		if _, err := s.recorder.RecordWipe(context.WithoutCancel(ctx), cert.WipeMethod, cert.ID); err != nil {
			s.logger.Error("Failed to record wipe statistics", zap.String("id", cert.ID), zap.Error(err))
		}
	}

	if s.scheduler != nil && !s.scheduler.Enqueue(cert.ID) {
		s.logger.Warn("Anchor queue rejected certificate", zap.String("id", cert.ID))
	}
}

// Verify looks up a certificate. A missing id is a normal result; only storage
// faults are returned as errors.
func (s *CertificateService) Verify(ctx context.Context, id string) (*VerificationResult, error) {
	cert, found, err := s.store.FindCertificate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}
	if !found {
		return &VerificationResult{Found: false, Message: MessageNotFound}, nil
	}

	return &VerificationResult{
		Found:       true,
		Message:     MessageVerified,
		Certificate: NewCertificatePayload(cert),
	}, nil
}

// DownloadReport returns the stored report of a certificate and counts the download
func (s *CertificateService) DownloadReport(ctx context.Context, id string) (*ReportDownload, error) {
	cert, found, err := s.store.FindCertificate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}
	if !found {
		return nil, ErrCertificateNotFound
	}

	if s.downloads != nil {
		if _, err := s.downloads.RecordDownload(ctx); err != nil {
			s.logger.Error("Failed to record report download", zap.String("id", id), zap.Error(err))
		}
	}

	return &ReportDownload{
		CertificateID: cert.ID,
		ItemName:      cert.ItemName,
		Content:       []byte(cert.ReportJSON),
	}, nil
}
