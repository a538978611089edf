package service

import (
	"context"

	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
)

// CertificateStore is the persistence used by the certificate lifecycle.
// *database.Database implements it.
type CertificateStore interface {
	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	FindCertificate(ctx context.Context, id string) (*models.Certificate, bool, error)
	AnchorCertificate(ctx context.Context, id string, patch database.AnchorPatch) error
}

// StatsStore is the persistence of the aggregate impact counters
type StatsStore interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	MutateStats(ctx context.Context, fn database.StatsMutation) (*models.Stats, error)
	ListWipeEvents(ctx context.Context) ([]*models.WipeEvent, error)
}

var (
	_ CertificateStore = (*database.Database)(nil)
	_ StatsStore       = (*database.Database)(nil)
)
