package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/MK-codes365/greenwipe/internal/llm"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a test database with migrations
func setupTestDB(t *testing.T) (*database.Database, *config.Config) {
	dbPath := t.TempDir() + "/test.db"

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: dbPath,
			},
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret-12345",
			Expiration: 24 * time.Hour,
			Issuer:     "greenwipe-test",
		},
		Anchoring: config.AnchoringConfig{
			Delay:     0,
			Timeout:   5 * time.Second,
			Workers:   2,
			QueueSize: 10,
		},
	}

	db, err := database.New(cfg)
	require.NoError(t, err, "Failed to create test database")

	err = db.Migrate()
	require.NoError(t, err, "Failed to run migrations")

	t.Cleanup(func() { db.Close() })
	return db, cfg
}

func demoRequest() *CreateCertificateRequest {
	return &CreateCertificateRequest{
		ItemName:   "demo.txt",
		ItemSize:   "1.00 KB",
		ClientName: "Acme",
		WipeMethod: "NIST SP 800-88 Purge",
		UserID:     "u1",
	}
}

// mockStore is a testify mock of CertificateStore
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *mockStore) FindCertificate(ctx context.Context, id string) (*models.Certificate, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Certificate), args.Bool(1), args.Error(2)
}

func (m *mockStore) AnchorCertificate(ctx context.Context, id string, patch database.AnchorPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

// fixedIDs returns the given ids in order
type fixedIDs struct {
	mu  sync.Mutex
	ids []string
}

func (f *fixedIDs) next() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id
}

// stubTxIDs hands out predictable transaction ids
type stubTxIDs struct {
	mu sync.Mutex
	n  int
}

func (s *stubTxIDs) NewTransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	id := []byte("0x0000000000000000000000000000000000000000000000000000000000000000")
	id[len(id)-1] = byte('0' + s.n%10)
	return string(id)
}

func (s *stubTxIDs) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// fakeCompleter returns a canned response and counts calls
type fakeCompleter struct {
	mu       sync.Mutex
	resp     *llm.ChatResponse
	err      error
	requests []llm.ChatRequest
}

func (f *fakeCompleter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

// countingCreator records every request it receives
type countingCreator struct {
	mu       sync.Mutex
	requests []*CreateCertificateRequest
	err      error
}

func (c *countingCreator) Create(ctx context.Context, req *CreateCertificateRequest) (*CreateCertificateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &CreateCertificateResult{CertificateID: "cert-1"}, nil
}

// recordingScheduler collects enqueued ids
type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) Enqueue(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return true
}
