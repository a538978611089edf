package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// envelope mirrors Response with raw data for decoding in tests
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewReader([]byte(raw))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// MockCertificateReader is a mock implementation of CertificateReader
type MockCertificateReader struct {
	mock.Mock
}

func (m *MockCertificateReader) Verify(ctx context.Context, id string) (*service.VerificationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationResult), args.Error(1)
}

func (m *MockCertificateReader) DownloadReport(ctx context.Context, id string) (*service.ReportDownload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportDownload), args.Error(1)
}

// MockCreator is a mock implementation of service.CertificateCreator
type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) Create(ctx context.Context, req *service.CreateCertificateRequest) (*service.CreateCertificateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateCertificateResult), args.Error(1)
}

// MockAnchorer is a mock implementation of service.Anchorer
type MockAnchorer struct {
	mock.Mock
}

func (m *MockAnchorer) Anchor(ctx context.Context, id string) (*service.AnchorResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnchorResult), args.Error(1)
}

// MockScheduler is a mock implementation of service.AnchorScheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Enqueue(id string) bool {
	return m.Called(id).Bool(0)
}

// MockStats is a mock implementation of StatsProvider
type MockStats struct {
	mock.Mock
}

func (m *MockStats) GetStats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *MockStats) RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error) {
	args := m.Called(ctx, wipeMethod, certificateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *MockStats) Reset(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *MockStats) ListWipeEvents(ctx context.Context) ([]service.WipeEventPayload, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.WipeEventPayload), args.Error(1)
}

// MockSuggester is a mock implementation of Suggester
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggest(ctx context.Context, req *service.SuggestionRequest) (*service.Suggestion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Suggestion), args.Error(1)
}

// MockUserService is a mock implementation of SetupService and Authenticator
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) IsSetupComplete(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) PerformInitialSetup(ctx context.Context, req *service.SetupRequest) (*service.SetupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SetupResponse), args.Error(1)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
