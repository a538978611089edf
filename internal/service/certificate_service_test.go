package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database"
	"github.com/MK-codes365/greenwipe/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCertificateService_Create(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	svc := NewCertificateService(db, zap.NewNop())

	t.Run("New certificate is unanchored with three ordered audit entries", func(t *testing.T) {
		result, err := svc.Create(ctx, demoRequest())
		require.NoError(t, err)
		require.NotEmpty(t, result.CertificateID)

		verified, err := svc.Verify(ctx, result.CertificateID)
		require.NoError(t, err)
		require.True(t, verified.Found)
		assert.Equal(t, MessageVerified, verified.Message)

		payload := verified.Certificate
		assert.Equal(t, result.CertificateID, payload.CertificateID)
		assert.False(t, payload.Anchored)
		assert.Nil(t, payload.TransactionID)
		assert.Equal(t, VerificationMethod, payload.VerificationMethod)

		require.Len(t, payload.AuditTrail, 3)
		assert.Equal(t, "Wipe process initiated for demo.txt.", payload.AuditTrail[0].Event)
		assert.Equal(t, "Wipe completed using NIST SP 800-88 Purge.", payload.AuditTrail[1].Event)
		assert.Equal(t, "Certificate "+result.CertificateID+" created.", payload.AuditTrail[2].Event)
		for i := 1; i < len(payload.AuditTrail); i++ {
			assert.LessOrEqual(t, payload.AuditTrail[i-1].Timestamp, payload.AuditTrail[i].Timestamp)
		}
		assert.Equal(t, payload.AuditTrail[2].Timestamp, payload.WipeCompletionDate)
	})

	t.Run("Every creation gets a fresh id", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			result, err := svc.Create(ctx, demoRequest())
			require.NoError(t, err)
			assert.False(t, seen[result.CertificateID])
			seen[result.CertificateID] = true
		}
	})

	t.Run("Report reflects the unanchored certificate", func(t *testing.T) {
		result, err := svc.Create(ctx, demoRequest())
		require.NoError(t, err)

		verified, err := svc.Verify(ctx, result.CertificateID)
		require.NoError(t, err)

		var report map[string]any
		require.NoError(t, json.Unmarshal([]byte(verified.Certificate.ReportJSON), &report))
		assert.Equal(t, false, report["anchored"])
		assert.Nil(t, report["transactionId"])
		assert.Equal(t, result.CertificateID, report["certificateId"])
		assert.NotContains(t, report, "reportJson")
	})

	t.Run("Missing fields are rejected", func(t *testing.T) {
		req := demoRequest()
		req.WipeMethod = " "
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Contains(t, err.Error(), "wipeMethod")
	})

	t.Run("Empty user id becomes anonymous", func(t *testing.T) {
		req := demoRequest()
		req.UserID = ""
		result, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, req.UserID, "request must not be modified")

		cert, found, err := db.FindCertificate(ctx, result.CertificateID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, AnonymousUserID, cert.UserID)
	})
}

func TestCertificateService_CreateDuplicateID(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	t.Run("Collision is regenerated once", func(t *testing.T) {
		ids := &fixedIDs{ids: []string{"dup-1", "dup-1", "fresh-1"}}
		svc := NewCertificateService(db, zap.NewNop(), WithIDGenerator(ids.next))

		first, err := svc.Create(ctx, demoRequest())
		require.NoError(t, err)
		assert.Equal(t, "dup-1", first.CertificateID)

		second, err := svc.Create(ctx, demoRequest())
		require.NoError(t, err)
		assert.Equal(t, "fresh-1", second.CertificateID)

		cert, found, err := db.FindCertificate(ctx, "fresh-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Certificate fresh-1 created.", cert.AuditTrail[2].Event)
	})

	t.Run("Second collision fails creation", func(t *testing.T) {
		ids := &fixedIDs{ids: []string{"dup-2", "dup-2", "dup-2"}}
		svc := NewCertificateService(db, zap.NewNop(), WithIDGenerator(ids.next))

		_, err := svc.Create(ctx, demoRequest())
		require.NoError(t, err)

		_, err = svc.Create(ctx, demoRequest())
		var creationErr *CreationFailedError
		require.ErrorAs(t, err, &creationErr)
		assert.ErrorIs(t, err, database.ErrDuplicateID)
	})
}

func TestCertificateService_CreateStorageFailure(t *testing.T) {
	store := new(mockStore)
	store.On("CreateCertificate", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	recorder := &recordingScheduler{}
	svc := NewCertificateService(store, zap.NewNop(), WithAnchorScheduler(recorder))

	_, err := svc.Create(context.Background(), demoRequest())
	var creationErr *CreationFailedError
	require.ErrorAs(t, err, &creationErr)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, recorder.ids, "failed creation must not be scheduled")
	store.AssertExpectations(t)
}

func TestCertificateService_CreateSideEffects(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	stats := NewStatsService(db)
	scheduler := &recordingScheduler{}
	svc := NewCertificateService(db, zap.NewNop(),
		WithWipeRecorder(stats),
		WithAnchorScheduler(scheduler),
	)

	result, err := svc.Create(ctx, demoRequest())
	require.NoError(t, err)

	current, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current.TotalWipes)
	assert.Equal(t, result.CertificateID, current.LastCertificateID)
	assert.Equal(t, 1, current.WipeMethodDistribution["NIST SP 800-88 Purge"])

	assert.Equal(t, []string{result.CertificateID}, scheduler.ids)
}

type failingRecorder struct{}

func (failingRecorder) RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error) {
	return nil, errors.New("stats unavailable")
}

// ctxRecorder remembers the context state seen by RecordWipe
type ctxRecorder struct {
	calls int
	err   error
}

func (r *ctxRecorder) RecordWipe(ctx context.Context, wipeMethod, certificateID string) (*models.Stats, error) {
	r.calls++
	r.err = ctx.Err()
	return &models.Stats{}, nil
}

func TestCertificateService_DisconnectAfterCommitStillCountsWipe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := new(mockStore)
	store.On("CreateCertificate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil).Once()

	recorder := &ctxRecorder{}
	svc := NewCertificateService(store, zap.NewNop(), WithWipeRecorder(recorder))

	_, err := svc.Create(ctx, demoRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.calls)
	assert.NoError(t, recorder.err, "wipe recording must not inherit the client's cancellation")
	store.AssertExpectations(t)
}

func TestCertificateService_StatsFailureDoesNotFailCreation(t *testing.T) {
	db, _ := setupTestDB(t)
	svc := NewCertificateService(db, zap.NewNop(), WithWipeRecorder(failingRecorder{}))

	result, err := svc.Create(context.Background(), demoRequest())
	require.NoError(t, err)

	_, found, err := db.FindCertificate(context.Background(), result.CertificateID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCertificateService_Verify(t *testing.T) {
	db, _ := setupTestDB(t)
	svc := NewCertificateService(db, zap.NewNop())

	for _, id := range []string{"never-created", "", "'; DROP TABLE certificates; --", "../../etc/passwd"} {
		result, err := svc.Verify(context.Background(), id)
		require.NoError(t, err, id)
		assert.False(t, result.Found)
		assert.Equal(t, MessageNotFound, result.Message)
		assert.Nil(t, result.Certificate)
	}
}

func TestCertificateService_VerifyStorageFault(t *testing.T) {
	store := new(mockStore)
	store.On("FindCertificate", mock.Anything, "x").Return(nil, false, errors.New("connection reset"))

	svc := NewCertificateService(store, zap.NewNop())
	_, err := svc.Verify(context.Background(), "x")
	assert.Error(t, err)
}

func TestCertificateService_DownloadReport(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	stats := NewStatsService(db)
	svc := NewCertificateService(db, zap.NewNop(), WithDownloadRecorder(stats))

	result, err := svc.Create(ctx, demoRequest())
	require.NoError(t, err)

	download, err := svc.DownloadReport(ctx, result.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "demo.txt", download.ItemName)
	assert.True(t, json.Valid(download.Content))

	current, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current.PDFDownloads)

	_, err = svc.DownloadReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestCertificateService_ClockIsUTCMillis(t *testing.T) {
	db, _ := setupTestDB(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))
	svc := NewCertificateService(db, zap.NewNop(), WithClock(func() time.Time { return fixed }))

	result, err := svc.Create(context.Background(), demoRequest())
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), result.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T11:00:00.123Z", verified.Certificate.WipeCompletionDate)
	assert.Equal(t, "2024-03-01T10:59:55.123Z", verified.Certificate.AuditTrail[0].Timestamp)
	assert.Equal(t, "2024-03-01T10:59:59.123Z", verified.Certificate.AuditTrail[1].Timestamp)
}
