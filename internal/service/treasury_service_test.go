package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
	"github.com/cab-basket/socios-api/pkg/jobs"
	"github.com/cab-basket/socios-api/pkg/storage"
)

type mockExportJobs struct {
	jobs map[string]*models.ExportJob
	seq  int
}

func newMockExportJobs() *mockExportJobs {
	return &mockExportJobs{jobs: map[string]*models.ExportJob{}}
}

func (m *mockExportJobs) Create(ctx context.Context, job *models.ExportJob) error {
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	job.CreatedAt = time.Now().UTC()
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobs) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return job, nil
}

func (m *mockExportJobs) MarkRunning(ctx context.Context, id string) error {
	m.jobs[id].Status = models.ExportRunning
	return nil
}

func (m *mockExportJobs) MarkCompleted(ctx context.Context, id, filePath string, at time.Time) error {
	job := m.jobs[id]
	job.Status = models.ExportCompleted
	job.FilePath = &filePath
	job.CompletedAt = &at
	job.Error = nil
	return nil
}

func (m *mockExportJobs) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	job := m.jobs[id]
	job.Status = models.ExportFailed
	job.Error = &reason
	job.CompletedAt = &at
	return nil
}

func (m *mockExportJobs) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	return nil, nil
}

type mockExportStorage struct {
	files   map[string][]byte
	deleted []string
}

func newMockExportStorage() *mockExportStorage {
	return &mockExportStorage{files: map[string][]byte{}}
}

func (m *mockExportStorage) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	return filename, nil
}

func (m *mockExportStorage) Open(filename string) (*os.File, error) {
	data, ok := m.files[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	file, err := os.CreateTemp("", "export-test-*")
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

func (m *mockExportStorage) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	delete(m.files, filename)
	return nil
}

func (m *mockExportStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

type mockQueue struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.data = map[string][]byte{}
	return nil
}

type treasuryFixture struct {
	payments *mockPaymentRepo
	exports  *mockExportJobs
	queue    *mockQueue
	storage  *mockExportStorage
	signer   *storage.SignedURLSigner
	cache    *memoryCacheRepo
	audit    *mockAuditTrail
	svc      *TreasuryService
}

func newTreasuryFixture() *treasuryFixture {
	f := &treasuryFixture{
		payments: newMockPaymentRepo(),
		exports:  newMockExportJobs(),
		queue:    &mockQueue{},
		storage:  newMockExportStorage(),
		signer:   storage.NewSignedURLSigner("secret", time.Hour),
		cache:    newMemoryCacheRepo(),
		audit:    &mockAuditTrail{},
	}
	cacheSvc := NewCacheService(f.cache, nil, time.Minute, zap.NewNop(), true)
	f.svc = NewTreasuryService(f.payments, f.exports, f.queue, f.storage, f.signer, cacheSvc, f.audit, zap.NewNop(), TreasuryServiceConfig{})
	return f
}

func (f *treasuryFixture) seed(amount float64, proof, validated bool) {
	f.payments.seq++
	id := fmt.Sprintf("tp-%d", f.payments.seq)
	memberID := "m-1"
	detail := &models.PaymentDetail{Payment: models.Payment{
		ID:          id,
		Level:       models.LevelMember,
		MemberID:    &memberID,
		Description: "Quota",
		Amount:      amount,
	}}
	if proof {
		docID := "doc-" + id
		detail.ProofDocumentID = &docID
	}
	if validated {
		v := true
		detail.Validated = &v
	}
	f.payments.payments[id] = detail
}

func TestTreasurySummaryAggregates(t *testing.T) {
	f := newTreasuryFixture()
	f.seed(30, false, false)
	f.seed(45, true, false)
	f.seed(100, true, true)

	summary, err := f.svc.Summary(context.Background(), staffClaims())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPayments)
	assert.InDelta(t, 175.0, summary.TotalAmount, 0.001)
	assert.Equal(t, 1, summary.ByStatus[rules.StatusNotRegularized])
	assert.Equal(t, 1, summary.ByStatus[rules.StatusPendingValidation])
	assert.Equal(t, 1, summary.ByStatus[rules.StatusRegularized])
	assert.Equal(t, 1, summary.PendingReview)
	assert.InDelta(t, 100.0, summary.AmountByStatus[rules.StatusRegularized], 0.001)
	assert.Contains(t, summary.TotalAmountLabel, "€")
}

func TestTreasurySummaryServedFromCache(t *testing.T) {
	f := newTreasuryFixture()
	f.seed(30, false, false)

	first, err := f.svc.Summary(context.Background(), staffClaims())
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalPayments)

	// a new payment is invisible until the cache is invalidated
	f.seed(45, false, false)
	second, err := f.svc.Summary(context.Background(), staffClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalPayments)

	require.NoError(t, f.cache.DeleteByPattern(context.Background(), TreasuryCachePattern))
	third, err := f.svc.Summary(context.Background(), staffClaims())
	require.NoError(t, err)
	assert.Equal(t, 2, third.TotalPayments)
}

func TestTreasurySummaryForbiddenForMembers(t *testing.T) {
	f := newTreasuryFixture()

	_, err := f.svc.Summary(context.Background(), memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTreasuryRequestExport(t *testing.T) {
	f := newTreasuryFixture()

	resp, err := f.svc.RequestExport(context.Background(), dto.TreasuryExportRequest{Format: "csv"}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ExportPending, resp.Job.Status)
	assert.Equal(t, models.ExportCSV, resp.Job.Format)
	assert.Empty(t, resp.DownloadURL)

	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, resp.Job.ID, f.queue.enqueued[0].ID)
	assert.Equal(t, "treasury_export", f.queue.enqueued[0].Type)

	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionExportRequest, f.audit.logs[0].Action)
}

func TestTreasuryRequestExportUnsupportedFormat(t *testing.T) {
	f := newTreasuryFixture()

	_, err := f.svc.RequestExport(context.Background(), dto.TreasuryExportRequest{Format: "XML"}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTreasuryRequestExportEnqueueFailure(t *testing.T) {
	f := newTreasuryFixture()
	f.queue.err = os.ErrClosed

	_, err := f.svc.RequestExport(context.Background(), dto.TreasuryExportRequest{Format: "PDF"}, staffClaims())
	require.Error(t, err)

	require.Len(t, f.exports.jobs, 1)
	for _, job := range f.exports.jobs {
		assert.Equal(t, models.ExportFailed, job.Status)
	}
}

func TestTreasuryGetExportAttachesSignedURL(t *testing.T) {
	f := newTreasuryFixture()
	filePath := "tesouraria_20260101_000000.csv"
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportCSV, Status: models.ExportCompleted, FilePath: &filePath}

	resp, err := f.svc.GetExport(context.Background(), "job-1", staffClaims())
	require.NoError(t, err)
	assert.Contains(t, resp.DownloadURL, "/api/v1/treasury/exports/job-1/download?token=")
}

func TestTreasuryResolveDownload(t *testing.T) {
	f := newTreasuryFixture()
	filePath := "tesouraria_20260101_000000.csv"
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportCSV, Status: models.ExportCompleted, FilePath: &filePath}
	f.storage.files[filePath] = []byte("Pagador\n")

	token, _, err := f.signer.Generate("job-1", filePath)
	require.NoError(t, err)

	download, err := f.svc.ResolveDownload(context.Background(), "job-1", token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, filePath, download.Filename)
	assert.Equal(t, models.ExportCSV, download.Format)
}

func TestTreasuryResolveDownloadTokenMismatch(t *testing.T) {
	f := newTreasuryFixture()
	filePath := "tesouraria_20260101_000000.csv"
	otherPath := "tesouraria_other.csv"
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportCSV, Status: models.ExportCompleted, FilePath: &filePath}

	token, _, err := f.signer.Generate("job-1", otherPath)
	require.NoError(t, err)

	_, err = f.svc.ResolveDownload(context.Background(), "job-1", token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTreasuryExportWorkerCompletesCSV(t *testing.T) {
	f := newTreasuryFixture()
	f.seed(30, false, false)
	f.seed(45, true, true)

	params, _ := json.Marshal(exportParams{Format: "CSV"})
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportCSV, Status: models.ExportPending, Params: params}

	worker := NewTreasuryExportWorker(f.exports, f.payments, f.storage, 3, zap.NewNop(), nil, nil)
	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := f.exports.jobs["job-1"]
	assert.Equal(t, models.ExportCompleted, job.Status)
	require.NotNil(t, job.FilePath)
	assert.True(t, strings.HasPrefix(*job.FilePath, "tesouraria_"))

	content := string(f.storage.files[*job.FilePath])
	assert.Contains(t, content, "Pagador")
	assert.Contains(t, content, "Quota")
}

func TestTreasuryExportWorkerFiltersByStatus(t *testing.T) {
	f := newTreasuryFixture()
	f.seed(30, false, false)
	f.seed(45, true, true)

	params, _ := json.Marshal(exportParams{Format: "CSV", Status: string(rules.StatusRegularized)})
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportCSV, Status: models.ExportPending, Params: params}

	worker := NewTreasuryExportWorker(f.exports, f.payments, f.storage, 3, zap.NewNop(), nil, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))

	content := string(f.storage.files[*f.exports.jobs["job-1"].FilePath])
	assert.Contains(t, content, "Regularizado")
	assert.NotContains(t, content, "Por regularizar")
}

func TestTreasuryExportWorkerMarksFailedAfterRetries(t *testing.T) {
	f := newTreasuryFixture()
	f.exports.jobs["job-1"] = &models.ExportJob{ID: "job-1", Format: models.ExportFormat("XML"), Status: models.ExportPending}

	worker := NewTreasuryExportWorker(f.exports, f.payments, f.storage, 2, zap.NewNop(), nil, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportRunning, f.exports.jobs["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportFailed, f.exports.jobs["job-1"].Status)
	require.NotNil(t, f.exports.jobs["job-1"].Error)
}
