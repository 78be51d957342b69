package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
	"github.com/cab-basket/socios-api/pkg/export"
	"github.com/cab-basket/socios-api/pkg/jobs"
	"github.com/cab-basket/socios-api/pkg/storage"
)

const treasurySummaryKey = "treasury:summary"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// exportParams is the filter snapshot persisted with each export job.
type exportParams struct {
	Format string `json:"format"`
	Level  string `json:"level,omitempty"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// TreasuryServiceConfig tunes caching and export retention.
type TreasuryServiceConfig struct {
	CacheTTL        time.Duration
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	APIPrefix       string
}

// ExportDownload bundles the open export file with response metadata.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// TreasuryService drives the staff console: the cross-household payment
// summary and asynchronous CSV/PDF exports.
type TreasuryService struct {
	payments paymentRepository
	exports  exportJobStore
	queue    jobDispatcher
	storage  exportFileStorage
	signer   *storage.SignedURLSigner
	cache    *CacheService
	audit    auditLogger
	logger   *zap.Logger
	cfg      TreasuryServiceConfig
}

// NewTreasuryService constructs a TreasuryService.
func NewTreasuryService(payments paymentRepository, exports exportJobStore, queue jobDispatcher, fileStore exportFileStorage, signer *storage.SignedURLSigner, cache *CacheService, audit auditLogger, logger *zap.Logger, cfg TreasuryServiceConfig) *TreasuryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &TreasuryService{
		payments: payments,
		exports:  exports,
		queue:    queue,
		storage:  fileStore,
		signer:   signer,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
	}
}

// Summary aggregates headline numbers for the console. The result is cached
// and invalidated whenever a payment mutates.
func (s *TreasuryService) Summary(ctx context.Context, actor *models.JWTClaims) (*dto.TreasurySummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.StaffRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}

	var cached dto.TreasurySummary
	if hit, err := s.cache.Get(ctx, treasurySummaryKey, &cached); err == nil && hit {
		return &cached, nil
	}

	all, err := s.payments.ListAll(ctx, models.PaymentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	now := time.Now()
	summary := dto.TreasurySummary{
		ByStatus:       map[rules.PaymentStatus]int{},
		AmountByStatus: map[rules.PaymentStatus]float64{},
		GeneratedAt:    now.UTC().Format(time.RFC3339),
	}
	for i := range all {
		status := all[i].Status(now)
		summary.TotalPayments++
		summary.TotalAmount += all[i].Amount
		summary.ByStatus[status]++
		summary.AmountByStatus[status] += all[i].Amount
	}
	summary.PendingReview = summary.ByStatus[rules.StatusPendingValidation]
	summary.TotalAmountLabel = rules.FormatEUR(summary.TotalAmount)

	if err := s.cache.Set(ctx, treasurySummaryKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache treasury summary", zap.Error(err))
	}
	return &summary, nil
}

// RequestExport persists a pending job and enqueues it.
func (s *TreasuryService) RequestExport(ctx context.Context, req dto.TreasuryExportRequest, actor *models.JWTClaims) (*dto.TreasuryExportResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.StaffRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	format := models.ExportFormat(strings.ToUpper(req.Format))
	if !models.ValidExportFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	params, err := json.Marshal(exportParams{
		Format: string(format),
		Level:  req.Level,
		Status: req.Status,
		Search: req.Search,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode export params")
	}

	job := &models.ExportJob{
		Format:      format,
		Status:      models.ExportPending,
		Params:      params,
		RequestedBy: actor.UserID,
	}
	if err := s.exports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "treasury_export"}); err != nil {
		now := time.Now().UTC()
		if markErr := s.exports.MarkFailed(ctx, job.ID, "failed to enqueue", now); markErr != nil {
			s.logger.Warn("failed to mark export failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionExportRequest,
			Resource:   "export_job",
			ResourceID: &job.ID,
			NewValues:  params,
		}); err != nil {
			s.logger.Warn("failed to record export audit log", zap.Error(err))
		}
	}

	return &dto.TreasuryExportResponse{Job: *job}, nil
}

// GetExport reports job state and, once completed, attaches a signed URL.
func (s *TreasuryService) GetExport(ctx context.Context, id string, actor *models.JWTClaims) (*dto.TreasuryExportResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.StaffRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	job, err := s.exports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	resp := &dto.TreasuryExportResponse{Job: *job}
	if job.Status == models.ExportCompleted && job.FilePath != nil && s.signer != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		base := strings.TrimRight(s.cfg.APIPrefix, "/")
		resp.DownloadURL = fmt.Sprintf("%s/treasury/exports/%s/download?token=%s", base, job.ID, token)
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the rendered file.
func (s *TreasuryService) ResolveDownload(ctx context.Context, id, token string) (*ExportDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.exports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if jobID != job.ID || job.FilePath == nil || relPath != *job.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportCompleted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *TreasuryService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *TreasuryService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	paths, err := s.exports.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.storage.Delete(path); err != nil {
			s.logger.Sugar().Warnw("export cleanup delete failed", "path", path, "error", err)
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

// TreasuryExportWorker bridges queue jobs to dataset rendering.
type TreasuryExportWorker struct {
	exports    exportJobStore
	payments   paymentRepository
	storage    exportFileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	maxRetries int
}

// NewTreasuryExportWorker constructs a worker.
func NewTreasuryExportWorker(exports exportJobStore, payments paymentRepository, fileStore exportFileStorage, maxRetries int, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *TreasuryExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TreasuryExportWorker{
		exports:    exports,
		payments:   payments,
		storage:    fileStore,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes one export job.
func (w *TreasuryExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.exports.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := w.exports.MarkRunning(ctx, record.ID); err != nil {
		return err
	}

	relPath, err := w.generate(ctx, record)
	if err != nil {
		if job.Attempt >= w.maxRetries {
			now := time.Now().UTC()
			if markErr := w.exports.MarkFailed(ctx, record.ID, err.Error(), now); markErr != nil {
				w.logger.Sugar().Warnw("failed to mark export failed", "job_id", record.ID, "error", markErr)
			}
		}
		return err
	}

	if err := w.exports.MarkCompleted(ctx, record.ID, relPath, time.Now().UTC()); err != nil {
		w.logger.Sugar().Warnw("failed to mark export completed", "job_id", record.ID, "error", err)
		return err
	}
	return nil
}

func (w *TreasuryExportWorker) generate(ctx context.Context, record *models.ExportJob) (string, error) {
	var params exportParams
	if len(record.Params) > 0 {
		if err := json.Unmarshal(record.Params, &params); err != nil {
			return "", fmt.Errorf("decode export params: %w", err)
		}
	}

	filter := models.PaymentFilter{Level: params.Level, Search: params.Search}
	rows, err := w.payments.ListAll(ctx, filter)
	if err != nil {
		return "", err
	}

	now := time.Now()
	statusFilter := rules.PaymentStatus(params.Status)
	dataRows := make([]map[string]string, 0, len(rows))
	for i := range rows {
		status := rows[i].Status(now)
		if statusFilter != "" && status != statusFilter {
			continue
		}
		dataRows = append(dataRows, map[string]string{
			"Pagador":      rows[i].PayerName,
			"Nível":        string(rows[i].Level),
			"Descrição":    rows[i].Description,
			"Valor":        rules.FormatEUR(rows[i].Amount),
			"Vencimento":   formatExportDate(rows[i].DueDate),
			"Estado":       rules.StatusLabel(status),
			"Validado por": derefString(rows[i].ValidatedBy),
			"Criado em":    rows[i].CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Pagador", "Nível", "Descrição", "Valor", "Vencimento", "Estado", "Validado por", "Criado em"},
		Rows:    dataRows,
	}

	var payload []byte
	switch record.Format {
	case models.ExportCSV:
		payload, err = w.csv.Render(dataset)
	case models.ExportPDF:
		payload, err = w.pdf.Render(dataset, "Tesouraria")
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		return "", err
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("tesouraria_%s.%s", timestamp, strings.ToLower(string(record.Format)))
	return w.storage.Save(filename, payload)
}

func formatExportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
