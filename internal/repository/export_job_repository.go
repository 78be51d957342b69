package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cab-basket/socios-api/internal/models"
)

// ExportJobRepository tracks asynchronous treasury export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs an ExportJobRepository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a pending export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportPending
	}
	const query = `INSERT INTO export_jobs (id, format, status, params, file_path, error, requested_by, created_at, completed_at)
        VALUES (:id, :format, :status, :params, :file_path, :error, :requested_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID fetches an export job.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, format, status, params, file_path, error, requested_by, created_at, completed_at
        FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning transitions a job to RUNNING.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportRunning); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}
	return nil
}

// MarkCompleted records the rendered file and completion time.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath string, at time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, completed_at = $4, error = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportCompleted, filePath, at); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportFailed, reason, at); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes finished jobs past the retention window.
func (r *ExportJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `DELETE FROM export_jobs
        WHERE status IN ($1, $2) AND completed_at IS NOT NULL AND completed_at < $3
        RETURNING COALESCE(file_path, '')`
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, query, models.ExportCompleted, models.ExportFailed, cutoff); err != nil {
		return nil, fmt.Errorf("delete stale export jobs: %w", err)
	}
	return paths, nil
}
