package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cab-basket/socios-api/internal/models"
)

// DocumentRepository manages stored file metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts document metadata after the file has been written to storage.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, level, type, member_id, athlete_id, filename, file_path, mime_type, size_bytes, uploaded_by, created_at)
        VALUES (:id, :level, :type, :member_id, :athlete_id, :filename, :file_path, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID fetches a document, including soft-deleted rows so callers can
// distinguish "gone" from "never existed".
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, level, type, member_id, athlete_id, filename, file_path, mime_type, size_bytes, uploaded_by, created_at, deleted_at
        FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns live documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	args := []interface{}{}
	conditions := []string{"deleted_at IS NULL"}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.AthleteID != "" {
		conditions = append(conditions, fmt.Sprintf("athlete_id = $%d", len(args)+1))
		args = append(args, filter.AthleteID)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	query := fmt.Sprintf(`SELECT id, level, type, member_id, athlete_id, filename, file_path, mime_type, size_bytes, uploaded_by, created_at, deleted_at
        FROM documents WHERE %s ORDER BY created_at DESC`, strings.Join(conditions, " AND "))

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// SoftDelete marks a document deleted without touching the stored file.
func (r *DocumentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE documents SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	return nil
}
