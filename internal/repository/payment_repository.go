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

// PaymentRepository manages persistence for treasury payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `p.id, p.level, p.member_id, p.athlete_id, p.description, p.amount, p.proof_document_id, p.validated, p.validated_by, p.validated_at, p.due_date, p.created_at, p.updated_at,
        COALESCE(a.full_name, m.full_name, '') AS payer_name, m.full_name AS member_name, a.full_name AS athlete_name`

const paymentJoins = `FROM payments p
        LEFT JOIN members m ON m.id = p.member_id
        LEFT JOIN athletes a ON a.id = p.athlete_id`

func paymentConditions(filter models.PaymentFilter) ([]string, []interface{}) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("p.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("(p.member_id = $%d OR a.member_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.AthleteID != "" {
		conditions = append(conditions, fmt.Sprintf("p.athlete_id = $%d", len(args)+1))
		args = append(args, filter.AthleteID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.description) LIKE $%d OR LOWER(COALESCE(a.full_name, m.full_name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	return conditions, args
}

// List returns payment rows matching the filters with SQL-side pagination.
// The derived-status filter is applied by the service layer, which uses
// ListAll when a status filter is present.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	conditions, args := paymentConditions(filter)
	base := fmt.Sprintf("%s WHERE %s", paymentJoins, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"due_date":   "p.due_date",
		"created_at": "p.created_at",
		"amount":     "p.amount",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", paymentColumns, base, column, order, size, offset)

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(p.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// ListAll returns every payment row matching the filters, unpaginated.
func (r *PaymentRepository) ListAll(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error) {
	conditions, args := paymentConditions(filter)
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY p.created_at DESC", paymentColumns, paymentJoins, strings.Join(conditions, " AND "))

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return payments, nil
}

// FindByID fetches a payment with payer context.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE p.id = $1", paymentColumns, paymentJoins)
	var payment models.PaymentDetail
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, level, member_id, athlete_id, description, amount, proof_document_id, validated, validated_by, validated_at, due_date, created_at, updated_at)
        VALUES (:id, :level, :member_id, :athlete_id, :description, :amount, :proof_document_id, :validated, :validated_by, :validated_at, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SetValidation updates the validated flag and its audit fields.
func (r *PaymentRepository) SetValidation(ctx context.Context, id string, validated bool, validatedBy string, at time.Time) error {
	const query = `UPDATE payments SET validated = $2, validated_by = $3, validated_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, validated, validatedBy, at); err != nil {
		return fmt.Errorf("set payment validation: %w", err)
	}
	return nil
}

// AttachProof links an uploaded proof document and clears any prior
// validation, since new evidence must be re-reviewed.
func (r *PaymentRepository) AttachProof(ctx context.Context, id, documentID string) error {
	const query = `UPDATE payments SET proof_document_id = $2, validated = NULL, validated_by = NULL, validated_at = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, documentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("attach payment proof: %w", err)
	}
	return nil
}

// RemoveProof detaches the proof document reference.
func (r *PaymentRepository) RemoveProof(ctx context.Context, id string) error {
	const query = `UPDATE payments SET proof_document_id = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("remove payment proof: %w", err)
	}
	return nil
}

// Delete removes a payment record. Deletion is an explicit admin action.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM payments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}
