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

// AthleteRepository manages persistence for athlete records.
type AthleteRepository struct {
	db *sqlx.DB
}

// NewAthleteRepository constructs an AthleteRepository.
func NewAthleteRepository(db *sqlx.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

// List returns athletes matching the provided filters.
func (r *AthleteRepository) List(ctx context.Context, filter models.AthleteFilter) ([]models.Athlete, int, error) {
	base := "FROM athletes a"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("a.member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("a.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(a.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "a.full_name",
		"birth_date": "a.birth_date",
		"category":   "a.category",
		"created_at": "a.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "a.created_at"
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

	query := fmt.Sprintf(`SELECT a.id, a.member_id, a.full_name, a.gender, a.birth_date, a.category, a.payment_plan, a.guardian_name, a.guardian_contact, a.active, a.created_at, a.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var athletes []models.Athlete
	if err := r.db.SelectContext(ctx, &athletes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list athletes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(a.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count athletes: %w", err)
	}
	return athletes, total, nil
}

// ListByMember returns the household's active athletes, eldest first. The
// ordering feeds the Pro discount ranking.
func (r *AthleteRepository) ListByMember(ctx context.Context, memberID string) ([]models.Athlete, error) {
	const query = `SELECT id, member_id, full_name, gender, birth_date, category, payment_plan, guardian_name, guardian_contact, active, created_at, updated_at
        FROM athletes WHERE member_id = $1 AND active = true ORDER BY birth_date ASC, created_at ASC`
	var athletes []models.Athlete
	if err := r.db.SelectContext(ctx, &athletes, query, memberID); err != nil {
		return nil, fmt.Errorf("list household athletes: %w", err)
	}
	return athletes, nil
}

// FindByID fetches an athlete by ID.
func (r *AthleteRepository) FindByID(ctx context.Context, id string) (*models.Athlete, error) {
	const query = `SELECT id, member_id, full_name, gender, birth_date, category, payment_plan, guardian_name, guardian_contact, active, created_at, updated_at
        FROM athletes WHERE id = $1`
	var athlete models.Athlete
	if err := r.db.GetContext(ctx, &athlete, query, id); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// Create inserts a new athlete record.
func (r *AthleteRepository) Create(ctx context.Context, athlete *models.Athlete) error {
	if athlete.ID == "" {
		athlete.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if athlete.CreatedAt.IsZero() {
		athlete.CreatedAt = now
	}
	athlete.UpdatedAt = now
	const query = `INSERT INTO athletes (id, member_id, full_name, gender, birth_date, category, payment_plan, guardian_name, guardian_contact, active, created_at, updated_at)
        VALUES (:id, :member_id, :full_name, :gender, :birth_date, :category, :payment_plan, :guardian_name, :guardian_contact, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, athlete); err != nil {
		return fmt.Errorf("create athlete: %w", err)
	}
	return nil
}

// Update modifies an existing athlete.
func (r *AthleteRepository) Update(ctx context.Context, athlete *models.Athlete) error {
	athlete.UpdatedAt = time.Now().UTC()
	const query = `UPDATE athletes SET full_name = :full_name, gender = :gender, birth_date = :birth_date, category = :category, payment_plan = :payment_plan, guardian_name = :guardian_name, guardian_contact = :guardian_contact, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, athlete); err != nil {
		return fmt.Errorf("update athlete: %w", err)
	}
	return nil
}

// Delete removes an athlete record. Removal is an explicit user action, so
// this is a hard delete.
func (r *AthleteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM athletes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete athlete: %w", err)
	}
	return nil
}
