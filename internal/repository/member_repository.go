package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cab-basket/socios-api/internal/models"
)

// MemberRepository manages persistence for household-head records.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs a MemberRepository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// List returns members matching the provided filters.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error) {
	base := "FROM members m LEFT JOIN athletes a ON a.member_id = m.id AND a.active = true"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("m.tier = $%d", len(args)+1))
		args = append(args, filter.Tier)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("m.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(m.full_name) LIKE $%d OR LOWER(m.email) LIKE $%d OR m.nif LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "m.full_name",
		"tier":       "m.tier",
		"created_at": "m.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "m.created_at"
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

	query := fmt.Sprintf(`SELECT m.id, m.user_id, m.full_name, m.email, m.contact_emails, m.phone, m.address, m.postal_code, m.nif, m.tier, m.active, m.created_at, m.updated_at,
        COUNT(a.id) AS athlete_count
        %s GROUP BY m.id ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var members []models.MemberDetail
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT m.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	return members, total, nil
}

// FindByID fetches a member by ID.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	const query = `SELECT id, user_id, full_name, email, contact_emails, phone, address, postal_code, nif, tier, active, created_at, updated_at
        FROM members WHERE id = $1`
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByUserID fetches the member profile attached to an account.
func (r *MemberRepository) FindByUserID(ctx context.Context, userID string) (*models.Member, error) {
	const query = `SELECT id, user_id, full_name, email, contact_emails, phone, address, postal_code, nif, tier, active, created_at, updated_at
        FROM members WHERE user_id = $1`
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, userID); err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByNIF checks tax-number uniqueness, optionally excluding a member.
func (r *MemberRepository) ExistsByNIF(ctx context.Context, nif string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM members WHERE nif = $1"
	args := []interface{}{nif}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check nif: %w", err)
	}
	return true, nil
}

// Create inserts a new member record.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	const query = `INSERT INTO members (id, user_id, full_name, email, contact_emails, phone, address, postal_code, nif, tier, active, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :email, :contact_emails, :phone, :address, :postal_code, :nif, :tier, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Update modifies an existing member.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE members SET full_name = :full_name, email = :email, contact_emails = :contact_emails, phone = :phone, address = :address, postal_code = :postal_code, nif = :nif, tier = :tier, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// UpdateTier changes just the membership tier.
func (r *MemberRepository) UpdateTier(ctx context.Context, id string, tier string) error {
	const query = `UPDATE members SET tier = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tier, time.Now().UTC()); err != nil {
		return fmt.Errorf("update member tier: %w", err)
	}
	return nil
}

// Deactivate marks a member as inactive.
func (r *MemberRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE members SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	return nil
}
