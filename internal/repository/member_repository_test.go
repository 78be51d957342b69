package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
)

func newMemberMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMemberRepositoryList(t *testing.T) {
	db, mock, cleanup := newMemberMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "email", "contact_emails", "phone", "address", "postal_code", "nif", "tier", "active", "created_at", "updated_at", "athlete_count"}).
		AddRow("m-1", "u-1", "Maria Santos", "maria@example.pt", "maria@example.pt", "912345678", "Rua A", "1000-001", "123456789", string(rules.TierPro), true, time.Now(), time.Now(), 2)
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN athletes a ON a.member_id = m.id AND a.active = true WHERE 1=1 GROUP BY m.id ORDER BY m.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT m.id) FROM members m")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	members, total, err := repo.List(context.Background(), models.MemberFilter{})
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 2, members[0].AthleteCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryListFiltersByTier(t *testing.T) {
	db, mock, cleanup := newMemberMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("m.tier = $1")).
		WithArgs(string(rules.TierPro)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name", "email", "contact_emails", "phone", "address", "postal_code", "nif", "tier", "active", "created_at", "updated_at", "athlete_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT m.id)")).
		WithArgs(string(rules.TierPro)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.MemberFilter{Tier: string(rules.TierPro)})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryExistsByNIF(t *testing.T) {
	db, mock, cleanup := newMemberMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM members WHERE nif = $1 LIMIT 1")).
		WithArgs("123456789").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByNIF(context.Background(), "123456789", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM members WHERE nif = $1 AND id <> $2 LIMIT 1")).
		WithArgs("123456789", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.ExistsByNIF(context.Background(), "123456789", "m-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMemberMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectExec("INSERT INTO members").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	member := &models.Member{UserID: "u-1", FullName: "Maria Santos", Email: "maria@example.pt", NIF: "123456789", Tier: rules.TierPro, Active: true}
	err := repo.Create(context.Background(), member)
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryUpdateTier(t *testing.T) {
	db, mock, cleanup := newMemberMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET tier = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("m-1", string(rules.TierFamilia), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTier(context.Background(), "m-1", string(rules.TierFamilia))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
