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
)

func newPaymentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "level", "member_id", "athlete_id", "description", "amount", "proof_document_id", "validated", "validated_by", "validated_at", "due_date", "created_at", "updated_at", "payer_name", "member_name", "athlete_name"})
}

func TestPaymentRepositoryList(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	memberID := "m-1"
	rows := paymentRows().
		AddRow("p-1", string(models.LevelMember), &memberID, nil, "Quota anual", 40.0, nil, nil, nil, nil, nil, time.Now(), time.Now(), "Maria Santos", "Maria Santos", nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN athletes a ON a.id = p.athlete_id WHERE 1=1 ORDER BY p.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(p.id)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.List(context.Background(), models.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Maria Santos", payments[0].PayerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListFiltersByHousehold(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(p.member_id = $1 OR a.member_id = $1)")).
		WithArgs("m-1").
		WillReturnRows(paymentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(p.id)")).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.PaymentFilter{MemberID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	memberID := "m-1"
	payment := &models.Payment{Level: models.LevelMember, MemberID: &memberID, Description: "Quota anual", Amount: 40}
	err := repo.Create(context.Background(), payment)
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySetValidation(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET validated = $2, validated_by = $3, validated_at = $4, updated_at = $4 WHERE id = $1")).
		WithArgs("p-1", true, "u-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetValidation(context.Background(), "p-1", true, "u-1", now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryAttachProofClearsValidation(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET proof_document_id = $2, validated = NULL, validated_by = NULL, validated_at = NULL")).
		WithArgs("p-1", "d-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachProof(context.Background(), "p-1", "d-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryRemoveProof(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET proof_document_id = NULL, updated_at = $2 WHERE id = $1")).
		WithArgs("p-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RemoveProof(context.Background(), "p-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
