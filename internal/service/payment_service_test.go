package service

import (
	"context"
	"database/sql"
	"fmt"
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
)

type mockPaymentRepo struct {
	payments map[string]*models.PaymentDetail
	seq      int
	deleted  []string
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: map[string]*models.PaymentDetail{}}
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	all, err := m.ListAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return all, len(all), nil
}

func (m *mockPaymentRepo) ListAll(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error) {
	out := make([]models.PaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		if filter.MemberID != "" && (p.MemberID == nil || *p.MemberID != filter.MemberID) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	m.seq++
	payment.ID = fmt.Sprintf("p-%d", m.seq)
	m.payments[payment.ID] = &models.PaymentDetail{Payment: *payment}
	return nil
}

func (m *mockPaymentRepo) SetValidation(ctx context.Context, id string, validated bool, validatedBy string, at time.Time) error {
	p := m.payments[id]
	p.Validated = &validated
	p.ValidatedBy = &validatedBy
	p.ValidatedAt = &at
	return nil
}

func (m *mockPaymentRepo) AttachProof(ctx context.Context, id, documentID string) error {
	p := m.payments[id]
	p.ProofDocumentID = &documentID
	p.Validated = nil
	p.ValidatedBy = nil
	p.ValidatedAt = nil
	return nil
}

func (m *mockPaymentRepo) RemoveProof(ctx context.Context, id string) error {
	p := m.payments[id]
	p.ProofDocumentID = nil
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.payments, id)
	return nil
}

type mockPaymentAthletes struct {
	athlete *models.Athlete
}

func (m *mockPaymentAthletes) FindByID(ctx context.Context, id string) (*models.Athlete, error) {
	if m.athlete == nil || m.athlete.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.athlete, nil
}

type mockPaymentMembers struct {
	member *models.Member
}

func (m *mockPaymentMembers) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if m.member == nil || m.member.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.member, nil
}

type mockProofDocs struct {
	uploaded int
	deleted  []string
}

func (m *mockProofDocs) Upload(ctx context.Context, memberID string, meta dto.UploadDocumentRequest, upload DocumentUpload, actor *models.JWTClaims) (*models.Document, error) {
	m.uploaded++
	return &models.Document{ID: fmt.Sprintf("doc-%d", m.uploaded), Type: models.DocumentType(meta.Type)}, nil
}

func (m *mockProofDocs) Delete(ctx context.Context, id string, actor *models.JWTClaims, actorMemberID string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockTreasuryCache struct {
	patterns []string
}

func (m *mockTreasuryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type mockAuditTrail struct {
	logs []*models.AuditLog
}

func (m *mockAuditTrail) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type paymentFixture struct {
	repo     *mockPaymentRepo
	athletes *mockPaymentAthletes
	members  *mockPaymentMembers
	docs     *mockProofDocs
	cache    *mockTreasuryCache
	audit    *mockAuditTrail
	svc      *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		repo:     newMockPaymentRepo(),
		athletes: &mockPaymentAthletes{},
		members:  &mockPaymentMembers{member: &models.Member{ID: "m-1", Tier: rules.TierGeral}},
		docs:     &mockProofDocs{},
		cache:    &mockTreasuryCache{},
		audit:    &mockAuditTrail{},
	}
	f.svc = NewPaymentService(f.repo, f.athletes, f.members, f.docs, f.cache, f.audit, rules.NewValidator(), zap.NewNop())
	return f
}

func (f *paymentFixture) seedPayment(memberID string) string {
	f.repo.seq++
	id := fmt.Sprintf("p-%d", f.repo.seq)
	f.repo.payments[id] = &models.PaymentDetail{Payment: models.Payment{
		ID:          id,
		Level:       models.LevelMember,
		MemberID:    &memberID,
		Description: "Quota anual",
		Amount:      30,
	}}
	return id
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-staff", Role: models.RoleTreasurer}
}

func memberClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-member", Role: models.RoleMember}
}

func TestPaymentServiceCreateMemberLevel(t *testing.T) {
	f := newPaymentFixture()
	memberID := "m-1"

	view, err := f.svc.Create(context.Background(), dto.CreatePaymentRequest{
		Level:       "MEMBER",
		MemberID:    &memberID,
		Description: "Quota anual de sócio",
		Amount:      30,
	}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, rules.StatusNotRegularized, view.Status)

	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionPaymentCreate, f.audit.logs[0].Action)
	assert.Contains(t, f.cache.patterns, TreasuryCachePattern)
}

func TestPaymentServiceCreateRejectsMixedReferences(t *testing.T) {
	f := newPaymentFixture()
	memberID, athleteID := "m-1", "a-1"

	_, err := f.svc.Create(context.Background(), dto.CreatePaymentRequest{
		Level:       "MEMBER",
		MemberID:    &memberID,
		AthleteID:   &athleteID,
		Description: "Quota anual",
		Amount:      30,
	}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceCreateUnknownAthlete(t *testing.T) {
	f := newPaymentFixture()
	athleteID := "a-missing"

	_, err := f.svc.Create(context.Background(), dto.CreatePaymentRequest{
		Level:       "ATHLETE",
		AthleteID:   &athleteID,
		Description: "Inscrição",
		Amount:      45,
	}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceUploadProofClearsValidation(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	view, err := f.svc.UploadProof(context.Background(), id, DocumentUpload{
		Filename: "comprovativo.pdf",
		Size:     128,
		MimeType: "application/pdf",
		Content:  strings.NewReader("%PDF-1.4"),
	}, staffClaims(), "")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusPendingValidation, view.Status)
	assert.Equal(t, 1, f.docs.uploaded)
	assert.True(t, f.repo.payments[id].HasProof())
	assert.Nil(t, f.repo.payments[id].Validated)
}

func TestPaymentServiceUploadProofRejectedWhenValidated(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")
	validated := true
	docID := "doc-old"
	f.repo.payments[id].ProofDocumentID = &docID
	f.repo.payments[id].Validated = &validated

	_, err := f.svc.UploadProof(context.Background(), id, DocumentUpload{
		Filename: "comprovativo.pdf",
		Content:  strings.NewReader("%PDF-1.4"),
	}, staffClaims(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentValidated.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.docs.uploaded)
}

func TestPaymentServiceValidateRequiresProof(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	_, err := f.svc.Validate(context.Background(), id, dto.ValidatePaymentRequest{Validated: true}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProofMissing.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceValidate(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")
	docID := "doc-1"
	f.repo.payments[id].ProofDocumentID = &docID

	view, err := f.svc.Validate(context.Background(), id, dto.ValidatePaymentRequest{Validated: true, Note: "ok"}, staffClaims())
	require.NoError(t, err)
	assert.Equal(t, rules.StatusRegularized, view.Status)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionPaymentValidate, f.audit.logs[0].Action)
	assert.Contains(t, f.cache.patterns, TreasuryCachePattern)

	_, err = f.svc.Validate(context.Background(), id, dto.ValidatePaymentRequest{Validated: true}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentValidated.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceValidateForbiddenForMembers(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	_, err := f.svc.Validate(context.Background(), id, dto.ValidatePaymentRequest{Validated: true}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceRemoveProof(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")
	docID := "doc-1"
	f.repo.payments[id].ProofDocumentID = &docID

	view, err := f.svc.RemoveProof(context.Background(), id, staffClaims(), "")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusNotRegularized, view.Status)
	assert.Equal(t, []string{"doc-1"}, f.docs.deleted)
}

func TestPaymentServiceRemoveProofMissing(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	_, err := f.svc.RemoveProof(context.Background(), id, staffClaims(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProofMissing.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceGetEnforcesOwnership(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	_, err := f.svc.Get(context.Background(), id, memberClaims(), "m-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	view, err := f.svc.Get(context.Background(), id, memberClaims(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)
}

func TestPaymentServiceListScopesNonStaff(t *testing.T) {
	f := newPaymentFixture()
	f.seedPayment("m-1")
	f.seedPayment("m-2")

	views, total, err := f.svc.List(context.Background(), models.PaymentFilter{}, memberClaims(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, "m-1", *views[0].MemberID)
}

func TestPaymentServiceListStatusFilterPaginates(t *testing.T) {
	f := newPaymentFixture()
	var validatedID string
	for i := 0; i < 3; i++ {
		validatedID = f.seedPayment("m-1")
	}
	validated := true
	docID := "doc-1"
	f.repo.payments[validatedID].ProofDocumentID = &docID
	f.repo.payments[validatedID].Validated = &validated

	views, total, err := f.svc.List(context.Background(), models.PaymentFilter{
		Status:   rules.StatusNotRegularized,
		Page:     1,
		PageSize: 1,
	}, staffClaims(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, views, 1)
	assert.Equal(t, rules.StatusNotRegularized, views[0].Status)
}

func TestPaymentServiceDeleteAdminOnly(t *testing.T) {
	f := newPaymentFixture()
	id := f.seedPayment("m-1")

	err := f.svc.Delete(context.Background(), id, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = f.svc.Delete(context.Background(), id, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, f.repo.deleted)
}
