package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
)

type mockMemberRepo struct {
	members    map[string]*models.Member
	byUserID   map[string]*models.Member
	nifs       map[string]string
	listResult []models.MemberDetail
	tierSet    string
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		members:  map[string]*models.Member{},
		byUserID: map[string]*models.Member{},
		nifs:     map[string]string{},
	}
}

func (m *mockMemberRepo) List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error) {
	return m.listResult, len(m.listResult), nil
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id string) (*models.Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return member, nil
}

func (m *mockMemberRepo) FindByUserID(ctx context.Context, userID string) (*models.Member, error) {
	member, ok := m.byUserID[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return member, nil
}

func (m *mockMemberRepo) ExistsByNIF(ctx context.Context, nif string, excludeID string) (bool, error) {
	owner, ok := m.nifs[nif]
	if !ok {
		return false, nil
	}
	return owner != excludeID, nil
}

func (m *mockMemberRepo) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = "m-" + member.NIF
	}
	m.members[member.ID] = member
	m.byUserID[member.UserID] = member
	m.nifs[member.NIF] = member.ID
	return nil
}

func (m *mockMemberRepo) Update(ctx context.Context, member *models.Member) error {
	m.members[member.ID] = member
	return nil
}

func (m *mockMemberRepo) UpdateTier(ctx context.Context, id string, tier string) error {
	m.tierSet = tier
	if member, ok := m.members[id]; ok {
		member.Tier = rules.MembershipTier(tier)
	}
	return nil
}

func (m *mockMemberRepo) Deactivate(ctx context.Context, id string) error {
	if member, ok := m.members[id]; ok {
		member.Active = false
	}
	return nil
}

type mockMemberUsers struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newMockMemberUsers() *mockMemberUsers {
	return &mockMemberUsers{users: map[string]*models.User{}}
}

func (m *mockMemberUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockMemberUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-" + user.Email
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockMemberUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func validRegistration() dto.RegisterMemberRequest {
	return dto.RegisterMemberRequest{
		FullName:   "Maria Santos",
		Email:      "maria@example.pt",
		Password:   "supersecret",
		PostalCode: "1000-001",
		NIF:        "123456789",
		Tier:       string(rules.TierPro),
	}
}

func TestMemberServiceRegister(t *testing.T) {
	members := newMockMemberRepo()
	users := newMockMemberUsers()
	svc := NewMemberService(members, users, rules.NewValidator(), zap.NewNop())

	member, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, rules.TierPro, member.Tier)
	assert.True(t, member.Active)

	user, ok := users.users["maria@example.pt"]
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionMemberRegister, users.auditLogs[0].Action)
}

func TestMemberServiceRegisterDuplicateEmail(t *testing.T) {
	members := newMockMemberRepo()
	users := newMockMemberUsers()
	users.users["maria@example.pt"] = &models.User{ID: "u-1", Email: "maria@example.pt"}
	svc := NewMemberService(members, users, rules.NewValidator(), zap.NewNop())

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMemberServiceRegisterDuplicateNIF(t *testing.T) {
	members := newMockMemberRepo()
	members.nifs["123456789"] = "m-other"
	users := newMockMemberUsers()
	svc := NewMemberService(members, users, rules.NewValidator(), zap.NewNop())

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMemberServiceRegisterRejectsBadNIF(t *testing.T) {
	svc := NewMemberService(newMockMemberRepo(), newMockMemberUsers(), rules.NewValidator(), zap.NewNop())

	req := validRegistration()
	req.NIF = "123456788"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMemberServiceRegisterRejectsBadPostalCode(t *testing.T) {
	svc := NewMemberService(newMockMemberRepo(), newMockMemberUsers(), rules.NewValidator(), zap.NewNop())

	req := validRegistration()
	req.PostalCode = "1000001"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMemberServiceChangeTier(t *testing.T) {
	members := newMockMemberRepo()
	members.members["m-1"] = &models.Member{ID: "m-1", UserID: "u-1", Tier: rules.TierBase}
	users := newMockMemberUsers()
	svc := NewMemberService(members, users, rules.NewValidator(), zap.NewNop())

	member, err := svc.ChangeTier(context.Background(), "m-1", "u-9", dto.ChangeTierRequest{Tier: string(rules.TierPro)})
	require.NoError(t, err)
	assert.Equal(t, rules.TierPro, member.Tier)
	assert.Equal(t, string(rules.TierPro), members.tierSet)

	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionTierChange, users.auditLogs[0].Action)
}

func TestMemberServiceChangeTierRejectsUnknownTier(t *testing.T) {
	members := newMockMemberRepo()
	members.members["m-1"] = &models.Member{ID: "m-1", Tier: rules.TierBase}
	svc := NewMemberService(members, newMockMemberUsers(), rules.NewValidator(), zap.NewNop())

	_, err := svc.ChangeTier(context.Background(), "m-1", "u-9", dto.ChangeTierRequest{Tier: "Sócio Platina"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
