package service

import (
	"context"
	"database/sql"
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

type mockAthleteRepo struct {
	athletes  map[string]*models.Athlete
	household []models.Athlete
	created   int
}

func newMockAthleteRepo() *mockAthleteRepo {
	return &mockAthleteRepo{athletes: map[string]*models.Athlete{}}
}

func (m *mockAthleteRepo) List(ctx context.Context, filter models.AthleteFilter) ([]models.Athlete, int, error) {
	return m.household, len(m.household), nil
}

func (m *mockAthleteRepo) ListByMember(ctx context.Context, memberID string) ([]models.Athlete, error) {
	return m.household, nil
}

func (m *mockAthleteRepo) FindByID(ctx context.Context, id string) (*models.Athlete, error) {
	athlete, ok := m.athletes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return athlete, nil
}

func (m *mockAthleteRepo) Create(ctx context.Context, athlete *models.Athlete) error {
	m.created++
	if athlete.ID == "" {
		athlete.ID = "a-1"
	}
	m.athletes[athlete.ID] = athlete
	return nil
}

func (m *mockAthleteRepo) Update(ctx context.Context, athlete *models.Athlete) error {
	m.athletes[athlete.ID] = athlete
	return nil
}

func (m *mockAthleteRepo) Delete(ctx context.Context, id string) error {
	delete(m.athletes, id)
	return nil
}

type mockHouseholdMembers struct {
	member *models.Member
}

func (m *mockHouseholdMembers) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if m.member == nil || m.member.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.member, nil
}

func householdAthlete(id string, birthYear int, category rules.Category) models.Athlete {
	return models.Athlete{
		ID:        id,
		MemberID:  "m-1",
		FullName:  "Atleta " + id,
		Gender:    rules.GenderMale,
		BirthDate: time.Date(birthYear, time.June, 15, 0, 0, 0, 0, time.UTC),
		Category:  category,
		Active:    true,
	}
}

func TestAthleteServiceCreateClassifies(t *testing.T) {
	repo := newMockAthleteRepo()
	members := &mockHouseholdMembers{member: &models.Member{ID: "m-1", Tier: rules.TierGeral}}
	svc := NewAthleteService(repo, members, rules.NewValidator(), zap.NewNop())

	view, err := svc.Create(context.Background(), "m-1", dto.CreateAthleteRequest{
		FullName:    "João Pereira",
		Gender:      "M",
		BirthDate:   "2016-03-10",
		PaymentPlan: "MONTHLY",
	})
	require.NoError(t, err)
	assert.Equal(t, rules.CategoryMini10, view.Category)
	assert.Equal(t, rules.CategoryMini10, view.ComputedCategory)
	assert.False(t, view.CategoryDrift)
	assert.True(t, view.Active)
	assert.Equal(t, 1, repo.created)
}

func TestAthleteServiceCreateUnknownMember(t *testing.T) {
	svc := NewAthleteService(newMockAthleteRepo(), &mockHouseholdMembers{}, rules.NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), "m-missing", dto.CreateAthleteRequest{
		FullName:    "João Pereira",
		Gender:      "M",
		BirthDate:   "2016-03-10",
		PaymentPlan: "MONTHLY",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAthleteServiceHouseholdProDiscountRanking(t *testing.T) {
	repo := newMockAthleteRepo()
	repo.household = []models.Athlete{
		householdAthlete("a-1", 2010, rules.CategorySub16M),
		householdAthlete("a-2", 2016, rules.CategoryMini10),
	}
	members := &mockHouseholdMembers{member: &models.Member{ID: "m-1", Tier: rules.TierPro}}
	svc := NewAthleteService(repo, members, rules.NewValidator(), zap.NewNop())

	views, err := svc.ListHousehold(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	// eldest pays the Pro household rate, the second athlete the deeper one
	require.NotNil(t, views[0].Quote)
	assert.Equal(t, 40.0, views[0].Quote.MonthlyInstallment)
	require.NotNil(t, views[1].Quote)
	assert.Equal(t, 25.0, views[1].Quote.MonthlyInstallment)
}

func TestAthleteServiceHouseholdExemptSkipsDiscountSlot(t *testing.T) {
	repo := newMockAthleteRepo()
	repo.household = []models.Athlete{
		householdAthlete("a-1", 1988, rules.CategoryMasters),
		householdAthlete("a-2", 2016, rules.CategoryMini10),
	}
	members := &mockHouseholdMembers{member: &models.Member{ID: "m-1", Tier: rules.TierPro}}
	svc := NewAthleteService(repo, members, rules.NewValidator(), zap.NewNop())

	views, err := svc.ListHousehold(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	// the Masters athlete pays the fixed annual fee and does not consume
	// the eldest discount slot
	require.NotNil(t, views[0].Quote)
	assert.True(t, views[0].Quote.OnlyAnnual)
	assert.Equal(t, 100.0, views[0].Quote.AnnualInstallment)
	require.NotNil(t, views[1].Quote)
	assert.Equal(t, 30.0, views[1].Quote.MonthlyInstallment)
}

func TestAthleteServiceHouseholdNonProPaysStandard(t *testing.T) {
	repo := newMockAthleteRepo()
	repo.household = []models.Athlete{
		householdAthlete("a-1", 2010, rules.CategorySub16M),
		householdAthlete("a-2", 2016, rules.CategoryMini10),
	}
	members := &mockHouseholdMembers{member: &models.Member{ID: "m-1", Tier: rules.TierBase}}
	svc := NewAthleteService(repo, members, rules.NewValidator(), zap.NewNop())

	views, err := svc.ListHousehold(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, 45.0, views[0].Quote.MonthlyInstallment)
	assert.Equal(t, 35.0, views[1].Quote.MonthlyInstallment)
}

func TestAthleteServiceUpdateReclassifies(t *testing.T) {
	repo := newMockAthleteRepo()
	existing := householdAthlete("a-1", 2016, rules.CategoryMini10)
	repo.athletes["a-1"] = &existing
	svc := NewAthleteService(repo, &mockHouseholdMembers{}, rules.NewValidator(), zap.NewNop())

	view, err := svc.Update(context.Background(), "a-1", dto.UpdateAthleteRequest{
		FullName:    existing.FullName,
		Gender:      "M",
		BirthDate:   "2012-06-15",
		PaymentPlan: "MONTHLY",
	})
	require.NoError(t, err)
	assert.Equal(t, rules.CategorySub14M, view.Category)
	assert.False(t, view.CategoryDrift)
}

func TestAthleteServiceUpdateStaffOverrideKeepsDrift(t *testing.T) {
	repo := newMockAthleteRepo()
	existing := householdAthlete("a-1", 2016, rules.CategoryMini10)
	repo.athletes["a-1"] = &existing
	svc := NewAthleteService(repo, &mockHouseholdMembers{}, rules.NewValidator(), zap.NewNop())

	override := string(rules.CategoryMini12)
	view, err := svc.Update(context.Background(), "a-1", dto.UpdateAthleteRequest{
		FullName:    existing.FullName,
		Gender:      "M",
		BirthDate:   "2016-06-15",
		PaymentPlan: "MONTHLY",
		Category:    &override,
	})
	require.NoError(t, err)
	assert.Equal(t, rules.CategoryMini12, view.Category)
	assert.Equal(t, rules.CategoryMini10, view.ComputedCategory)
	assert.True(t, view.CategoryDrift)
}

func TestAthleteServiceDeleteUnknown(t *testing.T) {
	svc := NewAthleteService(newMockAthleteRepo(), &mockHouseholdMembers{}, rules.NewValidator(), zap.NewNop())

	err := svc.Delete(context.Background(), "a-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
