package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
)

type athleteRepository interface {
	List(ctx context.Context, filter models.AthleteFilter) ([]models.Athlete, int, error)
	ListByMember(ctx context.Context, memberID string) ([]models.Athlete, error)
	FindByID(ctx context.Context, id string) (*models.Athlete, error)
	Create(ctx context.Context, athlete *models.Athlete) error
	Update(ctx context.Context, athlete *models.Athlete) error
	Delete(ctx context.Context, id string) error
}

type athleteMemberRepository interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// AthleteService manages household athletes. The age bracket is computed on
// registration and stored; staff may override it, and reads always surface
// the drift between the stored and computed values.
type AthleteService struct {
	athletes  athleteRepository
	members   athleteMemberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAthleteService constructs an AthleteService.
func NewAthleteService(athletes athleteRepository, members athleteMemberRepository, validate *validator.Validate, logger *zap.Logger) *AthleteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = rules.NewValidator()
	}
	return &AthleteService{athletes: athletes, members: members, validator: validate, logger: logger}
}

// Create registers an athlete under the given household and classifies it.
func (s *AthleteService) Create(ctx context.Context, memberID string, req dto.CreateAthleteRequest) (*models.AthleteView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid athlete payload")
	}

	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
	}

	gender := rules.Gender(req.Gender)
	category := rules.Classify(birthDate, gender)

	athlete := &models.Athlete{
		MemberID:        memberID,
		FullName:        req.FullName,
		Gender:          gender,
		BirthDate:       birthDate,
		Category:        category,
		PaymentPlan:     models.PaymentPlan(req.PaymentPlan),
		GuardianName:    req.GuardianName,
		GuardianContact: req.GuardianContact,
		Active:          true,
	}
	if err := s.athletes.Create(ctx, athlete); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create athlete")
	}

	s.logger.Info("athlete registered",
		zap.String("athlete_id", athlete.ID),
		zap.String("member_id", memberID),
		zap.String("category", string(category)))

	view := s.toView(athlete)
	return &view, nil
}

// Get loads one athlete with its drift flag.
func (s *AthleteService) Get(ctx context.Context, id string) (*models.AthleteView, error) {
	athlete, err := s.athletes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "athlete not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load athlete")
	}
	view := s.toView(athlete)
	return &view, nil
}

// List returns athletes for the staff console.
func (s *AthleteService) List(ctx context.Context, filter models.AthleteFilter) ([]models.AthleteView, int, error) {
	athletes, total, err := s.athletes.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list athletes")
	}
	views := make([]models.AthleteView, 0, len(athletes))
	for i := range athletes {
		views = append(views, s.toView(&athletes[i]))
	}
	return views, total, nil
}

// ListHousehold returns the member's active athletes, eldest first, each
// carrying the household-aware fee quote. The Pro discount ranking counts
// dues-bearing athletes only: dues-exempt brackets pay a fixed annual fee
// and neither receive nor consume a discount slot.
func (s *AthleteService) ListHousehold(ctx context.Context, memberID string) ([]models.AthleteView, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	athletes, err := s.athletes.ListByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list household")
	}

	eligible := 0
	for i := range athletes {
		if !rules.DuesExempt(rules.BandForCategory(athletes[i].Category)) {
			eligible++
		}
	}

	views := make([]models.AthleteView, 0, len(athletes))
	rank := 0
	for i := range athletes {
		view := s.toView(&athletes[i])
		proRank := 1
		if !rules.DuesExempt(rules.BandForCategory(athletes[i].Category)) {
			rank++
			proRank = rank
		}
		quote := rules.Estimate(athletes[i].Category, member.Tier, eligible, proRank)
		view.Quote = &quote
		views = append(views, view)
	}
	return views, nil
}

// Update edits an athlete. A non-nil Category is a staff bracket override;
// handlers only pass it through for staff roles.
func (s *AthleteService) Update(ctx context.Context, id string, req dto.UpdateAthleteRequest) (*models.AthleteView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid athlete payload")
	}

	athlete, err := s.athletes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "athlete not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load athlete")
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
	}

	gender := rules.Gender(req.Gender)
	reclassified := !athlete.BirthDate.Equal(birthDate) || athlete.Gender != gender

	athlete.FullName = req.FullName
	athlete.Gender = gender
	athlete.BirthDate = birthDate
	athlete.PaymentPlan = models.PaymentPlan(req.PaymentPlan)
	athlete.GuardianName = req.GuardianName
	athlete.GuardianContact = req.GuardianContact
	if req.Active != nil {
		athlete.Active = *req.Active
	}

	switch {
	case req.Category != nil:
		override := rules.Category(*req.Category)
		athlete.Category = override
	case reclassified:
		athlete.Category = rules.Classify(birthDate, gender)
	}

	if err := s.athletes.Update(ctx, athlete); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update athlete")
	}

	view := s.toView(athlete)
	return &view, nil
}

// Delete removes an athlete record.
func (s *AthleteService) Delete(ctx context.Context, id string) error {
	if _, err := s.athletes.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "athlete not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load athlete")
	}
	if err := s.athletes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete athlete")
	}
	return nil
}

func (s *AthleteService) toView(athlete *models.Athlete) models.AthleteView {
	computed := rules.Classify(athlete.BirthDate, athlete.Gender)
	return models.AthleteView{
		Athlete:          *athlete,
		ComputedCategory: computed,
		CategoryDrift:    athlete.Category != computed,
	}
}
