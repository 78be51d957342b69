package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
)

type memberRepository interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	FindByUserID(ctx context.Context, userID string) (*models.Member, error)
	ExistsByNIF(ctx context.Context, nif string, excludeID string) (bool, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	UpdateTier(ctx context.Context, id string, tier string) error
	Deactivate(ctx context.Context, id string) error
}

type memberUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// MemberService manages household-head registration and profiles.
type MemberService struct {
	members   memberRepository
	users     memberUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(members memberRepository, users memberUserRepository, validate *validator.Validate, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = rules.NewValidator()
	}
	return &MemberService{members: members, users: users, validator: validate, logger: logger}
}

// Register creates the account and the member profile in one step.
func (s *MemberService) Register(ctx context.Context, req dto.RegisterMemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	taken, err := s.members.ExistsByNIF(ctx, req.NIF, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check nif")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nif already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleMember,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	member := &models.Member{
		UserID:        user.ID,
		FullName:      req.FullName,
		Email:         req.Email,
		ContactEmails: req.ContactEmails,
		Phone:         req.Phone,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		NIF:           req.NIF,
		Tier:          rules.MembershipTier(req.Tier),
		Active:        true,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create member")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionMemberRegister,
		Resource:   "member",
		ResourceID: &member.ID,
		NewValues:  mustJSON(map[string]string{"tier": req.Tier}),
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}

	s.logger.Info("member registered",
		zap.String("member_id", member.ID),
		zap.String("tier", req.Tier))
	return member, nil
}

// GetByUserID loads the member profile attached to an account.
func (s *MemberService) GetByUserID(ctx context.Context, userID string) (*models.Member, error) {
	member, err := s.members.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// GetByID loads a member by its identifier.
func (s *MemberService) GetByID(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// List returns members for the staff console.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error) {
	members, total, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, total, nil
}

// Update edits the member's own profile fields.
func (s *MemberService) Update(ctx context.Context, memberID string, req dto.UpdateMemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	member, err := s.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if req.NIF != member.NIF {
		taken, err := s.members.ExistsByNIF(ctx, req.NIF, member.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check nif")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "nif already registered")
		}
	}

	member.FullName = req.FullName
	member.Email = req.Email
	member.ContactEmails = req.ContactEmails
	member.Phone = req.Phone
	member.Address = req.Address
	member.PostalCode = req.PostalCode
	member.NIF = req.NIF

	if err := s.members.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}
	return member, nil
}

// ChangeTier switches the membership tier and records the change.
func (s *MemberService) ChangeTier(ctx context.Context, memberID, actorID string, req dto.ChangeTierRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tier payload")
	}

	member, err := s.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	oldTier := member.Tier
	if err := s.members.UpdateTier(ctx, memberID, req.Tier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change tier")
	}
	member.Tier = rules.MembershipTier(req.Tier)

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionTierChange,
		Resource:   "member",
		ResourceID: &memberID,
		OldValues:  mustJSON(map[string]string{"tier": string(oldTier)}),
		NewValues:  mustJSON(map[string]string{"tier": req.Tier}),
	}); err != nil {
		s.logger.Warn("failed to record tier change audit log", zap.Error(err))
	}

	s.logger.Info("member tier changed",
		zap.String("member_id", memberID),
		zap.String("from", string(oldTier)),
		zap.String("to", req.Tier))
	return member, nil
}

// Deactivate marks a member inactive. Their athletes keep their records but
// stop appearing in household quotes.
func (s *MemberService) Deactivate(ctx context.Context, memberID string) error {
	if _, err := s.GetByID(ctx, memberID); err != nil {
		return err
	}
	if err := s.members.Deactivate(ctx, memberID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate member")
	}
	return nil
}

func mustJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
