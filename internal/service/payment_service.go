package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
)

// TreasuryCachePattern matches every cached treasury payload.
const TreasuryCachePattern = "treasury:*"

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	ListAll(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error)
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	Create(ctx context.Context, payment *models.Payment) error
	SetValidation(ctx context.Context, id string, validated bool, validatedBy string, at time.Time) error
	AttachProof(ctx context.Context, id, documentID string) error
	RemoveProof(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type paymentAthleteResolver interface {
	FindByID(ctx context.Context, id string) (*models.Athlete, error)
}

type paymentMemberResolver interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

type proofDocuments interface {
	Upload(ctx context.Context, memberID string, meta dto.UploadDocumentRequest, upload DocumentUpload, actor *models.JWTClaims) (*models.Document, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims, actorMemberID string) error
}

type treasuryCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PaymentService manages fee records, proof uploads and staff validation.
// A payment's status is never stored; it is derived on every read.
type PaymentService struct {
	payments  paymentRepository
	athletes  paymentAthleteResolver
	members   paymentMemberResolver
	documents proofDocuments
	cache     treasuryCache
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(payments paymentRepository, athletes paymentAthleteResolver, members paymentMemberResolver, documents proofDocuments, cache treasuryCache, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = rules.NewValidator()
	}
	return &PaymentService{
		payments:  payments,
		athletes:  athletes,
		members:   members,
		documents: documents,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Create records a fee obligation. Exactly one of member / athlete must be
// referenced, consistent with the level.
func (s *PaymentService) Create(ctx context.Context, req dto.CreatePaymentRequest, actor *models.JWTClaims) (*models.PaymentView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	level := models.PaymentLevel(req.Level)
	payment := &models.Payment{
		Level:       level,
		Description: req.Description,
		Amount:      req.Amount,
	}

	switch level {
	case models.LevelMember:
		if req.MemberID == nil || *req.MemberID == "" || req.AthleteID != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "member payment requires member_id and no athlete_id")
		}
		if _, err := s.members.FindByID(ctx, *req.MemberID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
		}
		payment.MemberID = req.MemberID
	case models.LevelAthlete:
		if req.AthleteID == nil || *req.AthleteID == "" || req.MemberID != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "athlete payment requires athlete_id and no member_id")
		}
		if _, err := s.athletes.FindByID(ctx, *req.AthleteID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "athlete not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load athlete")
		}
		payment.AthleteID = req.AthleteID
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid payment level")
	}

	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid due date")
		}
		payment.DueDate = &due
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPaymentCreate,
		Resource:   "payment",
		ResourceID: &payment.ID,
		NewValues:  []byte(fmt.Sprintf(`{"level":"%s","amount":%.2f}`, payment.Level, payment.Amount)),
	})
	s.invalidateCache(ctx)

	detail, err := s.payments.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload payment")
	}
	view := decoratePayment(detail, time.Now())
	return &view, nil
}

// Get loads one payment with its derived status, enforcing ownership for
// non-staff callers.
func (s *PaymentService) Get(ctx context.Context, id string, actor *models.JWTClaims, actorMemberID string) (*models.PaymentView, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAccess(ctx, detail, actor, actorMemberID); err != nil {
		return nil, err
	}
	view := decoratePayment(detail, time.Now())
	return &view, nil
}

// List returns payments visible to the actor. A status filter forces the
// unpaginated path: status depends on the clock, so it cannot be resolved
// in SQL.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter, actor *models.JWTClaims, actorMemberID string) ([]models.PaymentView, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if !models.StaffRole(actor.Role) {
		if actorMemberID == "" {
			return nil, 0, appErrors.ErrForbidden
		}
		filter.MemberID = actorMemberID
	}

	now := time.Now()
	if filter.Status != "" {
		all, err := s.payments.ListAll(ctx, filter)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
		}
		matched := make([]models.PaymentView, 0, len(all))
		for i := range all {
			view := decoratePayment(&all[i], now)
			if view.Status == filter.Status {
				matched = append(matched, view)
			}
		}
		total := len(matched)
		page, size := clampPage(filter.Page, filter.PageSize)
		start := (page - 1) * size
		if start >= total {
			return []models.PaymentView{}, total, nil
		}
		end := start + size
		if end > total {
			end = total
		}
		return matched[start:end], total, nil
	}

	details, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	views := make([]models.PaymentView, 0, len(details))
	for i := range details {
		views = append(views, decoratePayment(&details[i], now))
	}
	return views, total, nil
}

// UploadProof stores a proof of payment and attaches it. Attaching new
// evidence always clears a previous validation so staff re-review it.
func (s *PaymentService) UploadProof(ctx context.Context, paymentID string, upload DocumentUpload, actor *models.JWTClaims, actorMemberID string) (*models.PaymentView, error) {
	detail, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAccess(ctx, detail, actor, actorMemberID); err != nil {
		return nil, err
	}
	if detail.IsValidated() {
		return nil, appErrors.Clone(appErrors.ErrPaymentValidated, "validated payments cannot receive new proofs")
	}

	ownerID, err := s.ownerMemberID(ctx, detail)
	if err != nil {
		return nil, err
	}
	meta := dto.UploadDocumentRequest{Type: string(models.DocumentProofOfPayment), AthleteID: detail.AthleteID}
	doc, err := s.documents.Upload(ctx, ownerID, meta, upload, actor)
	if err != nil {
		return nil, err
	}

	if err := s.payments.AttachProof(ctx, paymentID, doc.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach proof")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionProofUpload,
		Resource:   "payment",
		ResourceID: &paymentID,
		NewValues:  []byte(fmt.Sprintf(`{"document_id":"%s"}`, doc.ID)),
	})
	s.invalidateCache(ctx)

	return s.Get(ctx, paymentID, actor, actorMemberID)
}

// RemoveProof detaches and soft-deletes the current proof.
func (s *PaymentService) RemoveProof(ctx context.Context, paymentID string, actor *models.JWTClaims, actorMemberID string) (*models.PaymentView, error) {
	detail, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAccess(ctx, detail, actor, actorMemberID); err != nil {
		return nil, err
	}
	if detail.IsValidated() {
		return nil, appErrors.Clone(appErrors.ErrPaymentValidated, "validated payments keep their proof")
	}
	if !detail.HasProof() {
		return nil, appErrors.Clone(appErrors.ErrProofMissing, "payment has no proof attached")
	}

	if err := s.documents.Delete(ctx, *detail.ProofDocumentID, actor, actorMemberID); err != nil {
		return nil, err
	}
	if err := s.payments.RemoveProof(ctx, paymentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove proof")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionProofRemove,
		Resource:   "payment",
		ResourceID: &paymentID,
	})
	s.invalidateCache(ctx)

	return s.Get(ctx, paymentID, actor, actorMemberID)
}

// Validate confirms or rejects a payment's proof. Confirming requires an
// attached proof; rejecting returns the payment to the member's queue.
func (s *PaymentService) Validate(ctx context.Context, paymentID string, req dto.ValidatePaymentRequest, actor *models.JWTClaims) (*models.PaymentView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.StaffRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}

	detail, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if req.Validated {
		if !detail.HasProof() {
			return nil, appErrors.Clone(appErrors.ErrProofMissing, "cannot validate without a proof")
		}
		if detail.IsValidated() {
			return nil, appErrors.Clone(appErrors.ErrPaymentValidated, "payment already validated")
		}
	}

	now := time.Now().UTC()
	if err := s.payments.SetValidation(ctx, paymentID, req.Validated, actor.UserID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set validation")
	}

	action := models.AuditActionPaymentValidate
	if !req.Validated {
		action = models.AuditActionPaymentInvalidate
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "payment",
		ResourceID: &paymentID,
		NewValues:  []byte(fmt.Sprintf(`{"validated":%t,"note":%q}`, req.Validated, req.Note)),
	})
	s.invalidateCache(ctx)

	return s.Get(ctx, paymentID, actor, "")
}

// Delete removes a payment record entirely.
func (s *PaymentService) Delete(ctx context.Context, paymentID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if _, err := s.load(ctx, paymentID); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, paymentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *PaymentService) load(ctx context.Context, id string) (*models.PaymentDetail, error) {
	detail, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return detail, nil
}

func (s *PaymentService) ensureAccess(ctx context.Context, detail *models.PaymentDetail, actor *models.JWTClaims, actorMemberID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if models.StaffRole(actor.Role) {
		return nil
	}
	if actorMemberID == "" {
		return appErrors.ErrForbidden
	}
	ownerID, err := s.ownerMemberID(ctx, detail)
	if err != nil {
		return err
	}
	if ownerID != actorMemberID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *PaymentService) ownerMemberID(ctx context.Context, detail *models.PaymentDetail) (string, error) {
	if detail.MemberID != nil && *detail.MemberID != "" {
		return *detail.MemberID, nil
	}
	if detail.AthleteID == nil || *detail.AthleteID == "" {
		return "", appErrors.Clone(appErrors.ErrInternal, "payment references no payer")
	}
	athlete, err := s.athletes.FindByID(ctx, *detail.AthleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "athlete not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve payment owner")
	}
	return athlete.MemberID, nil
}

func (s *PaymentService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create payment audit", zap.Error(err))
	}
}

func (s *PaymentService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, TreasuryCachePattern); err != nil {
		s.logger.Warn("failed to invalidate treasury cache", zap.Error(err))
	}
}

func decoratePayment(detail *models.PaymentDetail, now time.Time) models.PaymentView {
	status := detail.Status(now)
	return models.PaymentView{
		PaymentDetail: *detail,
		Status:        status,
		StatusLabel:   rules.StatusLabel(status),
	}
}

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
