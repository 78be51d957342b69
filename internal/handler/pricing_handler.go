package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/rules"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
	"github.com/cab-basket/socios-api/pkg/response"
)

// PricingHandler answers classification and fee-quote questions without
// touching stored data, so prospective members can price a season before
// registering.
type PricingHandler struct {
	validator *validator.Validate
}

// NewPricingHandler constructs PricingHandler.
func NewPricingHandler(validate *validator.Validate) *PricingHandler {
	if validate == nil {
		validate = rules.NewValidator()
	}
	return &PricingHandler{validator: validate}
}

// Classify godoc
// @Summary Resolve the age bracket for a birth date and gender
// @Tags Pricing
// @Produce json
// @Param birth_date query string true "Birth date (YYYY-MM-DD)"
// @Param gender query string true "M or F"
// @Success 200 {object} response.Envelope
// @Router /pricing/classify [get]
func (h *PricingHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classify query"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classify query"))
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid birth date"))
		return
	}

	category := rules.Classify(birthDate, rules.Gender(req.Gender))
	band := rules.BandForCategory(category)
	response.JSON(c, http.StatusOK, dto.ClassifyResponse{
		Category:   category,
		Band:       band,
		DuesExempt: rules.DuesExempt(band),
	}, nil)
}

// Estimate godoc
// @Summary Quote season fees for a prospective athlete
// @Tags Pricing
// @Produce json
// @Param birth_date query string true "Birth date (YYYY-MM-DD)"
// @Param gender query string true "M or F"
// @Param tier query string true "Membership tier"
// @Param eligible_count query int false "Fee-eligible athletes in household"
// @Param pro_rank query int false "Position among them, eldest first"
// @Success 200 {object} response.Envelope
// @Router /pricing/estimate [get]
func (h *PricingHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid estimate query"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid estimate query"))
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid birth date"))
		return
	}

	eligible := req.EligibleCount
	if eligible < 1 {
		eligible = 1
	}
	rank := req.ProRank
	if rank < 1 {
		rank = 1
	}

	category := rules.Classify(birthDate, rules.Gender(req.Gender))
	quote := rules.Estimate(category, rules.MembershipTier(req.Tier), eligible, rank)
	response.JSON(c, http.StatusOK, dto.EstimateResponse{
		Category:         category,
		Band:             rules.BandForCategory(category),
		Quote:            quote,
		RegistrationText: rules.FormatEUR(quote.RegistrationFee),
		MonthlyText:      rules.FormatEUR(quote.MonthlyInstallment),
		QuarterlyText:    rules.FormatEUR(quote.QuarterlyInstallment),
		AnnualText:       rules.FormatEUR(quote.AnnualInstallment),
	}, nil)
}

// Tiers godoc
// @Summary List membership tiers
// @Tags Pricing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing/tiers [get]
func (h *PricingHandler) Tiers(c *gin.Context) {
	response.JSON(c, http.StatusOK, rules.MembershipTiers(), nil)
}

// Categories godoc
// @Summary List age brackets
// @Tags Pricing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing/categories [get]
func (h *PricingHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, rules.Categories(), nil)
}
