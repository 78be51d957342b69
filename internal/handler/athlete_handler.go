package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/service"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
	"github.com/cab-basket/socios-api/pkg/response"
)

// AthleteHandler exposes athlete endpoints for households and staff.
type AthleteHandler struct {
	athletes *service.AthleteService
	members  memberResolver
}

// NewAthleteHandler constructs AthleteHandler.
func NewAthleteHandler(athletes *service.AthleteService, members memberResolver) *AthleteHandler {
	return &AthleteHandler{athletes: athletes, members: members}
}

// CreateMine godoc
// @Summary Register an athlete in the caller's household
// @Tags Athletes
// @Accept json
// @Produce json
// @Param payload body dto.CreateAthleteRequest true "Athlete payload"
// @Success 201 {object} response.Envelope
// @Router /members/me/athletes [post]
func (h *AthleteHandler) CreateMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberID := memberIDForClaims(c, h.members, claims)
	if memberID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "member profile not found"))
		return
	}

	var req dto.CreateAthleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid athlete payload"))
		return
	}
	athlete, err := h.athletes.Create(c.Request.Context(), memberID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, athlete)
}

// ListMine godoc
// @Summary List the caller's athletes with fee quotes
// @Tags Athletes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /members/me/athletes [get]
func (h *AthleteHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberID := memberIDForClaims(c, h.members, claims)
	if memberID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "member profile not found"))
		return
	}
	views, err := h.athletes.ListHousehold(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Household godoc
// @Summary List a member's athletes with fee quotes
// @Tags Athletes
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/athletes [get]
func (h *AthleteHandler) Household(c *gin.Context) {
	views, err := h.athletes.ListHousehold(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// List godoc
// @Summary List athletes
// @Tags Athletes
// @Produce json
// @Param search query string false "Search by name"
// @Param category query string false "Filter by bracket"
// @Param memberId query string false "Filter by household"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /athletes [get]
func (h *AthleteHandler) List(c *gin.Context) {
	var filter models.AthleteFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = c.Query("category")
	filter.MemberID = c.Query("memberId")
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	views, total, err := h.athletes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get athlete detail
// @Tags Athletes
// @Produce json
// @Param id path string true "Athlete ID"
// @Success 200 {object} response.Envelope
// @Router /athletes/{id} [get]
func (h *AthleteHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.athletes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.ensureOwnership(c, claims, view); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Update godoc
// @Summary Update an athlete
// @Description Members edit their own athletes; the bracket override is
// @Description accepted from staff only.
// @Tags Athletes
// @Accept json
// @Produce json
// @Param id path string true "Athlete ID"
// @Param payload body dto.UpdateAthleteRequest true "Athlete payload"
// @Success 200 {object} response.Envelope
// @Router /athletes/{id} [put]
func (h *AthleteHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	current, err := h.athletes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.ensureOwnership(c, claims, current); err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateAthleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid athlete payload"))
		return
	}
	if !models.StaffRole(claims.Role) {
		req.Category = nil
	}

	view, err := h.athletes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete an athlete
// @Tags Athletes
// @Produce json
// @Param id path string true "Athlete ID"
// @Success 204
// @Router /athletes/{id} [delete]
func (h *AthleteHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	current, err := h.athletes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.ensureOwnership(c, claims, current); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.athletes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AthleteHandler) ensureOwnership(c *gin.Context, claims *models.JWTClaims, view *models.AthleteView) error {
	if models.StaffRole(claims.Role) {
		return nil
	}
	memberID := memberIDForClaims(c, h.members, claims)
	if memberID == "" || view.MemberID != memberID {
		return appErrors.ErrForbidden
	}
	return nil
}
