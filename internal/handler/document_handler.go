package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/service"
	appErrors "github.com/cab-basket/socios-api/pkg/errors"
	"github.com/cab-basket/socios-api/pkg/response"
)

// DocumentHandler manages document HTTP endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
	members   memberResolver
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents *service.DocumentService, members memberResolver) *DocumentHandler {
	return &DocumentHandler{documents: documents, members: members}
}

// Upload godoc
// @Summary Upload a document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param type formData string true "Document type"
// @Param athlete_id formData string false "Athlete reference"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberID := memberIDForClaims(c, h.members, claims)
	if memberID == "" && !models.StaffRole(claims.Role) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "member profile not found"))
		return
	}
	if models.StaffRole(claims.Role) {
		if target := c.PostForm("member_id"); target != "" {
			memberID = target
		}
	}

	var req dto.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}

	upload := service.DocumentUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	doc, err := h.documents.Upload(c.Request.Context(), memberID, req, upload, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param type query string false "Document type filter"
// @Param level query string false "MEMBER or ATHLETE"
// @Param memberId query string false "Filter by household (staff)"
// @Param athleteId query string false "Filter by athlete"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.DocumentFilter{
		MemberID:  c.Query("memberId"),
		AthleteID: c.Query("athleteId"),
		Level:     strings.ToUpper(c.Query("level")),
		Type:      strings.ToUpper(c.Query("type")),
	}
	docs, err := h.documents.List(c.Request.Context(), filter, claims, memberIDForClaims(c, h.members, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Get godoc
// @Summary Get document metadata with a signed download URL
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberID := memberIDForClaims(c, h.members, claims)
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"), claims, memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	downloadURL, err := h.documents.GetDownloadURL(c.Request.Context(), doc.ID, claims, memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DocumentDownloadResponse{
		Document:    *doc,
		DownloadURL: downloadURL,
	}, nil)
}

// Download godoc
// @Summary Download a document via signed token
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.documents.Download(c.Request.Context(), c.Param("id"), token, claims, memberIDForClaims(c, h.members, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

// Delete godoc
// @Summary Soft delete a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.documents.Delete(c.Request.Context(), c.Param("id"), claims, memberIDForClaims(c, h.members, claims)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
