package dto

import "github.com/cab-basket/socios-api/internal/models"

// UploadDocumentRequest carries the metadata fields of a multipart upload.
type UploadDocumentRequest struct {
	Type      string  `form:"type" json:"type" validate:"required"`
	AthleteID *string `form:"athlete_id" json:"athlete_id"`
}

// DocumentDownloadResponse enriches metadata with a signed download URL.
type DocumentDownloadResponse struct {
	models.Document
	DownloadURL string `json:"download_url"`
}
