package models

import "time"

// DocumentType classifies uploads.
type DocumentType string

const (
	DocumentProofOfPayment DocumentType = "PROOF_OF_PAYMENT"
	DocumentMedicalCert    DocumentType = "MEDICAL_CERTIFICATE"
	DocumentIDCopy         DocumentType = "ID_COPY"
	DocumentOther          DocumentType = "OTHER"
)

// ValidDocumentType reports whether the value is a known type.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentProofOfPayment, DocumentMedicalCert, DocumentIDCopy, DocumentOther:
		return true
	}
	return false
}

// Document is stored file metadata. Level mirrors PaymentLevel: a document
// belongs to the member themselves or to one athlete of the household.
type Document struct {
	ID         string       `db:"id" json:"id"`
	Level      PaymentLevel `db:"level" json:"level"`
	Type       DocumentType `db:"type" json:"type"`
	MemberID   string       `db:"member_id" json:"member_id"`
	AthleteID  *string      `db:"athlete_id" json:"athlete_id,omitempty"`
	Filename   string       `db:"filename" json:"filename"`
	FilePath   string       `db:"file_path" json:"-"`
	MimeType   string       `db:"mime_type" json:"mime_type"`
	SizeBytes  int64        `db:"size_bytes" json:"size_bytes"`
	UploadedBy string       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	DeletedAt  *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
}

// DocumentFilter encapsulates listing parameters for documents.
type DocumentFilter struct {
	MemberID  string
	AthleteID string
	Level     string
	Type      string
}
