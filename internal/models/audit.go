package models

import "time"

// Audit actions recorded against treasury-sensitive operations.
const (
	AuditActionLogin             = "auth.login"
	AuditActionLogout            = "auth.logout"
	AuditActionPasswordChange    = "auth.password_change"
	AuditActionMemberRegister    = "member.register"
	AuditActionTierChange        = "member.tier_change"
	AuditActionPaymentCreate     = "payment.create"
	AuditActionPaymentValidate   = "payment.validate"
	AuditActionPaymentInvalidate = "payment.invalidate"
	AuditActionProofUpload       = "payment.proof_upload"
	AuditActionProofRemove       = "payment.proof_remove"
	AuditActionDocumentUpload    = "document.upload"
	AuditActionDocumentDelete    = "document.delete"
	AuditActionExportRequest     = "treasury.export_request"
)

// AuditLog records who did what to which resource.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
