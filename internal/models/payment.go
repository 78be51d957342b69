package models

import (
	"time"

	"github.com/cab-basket/socios-api/internal/rules"
)

// PaymentLevel discriminates whether a payment belongs to the member's own
// dues or to one of the household athletes. Exactly one of MemberID /
// AthleteID is set, consistent with the level.
type PaymentLevel string

const (
	LevelMember  PaymentLevel = "MEMBER"
	LevelAthlete PaymentLevel = "ATHLETE"
)

// ValidPaymentLevel reports whether the value is a known level.
func ValidPaymentLevel(l PaymentLevel) bool {
	return l == LevelMember || l == LevelAthlete
}

// Payment is a treasury record. Status is never stored: it is derived at
// read time from the proof reference, the validated flag and the due date.
type Payment struct {
	ID              string       `db:"id" json:"id"`
	Level           PaymentLevel `db:"level" json:"level"`
	MemberID        *string      `db:"member_id" json:"member_id,omitempty"`
	AthleteID       *string      `db:"athlete_id" json:"athlete_id,omitempty"`
	Description     string       `db:"description" json:"description"`
	Amount          float64      `db:"amount" json:"amount"`
	ProofDocumentID *string      `db:"proof_document_id" json:"proof_document_id,omitempty"`
	Validated       *bool        `db:"validated" json:"validated,omitempty"`
	ValidatedBy     *string      `db:"validated_by" json:"validated_by,omitempty"`
	ValidatedAt     *time.Time   `db:"validated_at" json:"validated_at,omitempty"`
	DueDate         *time.Time   `db:"due_date" json:"due_date,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// HasProof reports whether a proof document is attached.
func (p *Payment) HasProof() bool {
	return p.ProofDocumentID != nil && *p.ProofDocumentID != ""
}

// IsValidated reports whether staff marked the payment as settled.
func (p *Payment) IsValidated() bool {
	return p.Validated != nil && *p.Validated
}

// Status derives the treasury status against the provided clock.
func (p *Payment) Status(now time.Time) rules.PaymentStatus {
	return rules.DeriveStatus(p.HasProof(), p.IsValidated(), p.DueDate, now)
}

// PaymentFilter encapsulates listing parameters for payments.
type PaymentFilter struct {
	Level     string
	MemberID  string
	AthleteID string
	Status    rules.PaymentStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PaymentDetail joins the payer's display name onto a payment row.
type PaymentDetail struct {
	Payment
	PayerName   string  `db:"payer_name" json:"payer_name"`
	MemberName  *string `db:"member_name" json:"member_name,omitempty"`
	AthleteName *string `db:"athlete_name" json:"athlete_name,omitempty"`
}

// PaymentView is a payment detail with its derived status attached.
type PaymentView struct {
	PaymentDetail
	Status      rules.PaymentStatus `json:"status"`
	StatusLabel string              `json:"status_label"`
}
