package models

import (
	"time"

	"github.com/cab-basket/socios-api/internal/rules"
)

// Member is a household head (sócio). The tier drives athlete pricing; the
// contact e-mails field accepts a semicolon-separated list so both guardians
// receive club mail.
type Member struct {
	ID            string               `db:"id" json:"id"`
	UserID        string               `db:"user_id" json:"user_id"`
	FullName      string               `db:"full_name" json:"full_name"`
	Email         string               `db:"email" json:"email"`
	ContactEmails string               `db:"contact_emails" json:"contact_emails"`
	Phone         string               `db:"phone" json:"phone"`
	Address       string               `db:"address" json:"address"`
	PostalCode    string               `db:"postal_code" json:"postal_code"`
	NIF           string               `db:"nif" json:"nif"`
	Tier          rules.MembershipTier `db:"tier" json:"tier"`
	Active        bool                 `db:"active" json:"active"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// MemberFilter encapsulates allowed search parameters for listing members.
type MemberFilter struct {
	Search    string
	Tier      string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MemberDetail adds the household athlete count to a member row.
type MemberDetail struct {
	Member
	AthleteCount int `db:"athlete_count" json:"athlete_count"`
}
