package models

import (
	"time"

	"github.com/cab-basket/socios-api/internal/rules"
)

// PaymentPlan is the installment cadence chosen for an athlete's quotas.
type PaymentPlan string

const (
	PlanMonthly   PaymentPlan = "MONTHLY"
	PlanQuarterly PaymentPlan = "QUARTERLY"
	PlanAnnual    PaymentPlan = "ANNUAL"
)

// ValidPaymentPlan reports whether the value is a known plan.
func ValidPaymentPlan(p PaymentPlan) bool {
	switch p {
	case PlanMonthly, PlanQuarterly, PlanAnnual:
		return true
	}
	return false
}

// Athlete is a registered player attached to a member's household. Category
// is stored so admins can override the computed bracket; reads surface the
// drift between the two instead of silently resolving it.
type Athlete struct {
	ID              string         `db:"id" json:"id"`
	MemberID        string         `db:"member_id" json:"member_id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Gender          rules.Gender   `db:"gender" json:"gender"`
	BirthDate       time.Time      `db:"birth_date" json:"birth_date"`
	Category        rules.Category `db:"category" json:"category"`
	PaymentPlan     PaymentPlan    `db:"payment_plan" json:"payment_plan"`
	GuardianName    string         `db:"guardian_name" json:"guardian_name"`
	GuardianContact string         `db:"guardian_contact" json:"guardian_contact"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// AthleteFilter encapsulates listing parameters for athletes.
type AthleteFilter struct {
	MemberID  string
	Search    string
	Category  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AthleteView decorates an athlete with the classifier's output and, when
// requested, the household-aware fee quote.
type AthleteView struct {
	Athlete
	ComputedCategory rules.Category `json:"computed_category"`
	CategoryDrift    bool           `json:"category_drift"`
	Quote            *rules.Quote   `json:"quote,omitempty"`
}
