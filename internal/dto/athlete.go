package dto

// CreateAthleteRequest registers an athlete under the caller's household.
// Birth date uses YYYY-MM-DD.
type CreateAthleteRequest struct {
	FullName        string `json:"full_name" validate:"required,min=3"`
	Gender          string `json:"gender" validate:"required,oneof=M F"`
	BirthDate       string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	PaymentPlan     string `json:"payment_plan" validate:"required,oneof=MONTHLY QUARTERLY ANNUAL"`
	GuardianName    string `json:"guardian_name"`
	GuardianContact string `json:"guardian_contact"`
}

// UpdateAthleteRequest edits an athlete. Category is accepted only from
// staff, as a manual bracket override.
type UpdateAthleteRequest struct {
	FullName        string  `json:"full_name" validate:"required,min=3"`
	Gender          string  `json:"gender" validate:"required,oneof=M F"`
	BirthDate       string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	PaymentPlan     string  `json:"payment_plan" validate:"required,oneof=MONTHLY QUARTERLY ANNUAL"`
	GuardianName    string  `json:"guardian_name"`
	GuardianContact string  `json:"guardian_contact"`
	Category        *string `json:"category"`
	Active          *bool   `json:"active"`
}
