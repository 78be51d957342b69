package dto

// CreatePaymentRequest records a fee obligation. Exactly one of MemberID /
// AthleteID must be set, matching Level.
type CreatePaymentRequest struct {
	Level       string  `json:"level" validate:"required,oneof=MEMBER ATHLETE"`
	MemberID    *string `json:"member_id"`
	AthleteID   *string `json:"athlete_id"`
	Description string  `json:"description" validate:"required,min=3"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// ValidatePaymentRequest confirms or rejects an uploaded proof.
type ValidatePaymentRequest struct {
	Validated bool   `json:"validated"`
	Note      string `json:"note"`
}
