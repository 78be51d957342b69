package dto

import "github.com/cab-basket/socios-api/internal/rules"

// EstimateRequest asks for a fee quote without touching stored data.
type EstimateRequest struct {
	BirthDate     string `json:"birth_date" form:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender        string `json:"gender" form:"gender" validate:"required,oneof=M F"`
	Tier          string `json:"tier" form:"tier" validate:"required,membership_tier"`
	EligibleCount int    `json:"eligible_count" form:"eligible_count" validate:"omitempty,min=1"`
	ProRank       int    `json:"pro_rank" form:"pro_rank" validate:"omitempty,min=1"`
}

// EstimateResponse returns the classification and the quote with
// display-ready labels.
type EstimateResponse struct {
	Category         rules.Category  `json:"category"`
	Band             rules.PriceBand `json:"band"`
	Quote            rules.Quote     `json:"quote"`
	RegistrationText string          `json:"registration_text"`
	MonthlyText      string          `json:"monthly_text"`
	QuarterlyText    string          `json:"quarterly_text"`
	AnnualText       string          `json:"annual_text"`
}

// ClassifyRequest resolves the age bracket for a birth date and gender.
type ClassifyRequest struct {
	BirthDate string `json:"birth_date" form:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender    string `json:"gender" form:"gender" validate:"required,oneof=M F"`
}

// ClassifyResponse returns the bracket and its price band.
type ClassifyResponse struct {
	Category   rules.Category  `json:"category"`
	Band       rules.PriceBand `json:"band"`
	DuesExempt bool            `json:"dues_exempt"`
}
