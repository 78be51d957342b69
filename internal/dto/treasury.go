package dto

import (
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/rules"
)

// TreasurySummary aggregates the console's headline numbers.
type TreasurySummary struct {
	TotalPayments    int                             `json:"total_payments"`
	TotalAmount      float64                         `json:"total_amount"`
	TotalAmountLabel string                          `json:"total_amount_label"`
	ByStatus         map[rules.PaymentStatus]int     `json:"by_status"`
	AmountByStatus   map[rules.PaymentStatus]float64 `json:"amount_by_status"`
	PendingReview    int                             `json:"pending_review"`
	GeneratedAt      string                          `json:"generated_at"`
}

// TreasuryExportRequest schedules an asynchronous export of payment rows.
type TreasuryExportRequest struct {
	Format string `json:"format" validate:"required,oneof=CSV PDF"`
	Level  string `json:"level" validate:"omitempty,oneof=MEMBER ATHLETE"`
	Status string `json:"status"`
	Search string `json:"search"`
}

// TreasuryExportResponse reports the job state and, once completed, the
// signed download URL.
type TreasuryExportResponse struct {
	Job         models.ExportJob `json:"job"`
	DownloadURL string           `json:"download_url,omitempty"`
}
