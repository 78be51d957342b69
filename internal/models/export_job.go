package models

import "time"

// ExportFormat selects the rendering backend for a treasury export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "CSV"
	ExportPDF ExportFormat = "PDF"
)

// ValidExportFormat reports whether the value is a known format.
func ValidExportFormat(f ExportFormat) bool {
	return f == ExportCSV || f == ExportPDF
}

// Export job lifecycle states.
type ExportStatus string

const (
	ExportPending   ExportStatus = "PENDING"
	ExportRunning   ExportStatus = "RUNNING"
	ExportCompleted ExportStatus = "COMPLETED"
	ExportFailed    ExportStatus = "FAILED"
)

// ExportJob tracks an asynchronous treasury export request.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	Format      ExportFormat `db:"format" json:"format"`
	Status      ExportStatus `db:"status" json:"status"`
	Params      []byte       `db:"params" json:"-"`
	FilePath    *string      `db:"file_path" json:"-"`
	Error       *string      `db:"error" json:"error,omitempty"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
