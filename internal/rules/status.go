package rules

import "time"

// PaymentStatus is the treasury state derived from a payment record.
type PaymentStatus string

const (
	StatusRegularized       PaymentStatus = "REGULARIZED"
	StatusPendingValidation PaymentStatus = "PENDING_VALIDATION"
	StatusNotRegularized    PaymentStatus = "NOT_REGULARIZED"
	StatusOverdue           PaymentStatus = "OVERDUE"
)

// StatusLabel returns the Portuguese label shown in the treasury console.
func StatusLabel(s PaymentStatus) string {
	switch s {
	case StatusRegularized:
		return "Regularizado"
	case StatusPendingValidation:
		return "Aguarda validação"
	case StatusOverdue:
		return "Em atraso"
	default:
		return "Por regularizar"
	}
}

// clubZone is the timezone used for due-date boundaries.
var clubZone = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// EndOfDay returns the last instant of the given due date in the club's
// timezone. A payment is on time through the whole calendar day it is due.
func EndOfDay(t time.Time) time.Time {
	local := t.In(clubZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), clubZone)
}

// DeriveStatus projects the three stored signals onto a single status.
// Priority is an explicit tie-break: a validated payment is regularized no
// matter how stale it is, and a submitted proof always beats a lapsed due
// date.
func DeriveStatus(hasProof, validated bool, dueDate *time.Time, now time.Time) PaymentStatus {
	switch {
	case validated:
		return StatusRegularized
	case hasProof:
		return StatusPendingValidation
	case dueDate != nil && now.After(EndOfDay(*dueDate)):
		return StatusOverdue
	default:
		return StatusNotRegularized
	}
}

// DeriveStatusNow is DeriveStatus against the wall clock.
func DeriveStatusNow(hasProof, validated bool, dueDate *time.Time) PaymentStatus {
	return DeriveStatus(hasProof, validated, dueDate, time.Now())
}
