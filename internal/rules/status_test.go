package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var statusNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestDeriveStatusValidatedDominates(t *testing.T) {
	pastDue := statusNow.AddDate(0, -2, 0)
	for _, hasProof := range []bool{true, false} {
		for _, due := range []*time.Time{nil, &pastDue} {
			assert.Equal(t, StatusRegularized, DeriveStatus(hasProof, true, due, statusNow))
		}
	}
}

func TestDeriveStatusProofBeatsOverdue(t *testing.T) {
	pastDue := statusNow.AddDate(-1, 0, 0)
	assert.Equal(t, StatusPendingValidation, DeriveStatus(true, false, &pastDue, statusNow))
}

func TestDeriveStatusNoSignals(t *testing.T) {
	assert.Equal(t, StatusNotRegularized, DeriveStatus(false, false, nil, statusNow))
}

func TestDeriveStatusFutureDue(t *testing.T) {
	futureDue := statusNow.AddDate(0, 1, 0)
	assert.Equal(t, StatusNotRegularized, DeriveStatus(false, false, &futureDue, statusNow))
}

func TestDeriveStatusFlipsAtEndOfDay(t *testing.T) {
	due := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	boundary := EndOfDay(due)

	assert.Equal(t, StatusNotRegularized, DeriveStatus(false, false, &due, boundary))
	assert.Equal(t, StatusOverdue, DeriveStatus(false, false, &due, boundary.Add(time.Nanosecond)))
}

func TestDeriveStatusDueToday(t *testing.T) {
	// A payment due today is not yet overdue at any point during the day.
	due := statusNow
	assert.Equal(t, StatusNotRegularized, DeriveStatus(false, false, &due, statusNow))
}

func TestEndOfDayIsSameCalendarDay(t *testing.T) {
	due := time.Date(2026, time.July, 1, 10, 30, 0, 0, time.UTC)
	eod := EndOfDay(due)
	assert.Equal(t, due.In(clubZone).Day(), eod.Day())
	assert.Equal(t, 23, eod.Hour())
	assert.Equal(t, 59, eod.Minute())
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Regularizado", StatusLabel(StatusRegularized))
	assert.Equal(t, "Aguarda validação", StatusLabel(StatusPendingValidation))
	assert.Equal(t, "Em atraso", StatusLabel(StatusOverdue))
	assert.Equal(t, "Por regularizar", StatusLabel(StatusNotRegularized))
}
