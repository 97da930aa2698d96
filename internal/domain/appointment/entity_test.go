package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

var now = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

func withStatus(s Status) *models.Appointment {
	return &models.Appointment{Status: string(s), StartTime: "10:00", EndTime: "10:30"}
}

func TestOccupiesTime(t *testing.T) {
	assert.True(t, OccupiesTime(StatusPending))
	assert.True(t, OccupiesTime(StatusConfirmed))
	assert.True(t, OccupiesTime(StatusCompleted))
	assert.True(t, OccupiesTime(StatusNoShow))
	assert.False(t, OccupiesTime(StatusCancelled))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusNoShow.Valid())
	assert.False(t, Status("scheduled").Valid())

	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusNoShow.Terminal())

	assert.Equal(t, StatusPending, InitialStatus())
}

func TestTransitions(t *testing.T) {
	type action func(ap *models.Appointment) error

	actions := map[string]action{
		"confirm":  func(ap *models.Appointment) error { return Confirm(ap, now) },
		"cancel":   func(ap *models.Appointment) error { return Cancel(ap, "", now) },
		"complete": func(ap *models.Appointment) error { return Complete(ap, now) },
		"no_show":  func(ap *models.Appointment) error { return MarkNoShow(ap, now) },
		"reschedule": func(ap *models.Appointment) error {
			return Reschedule(ap, now, "11:00", "11:30")
		},
	}

	allowed := map[Status][]string{
		StatusPending:   {"confirm", "cancel", "reschedule"},
		StatusConfirmed: {"cancel", "complete", "no_show", "reschedule"},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusNoShow:    {},
	}

	for from, ok := range allowed {
		for name, act := range actions {
			want := false
			for _, a := range ok {
				if a == name {
					want = true
				}
			}

			t.Run(string(from)+"/"+name, func(t *testing.T) {
				err := act(withStatus(from))
				if want {
					assert.NoError(t, err)
				} else {
					assert.True(t, httperr.IsBusiness(err, "invalid_state"), "got %v", err)
				}
			})
		}
	}
}

func TestCancel_SetsReason(t *testing.T) {
	ap := withStatus(StatusConfirmed)
	require.NoError(t, Cancel(ap, "  patient asked  ", now))

	assert.Equal(t, string(StatusCancelled), ap.Status)
	assert.Equal(t, "patient asked", ap.CancelReason)
	require.NotNil(t, ap.CancelledAt)
	assert.Equal(t, now, *ap.CancelledAt)
}

func TestReschedule_ResetsToPending(t *testing.T) {
	ap := withStatus(StatusConfirmed)
	ap.ConfirmedAt = &now

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Reschedule(ap, day, "14:00", "14:30"))

	assert.Equal(t, string(StatusPending), ap.Status)
	assert.Equal(t, day, ap.Date)
	assert.Equal(t, "14:00", ap.StartTime)
	assert.Equal(t, "14:30", ap.EndTime)
	assert.Nil(t, ap.ConfirmedAt)
}

func TestFailedTransitionLeavesAppointmentUntouched(t *testing.T) {
	ap := withStatus(StatusCompleted)
	before := *ap

	assert.Error(t, Cancel(ap, "late", now))
	assert.Equal(t, before, *ap)
}
