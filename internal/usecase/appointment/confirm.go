package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
)

type ConfirmAppointment struct {
	statusChange
}

func NewConfirmAppointment(
	repo domain.Repository,
	slotsCache cache.Availability,
	notifier notification.Sink,
	audit *audit.Dispatcher,
) *ConfirmAppointment {
	return &ConfirmAppointment{statusChange{
		repo:     repo,
		cache:    slotsCache,
		notifier: notifier,
		audit:    audit,
	}}
}

func (uc *ConfirmAppointment) Execute(
	ctx context.Context,
	clinicID uint,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.run(ctx, clinicID, actor, appointmentID, transition{
		action: "appointment_confirmed",
		kind:   notification.KindAppointmentConfirmed,
		title:  "Appointment confirmed",
		apply: func(ap *models.Appointment, now time.Time) error {
			return domain.Confirm(ap, now)
		},
	})
}
