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

type CancelAppointment struct {
	statusChange
}

func NewCancelAppointment(
	repo domain.Repository,
	slotsCache cache.Availability,
	notifier notification.Sink,
	audit *audit.Dispatcher,
) *CancelAppointment {
	return &CancelAppointment{statusChange{
		repo:     repo,
		cache:    slotsCache,
		notifier: notifier,
		audit:    audit,
	}}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	clinicID uint,
	actor Actor,
	appointmentID uint,
	reason string,
) (*models.Appointment, error) {
	return uc.run(ctx, clinicID, actor, appointmentID, transition{
		action: "appointment_cancelled",
		kind:   notification.KindAppointmentCancelled,
		title:  "Appointment cancelled",
		apply: func(ap *models.Appointment, now time.Time) error {
			return domain.Cancel(ap, reason, now)
		},
	})
}
