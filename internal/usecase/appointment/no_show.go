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

type MarkNoShow struct {
	statusChange
}

func NewMarkNoShow(
	repo domain.Repository,
	slotsCache cache.Availability,
	notifier notification.Sink,
	audit *audit.Dispatcher,
) *MarkNoShow {
	return &MarkNoShow{statusChange{
		repo:     repo,
		cache:    slotsCache,
		notifier: notifier,
		audit:    audit,
	}}
}

func (uc *MarkNoShow) Execute(
	ctx context.Context,
	clinicID uint,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.run(ctx, clinicID, actor, appointmentID, transition{
		action: "appointment_no_show",
		kind:   notification.KindAppointmentNoShow,
		title:  "Missed appointment",
		apply: func(ap *models.Appointment, now time.Time) error {
			return domain.MarkNoShow(ap, now)
		},
	})
}
