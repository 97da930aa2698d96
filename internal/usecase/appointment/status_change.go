package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// statusChange is the common path of confirm, cancel, complete and no-show:
// load, check ownership, apply the domain action, persist, then audit,
// notify and drop cached availability.
type statusChange struct {
	repo     domain.Repository
	cache    cache.Availability
	notifier notification.Sink
	audit    *audit.Dispatcher
}

type transition struct {
	action string
	kind   string
	title  string
	apply  func(ap *models.Appointment, now time.Time) error
}

func (s *statusChange) run(
	ctx context.Context,
	clinicID uint,
	actor Actor,
	appointmentID uint,
	tr transition,
) (*models.Appointment, error) {

	clinic, err := s.repo.GetClinicByID(ctx, clinicID)
	if err != nil {
		return nil, notFoundAs(err, "clinic_not_found")
	}

	ap, err := loadOwned(ctx, s.repo, clinicID, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	now := timezone.NowIn(clinic.Timezone)
	if err := tr.apply(ap, now); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	s.cache.InvalidateDoctor(ctx, ap.DoctorID)

	s.audit.Dispatch(audit.Event{
		ClinicID: clinicID,
		UserID:   actor.userPtr(),
		Action:   tr.action,
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{"status": ap.Status},
	})

	notifyPatient(ctx, s.notifier, ap, tr.kind, tr.title)

	return ap, nil
}

func loadOwned(
	ctx context.Context,
	repo domain.Repository,
	clinicID uint,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	ap, err := repo.GetAppointment(ctx, clinicID, appointmentID)
	if err != nil {
		return nil, notFoundAs(err, "appointment_not_found")
	}
	if actor.DoctorID != 0 && ap.DoctorID != actor.DoctorID {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return ap, nil
}
