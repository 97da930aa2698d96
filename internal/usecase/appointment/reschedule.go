package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type RescheduleInput struct {
	ClinicID      uint
	AppointmentID uint
	Actor         Actor
	Date          string
	Time          string
}

type RescheduleAppointment struct {
	repo     domain.Repository
	locker   lock.Locker
	lockTTL  time.Duration
	cache    cache.Availability
	notifier notification.Sink
	audit    *audit.Dispatcher
}

func NewRescheduleAppointment(
	repo domain.Repository,
	locker lock.Locker,
	lockTTL time.Duration,
	slotsCache cache.Availability,
	notifier notification.Sink,
	audit *audit.Dispatcher,
) *RescheduleAppointment {
	return &RescheduleAppointment{
		repo:     repo,
		locker:   locker,
		lockTTL:  lockTTL,
		cache:    slotsCache,
		notifier: notifier,
		audit:    audit,
	}
}

// Execute keeps the appointment length and moves it to the new start.
func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*models.Appointment, error) {

	clinic, err := uc.repo.GetClinicByID(ctx, in.ClinicID)
	if err != nil {
		return nil, notFoundAs(err, "clinic_not_found")
	}

	ap, err := loadOwned(ctx, uc.repo, in.ClinicID, in.Actor, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanReschedule(domain.Status(ap.Status)); err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(clinic.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	if err := checkAdvance(clinic, start); err != nil {
		return nil, err
	}

	length, err := appointmentMinutes(ap)
	if err != nil {
		return nil, err
	}

	window, err := dayWindow(start, length)
	if err != nil {
		return nil, err
	}

	if err := assertCovered(ctx, uc.repo, ap.DoctorID, start, window); err != nil {
		return nil, err
	}

	previousDate := ap.Date.Format(dateLayout)
	previousStart := ap.StartTime

	if err := domain.Reschedule(ap, timezone.Day(start), window.Start.String(), window.End.String()); err != nil {
		return nil, err
	}

	if err := reserve(ctx, uc.locker, uc.lockTTL, uc.repo, ap); err != nil {
		return nil, err
	}

	uc.cache.InvalidateDoctor(ctx, ap.DoctorID)

	uc.audit.Dispatch(audit.Event{
		ClinicID: in.ClinicID,
		UserID:   in.Actor.userPtr(),
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"from_date":  previousDate,
			"from_start": previousStart,
			"to_date":    ap.Date.Format(dateLayout),
			"to_start":   ap.StartTime,
		},
	})

	notifyPatient(ctx, uc.notifier, ap, notification.KindAppointmentRescheduled, "Appointment rescheduled")

	return ap, nil
}

func appointmentMinutes(ap *models.Appointment) (int, error) {
	window, err := parseStored(ap.StartTime, ap.EndTime)
	if err != nil {
		return 0, err
	}
	return window.Minutes(), nil
}
