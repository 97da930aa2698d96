package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	ClinicID uint
	DoctorID uint

	PatientName  string
	PatientPhone string
	PatientEmail string

	// Optional; without it the duration is the clinic slot size.
	ServiceID uint

	Date  string
	Time  string
	Notes string

	// nil for public bookings.
	ActorUserID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo     domain.Repository
	locker   lock.Locker
	lockTTL  time.Duration
	cache    cache.Availability
	notifier notification.Sink
	audit    *audit.Dispatcher
}

func NewCreateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	lockTTL time.Duration,
	slotsCache cache.Availability,
	notifier notification.Sink,
	audit *audit.Dispatcher,
) *CreateAppointment {
	return &CreateAppointment{
		repo:     repo,
		locker:   locker,
		lockTTL:  lockTTL,
		cache:    slotsCache,
		notifier: notifier,
		audit:    audit,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1️⃣ Clinic + doctor
	// --------------------------------------------------
	clinic, err := uc.repo.GetClinicByID(ctx, in.ClinicID)
	if err != nil {
		return nil, notFoundAs(err, "clinic_not_found")
	}

	doctor, err := uc.repo.GetDoctor(ctx, in.ClinicID, in.DoctorID)
	if err != nil {
		return nil, notFoundAs(err, "doctor_not_found")
	}
	if !doctor.Active {
		return nil, httperr.ErrBusiness("doctor_inactive")
	}

	// --------------------------------------------------
	// 2️⃣ Date / time in the clinic time zone
	// --------------------------------------------------
	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(clinic.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	// --------------------------------------------------
	// 3️⃣ Minimum advance
	// --------------------------------------------------
	if err := checkAdvance(clinic, start); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Service / duration
	// --------------------------------------------------
	duration := clinic.SlotMinutes
	var serviceID *uint
	if in.ServiceID != 0 {
		service, err := uc.repo.GetService(ctx, in.ClinicID, in.ServiceID)
		if err != nil {
			return nil, notFoundAs(err, "service_not_found")
		}
		duration = service.DurationMin
		serviceID = &service.ID
	}
	if duration <= 0 {
		duration = availability.DefaultSlotMinutes
	}

	window, err := dayWindow(start, duration)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Working hours
	// --------------------------------------------------
	if err := assertCovered(ctx, uc.repo, in.DoctorID, start, window); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6️⃣ Patient (get or create)
	// --------------------------------------------------
	name := strings.TrimSpace(in.PatientName)
	phone := strings.TrimSpace(in.PatientPhone)
	if name == "" || phone == "" {
		return nil, httperr.ErrBusiness("patient_required")
	}

	patient, err := uc.repo.GetOrCreatePatient(
		ctx,
		in.ClinicID,
		name,
		phone,
		strings.TrimSpace(in.PatientEmail),
	)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 7️⃣ Reserve under the doctor-day lock
	// --------------------------------------------------
	ap := &models.Appointment{
		ClinicID:         in.ClinicID,
		DoctorID:         in.DoctorID,
		PatientID:        patient.ID,
		MedicalServiceID: serviceID,
		Date:             timezone.Day(start),
		StartTime:        window.Start.String(),
		EndTime:          window.End.String(),
		Status:           string(domain.InitialStatus()),
		Notes:            strings.TrimSpace(in.Notes),
	}

	if err := reserve(ctx, uc.locker, uc.lockTTL, uc.repo, ap); err != nil {
		return nil, err
	}

	ap.Doctor = *doctor
	ap.Patient = *patient
	uc.cache.InvalidateDoctor(ctx, ap.DoctorID)

	// --------------------------------------------------
	// 8️⃣ Audit + notification
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		ClinicID: in.ClinicID,
		UserID:   in.ActorUserID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"doctor_id": ap.DoctorID,
			"date":      ap.Date.Format(dateLayout),
			"start":     ap.StartTime,
		},
	})

	notifyPatient(ctx, uc.notifier, ap, notification.KindAppointmentCreated, "Appointment requested")

	return ap, nil
}

// ======================================================
// shared by create and reschedule
// ======================================================

func checkAdvance(clinic *models.Clinic, start time.Time) error {
	minAdvance := clinic.MinAdvanceMinutes
	if minAdvance < 0 {
		minAdvance = 0
	}

	now := timezone.NowIn(clinic.Timezone)
	if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return httperr.ErrBusiness("too_soon")
	}
	return nil
}

// dayWindow turns a start instant and a duration into a window of the same
// calendar day.
func dayWindow(start time.Time, minutes int) (availability.Interval, error) {
	from := availability.Clock(start.Hour()*60 + start.Minute())
	to := from + availability.Clock(minutes)
	if to > availability.MinutesPerDay {
		return availability.Interval{}, httperr.ErrBusiness("outside_working_hours")
	}
	return availability.Interval{Start: from, End: to}, nil
}

func assertCovered(
	ctx context.Context,
	repo domain.Repository,
	doctorID uint,
	day time.Time,
	window availability.Interval,
) error {
	rows, err := repo.ListWorkingHours(ctx, doctorID, availability.Weekday(day))
	if err != nil {
		return err
	}

	intervals := make([]availability.TimeRange, 0, len(rows))
	for _, wh := range rows {
		intervals = append(intervals, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
	}

	ok, err := schedule.Covers(intervals, window.Start.String(), window.End.String())
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ErrBusiness("outside_working_hours")
	}
	return nil
}

func reserve(
	ctx context.Context,
	locker lock.Locker,
	ttl time.Duration,
	repo domain.Repository,
	ap *models.Appointment,
) error {
	release, err := locker.Acquire(ctx, lock.BookingKey(ap.DoctorID, ap.Date), ttl)
	if errors.Is(err, lock.ErrNotAcquired) {
		return httperr.ErrBusiness("booking_busy")
	}
	if err != nil {
		return err
	}
	defer release()

	return repo.SaveIfFree(ctx, ap)
}
