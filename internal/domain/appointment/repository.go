package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Repository interface {
	// -------- Clinic --------
	GetClinicByID(
		ctx context.Context,
		id uint,
	) (*models.Clinic, error)

	// -------- Doctor / Service --------
	GetDoctor(
		ctx context.Context,
		clinicID uint,
		doctorID uint,
	) (*models.Doctor, error)

	GetService(
		ctx context.Context,
		clinicID uint,
		serviceID uint,
	) (*models.MedicalService, error)

	// -------- Patient --------
	GetOrCreatePatient(
		ctx context.Context,
		clinicID uint,
		name string,
		phone string,
		email string,
	) (*models.Patient, error)

	// -------- Schedule --------
	ListWorkingHours(
		ctx context.Context,
		doctorID uint,
		weekday int,
	) ([]models.WorkingHours, error)

	// -------- Appointment (create / reschedule) --------

	// SaveIfFree inserts (ID == 0) or updates the appointment inside one
	// transaction, after locking every occupying appointment of the same
	// doctor and day that overlaps it. It fails with the business error
	// "time_conflict" when one exists.
	SaveIfFree(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Appointment (state change) --------
	GetAppointment(
		ctx context.Context,
		clinicID uint,
		appointmentID uint,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Listing --------

	// ListAppointmentsForPeriod returns the appointments with from <= date < to.
	// doctorID 0 means every doctor of the clinic.
	ListAppointmentsForPeriod(
		ctx context.Context,
		clinicID uint,
		doctorID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)
}
