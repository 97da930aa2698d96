package appointment

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
)

const dateLayout = "2006-01-02"

// SlotComputer is satisfied by *availability.Engine.
type SlotComputer interface {
	ComputeAvailableSlots(ctx context.Context, req availability.Request) (*availability.DaySlots, error)
}

// Actor is who performs a state change. A non-zero DoctorID restricts the
// actor to that doctor's appointments.
type Actor struct {
	UserID   uint
	DoctorID uint
}

func (a Actor) userPtr() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func notFoundAs(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}

func notifyPatient(
	ctx context.Context,
	sink notification.Sink,
	ap *models.Appointment,
	kind string,
	title string,
) {
	patientID := ap.PatientID
	apID := ap.ID

	body := fmt.Sprintf("%s %s-%s", ap.Date.Format(dateLayout), ap.StartTime, ap.EndTime)
	if ap.Doctor.Name != "" {
		body += " with " + ap.Doctor.Name
	}

	_ = sink.Notify(ctx, notification.Message{
		ClinicID:      ap.ClinicID,
		UserID:        ap.Patient.UserID,
		PatientID:     &patientID,
		AppointmentID: &apID,
		Kind:          kind,
		Title:         title,
		Body:          body,
	})
}

func toListDTO(ap models.Appointment) dto.AppointmentListDTO {
	return dto.AppointmentListDTO{
		ID:          ap.ID,
		DoctorID:    ap.DoctorID,
		DoctorName:  ap.Doctor.Name,
		PatientID:   ap.PatientID,
		PatientName: ap.Patient.Name,
		ServiceName: ap.MedicalService.Name,
		Date:        ap.Date.Format(dateLayout),
		StartTime:   ap.StartTime,
		EndTime:     ap.EndTime,
		Status:      ap.Status,
	}
}

func parseStored(start, end string) (availability.Interval, error) {
	s, err := availability.ParseClock(start)
	if err != nil {
		return availability.Interval{}, &availability.DataError{Source: "booking", Start: start, End: end, Reason: err.Error()}
	}
	e, err := availability.ParseEndClock(end)
	if err != nil || e <= s {
		return availability.Interval{}, &availability.DataError{Source: "booking", Start: start, End: end, Reason: "invalid stored window"}
	}
	return availability.Interval{Start: s, End: e}, nil
}
