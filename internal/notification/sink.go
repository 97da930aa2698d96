// Package notification delivers in-app notifications about appointments.
package notification

import "context"

const (
	KindAppointmentCreated     = "appointment_created"
	KindAppointmentConfirmed   = "appointment_confirmed"
	KindAppointmentCancelled   = "appointment_cancelled"
	KindAppointmentCompleted   = "appointment_completed"
	KindAppointmentNoShow      = "appointment_no_show"
	KindAppointmentRescheduled = "appointment_rescheduled"
)

type Message struct {
	ClinicID      uint
	UserID        *uint
	PatientID     *uint
	AppointmentID *uint
	Kind          string
	Title         string
	Body          string
}

type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
