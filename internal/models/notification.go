package models

import "time"

type Notification struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ClinicID uint `json:"clinic_id"`

	// Recipient. At least one of them is set.
	UserID    *uint `gorm:"index" json:"user_id"`
	PatientID *uint `gorm:"index" json:"patient_id"`

	Kind  string `gorm:"size:50;not null" json:"kind"`
	Title string `gorm:"size:150;not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`

	AppointmentID *uint      `json:"appointment_id"`
	ReadAt        *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}
