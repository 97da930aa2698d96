package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClinicID uint `gorm:"index" json:"clinic_id"`

	DoctorID uint   `gorm:"index:idx_appointments_doctor_date" json:"doctor_id"`
	Doctor   Doctor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"doctor"`

	PatientID uint    `json:"patient_id"`
	Patient   Patient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"patient"`

	MedicalServiceID *uint          `json:"medical_service_id"`
	MedicalService   MedicalService `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"medical_service"`

	// Calendar day in the clinic time zone.
	Date time.Time `gorm:"type:date;not null;index:idx_appointments_doctor_date" json:"date"`

	// "HH:MM", naive local time of day.
	StartTime string `gorm:"size:5;not null" json:"start_time"`
	EndTime   string `gorm:"size:5;not null" json:"end_time"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	Notes        string     `gorm:"size:255" json:"notes"`
	CancelReason string     `gorm:"size:255" json:"cancel_reason"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	NoShowAt     *time.Time `json:"no_show_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
