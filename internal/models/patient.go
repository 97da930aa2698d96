package models

import "time"

// Patient belongs to a clinic. Patients booking through the public page have
// no login; UserID is set for customer accounts.
type Patient struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	ClinicID uint  `gorm:"index" json:"clinic_id"`
	UserID   *uint `json:"user_id"`

	Name        string     `gorm:"size:100;not null" json:"name"`
	Phone       string     `gorm:"size:20;index" json:"phone"`
	Email       string     `gorm:"size:100" json:"email"`
	Gender      string     `gorm:"size:10" json:"gender"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	Notes       string     `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
