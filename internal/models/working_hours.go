package models

import "time"

// WorkingHours is one declared interval of a doctor's weekly template.
// A weekday may have several rows (morning and afternoon, for instance).
type WorkingHours struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	DoctorID uint `gorm:"index:idx_working_hours_doctor_weekday" json:"doctor_id"`

	// 0 = Sunday .. 6 = Saturday
	Weekday int `gorm:"index:idx_working_hours_doctor_weekday" json:"weekday"`

	StartTime string `gorm:"size:5;not null" json:"start_time"`
	EndTime   string `gorm:"size:5;not null" json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
