package models

import "time"

// ARVRegimen is an antiretroviral regimen of the clinic catalog.
type ARVRegimen struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ClinicID uint `gorm:"uniqueIndex:idx_regimen_clinic_code" json:"clinic_id"`

	Code string `gorm:"size:30;not null;uniqueIndex:idx_regimen_clinic_code" json:"code"`
	Name string `gorm:"size:150;not null" json:"name"`

	// Treatment line: 1 first line, 2 second line, 3 salvage.
	Line       int    `gorm:"default:1" json:"line"`
	Components string `gorm:"size:255" json:"components"`
	Notes      string `gorm:"type:text" json:"notes"`
	Active     bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Treatment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ClinicID uint `gorm:"index" json:"clinic_id"`

	PatientID uint    `gorm:"index" json:"patient_id"`
	Patient   Patient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"patient"`

	RegimenID uint       `json:"regimen_id"`
	Regimen   ARVRegimen `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"regimen"`

	DoctorID uint   `json:"doctor_id"`
	Doctor   Doctor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"doctor"`

	StartDate time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date"`
	Status    string     `gorm:"size:20;default:'active'" json:"status"`

	DosesExpected int `gorm:"default:0" json:"doses_expected"`
	DosesTaken    int `gorm:"default:0" json:"doses_taken"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
