package dto

import "github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"

type AvailabilityDTO struct {
	DoctorID    uint                    `json:"doctor_id"`
	Date        string                  `json:"date"`
	SlotMinutes int                     `json:"slot_minutes"`
	Granular    bool                    `json:"granular"`
	Slots       []availability.Interval `json:"slots"`
}
