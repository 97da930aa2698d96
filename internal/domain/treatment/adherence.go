// Package treatment keeps the bookkeeping rules of ARV treatments.
package treatment

import (
	"math"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
)

type AdherenceLevel string

const (
	AdherenceGood AdherenceLevel = "good"
	AdherenceFair AdherenceLevel = "fair"
	AdherencePoor AdherenceLevel = "poor"
)

// AdherencePercent is taken*100/expected rounded to one decimal.
// Nothing expected means 0.
func AdherencePercent(taken, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return math.Round(float64(taken)*1000/float64(expected)) / 10
}

func Classify(percent float64) AdherenceLevel {
	switch {
	case percent >= 95:
		return AdherenceGood
	case percent >= 85:
		return AdherenceFair
	default:
		return AdherencePoor
	}
}

// RecordDoses adds a reporting period to the running totals of an active
// treatment.
func RecordDoses(t *models.Treatment, taken, expected int) error {
	if Status(t.Status) != StatusActive {
		return httperr.ErrBusiness("treatment_not_active")
	}
	if taken < 0 || expected <= 0 || taken > expected {
		return httperr.ErrBusiness("invalid_dose_count")
	}

	t.DosesTaken += taken
	t.DosesExpected += expected
	return nil
}

func CanTransition(from, to Status) error {
	if from != StatusActive {
		return httperr.ErrBusiness("invalid_state")
	}
	if to != StatusStopped && to != StatusCompleted {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}
