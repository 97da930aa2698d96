package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

var businessMessages = map[string]string{
	"time_conflict":         "The doctor already has an appointment at this time.",
	"booking_busy":          "Another booking for this doctor is in progress, try again.",
	"invalid_state":         "The appointment cannot move to this status.",
	"too_soon":              "The requested time is in the past or too soon.",
	"outside_working_hours": "The requested time is outside the doctor's working hours.",
	"invalid_date_or_time":  "Invalid date or time.",
	"invalid_date":          "Invalid date.",
	"invalid_month":         "Invalid month.",
	"patient_required":      "Patient name and phone are required.",
	"doctor_inactive":       "The doctor is not taking appointments.",
	"treatment_not_active":  "The treatment is not active.",
	"invalid_dose_count":    "Invalid dose count.",
	"clinic_not_found":      "Clinic not found.",
	"doctor_not_found":      "Doctor not found.",
	"service_not_found":     "Service not found.",
	"appointment_not_found": "Appointment not found.",
}

func businessStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "_not_found"):
		return http.StatusNotFound
	case code == "time_conflict", code == "booking_busy", code == "invalid_state":
		return http.StatusConflict
	case code == "too_soon", code == "outside_working_hours", code == "doctor_inactive",
		code == "treatment_not_active", code == "invalid_dose_count":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// respondError writes the JSON error matching err. Unknown errors are 500.
func respondError(c *gin.Context, err error) {
	if code := httperr.BusinessCode(err); code != "" {
		msg, ok := businessMessages[code]
		if !ok {
			msg = code
		}
		httperr.Write(c, businessStatus(code), code, msg)
		return
	}

	switch {
	case errors.Is(err, availability.ErrInvalidArgument):
		httperr.BadRequest(c, "invalid_argument", err.Error())
	case errors.Is(err, availability.ErrMalformedScheduleData):
		httperr.Unprocessable(c, "malformed_schedule_data", err.Error())
	case errors.Is(err, schedule.ErrInvalidTemplate):
		httperr.BadRequest(c, "invalid_working_hours", err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		httperr.NotFound(c, "not_found", "Resource not found.")
	default:
		_ = c.Error(err)
		httperr.Internal(c, "internal_error", "Unexpected error.")
	}
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
