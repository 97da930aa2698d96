package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// Directory is implemented by repository.DirectoryGormRepository.
type Directory interface {
	ClinicBySlug(ctx context.Context, slug string) (*models.Clinic, error)
	DoctorIDForUser(ctx context.Context, clinicID, userID uint) (uint, error)
}

// ownDoctorID returns the doctor record of a caller with the doctor role.
// Other roles get 0. A doctor account without a doctor record is refused.
func ownDoctorID(c *gin.Context, dir Directory) (uint, bool) {
	auth := middleware.Auth(c)
	if auth.Role != middleware.RoleDoctor {
		return 0, true
	}

	id, err := dir.DoctorIDForUser(c.Request.Context(), auth.ClinicID, auth.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Forbidden(c, "doctor_profile_missing", "Your account is not linked to a doctor.")
			return 0, false
		}
		httperr.Internal(c, "internal_error", "Unexpected error.")
		return 0, false
	}
	return id, true
}

// canManageDoctor lets admins through and doctors only for themselves.
func canManageDoctor(c *gin.Context, dir Directory, doctorID uint) bool {
	auth := middleware.Auth(c)
	if auth.Role == middleware.RoleAdmin {
		return true
	}

	if auth.Role == middleware.RoleDoctor {
		own, ok := ownDoctorID(c, dir)
		if !ok {
			return false
		}
		if own == doctorID {
			return true
		}
	}

	httperr.Forbidden(c, "forbidden", "You cannot manage this doctor.")
	return false
}

// actor builds the use case actor; doctors are limited to their own
// appointments.
func actor(c *gin.Context, dir Directory) (ucAppointment.Actor, bool) {
	doctorID, ok := ownDoctorID(c, dir)
	if !ok {
		return ucAppointment.Actor{}, false
	}
	return ucAppointment.Actor{
		UserID:   middleware.Auth(c).UserID,
		DoctorID: doctorID,
	}, true
}
