package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	auth := middleware.Auth(c)
	if auth.UserID == 0 {
		httperr.Unauthorized(c, "user_not_in_context", "Not authenticated.")
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Clinic").
		First(&user, auth.UserID).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "User not found.")
		return
	}

	out := gin.H{
		"user":   userJSON(&user),
		"clinic": clinicJSON(&user.Clinic),
	}

	if user.Role == middleware.RoleDoctor {
		var doctor models.Doctor
		if err := h.db.WithContext(c.Request.Context()).
			Where("user_id = ? AND clinic_id = ?", user.ID, user.ClinicID).
			First(&doctor).Error; err == nil {
			out["doctor"] = doctor
		}
	}

	c.JSON(http.StatusOK, out)
}
