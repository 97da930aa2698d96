package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ClinicHandler struct {
	db    *gorm.DB
	cache cache.Availability
	audit *audit.Dispatcher
}

func NewClinicHandler(db *gorm.DB, slotsCache cache.Availability, auditDispatcher *audit.Dispatcher) *ClinicHandler {
	return &ClinicHandler{db: db, cache: slotsCache, audit: auditDispatcher}
}

type UpdateClinicRequest struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	Address           *string `json:"address"`
	Timezone          *string `json:"timezone"`
	MinAdvanceMinutes *int    `json:"min_advance_minutes"`
	SlotMinutes       *int    `json:"slot_minutes"`
}

func (h *ClinicHandler) load(c *gin.Context) (*models.Clinic, bool) {
	clinicID := middleware.Auth(c).ClinicID

	var clinic models.Clinic
	if err := h.db.WithContext(c.Request.Context()).First(&clinic, clinicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "clinic_not_found", "Clinic not found.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_clinic", "Could not load the clinic.")
		return nil, false
	}
	return &clinic, true
}

func (h *ClinicHandler) GetMeClinic(c *gin.Context) {
	clinic, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, clinic)
}

func (h *ClinicHandler) UpdateMeClinic(c *gin.Context) {
	auth := middleware.Auth(c)

	clinic, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		clinic.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		clinic.Phone = *req.Phone
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}

	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Unknown time zone.")
			return
		}
		clinic.Timezone = *req.Timezone
	}

	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_advance", "Minimum advance must be zero or positive (minutes).")
			return
		}
		clinic.MinAdvanceMinutes = *req.MinAdvanceMinutes
	}

	slotChanged := false
	if req.SlotMinutes != nil {
		if *req.SlotMinutes <= 0 || *req.SlotMinutes > 240 {
			httperr.BadRequest(c, "invalid_slot_minutes", "Slot length must be between 1 and 240 minutes.")
			return
		}
		slotChanged = *req.SlotMinutes != clinic.SlotMinutes
		clinic.SlotMinutes = *req.SlotMinutes
	}

	if err := h.db.WithContext(c.Request.Context()).Save(clinic).Error; err != nil {
		httperr.Internal(c, "failed_to_update_clinic", "Could not save the clinic settings.")
		return
	}

	if slotChanged {
		h.invalidateDoctors(c, clinic.ID)
	}

	writeAudit(h.audit, clinic.ID, auth.UserID, "clinic_updated", "clinic", &clinic.ID, req)

	c.JSON(http.StatusOK, clinic)
}

// invalidateDoctors drops cached slots computed with the old clinic default.
func (h *ClinicHandler) invalidateDoctors(c *gin.Context, clinicID uint) {
	var ids []uint
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Doctor{}).
		Where("clinic_id = ?", clinicID).
		Pluck("id", &ids).Error; err != nil {
		return
	}
	for _, id := range ids {
		h.cache.InvalidateDoctor(c.Request.Context(), id)
	}
}
