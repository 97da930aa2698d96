package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// WeekStore is implemented by repository.ScheduleGormRepository.
type WeekStore interface {
	Week(ctx context.Context, doctorID uint) ([]schedule.Day, error)
	ReplaceWeek(ctx context.Context, doctorID uint, days []schedule.Day) error
	SeedDefaults(ctx context.Context, doctorID uint) (bool, error)
}

type DoctorFinder interface {
	GetDoctor(ctx context.Context, clinicID, doctorID uint) (*models.Doctor, error)
}

type WorkingHoursHandler struct {
	store   WeekStore
	doctors DoctorFinder
	dir     Directory
	cache   cache.Availability
	audit   *audit.Dispatcher
}

func NewWorkingHoursHandler(
	store WeekStore,
	doctors DoctorFinder,
	dir Directory,
	slotsCache cache.Availability,
	auditDispatcher *audit.Dispatcher,
) *WorkingHoursHandler {
	return &WorkingHoursHandler{
		store:   store,
		doctors: doctors,
		dir:     dir,
		cache:   slotsCache,
		audit:   auditDispatcher,
	}
}

type WorkingHoursUpdateRequest struct {
	Days []schedule.Day `json:"days" binding:"required"`
}

func (h *WorkingHoursHandler) doctorID(c *gin.Context) (uint, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return 0, false
	}

	if _, err := h.doctors.GetDoctor(c.Request.Context(), middleware.Auth(c).ClinicID, id); err != nil {
		respondError(c, notFound(err, "doctor_not_found"))
		return 0, false
	}
	return id, true
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	doctorID, ok := h.doctorID(c)
	if !ok {
		return
	}

	days, err := h.store.Week(c.Request.Context(), doctorID)
	if err != nil {
		httperr.Internal(c, "failed_to_get_working_hours", "Could not load working hours.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"doctor_id": doctorID, "days": days})
}

// Update replaces the whole weekly template.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	auth := middleware.Auth(c)

	doctorID, ok := h.doctorID(c)
	if !ok {
		return
	}
	if !canManageDoctor(c, h.dir, doctorID) {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	if err := schedule.ValidateWeek(req.Days); err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.ReplaceWeek(c.Request.Context(), doctorID, req.Days); err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Could not save working hours.")
		return
	}

	h.cache.InvalidateDoctor(c.Request.Context(), doctorID)
	writeAudit(h.audit, auth.ClinicID, auth.UserID, "working_hours_updated", "doctor", &doctorID, req.Days)

	c.JSON(http.StatusOK, gin.H{"doctor_id": doctorID, "days": req.Days})
}

// SeedDefaults writes the default template for a doctor without hours.
func (h *WorkingHoursHandler) SeedDefaults(c *gin.Context) {
	auth := middleware.Auth(c)

	doctorID, ok := h.doctorID(c)
	if !ok {
		return
	}
	if !canManageDoctor(c, h.dir, doctorID) {
		return
	}

	seeded, err := h.store.SeedDefaults(c.Request.Context(), doctorID)
	if err != nil {
		httperr.Internal(c, "failed_to_seed_working_hours", "Could not seed working hours.")
		return
	}
	if !seeded {
		httperr.Conflict(c, "working_hours_already_set", "The doctor already has working hours.")
		return
	}

	h.cache.InvalidateDoctor(c.Request.Context(), doctorID)
	writeAudit(h.audit, auth.ClinicID, auth.UserID, "working_hours_seeded", "doctor", &doctorID, nil)

	c.JSON(http.StatusCreated, gin.H{"doctor_id": doctorID, "days": schedule.DefaultTemplate()})
}
