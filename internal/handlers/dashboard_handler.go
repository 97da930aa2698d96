package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/treatment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type statusCount struct {
	Status string
	Total  int64
}

// Get summarises one day of the clinic (today in the clinic time zone unless
// ?date= is given).
func (h *DashboardHandler) Get(c *gin.Context) {
	clinicID := middleware.Auth(c).ClinicID
	db := h.db.WithContext(c.Request.Context())

	var clinic models.Clinic
	if err := db.First(&clinic, clinicID).Error; err != nil {
		httperr.NotFound(c, "clinic_not_found", "Clinic not found.")
		return
	}

	day := todayInClinic(&clinic)
	if raw := c.Query("date"); raw != "" {
		d, err := parseDateInClinic(&clinic, raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Invalid date.")
			return
		}
		day = d
	}

	var rows []statusCount
	if err := db.Model(&models.Appointment{}).
		Select("status, COUNT(*) AS total").
		Where("clinic_id = ? AND date = ?", clinicID, day.Format("2006-01-02")).
		Group("status").
		Scan(&rows).Error; err != nil {
		httperr.Internal(c, "dashboard_failed", "Could not build the dashboard.")
		return
	}

	byStatus := map[string]int64{}
	for _, s := range appointment.AllStatuses() {
		byStatus[string(s)] = 0
	}
	var total int64
	for _, r := range rows {
		byStatus[r.Status] = r.Total
		total += r.Total
	}

	var doctors, patients, activeTreatments int64
	if err := db.Model(&models.Doctor{}).
		Where("clinic_id = ? AND active = true", clinicID).
		Count(&doctors).Error; err != nil {
		httperr.Internal(c, "dashboard_failed", "Could not build the dashboard.")
		return
	}
	if err := db.Model(&models.Patient{}).
		Where("clinic_id = ?", clinicID).
		Count(&patients).Error; err != nil {
		httperr.Internal(c, "dashboard_failed", "Could not build the dashboard.")
		return
	}
	if err := db.Model(&models.Treatment{}).
		Where("clinic_id = ? AND status = ?", clinicID, string(treatment.StatusActive)).
		Count(&activeTreatments).Error; err != nil {
		httperr.Internal(c, "dashboard_failed", "Could not build the dashboard.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date": day.Format("2006-01-02"),
		"appointments": gin.H{
			"total":     total,
			"by_status": byStatus,
		},
		"active_doctors":    doctors,
		"patients":          patients,
		"active_treatments": activeTreatments,
	})
}
