package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the unauthenticated booking pages of a clinic,
// addressed by its slug.
type PublicHandler struct {
	db  *gorm.DB
	dir Directory

	create       *ucAppointment.CreateAppointment
	availability *ucAppointment.GetAvailability
}

func NewPublicHandler(
	db *gorm.DB,
	dir Directory,
	create *ucAppointment.CreateAppointment,
	availability *ucAppointment.GetAvailability,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		dir:          dir,
		create:       create,
		availability: availability,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateAppointmentRequest struct {
	DoctorID     uint   `json:"doctor_id" binding:"required"`
	PatientName  string `json:"patient_name" binding:"required"`
	PatientPhone string `json:"patient_phone" binding:"required"`
	PatientEmail string `json:"patient_email"`
	ServiceID    uint   `json:"service_id"`
	Date         string `json:"date" binding:"required"` // YYYY-MM-DD
	Time         string `json:"time" binding:"required"` // HH:MM
	Notes        string `json:"notes"`
}

type publicDoctor struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Bio       string `json:"bio"`
	PhotoURL  string `json:"photo_url"`
}

func (h *PublicHandler) clinic(c *gin.Context) (*models.Clinic, bool) {
	clinic, err := h.dir.ClinicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "clinic_not_found", "Clinic not found.")
			return nil, false
		}
		httperr.Internal(c, "internal_error", "Unexpected error.")
		return nil, false
	}
	return clinic, true
}

////////////////////////////////////////////////////////
// DOCTORS / SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListDoctors(c *gin.Context) {
	clinic, ok := h.clinic(c)
	if !ok {
		return
	}

	var doctors []models.Doctor
	if err := h.db.WithContext(c.Request.Context()).
		Where("clinic_id = ? AND active = true", clinic.ID).
		Order("name ASC").
		Find(&doctors).Error; err != nil {
		httperr.Internal(c, "failed_to_list_doctors", "Could not list doctors.")
		return
	}

	out := make([]publicDoctor, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, publicDoctor{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
			Bio:       d.Bio,
			PhotoURL:  d.PhotoURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"clinic":  gin.H{"name": clinic.Name, "slug": clinic.Slug, "timezone": clinic.Timezone},
		"doctors": out,
	})
}

func (h *PublicHandler) ListServices(c *gin.Context) {
	clinic, ok := h.clinic(c)
	if !ok {
		return
	}

	q := h.db.WithContext(c.Request.Context()).
		Where("clinic_id = ? AND active = true", clinic.ID)

	if category := strings.TrimSpace(strings.ToLower(c.Query("category"))); category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	var services []models.MedicalService
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Could not list services.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clinic":   gin.H{"name": clinic.Name, "slug": clinic.Slug},
		"services": services,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	clinic, ok := h.clinic(c)
	if !ok {
		return
	}

	doctorID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	in, ok := availabilityQuery(c)
	if !ok {
		return
	}
	in.ClinicID = clinic.ID
	in.DoctorID = doctorID

	out, err := h.availability.Execute(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

////////////////////////////////////////////////////////
// CREATE APPOINTMENT
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	clinic, ok := h.clinic(c)
	if !ok {
		return
	}

	var req PublicCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		ClinicID:     clinic.ID,
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		PatientEmail: req.PatientEmail,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         ap.ID,
		"doctor_id":  ap.DoctorID,
		"date":       ap.Date.Format("2006-01-02"),
		"start_time": ap.StartTime,
		"end_time":   ap.EndTime,
		"status":     ap.Status,
	})
}
