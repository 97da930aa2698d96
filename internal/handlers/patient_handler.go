package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type PatientHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewPatientHandler(db *gorm.DB, auditDispatcher *audit.Dispatcher) *PatientHandler {
	return &PatientHandler{db: db, audit: auditDispatcher}
}

type CreatePatientRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth string `json:"date_of_birth"`
	Notes       string `json:"notes"`
}

// ======================================================
// LIST PATIENTS
// ======================================================
func (h *PatientHandler) List(c *gin.Context) {
	clinicID := middleware.Auth(c).ClinicID

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	page, limit, offset := pageQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Patient{}).
		Where("clinic_id = ?", clinicID)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_patients", "Could not list patients.")
		return
	}

	var patients []models.Patient
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&patients).Error; err != nil {
		httperr.Internal(c, "failed_to_list_patients", "Could not list patients.")
		return
	}

	httpresp.Page(c, patients, page, limit, total)
}

// ======================================================
// CREATE PATIENT
// ======================================================
func (h *PatientHandler) Create(c *gin.Context) {
	auth := middleware.Auth(c)

	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	patient := models.Patient{
		ClinicID: auth.ClinicID,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Gender:   req.Gender,
		Notes:    req.Notes,
	}

	if req.DateOfBirth != "" {
		dob, err := timezone.ParseDate(req.DateOfBirth, "UTC")
		if err != nil {
			httperr.BadRequest(c, "invalid_date_of_birth", "Invalid date of birth.")
			return
		}
		patient.DateOfBirth = &dob
	}

	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Patient{}).
		Where("clinic_id = ? AND phone = ?", auth.ClinicID, patient.Phone).
		Count(&count).Error; err != nil {
		httperr.Internal(c, "failed_to_create_patient", "Could not create the patient.")
		return
	}
	if count > 0 {
		httperr.Conflict(c, "patient_already_exists", "A patient with this phone already exists.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&patient).Error; err != nil {
		httperr.Internal(c, "failed_to_create_patient", "Could not create the patient.")
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "patient_created", "patient", &patient.ID, nil)

	c.JSON(http.StatusCreated, patient)
}
