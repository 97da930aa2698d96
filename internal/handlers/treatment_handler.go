package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/treatment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type TreatmentHandler struct {
	db    *gorm.DB
	dir   Directory
	audit *audit.Dispatcher
}

func NewTreatmentHandler(db *gorm.DB, dir Directory, auditDispatcher *audit.Dispatcher) *TreatmentHandler {
	return &TreatmentHandler{db: db, dir: dir, audit: auditDispatcher}
}

// --------- Requests ---------

type CreateRegimenRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Line       int    `json:"line" binding:"omitempty,min=1,max=3"`
	Components string `json:"components"`
	Notes      string `json:"notes"`
}

type CreateTreatmentRequest struct {
	PatientID uint   `json:"patient_id" binding:"required"`
	RegimenID uint   `json:"regimen_id" binding:"required"`
	DoctorID  uint   `json:"doctor_id"`
	StartDate string `json:"start_date" binding:"required"`
	Notes     string `json:"notes"`
}

type TreatmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=stopped completed"`
	Notes  string `json:"notes"`
}

type AdherenceRequest struct {
	Taken    int `json:"taken"`
	Expected int `json:"expected" binding:"required"`
}

type treatmentView struct {
	models.Treatment
	AdherencePercent float64                  `json:"adherence_percent"`
	AdherenceLevel   treatment.AdherenceLevel `json:"adherence_level"`
}

func viewOf(t models.Treatment) treatmentView {
	p := treatment.AdherencePercent(t.DosesTaken, t.DosesExpected)
	return treatmentView{
		Treatment:        t,
		AdherencePercent: p,
		AdherenceLevel:   treatment.Classify(p),
	}
}

// ======================================================
// REGIMENS
// ======================================================

func (h *TreatmentHandler) ListRegimens(c *gin.Context) {
	clinicID := middleware.Auth(c).ClinicID

	q := h.db.WithContext(c.Request.Context()).Where("clinic_id = ?", clinicID)
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var regimens []models.ARVRegimen
	if err := q.Order("line ASC, code ASC").Find(&regimens).Error; err != nil {
		httperr.Internal(c, "failed_to_list_regimens", "Could not list regimens.")
		return
	}

	httpresp.List(c, regimens)
}

func (h *TreatmentHandler) CreateRegimen(c *gin.Context) {
	auth := middleware.Auth(c)

	var req CreateRegimenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	line := req.Line
	if line == 0 {
		line = 1
	}

	regimen := models.ARVRegimen{
		ClinicID:   auth.ClinicID,
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:       strings.TrimSpace(req.Name),
		Line:       line,
		Components: req.Components,
		Notes:      req.Notes,
		Active:     true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&regimen).Error; err != nil {
		if httperr.IsExclusionConflict(err) {
			httperr.Conflict(c, "regimen_code_exists", "A regimen with this code already exists.")
			return
		}
		httperr.Internal(c, "failed_to_create_regimen", "Could not create the regimen.")
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "regimen_created", "arv_regimen", &regimen.ID, nil)

	c.JSON(http.StatusCreated, regimen)
}

// ======================================================
// TREATMENTS
// ======================================================

func (h *TreatmentHandler) Create(c *gin.Context) {
	auth := middleware.Auth(c)

	var req CreateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	own, ok := ownDoctorID(c, h.dir)
	if !ok {
		return
	}
	if own != 0 {
		req.DoctorID = own
	}
	if req.DoctorID == 0 {
		httperr.BadRequest(c, "missing_doctor_id", "doctor_id is required.")
		return
	}

	ctx := c.Request.Context()

	var clinic models.Clinic
	if err := h.db.WithContext(ctx).First(&clinic, auth.ClinicID).Error; err != nil {
		httperr.NotFound(c, "clinic_not_found", "Clinic not found.")
		return
	}

	start, err := parseDateInClinic(&clinic, req.StartDate)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid start date.")
		return
	}

	checks := []struct {
		model any
		id    uint
		extra string
		code  string
	}{
		{&models.Patient{}, req.PatientID, "", "patient_not_found"},
		{&models.Doctor{}, req.DoctorID, "", "doctor_not_found"},
		{&models.ARVRegimen{}, req.RegimenID, "active = true", "regimen_not_found"},
	}
	for _, chk := range checks {
		q := h.db.WithContext(ctx).Model(chk.model).Where("id = ? AND clinic_id = ?", chk.id, auth.ClinicID)
		if chk.extra != "" {
			q = q.Where(chk.extra)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			httperr.Internal(c, "internal_error", "Unexpected error.")
			return
		}
		if count == 0 {
			httperr.NotFound(c, chk.code, "Referenced record not found.")
			return
		}
	}

	t := models.Treatment{
		ClinicID:  auth.ClinicID,
		PatientID: req.PatientID,
		RegimenID: req.RegimenID,
		DoctorID:  req.DoctorID,
		StartDate: start,
		Status:    string(treatment.StatusActive),
		Notes:     req.Notes,
	}

	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&t).Error; err != nil {
		httperr.Internal(c, "failed_to_create_treatment", "Could not create the treatment.")
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "treatment_started", "treatment", &t.ID,
		map[string]any{"patient_id": t.PatientID, "regimen_id": t.RegimenID})

	c.JSON(http.StatusCreated, viewOf(t))
}

func (h *TreatmentHandler) List(c *gin.Context) {
	clinicID := middleware.Auth(c).ClinicID
	page, limit, offset := pageQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Treatment{}).
		Where("clinic_id = ?", clinicID)

	if raw := c.Query("patient_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_patient_id", "Invalid patient_id.")
			return
		}
		q = q.Where("patient_id = ?", id)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_treatments", "Could not list treatments.")
		return
	}

	var rows []models.Treatment
	if err := q.
		Preload("Patient").
		Preload("Regimen").
		Preload("Doctor").
		Order("start_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		httperr.Internal(c, "failed_to_list_treatments", "Could not list treatments.")
		return
	}

	out := make([]treatmentView, 0, len(rows))
	for _, t := range rows {
		out = append(out, viewOf(t))
	}

	httpresp.Page(c, out, page, limit, total)
}

func (h *TreatmentHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var t models.Treatment
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Patient").
		Preload("Regimen").
		Preload("Doctor").
		Where("id = ? AND clinic_id = ?", id, middleware.Auth(c).ClinicID).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "treatment_not_found", "Treatment not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_treatment", "Could not load the treatment.")
		return
	}

	c.JSON(http.StatusOK, viewOf(t))
}

// ChangeStatus stops or completes an active treatment.
func (h *TreatmentHandler) ChangeStatus(c *gin.Context) {
	auth := middleware.Auth(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req TreatmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var t models.Treatment
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND clinic_id = ?", id, auth.ClinicID).
			First(&t).Error; err != nil {
			return notFound(err, "treatment_not_found")
		}

		if err := treatment.CanTransition(treatment.Status(t.Status), treatment.Status(req.Status)); err != nil {
			return err
		}

		var clinic models.Clinic
		if err := tx.First(&clinic, auth.ClinicID).Error; err != nil {
			return err
		}

		end := todayInClinic(&clinic)
		t.Status = req.Status
		t.EndDate = &end
		if req.Notes != "" {
			t.Notes = req.Notes
		}

		return tx.Omit(clause.Associations).Save(&t).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "treatment_"+req.Status, "treatment", &t.ID, nil)

	c.JSON(http.StatusOK, viewOf(t))
}

// RecordAdherence adds a reporting period (doses taken over doses expected)
// to an active treatment.
func (h *TreatmentHandler) RecordAdherence(c *gin.Context) {
	auth := middleware.Auth(c)

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req AdherenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var t models.Treatment
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND clinic_id = ?", id, auth.ClinicID).
			First(&t).Error; err != nil {
			return notFound(err, "treatment_not_found")
		}

		if err := treatment.RecordDoses(&t, req.Taken, req.Expected); err != nil {
			return err
		}

		return tx.Model(&t).Updates(map[string]any{
			"doses_taken":    t.DosesTaken,
			"doses_expected": t.DosesExpected,
		}).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	view := viewOf(t)
	writeAudit(h.audit, auth.ClinicID, auth.UserID, "adherence_recorded", "treatment", &t.ID,
		map[string]any{"taken": req.Taken, "expected": req.Expected, "percent": view.AdherencePercent})

	c.JSON(http.StatusOK, view)
}
