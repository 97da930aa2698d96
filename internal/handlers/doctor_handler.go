package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/imaging"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/storage"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	photoMaxBytes = 8 << 20
	photoMaxSide  = 512
	photoQuality  = 80
)

type DoctorHandler struct {
	db     *gorm.DB
	dir    Directory
	photos storage.ObjectStore
	cache  cache.Availability
	audit  *audit.Dispatcher
}

// NewDoctorHandler accepts a nil photos store; uploads then answer 503.
func NewDoctorHandler(
	db *gorm.DB,
	dir Directory,
	photos storage.ObjectStore,
	slotsCache cache.Availability,
	auditDispatcher *audit.Dispatcher,
) *DoctorHandler {
	return &DoctorHandler{
		db:     db,
		dir:    dir,
		photos: photos,
		cache:  slotsCache,
		audit:  auditDispatcher,
	}
}

// --------- Requests ---------

type CreateDoctorRequest struct {
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email" binding:"omitempty,email"`
	Bio       string `json:"bio"`
}

type UpdateDoctorRequest struct {
	Name      *string `json:"name,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *DoctorHandler) List(c *gin.Context) {
	clinicID := middleware.Auth(c).ClinicID

	q := h.db.WithContext(c.Request.Context()).Where("clinic_id = ?", clinicID)

	switch c.Query("active") {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(specialty) LIKE ?", like, like)
	}

	var doctors []models.Doctor
	if err := q.Order("name ASC").Find(&doctors).Error; err != nil {
		httperr.Internal(c, "failed_to_list_doctors", "Could not list doctors.")
		return
	}

	httpresp.List(c, doctors)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	doctor, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *DoctorHandler) Create(c *gin.Context) {
	auth := middleware.Auth(c)

	var req CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	doctor := models.Doctor{
		ClinicID:  auth.ClinicID,
		Name:      strings.TrimSpace(req.Name),
		Specialty: strings.TrimSpace(req.Specialty),
		Phone:     req.Phone,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Bio:       req.Bio,
		Active:    true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&doctor).Error; err != nil {
		httperr.Internal(c, "failed_to_create_doctor", "Could not create the doctor.")
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "doctor_created", "doctor", &doctor.ID, nil)

	c.JSON(http.StatusCreated, doctor)
}

func (h *DoctorHandler) Update(c *gin.Context) {
	auth := middleware.Auth(c)

	doctor, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		doctor.Name = strings.TrimSpace(*req.Name)
	}
	if req.Specialty != nil {
		doctor.Specialty = strings.TrimSpace(*req.Specialty)
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.Email != nil {
		doctor.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.Active != nil {
		doctor.Active = *req.Active
	}

	if err := h.db.WithContext(c.Request.Context()).Save(doctor).Error; err != nil {
		httperr.Internal(c, "failed_to_update_doctor", "Could not save the doctor.")
		return
	}

	if req.Active != nil {
		h.cache.InvalidateDoctor(c.Request.Context(), doctor.ID)
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "doctor_updated", "doctor", &doctor.ID, req)

	c.JSON(http.StatusOK, doctor)
}

// UploadPhoto takes a multipart "photo" field, converts it to a 512px WebP
// and stores it in the bucket.
func (h *DoctorHandler) UploadPhoto(c *gin.Context) {
	auth := middleware.Auth(c)

	if h.photos == nil {
		httperr.Unavailable(c, "storage_not_configured", "Photo storage is not configured.")
		return
	}

	doctor, ok := h.load(c)
	if !ok {
		return
	}
	if !canManageDoctor(c, h.dir, doctor.ID) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, photoMaxBytes)

	fh, err := c.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "A photo file is required.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_photo", "Could not read the photo.")
		return
	}
	defer f.Close()

	data, err := imaging.ToWebP(f, photoMaxSide, photoQuality)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			httperr.BadRequest(c, "unsupported_image", "Only JPEG, PNG and WebP pictures are accepted.")
			return
		}
		httperr.Internal(c, "failed_to_process_photo", "Could not process the photo.")
		return
	}

	key := fmt.Sprintf("doctors/%d/%s.webp", doctor.ID, uuid.NewString())

	url, err := h.photos.Put(c.Request.Context(), key, imaging.ContentTypeWebP, data)
	if err != nil {
		_ = c.Error(err)
		httperr.Internal(c, "failed_to_store_photo", "Could not store the photo.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(doctor).
		Update("photo_url", url).Error; err != nil {
		httperr.Internal(c, "failed_to_update_doctor", "Could not save the doctor.")
		return
	}

	writeAudit(h.audit, auth.ClinicID, auth.UserID, "doctor_photo_updated", "doctor", &doctor.ID,
		map[string]any{"key": key})

	c.JSON(http.StatusOK, gin.H{"photo_url": url})
}

func (h *DoctorHandler) load(c *gin.Context) (*models.Doctor, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, false
	}

	var doctor models.Doctor
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND clinic_id = ?", id, middleware.Auth(c).ClinicID).
		First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "doctor_not_found", "Doctor not found.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_doctor", "Could not load the doctor.")
		return nil, false
	}
	return &doctor, true
}
