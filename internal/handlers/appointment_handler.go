package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	dir Directory

	create       *ucAppointment.CreateAppointment
	confirm      *ucAppointment.ConfirmAppointment
	cancel       *ucAppointment.CancelAppointment
	complete     *ucAppointment.CompleteAppointment
	noShow       *ucAppointment.MarkNoShow
	reschedule   *ucAppointment.RescheduleAppointment
	availability *ucAppointment.GetAvailability
	listByDate   *ucAppointment.ListAppointmentsByDate
	listByMonth  *ucAppointment.ListAppointmentsByMonth
}

type AppointmentUseCases struct {
	Create       *ucAppointment.CreateAppointment
	Confirm      *ucAppointment.ConfirmAppointment
	Cancel       *ucAppointment.CancelAppointment
	Complete     *ucAppointment.CompleteAppointment
	NoShow       *ucAppointment.MarkNoShow
	Reschedule   *ucAppointment.RescheduleAppointment
	Availability *ucAppointment.GetAvailability
	ListByDate   *ucAppointment.ListAppointmentsByDate
	ListByMonth  *ucAppointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(dir Directory, uc AppointmentUseCases) *AppointmentHandler {
	return &AppointmentHandler{
		dir:          dir,
		create:       uc.Create,
		confirm:      uc.Confirm,
		cancel:       uc.Cancel,
		complete:     uc.Complete,
		noShow:       uc.NoShow,
		reschedule:   uc.Reschedule,
		availability: uc.Availability,
		listByDate:   uc.ListByDate,
		listByMonth:  uc.ListByMonth,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	DoctorID     uint   `json:"doctor_id"`
	PatientName  string `json:"patient_name" binding:"required"`
	PatientPhone string `json:"patient_phone" binding:"required"`
	PatientEmail string `json:"patient_email"`
	ServiceID    uint   `json:"service_id"`
	Date         string `json:"date" binding:"required"` // YYYY-MM-DD
	Time         string `json:"time" binding:"required"` // HH:MM
	Notes        string `json:"notes"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	auth := middleware.Auth(c)

	var req CreateAppointmentRequest
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

	userID := auth.UserID
	ap, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		ClinicID:     auth.ClinicID,
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		PatientEmail: req.PatientEmail,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		ActorUserID:  &userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// LIST
// ======================================================

// listDoctorID is the doctor filter of a listing: doctors only see their own
// agenda, other roles may pass ?doctor_id= or get the whole clinic.
func (h *AppointmentHandler) listDoctorID(c *gin.Context) (uint, bool) {
	own, ok := ownDoctorID(c, h.dir)
	if !ok {
		return 0, false
	}
	if own != 0 {
		return own, true
	}

	raw := strings.TrimSpace(c.Query("doctor_id"))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_doctor_id", "Invalid doctor_id.")
		return 0, false
	}
	return uint(id), true
}

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	auth := middleware.Auth(c)

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "date is required.")
		return
	}

	doctorID, ok := h.listDoctorID(c)
	if !ok {
		return
	}

	items, err := h.listByDate.Execute(c.Request.Context(), auth.ClinicID, doctorID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.List(c, items)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	auth := middleware.Auth(c)

	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		httperr.BadRequest(c, "invalid_month", "year and month are required.")
		return
	}

	doctorID, ok := h.listDoctorID(c)
	if !ok {
		return
	}

	items, err := h.listByMonth.Execute(c.Request.Context(), auth.ClinicID, doctorID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.List(c, items)
}

// ======================================================
// STATUS CHANGES
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	id, act, ok := h.target(c)
	if !ok {
		return
	}

	ap, err := h.confirm.Execute(c.Request.Context(), middleware.Auth(c).ClinicID, act, id)
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, act, ok := h.target(c)
	if !ok {
		return
	}

	// The body is optional.
	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", err.Error())
			return
		}
	}

	ap, err := h.cancel.Execute(c.Request.Context(), middleware.Auth(c).ClinicID, act, id, strings.TrimSpace(req.Reason))
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, act, ok := h.target(c)
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), middleware.Auth(c).ClinicID, act, id)
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	id, act, ok := h.target(c)
	if !ok {
		return
	}

	ap, err := h.noShow.Execute(c.Request.Context(), middleware.Auth(c).ClinicID, act, id)
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, act, ok := h.target(c)
	if !ok {
		return
	}

	var req RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleInput{
		ClinicID:      middleware.Auth(c).ClinicID,
		AppointmentID: id,
		Actor:         act,
		Date:          req.Date,
		Time:          req.Time,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) target(c *gin.Context) (uint, ucAppointment.Actor, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return 0, ucAppointment.Actor{}, false
	}
	act, ok := actor(c, h.dir)
	if !ok {
		return 0, ucAppointment.Actor{}, false
	}
	return id, act, true
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *AppointmentHandler) Availability(c *gin.Context) {
	doctorID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	in, ok := availabilityQuery(c)
	if !ok {
		return
	}
	in.ClinicID = middleware.Auth(c).ClinicID
	in.DoctorID = doctorID

	out, err := h.availability.Execute(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// availabilityQuery reads ?date=&duration=&service_id=&granular=.
// granular defaults to true.
func availabilityQuery(c *gin.Context) (ucAppointment.AvailabilityInput, bool) {
	in := ucAppointment.AvailabilityInput{
		Date:     strings.TrimSpace(c.Query("date")),
		Granular: true,
	}

	if in.Date == "" {
		httperr.BadRequest(c, "missing_date", "date is required.")
		return in, false
	}

	if raw := strings.TrimSpace(c.Query("duration")); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_argument", "duration must be a number of minutes.")
			return in, false
		}
		if d <= 0 || d > availability.MinutesPerDay {
			httperr.BadRequest(c, "invalid_argument", "duration must be between 1 and 1440 minutes.")
			return in, false
		}
		in.SlotMinutes = d
	}

	if raw := strings.TrimSpace(c.Query("service_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_service_id", "Invalid service_id.")
			return in, false
		}
		in.ServiceID = uint(id)
	}

	if raw := strings.TrimSpace(c.Query("granular")); raw != "" {
		g, err := strconv.ParseBool(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_granular", "granular must be true or false.")
			return in, false
		}
		in.Granular = g
	}

	return in, true
}
