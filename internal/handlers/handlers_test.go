package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type errBody struct {
	Code string `json:"error_code"`
}

type slotsBody struct {
	DoctorID    uint   `json:"doctor_id"`
	Date        string `json:"date"`
	SlotMinutes int    `json:"slot_minutes"`
	Granular    bool   `json:"granular"`
	Slots       []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"slots"`
}

type apBody struct {
	ID        uint   `json:"id"`
	DoctorID  uint   `json:"doctor_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[errBody](t, w).Code
}

func starts(b slotsBody) []string {
	out := make([]string, 0, len(b.Slots))
	for _, s := range b.Slots {
		out = append(out, s.Start)
	}
	return out
}

func booking(doctorID uint, at string) string {
	return fmt.Sprintf(`{"doctor_id":%d,"patient_name":"Nguyen Van A","patient_phone":"0900%s","date":"%s","time":"%s"}`,
		doctorID, at[:2]+at[3:], monday, at)
}

// ------------------------------------------------------------
// error mapping
// ------------------------------------------------------------

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{httperr.ErrBusiness("time_conflict"), http.StatusConflict, "time_conflict"},
		{httperr.ErrBusiness("booking_busy"), http.StatusConflict, "booking_busy"},
		{httperr.ErrBusiness("invalid_state"), http.StatusConflict, "invalid_state"},
		{httperr.ErrBusiness("doctor_not_found"), http.StatusNotFound, "doctor_not_found"},
		{httperr.ErrBusiness("outside_working_hours"), http.StatusUnprocessableEntity, "outside_working_hours"},
		{httperr.ErrBusiness("too_soon"), http.StatusUnprocessableEntity, "too_soon"},
		{httperr.ErrBusiness("invalid_date"), http.StatusBadRequest, "invalid_date"},
		{&availability.DataError{Source: "booking", Start: "10:00", End: "09:00", Reason: "x"}, http.StatusUnprocessableEntity, "malformed_schedule_data"},
		{fmt.Errorf("load: %w", availability.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("%w: weekday 9", schedule.ErrInvalidTemplate), http.StatusBadRequest, "invalid_working_hours"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errCode(t, w))
		})
	}
}

// ------------------------------------------------------------
// availability
// ------------------------------------------------------------

func TestAvailability_WholeWindows(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/doctors/10/availability?date="+monday+"&granular=false", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[slotsBody](t, w)
	assert.Equal(t, uint(10), body.DoctorID)
	assert.Equal(t, monday, body.Date)
	assert.Equal(t, 30, body.SlotMinutes)
	assert.False(t, body.Granular)
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "08:00", body.Slots[0].Start)
	assert.Equal(t, "12:00", body.Slots[0].End)
	assert.Equal(t, "13:00", body.Slots[1].Start)
	assert.Equal(t, "17:00", body.Slots[1].End)
}

func TestAvailability_GranularByDefaultWithServiceDuration(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/doctors/10/availability?date="+monday+"&service_id=5", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[slotsBody](t, w)
	assert.True(t, body.Granular)
	assert.Equal(t, 45, body.SlotMinutes)
	assert.Equal(t, []string{
		"08:00", "08:45", "09:30", "10:15", "11:00",
		"13:00", "13:45", "14:30", "15:15", "16:00",
	}, starts(body))
}

func TestAvailability_DayWithoutHoursIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/doctors/10/availability?date=2099-03-01", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[slotsBody](t, w).Slots)
	assert.Contains(t, w.Body.String(), `"slots":[]`)
}

func TestAvailability_QueryValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"?date=" + monday + "&duration=-5":                   "invalid_argument",
		"?date=" + monday + "&duration=0":                    "invalid_argument",
		"?date=" + monday + "&duration=abc":                  "invalid_argument",
		"?date=" + monday + "&duration=1441":                 "invalid_argument",
		"?date=" + monday + "&duration=9223372036854775807":  "invalid_argument",
		"?date=" + monday + "&duration=99999999999999999999": "invalid_argument",
		"?date=" + monday + "&granular=sometimes":            "invalid_granular",
		"":                                                   "missing_date",
		"?date=02/03/2099":                                   "invalid_date",
	}

	for query, code := range cases {
		w := env.do(http.MethodGet, "/api/doctors/10/availability"+query, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Equal(t, code, errCode(t, w), query)
	}
}

func TestAvailability_PublicDurationIsBounded(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/public/saigon/doctors/10/availability?date="+monday+"&duration=9223372036854775807", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", errCode(t, w))

	// longer than any working interval: valid, just empty
	w = env.do(http.MethodGet, "/api/public/saigon/doctors/10/availability?date="+monday+"&duration=300", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[slotsBody](t, w).Slots)
}

func TestAvailability_MalformedWorkingHours(t *testing.T) {
	env := newTestEnv(t)
	env.store.hours = append(env.store.hours,
		models.WorkingHours{DoctorID: 11, Weekday: 1, StartTime: "18:00", EndTime: "17:30"})

	w := env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday, "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "malformed_schedule_data", errCode(t, w))
}

func TestAvailability_UnknownDoctorAndClinic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/doctors/99/availability?date="+monday, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "doctor_not_found", errCode(t, w))

	w = env.do(http.MethodGet, "/api/public/nowhere/doctors/10/availability?date="+monday, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "clinic_not_found", errCode(t, w))
}

// ------------------------------------------------------------
// public booking
// ------------------------------------------------------------

func TestPublicBooking_RemovesSlotAndRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/public/saigon/appointments", "", booking(10, "09:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[apBody](t, w)
	assert.Equal(t, "09:00", created.StartTime)
	assert.Equal(t, "09:30", created.EndTime)
	assert.Equal(t, "pending", created.Status)

	w = env.do(http.MethodGet, "/api/public/saigon/doctors/10/availability?date="+monday, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := starts(decode[slotsBody](t, w))
	assert.Contains(t, got, "08:30")
	assert.NotContains(t, got, "09:00")
	assert.Contains(t, got, "09:30")

	w = env.do(http.MethodPost, "/api/public/saigon/appointments", "",
		`{"doctor_id":10,"patient_name":"Tran B","patient_phone":"0911","date":"`+monday+`","time":"09:00"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "time_conflict", errCode(t, w))

	assert.Contains(t, env.cache.invalidatedDoctors(), uint(10))
}

func TestPublicBooking_OutsideWorkingHours(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/public/saigon/appointments", "", booking(10, "12:30"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "outside_working_hours", errCode(t, w))
}

func TestPublicBooking_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/public/saigon/appointments", "", `{"doctor_id":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errCode(t, w))
}

// ------------------------------------------------------------
// appointment workflow
// ------------------------------------------------------------

func TestAppointmentLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/appointments", middleware.RoleStaff, booking(11, "10:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[apBody](t, w).ID
	path := fmt.Sprintf("/api/appointments/%d", id)

	w = env.do(http.MethodPatch, path+"/confirm", middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", decode[apBody](t, w).Status)

	w = env.do(http.MethodPatch, path+"/confirm", middleware.RoleStaff, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", errCode(t, w))

	w = env.do(http.MethodPatch, path+"/complete", middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", env.store.status(id))

	w = env.do(http.MethodPatch, path+"/cancel", middleware.RoleStaff, `{"reason":"late"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// A completed visit still blocks its time.
	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday, "", "")
	assert.NotContains(t, starts(decode[slotsBody](t, w)), "10:00")
}

func TestCancel_FreesTheSlotAndBodyIsOptional(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/appointments", middleware.RoleStaff, booking(11, "14:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[apBody](t, w).ID

	w = env.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/cancel", id), middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", decode[apBody](t, w).Status)

	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday, "", "")
	assert.Contains(t, starts(decode[slotsBody](t, w)), "14:00")
}

func TestNoShow_RequiresConfirmed(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/appointments", middleware.RoleStaff, booking(11, "15:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	path := fmt.Sprintf("/api/appointments/%d", decode[apBody](t, w).ID)

	w = env.do(http.MethodPatch, path+"/no-show", middleware.RoleStaff, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodPatch, path+"/confirm", middleware.RoleStaff, "").Code)

	w = env.do(http.MethodPatch, path+"/no-show", middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_show", decode[apBody](t, w).Status)
}

func TestReschedule_MovesAndResetsToPending(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/appointments", middleware.RoleStaff, booking(11, "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	path := fmt.Sprintf("/api/appointments/%d", decode[apBody](t, w).ID)
	require.Equal(t, http.StatusOK, env.do(http.MethodPatch, path+"/confirm", middleware.RoleStaff, "").Code)

	w = env.do(http.MethodPatch, path+"/reschedule", middleware.RoleStaff, `{"date":"`+monday+`","time":"16:00"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[apBody](t, w)
	assert.Equal(t, "16:00", moved.StartTime)
	assert.Equal(t, "16:30", moved.EndTime)
	assert.Equal(t, "pending", moved.Status)

	w = env.do(http.MethodPatch, path+"/reschedule", middleware.RoleStaff, `{"date":"`+monday+`","time":"16:45"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "outside_working_hours", errCode(t, w))
}

func TestDoctorRole_SeesAndChangesOnlyOwnAppointments(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/appointments", middleware.RoleStaff, booking(11, "08:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	other := decode[apBody](t, w).ID

	// doctor_id is ignored for doctors: the booking goes to their own agenda.
	w = env.do(http.MethodPost, "/api/appointments", middleware.RoleDoctor, booking(11, "08:30"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, uint(10), decode[apBody](t, w).DoctorID)

	w = env.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/confirm", other), middleware.RoleDoctor, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "appointment_not_found", errCode(t, w))

	type listBody struct {
		Data []struct {
			DoctorID uint `json:"doctor_id"`
		} `json:"data"`
		Total int `json:"total"`
	}

	w = env.do(http.MethodGet, "/api/appointments?date="+monday, middleware.RoleDoctor, "")
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[listBody](t, w)
	require.Equal(t, 1, mine.Total)
	assert.Equal(t, uint(10), mine.Data[0].DoctorID)

	w = env.do(http.MethodGet, "/api/appointments?date="+monday, middleware.RoleStaff, "")
	assert.Equal(t, 2, decode[listBody](t, w).Total)

	w = env.do(http.MethodGet, "/api/appointments/month?year=2099&month=3&doctor_id=11", middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[listBody](t, w).Total)
}

func TestListByMonth_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/appointments/month?year=2099", middleware.RoleStaff, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/appointments/month?year=2099&month=13", middleware.RoleStaff, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_month", errCode(t, w))
}

// ------------------------------------------------------------
// working hours
// ------------------------------------------------------------

func TestWorkingHours_ReplaceValidatesAndInvalidates(t *testing.T) {
	env := newTestEnv(t)

	overlapping := `{"days":[{"weekday":1,"intervals":[{"start":"08:00","end":"12:00"},{"start":"11:00","end":"14:00"}]}]}`
	w := env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleAdmin, overlapping)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_working_hours", errCode(t, w))

	valid := `{"days":[{"weekday":1,"intervals":[{"start":"07:00","end":"09:00"},{"start":"09:00","end":"10:00"}]}]}`
	w = env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleAdmin, valid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []uint{11}, env.cache.invalidatedDoctors())

	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday+"&granular=false", "", "")
	body := decode[slotsBody](t, w)
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "07:00", body.Slots[0].Start)
	assert.Equal(t, "09:00", body.Slots[1].Start)

	w = env.do(http.MethodGet, "/api/doctors/11/working-hours", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"weekday":1`)
	assert.NotContains(t, w.Body.String(), `"weekday":2`)
}

func TestWorkingHours_IntervalEndingAtMidnight(t *testing.T) {
	env := newTestEnv(t)

	body := `{"days":[{"weekday":1,"intervals":[{"start":"18:00","end":"24:00"}]}]}`
	w := env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleAdmin, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday+"&duration=60", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode[slotsBody](t, w).Slots
	require.Len(t, slots, 6)
	assert.Equal(t, "23:00", slots[5].Start)
	assert.Equal(t, "24:00", slots[5].End)

	w = env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleAdmin,
		`{"days":[{"weekday":1,"intervals":[{"start":"24:00","end":"24:00"}]}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkingHours_Permissions(t *testing.T) {
	env := newTestEnv(t)
	body := `{"days":[]}`

	w := env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleDoctor, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleStaff, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, "/api/doctors/10/working-hours", middleware.RoleDoctor, body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPut, "/api/doctors/99/working-hours", middleware.RoleAdmin, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkingHours_SeedDefaultsOnlyWhenEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/doctors/11/working-hours/defaults", middleware.RoleAdmin, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK,
		env.do(http.MethodPut, "/api/doctors/11/working-hours", middleware.RoleAdmin, `{"days":[]}`).Code)

	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday, "", "")
	assert.Empty(t, decode[slotsBody](t, w).Slots)

	w = env.do(http.MethodPost, "/api/doctors/11/working-hours/defaults", middleware.RoleAdmin, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/doctors/11/availability?date="+monday+"&granular=false", "", "")
	assert.Len(t, decode[slotsBody](t, w).Slots, 2)
}
