package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// 2099-03-02 is a Monday.
const (
	monday = "2099-03-02"
	layout = "2006-01-02"
)

// ------------------------------------------------------------
// in-memory store behind every handler dependency
// ------------------------------------------------------------

type memStore struct {
	mu sync.Mutex

	clinics  map[uint]*models.Clinic
	doctors  map[uint]*models.Doctor
	services map[uint]*models.MedicalService
	patients []*models.Patient
	hours    []models.WorkingHours
	apps     []*models.Appointment

	nextID uint
}

func newMemStore() *memStore {
	doctorUser := uint(77)
	s := &memStore{
		clinics: map[uint]*models.Clinic{
			1: {ID: 1, Name: "Saigon Clinic", Slug: "saigon", Timezone: "Asia/Ho_Chi_Minh", SlotMinutes: 30},
		},
		doctors: map[uint]*models.Doctor{
			10: {ID: 10, ClinicID: 1, Name: "Dr. Lan", Active: true, UserID: &doctorUser},
			11: {ID: 11, ClinicID: 1, Name: "Dr. Minh", Active: true},
		},
		services: map[uint]*models.MedicalService{
			5: {ID: 5, ClinicID: 1, Name: "Consultation", DurationMin: 45, Active: true},
		},
		nextID: 100,
	}

	for _, doctorID := range []uint{10, 11} {
		for wd := 1; wd <= 5; wd++ {
			s.hours = append(s.hours,
				models.WorkingHours{DoctorID: doctorID, Weekday: wd, StartTime: "08:00", EndTime: "12:00"},
				models.WorkingHours{DoctorID: doctorID, Weekday: wd, StartTime: "13:00", EndTime: "17:00"},
			)
		}
	}
	return s
}

func (s *memStore) GetClinicByID(_ context.Context, id uint) (*models.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clinics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetDoctor(_ context.Context, clinicID, doctorID uint) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[doctorID]
	if !ok || d.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) GetService(_ context.Context, clinicID, serviceID uint) (*models.MedicalService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[serviceID]
	if !ok || svc.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *svc
	return &cp, nil
}

func (s *memStore) GetOrCreatePatient(_ context.Context, clinicID uint, name, phone, email string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ClinicID == clinicID && p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	s.nextID++
	p := &models.Patient{ID: s.nextID, ClinicID: clinicID, Name: name, Phone: phone, Email: email}
	s.patients = append(s.patients, p)
	cp := *p
	return &cp, nil
}

func (s *memStore) ListWorkingHours(_ context.Context, doctorID uint, weekday int) ([]models.WorkingHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WorkingHours
	for _, wh := range s.hours {
		if wh.DoctorID == doctorID && wh.Weekday == weekday {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (s *memStore) SaveIfFree(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := ap.Date.Format(layout)
	for _, other := range s.apps {
		if other.ID == ap.ID || other.DoctorID != ap.DoctorID || other.Date.Format(layout) != day {
			continue
		}
		if !domain.OccupiesTime(domain.Status(other.Status)) {
			continue
		}
		if other.StartTime < ap.EndTime && other.EndTime > ap.StartTime {
			return httperr.ErrBusiness("time_conflict")
		}
	}

	if ap.ID == 0 {
		s.nextID++
		ap.ID = s.nextID
		cp := *ap
		s.apps = append(s.apps, &cp)
		return nil
	}
	return s.replace(ap)
}

func (s *memStore) replace(ap *models.Appointment) error {
	for i, other := range s.apps {
		if other.ID == ap.ID {
			cp := *ap
			s.apps[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memStore) GetAppointment(_ context.Context, clinicID, appointmentID uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ap := range s.apps {
		if ap.ID == appointmentID && ap.ClinicID == clinicID {
			cp := *ap
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ap)
}

func (s *memStore) ListAppointmentsForPeriod(_ context.Context, clinicID, doctorID uint, from, to time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := from.Format(layout), to.Format(layout)
	var out []models.Appointment
	for _, ap := range s.apps {
		d := ap.Date.Format(layout)
		if ap.ClinicID != clinicID || d < lo || d >= hi {
			continue
		}
		if doctorID != 0 && ap.DoctorID != doctorID {
			continue
		}
		out = append(out, *ap)
	}
	return out, nil
}

// availability.ScheduleStore / AppointmentStore

func (s *memStore) GetWorkingHours(ctx context.Context, doctorID uint, weekday int) ([]availability.TimeRange, error) {
	rows, _ := s.ListWorkingHours(ctx, doctorID, weekday)
	out := make([]availability.TimeRange, 0, len(rows))
	for _, wh := range rows {
		out = append(out, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
	}
	return out, nil
}

func (s *memStore) GetBookingsForDoctorOnDate(_ context.Context, doctorID uint, date time.Time) ([]availability.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []availability.Booking
	for _, ap := range s.apps {
		if ap.DoctorID == doctorID && ap.Date.Format(layout) == date.Format(layout) {
			out = append(out, availability.Booking{Start: ap.StartTime, End: ap.EndTime, Status: domain.Status(ap.Status)})
		}
	}
	return out, nil
}

// WeekStore

func (s *memStore) Week(_ context.Context, doctorID uint) ([]schedule.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var days []schedule.Day
	for wd := 0; wd <= 6; wd++ {
		var ivs []availability.TimeRange
		for _, wh := range s.hours {
			if wh.DoctorID == doctorID && wh.Weekday == wd {
				ivs = append(ivs, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
			}
		}
		if len(ivs) > 0 {
			days = append(days, schedule.Day{Weekday: wd, Intervals: ivs})
		}
	}
	return days, nil
}

func (s *memStore) ReplaceWeek(_ context.Context, doctorID uint, days []schedule.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.hours[:0:0]
	for _, wh := range s.hours {
		if wh.DoctorID != doctorID {
			kept = append(kept, wh)
		}
	}
	for _, d := range days {
		for _, iv := range d.Intervals {
			kept = append(kept, models.WorkingHours{DoctorID: doctorID, Weekday: d.Weekday, StartTime: iv.Start, EndTime: iv.End})
		}
	}
	s.hours = kept
	return nil
}

func (s *memStore) SeedDefaults(ctx context.Context, doctorID uint) (bool, error) {
	week, _ := s.Week(ctx, doctorID)
	if len(week) > 0 {
		return false, nil
	}
	return true, s.ReplaceWeek(ctx, doctorID, schedule.DefaultTemplate())
}

// Directory

func (s *memStore) ClinicBySlug(_ context.Context, slug string) (*models.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clinics {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) DoctorIDForUser(_ context.Context, clinicID, userID uint) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.ClinicID == clinicID && d.UserID != nil && *d.UserID == userID {
			return d.ID, nil
		}
	}
	return 0, gorm.ErrRecordNotFound
}

func (s *memStore) status(id uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ap := range s.apps {
		if ap.ID == id {
			return ap.Status
		}
	}
	return ""
}

var (
	_ domain.Repository = (*memStore)(nil)
	_ Directory         = (*memStore)(nil)
	_ WeekStore         = (*memStore)(nil)
)

// ------------------------------------------------------------
// cache / audit
// ------------------------------------------------------------

type spyCache struct {
	mu          sync.Mutex
	invalidated []uint
}

func (c *spyCache) Get(_ context.Context, key cache.Key) (cache.Key, *availability.DaySlots, bool) {
	return key, nil, false
}
func (c *spyCache) Set(context.Context, cache.Key, *availability.DaySlots) {}
func (c *spyCache) InvalidateDoctor(_ context.Context, doctorID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, doctorID)
}

func (c *spyCache) invalidatedDoctors() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.invalidated...)
}

type nopAuditWriter struct{}

func (nopAuditWriter) Log(context.Context, audit.Event) error { return nil }

// ------------------------------------------------------------
// router
// ------------------------------------------------------------

type testEnv struct {
	store *memStore
	cache *spyCache
	r     *gin.Engine
}

// withAuth stands in for AuthMiddleware: identity comes from test headers.
func withAuth(c *gin.Context) {
	role := c.GetHeader("X-Test-Role")
	if role == "" {
		role = middleware.RoleStaff
	}
	userID := uint(1)
	if role == middleware.RoleDoctor {
		userID = 77
	}
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextClinicID, uint(1))
	c.Set(middleware.ContextUserRole, role)
	c.Next()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	spy := &spyCache{}
	auditD := audit.NewDispatcher(nopAuditWriter{}, zap.NewNop())
	t.Cleanup(auditD.Close)

	var notifier notification.Sink = notification.Nop{}
	locker := lock.NewLocal()
	engine := availability.NewEngine(store, store)

	create := ucAppointment.NewCreateAppointment(store, locker, time.Second, spy, notifier, auditD)
	getAvailability := ucAppointment.NewGetAvailability(store, engine, spy, 30)

	appointments := NewAppointmentHandler(store, AppointmentUseCases{
		Create:       create,
		Confirm:      ucAppointment.NewConfirmAppointment(store, spy, notifier, auditD),
		Cancel:       ucAppointment.NewCancelAppointment(store, spy, notifier, auditD),
		Complete:     ucAppointment.NewCompleteAppointment(store, spy, notifier, auditD),
		NoShow:       ucAppointment.NewMarkNoShow(store, spy, notifier, auditD),
		Reschedule:   ucAppointment.NewRescheduleAppointment(store, locker, time.Second, spy, notifier, auditD),
		Availability: getAvailability,
		ListByDate:   ucAppointment.NewListAppointmentsByDate(store),
		ListByMonth:  ucAppointment.NewListAppointmentsByMonth(store),
	})
	public := NewPublicHandler(nil, store, create, getAvailability)
	hours := NewWorkingHoursHandler(store, store, store, spy, auditD)

	r := gin.New()

	r.GET("/api/public/:slug/doctors/:id/availability", public.Availability)
	r.POST("/api/public/:slug/appointments", public.CreateAppointment)

	secured := r.Group("/api", withAuth)
	secured.GET("/doctors/:id/availability", appointments.Availability)
	secured.GET("/doctors/:id/working-hours", hours.Get)
	secured.PUT("/doctors/:id/working-hours", middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleDoctor), hours.Update)
	secured.POST("/doctors/:id/working-hours/defaults", middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleDoctor), hours.SeedDefaults)
	secured.POST("/appointments", appointments.Create)
	secured.GET("/appointments", appointments.ListByDate)
	secured.GET("/appointments/month", appointments.ListByMonth)
	secured.PATCH("/appointments/:id/confirm", appointments.Confirm)
	secured.PATCH("/appointments/:id/cancel", appointments.Cancel)
	secured.PATCH("/appointments/:id/complete", appointments.Complete)
	secured.PATCH("/appointments/:id/no-show", appointments.NoShow)
	secured.PATCH("/appointments/:id/reschedule", appointments.Reschedule)

	return &testEnv{store: store, cache: spy, r: r}
}

func (e *testEnv) do(method, path, role, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}
