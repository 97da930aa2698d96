package appointment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
)

// ------------------------------------------------------------
// in-memory repository
// ------------------------------------------------------------

type fakeRepo struct {
	mu sync.Mutex

	clinics  map[uint]*models.Clinic
	doctors  map[uint]*models.Doctor
	services map[uint]*models.MedicalService
	patients []*models.Patient
	hours    []models.WorkingHours
	apps     []*models.Appointment

	nextID uint
}

func newFakeRepo() *fakeRepo {
	r := &fakeRepo{
		clinics: map[uint]*models.Clinic{
			1: {ID: 1, Name: "Saigon Clinic", Slug: "saigon", Timezone: "Asia/Ho_Chi_Minh", SlotMinutes: 30},
		},
		doctors: map[uint]*models.Doctor{
			10: {ID: 10, ClinicID: 1, Name: "Dr. Lan", Active: true},
			11: {ID: 11, ClinicID: 1, Name: "Dr. Minh", Active: true},
		},
		services: map[uint]*models.MedicalService{
			5: {ID: 5, ClinicID: 1, Name: "Consultation", DurationMin: 45, Active: true},
		},
		nextID: 100,
	}

	for _, doctorID := range []uint{10, 11} {
		for wd := 1; wd <= 5; wd++ {
			r.hours = append(r.hours,
				models.WorkingHours{DoctorID: doctorID, Weekday: wd, StartTime: "08:00", EndTime: "12:00"},
				models.WorkingHours{DoctorID: doctorID, Weekday: wd, StartTime: "13:00", EndTime: "17:00"},
			)
		}
	}
	return r
}

func (r *fakeRepo) GetClinicByID(_ context.Context, id uint) (*models.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clinics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) GetDoctor(_ context.Context, clinicID, doctorID uint) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok || d.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) GetService(_ context.Context, clinicID, serviceID uint) (*models.MedicalService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[serviceID]
	if !ok || s.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) GetOrCreatePatient(_ context.Context, clinicID uint, name, phone, email string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.ClinicID == clinicID && p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	r.nextID++
	p := &models.Patient{ID: r.nextID, ClinicID: clinicID, Name: name, Phone: phone, Email: email}
	r.patients = append(r.patients, p)
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ListWorkingHours(_ context.Context, doctorID uint, weekday int) ([]models.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkingHours
	for _, wh := range r.hours {
		if wh.DoctorID == doctorID && wh.Weekday == weekday {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveIfFree(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := ap.Date.Format(dateLayout)
	for _, other := range r.apps {
		if other.ID == ap.ID || other.DoctorID != ap.DoctorID || other.Date.Format(dateLayout) != day {
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
		r.nextID++
		ap.ID = r.nextID
		cp := *ap
		r.apps = append(r.apps, &cp)
		return nil
	}
	return r.replace(ap)
}

func (r *fakeRepo) replace(ap *models.Appointment) error {
	for i, other := range r.apps {
		if other.ID == ap.ID {
			cp := *ap
			r.apps[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetAppointment(_ context.Context, clinicID, appointmentID uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.apps {
		if ap.ID == appointmentID && ap.ClinicID == clinicID {
			cp := *ap
			for _, p := range r.patients {
				if p.ID == ap.PatientID {
					cp.Patient = *p
				}
			}
			if d, ok := r.doctors[ap.DoctorID]; ok {
				cp.Doctor = *d
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replace(ap)
}

func (r *fakeRepo) ListAppointmentsForPeriod(_ context.Context, clinicID, doctorID uint, from, to time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo, hi := from.Format(dateLayout), to.Format(dateLayout)
	var out []models.Appointment
	for _, ap := range r.apps {
		d := ap.Date.Format(dateLayout)
		if ap.ClinicID != clinicID || d < lo || d >= hi {
			continue
		}
		if doctorID != 0 && ap.DoctorID != doctorID {
			continue
		}
		cp := *ap
		if d, ok := r.doctors[ap.DoctorID]; ok {
			cp.Doctor = *d
		}
		out = append(out, cp)
	}
	return out, nil
}

// availability stores over the same data

func (r *fakeRepo) GetWorkingHours(ctx context.Context, doctorID uint, weekday int) ([]availability.TimeRange, error) {
	rows, _ := r.ListWorkingHours(ctx, doctorID, weekday)
	out := make([]availability.TimeRange, 0, len(rows))
	for _, wh := range rows {
		out = append(out, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
	}
	return out, nil
}

func (r *fakeRepo) GetBookingsForDoctorOnDate(_ context.Context, doctorID uint, date time.Time) ([]availability.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []availability.Booking
	for _, ap := range r.apps {
		if ap.DoctorID == doctorID && ap.Date.Format(dateLayout) == date.Format(dateLayout) {
			out = append(out, availability.Booking{Start: ap.StartTime, End: ap.EndTime, Status: domain.Status(ap.Status)})
		}
	}
	return out, nil
}

func (r *fakeRepo) stored(id uint) models.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.apps {
		if ap.ID == id {
			return *ap
		}
	}
	return models.Appointment{}
}

var _ domain.Repository = (*fakeRepo)(nil)

// ------------------------------------------------------------
// cache / notifications / audit
// ------------------------------------------------------------

type slotComputerFunc func(ctx context.Context, req availability.Request) (*availability.DaySlots, error)

func (f slotComputerFunc) ComputeAvailableSlots(ctx context.Context, req availability.Request) (*availability.DaySlots, error) {
	return f(ctx, req)
}

// memCache versions entries per doctor the way the Redis cache does.
type memCache struct {
	mu          sync.Mutex
	entries     map[cache.Key]*availability.DaySlots
	versions    map[uint]int64
	invalidated []uint
}

func newMemCache() *memCache {
	return &memCache{
		entries:  map[cache.Key]*availability.DaySlots{},
		versions: map[uint]int64{},
	}
}

func (c *memCache) Get(_ context.Context, key cache.Key) (cache.Key, *availability.DaySlots, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key.Version = c.versions[key.DoctorID]
	v, ok := c.entries[key]
	return key, v, ok
}

func (c *memCache) Set(_ context.Context, key cache.Key, slots *availability.DaySlots) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = slots
}

func (c *memCache) InvalidateDoctor(_ context.Context, doctorID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, doctorID)
	c.versions[doctorID]++
}

type memSink struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (s *memSink) Notify(_ context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *memSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m.Kind)
	}
	return out
}

type nopAuditWriter struct{}

func (nopAuditWriter) Log(context.Context, audit.Event) error { return nil }

func newAudit() *audit.Dispatcher {
	return audit.NewDispatcher(nopAuditWriter{}, zap.NewNop())
}
