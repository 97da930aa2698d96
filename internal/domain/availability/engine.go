// Package availability computes the bookable time windows of a doctor on a
// given day from the doctor's weekly working hours and the appointments
// already on that day.
//
// All values are naive local times of day. The engine does not know about
// time zones: the caller decides which calendar day "date" means and passes
// the schedule and bookings of that day.
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
)

// DefaultSlotMinutes is the slot size used when the caller has no preference.
const DefaultSlotMinutes = 30

// TimeRange is a working-hours interval as kept by the schedule store.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Booking is an appointment as seen by the engine.
type Booking struct {
	Start  string
	End    string
	Status appointment.Status
}

type ScheduleStore interface {
	// GetWorkingHours returns the declared intervals of a doctor for a weekday
	// (0=Sunday .. 6=Saturday).
	GetWorkingHours(ctx context.Context, doctorID uint, weekday int) ([]TimeRange, error)
}

type AppointmentStore interface {
	// GetBookingsForDoctorOnDate returns every appointment of the doctor on the
	// calendar day of date, whatever its status.
	GetBookingsForDoctorOnDate(ctx context.Context, doctorID uint, date time.Time) ([]Booking, error)
}

type Request struct {
	DoctorID    uint
	Date        time.Time
	SlotMinutes int
	Granular    bool
}

type DaySlots struct {
	DoctorID uint       `json:"doctor_id"`
	Date     string     `json:"date"`
	Slots    []Interval `json:"slots"`
}

type Engine struct {
	schedules ScheduleStore
	bookings  AppointmentStore
}

func NewEngine(schedules ScheduleStore, bookings AppointmentStore) *Engine {
	return &Engine{
		schedules: schedules,
		bookings:  bookings,
	}
}

// Weekday maps a date to the template numbering: 0=Sunday .. 6=Saturday.
func Weekday(date time.Time) int {
	return int(date.Weekday())
}

// ComputeAvailableSlots returns the ordered free slots of the doctor on
// req.Date. It never returns partial results together with an error.
func (e *Engine) ComputeAvailableSlots(ctx context.Context, req Request) (*DaySlots, error) {
	if req.DoctorID == 0 {
		return nil, invalidArgument("doctor id is required")
	}
	if err := checkSlotMinutes(req.SlotMinutes); err != nil {
		return nil, err
	}

	out := &DaySlots{
		DoctorID: req.DoctorID,
		Date:     req.Date.Format("2006-01-02"),
		Slots:    []Interval{},
	}

	working, err := e.schedules.GetWorkingHours(ctx, req.DoctorID, Weekday(req.Date))
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if len(working) == 0 {
		return out, nil
	}

	bookings, err := e.bookings.GetBookingsForDoctorOnDate(ctx, req.DoctorID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	slots, err := Compute(working, bookings, req.SlotMinutes, req.Granular)
	if err != nil {
		return nil, err
	}

	out.Slots = slots
	return out, nil
}

// Compute is the pure part of the engine.
//
// Every working interval is processed on its own, in ascending order: the
// occupying bookings are subtracted from it and the free pieces are emitted
// either whole (granular=false) or cut into slotMinutes units (granular=true).
// Units are laid on a grid that starts at the working interval start, so a
// booking that covers part of a unit removes the whole unit. A trailing piece
// shorter than slotMinutes is never emitted.
func Compute(working []TimeRange, bookings []Booking, slotMinutes int, granular bool) ([]Interval, error) {
	if err := checkSlotMinutes(slotMinutes); err != nil {
		return nil, err
	}

	windows, err := parseWorkingHours(working)
	if err != nil {
		return nil, err
	}

	busy, err := parseBookings(bookings)
	if err != nil {
		return nil, err
	}

	slots := []Interval{}
	for _, w := range windows {
		for _, free := range subtract(w, busy) {
			if !granular {
				slots = append(slots, free)
				continue
			}
			slots = appendGrid(slots, w, free, slotMinutes)
		}
	}

	return slots, nil
}

// checkSlotMinutes accepts 1..MinutesPerDay.
func checkSlotMinutes(slotMinutes int) error {
	if slotMinutes <= 0 {
		return invalidArgument("slot duration must be positive, got %d", slotMinutes)
	}
	if slotMinutes > MinutesPerDay {
		return invalidArgument("slot duration cannot exceed %d minutes, got %d", MinutesPerDay, slotMinutes)
	}
	return nil
}

func parseInterval(source string, start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, &DataError{Source: source, Start: start, End: end, Reason: err.Error()}
	}
	e, err := ParseEndClock(end)
	if err != nil {
		return Interval{}, &DataError{Source: source, Start: start, End: end, Reason: err.Error()}
	}
	if e <= s {
		return Interval{}, &DataError{Source: source, Start: start, End: end, Reason: "end must be after start"}
	}
	return Interval{Start: s, End: e}, nil
}

func parseWorkingHours(working []TimeRange) ([]Interval, error) {
	windows := make([]Interval, 0, len(working))
	for _, tr := range working {
		iv, err := parseInterval("working_hours", tr.Start, tr.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, iv)
	}

	sortIntervals(windows)

	for i := 1; i < len(windows); i++ {
		if windows[i].Overlaps(windows[i-1]) {
			return nil, &DataError{
				Source: "working_hours",
				Start:  windows[i].Start.String(),
				End:    windows[i].End.String(),
				Reason: "overlaps " + windows[i-1].String(),
			}
		}
	}

	return windows, nil
}

// parseBookings validates every record, cancelled ones included, and keeps
// only those that occupy time.
func parseBookings(bookings []Booking) ([]Interval, error) {
	busy := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		iv, err := parseInterval("booking", b.Start, b.End)
		if err != nil {
			return nil, err
		}
		if !appointment.OccupiesTime(b.Status) {
			continue
		}
		busy = append(busy, iv)
	}

	sortIntervals(busy)
	return busy, nil
}

func sortIntervals(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].End < ivs[j].End
	})
}

// subtract removes the busy intervals from w. busy must be sorted by start;
// the returned pieces are then sorted as well.
func subtract(w Interval, busy []Interval) []Interval {
	free := []Interval{w}
	for _, b := range busy {
		if !b.Overlaps(w) {
			continue
		}

		next := free[:0:0]
		for _, iv := range free {
			if !b.Overlaps(iv) {
				next = append(next, iv)
				continue
			}
			if b.Start > iv.Start {
				next = append(next, Interval{Start: iv.Start, End: b.Start})
			}
			if b.End < iv.End {
				next = append(next, Interval{Start: b.End, End: iv.End})
			}
		}
		free = next
	}
	return free
}

// appendGrid emits the slotMinutes units of the grid anchored at w.Start that
// fit entirely inside free.
func appendGrid(slots []Interval, w, free Interval, slotMinutes int) []Interval {
	step := Clock(slotMinutes)
	if step > free.End-free.Start {
		return slots
	}

	t := w.Start
	if offset := free.Start - w.Start; offset > 0 {
		t += ((offset + step - 1) / step) * step
	}

	for ; t < free.End && step <= free.End-t; t += step {
		slots = append(slots, Interval{Start: t, End: t + step})
	}
	return slots
}
