// Package schedule holds the rules of a doctor's weekly working-hours
// template.
package schedule

import (
	"fmt"
	"sort"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
)

// Day is the list of intervals declared for one weekday.
type Day struct {
	Weekday   int                      `json:"weekday"`
	Intervals []availability.TimeRange `json:"intervals"`
}

// ValidateDay checks one weekday of a template: every interval parses,
// start < end, and no two intervals overlap. Touching intervals are allowed.
func ValidateDay(weekday int, intervals []availability.TimeRange) error {
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidTemplate, weekday)
	}

	parsed := make([]availability.Interval, 0, len(intervals))
	for _, tr := range intervals {
		iv, err := parse(tr)
		if err != nil {
			return fmt.Errorf("%w: weekday %d: %v", ErrInvalidTemplate, weekday, err)
		}
		parsed = append(parsed, iv)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Start < parsed[j].Start })
	for i := 1; i < len(parsed); i++ {
		if parsed[i].Overlaps(parsed[i-1]) {
			return fmt.Errorf("%w: weekday %d: %s overlaps %s",
				ErrInvalidTemplate, weekday, parsed[i], parsed[i-1])
		}
	}

	return nil
}

// ValidateWeek validates every day and rejects the same weekday given twice.
func ValidateWeek(days []Day) error {
	seen := map[int]bool{}
	for _, d := range days {
		if seen[d.Weekday] {
			return fmt.Errorf("%w: weekday %d given twice", ErrInvalidTemplate, d.Weekday)
		}
		seen[d.Weekday] = true

		if err := ValidateDay(d.Weekday, d.Intervals); err != nil {
			return err
		}
	}
	return nil
}

// DefaultTemplate is the seed used for a doctor without working hours:
// Monday to Friday, 08:00-12:00 and 13:00-17:00.
func DefaultTemplate() []Day {
	days := make([]Day, 0, 5)
	for wd := 1; wd <= 5; wd++ {
		days = append(days, Day{
			Weekday: wd,
			Intervals: []availability.TimeRange{
				{Start: "08:00", End: "12:00"},
				{Start: "13:00", End: "17:00"},
			},
		})
	}
	return days
}

// Covers reports whether [start, end) lies entirely inside one of the
// declared intervals. A window spanning two touching intervals is not
// covered. Malformed intervals are ignored.
func Covers(intervals []availability.TimeRange, start, end string) (bool, error) {
	want, err := parse(availability.TimeRange{Start: start, End: end})
	if err != nil {
		return false, err
	}

	for _, tr := range intervals {
		iv, err := parse(tr)
		if err != nil {
			continue
		}
		if iv.Contains(want) {
			return true, nil
		}
	}
	return false, nil
}

func parse(tr availability.TimeRange) (availability.Interval, error) {
	s, err := availability.ParseClock(tr.Start)
	if err != nil {
		return availability.Interval{}, err
	}
	e, err := availability.ParseEndClock(tr.End)
	if err != nil {
		return availability.Interval{}, err
	}
	if e <= s {
		return availability.Interval{}, fmt.Errorf("%s-%s: end must be after start", tr.Start, tr.End)
	}
	return availability.Interval{Start: s, End: e}, nil
}
