package availability

import (
	"encoding/json"
	"fmt"
)

// MinutesPerDay is midnight at the end of the day. Only an interval end may
// take this value.
const MinutesPerDay = 24 * 60

// Clock is a naive time of day with minute resolution (minutes since midnight).
type Clock int

// ParseClock parses a zero-padded 24h "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	return Clock(h*60 + m), nil
}

// ParseEndClock is ParseClock that also accepts "24:00", the end of the day.
func ParseEndClock(s string) (Clock, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return ParseClock(s)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Interval is a half-open [Start, End) range of a day.
type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (i *Interval) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	start, err := ParseClock(raw.Start)
	if err != nil {
		return err
	}
	end, err := ParseEndClock(raw.End)
	if err != nil {
		return err
	}
	*i = Interval{Start: start, End: end}
	return nil
}

func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Overlaps reports whether two half-open intervals share at least one minute.
// Touching intervals (one ends where the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return o.Start < i.End && o.End > i.Start
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
