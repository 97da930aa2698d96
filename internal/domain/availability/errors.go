package availability

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedScheduleData = errors.New("malformed schedule data")
	ErrInvalidArgument       = errors.New("invalid argument")
)

// DataError describes which input record made the computation fail.
// It unwraps to ErrMalformedScheduleData.
type DataError struct {
	Source string // "working_hours" or "booking"
	Start  string
	End    string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %s %s-%s: %s", ErrMalformedScheduleData, e.Source, e.Start, e.End, e.Reason)
}

func (e *DataError) Unwrap() error {
	return ErrMalformedScheduleData
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
