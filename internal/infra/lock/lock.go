// Package lock serializes bookings of one doctor on one day.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire blocks until the lock is held, ctx is done or ttl has passed.
	// The returned release function is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

func BookingKey(doctorID uint, date time.Time) string {
	return fmt.Sprintf("lock:booking:%d:%s", doctorID, date.Format("2006-01-02"))
}
