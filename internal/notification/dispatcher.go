package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dispatcher hands messages to a Sink on a background worker through a
// bounded queue. A full queue drops the message.
type Dispatcher struct {
	sink  Sink
	log   *zap.Logger
	queue chan Message
	done  chan struct{}
}

func NewDispatcher(sink Sink, log *zap.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 100
	}

	d := &Dispatcher{
		sink:  sink,
		log:   log,
		queue: make(chan Message, size),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.sink.Notify(ctx, msg); err != nil {
			d.log.Error("notification delivery failed",
				zap.String("kind", msg.Kind),
				zap.Uint("clinic_id", msg.ClinicID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Notify enqueues msg and returns immediately.
func (d *Dispatcher) Notify(_ context.Context, msg Message) error {
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("notification queue full, dropping message", zap.String("kind", msg.Kind))
	}
	return nil
}

func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

var _ Sink = (*Dispatcher)(nil)
