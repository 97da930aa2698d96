package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memWriter struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	block  chan struct{}
}

func (w *memWriter) Log(_ context.Context, ev Event) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("db down")
	}
	w.events = append(w.events, ev)
	return nil
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	w := &memWriter{}
	d := NewDispatcher(w, zap.NewNop())

	d.Dispatch(Event{ClinicID: 1, Action: "appointment_created"})
	d.Dispatch(Event{ClinicID: 1, Action: "appointment_confirmed"})
	d.Close()

	require.Len(t, w.events, 2)
	assert.Equal(t, "appointment_created", w.events[0].Action)
	assert.Equal(t, "appointment_confirmed", w.events[1].Action)
}

func TestDispatcher_WriteErrorsDoNotStopWorker(t *testing.T) {
	w := &memWriter{fail: true}
	d := NewDispatcher(w, zap.NewNop())

	d.Dispatch(Event{Action: "a"})
	d.Dispatch(Event{Action: "b"})
	d.Close()

	assert.Empty(t, w.events)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	w := &memWriter{block: make(chan struct{})}
	d := NewDispatcher(w, zap.NewNop())

	// one event is held by the worker, the rest fill the buffer
	for i := 0; i < 150; i++ {
		d.Dispatch(Event{Action: "x"})
	}
	close(w.block)
	d.Close()

	assert.LessOrEqual(t, len(w.events), 101)
	assert.GreaterOrEqual(t, len(w.events), 100)
}
