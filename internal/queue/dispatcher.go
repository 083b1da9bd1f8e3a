package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by Dispatcher.Publish when the buffer is full.
var ErrQueueFull = errors.New("notification queue full")

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Dispatcher is the in-process notification queue used when no broker is
// configured.  Publish never blocks; a single worker started by Run
// drains the buffer and calls the handler for each event.
type Dispatcher struct {
	events  chan TicketRegisteredEvent
	handler Handler
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher returns a Dispatcher with room for size pending events.
func NewDispatcher(size int, handler Handler, log logrus.FieldLogger) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	return &Dispatcher{
		events:  make(chan TicketRegisteredEvent, size),
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Publish enqueues ev without waiting.
func (d *Dispatcher) Publish(ctx context.Context, ev TicketRegisteredEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run processes events until Close is called and the buffer is drained.
// ctx is passed to the handler; cancelling it does not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for ev := range d.events {
		if err := d.handler(ctx, ev); err != nil {
			d.log.WithError(err).WithField("ticket_id", ev.TicketID).Error("notification handler failed")
		}
	}
}

// Close stops accepting events and waits for the worker to finish the
// remaining ones or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
