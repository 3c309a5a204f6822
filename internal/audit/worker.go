package audit

import (
	"context"
	"time"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations into
// the domain services.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// AsyncPublisher hands events to a background Worker through a buffered
// channel, keeping audit writes off the request path.
type AsyncPublisher struct {
	inbox chan<- Event
}

// NewAsync pairs an AsyncPublisher with the Worker that drains it. The caller
// runs the worker.
func NewAsync(store Store, buffer int) (*AsyncPublisher, *Worker) {
	inbox := make(chan Event, buffer)
	return &AsyncPublisher{inbox: inbox}, NewWorker(store, inbox)
}

// Emit enqueues the event, blocking only when the buffer is full.
func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
