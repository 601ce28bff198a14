package audit

import (
	"context"
	"time"
)

// Store is the persistence boundary for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Publisher buffers events onto a channel drained by the Worker, so emitting
// an audit event never blocks or fails a business operation. When the buffer
// is full the event is dropped; the trail is best-effort.
type Publisher struct {
	inbox chan Event
}

// NewPublisher creates a Publisher with the given buffer size.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit enqueues an event, stamping the time if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full; drop rather than stall the request path.
	}
	return nil
}

// Inbox exposes the channel for the Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
