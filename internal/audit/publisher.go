package audit

import (
	"context"
	"sync"
	"time"
)

// Publisher emits audit events to a Store. Synchronous by default; with an
// async buffer it decouples emitters from a slow sink, and Close drains
// whatever is still queued.
type Publisher struct {
	store Store

	inbox     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue onto a buffered channel drained by a
// background goroutine instead of writing through synchronously.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// NewPublisher builds a publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the timestamp if the caller left it zero.
// In async mode a full buffer falls back to a synchronous append rather than
// dropping the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

// List returns the events recorded for one decision.
func (p *Publisher) List(ctx context.Context, decisionID string) ([]Event, error) {
	return p.store.ListByDecision(ctx, decisionID)
}

// Close stops the background drain, flushing queued events first.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		// Sink failures are ignored here: the decision store is the durable
		// trail, and the emitter already returned.
		_ = p.store.Append(context.Background(), event)
	}
}
