// Package bus provides the in-process publish/subscribe backbone of the
// pipeline. A Bus is an explicitly constructed instance passed into every
// component; there is no global bus.
package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultHistorySize caps the event history ring buffer.
const DefaultHistorySize = 1000

// Event is one append-only record of something that happened. Never
// mutated after creation.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Payload   Payload
}

// Handler processes one event. Handlers run synchronously on the emitting
// goroutine, in registration order.
type Handler func(Event)

// Subscription identifies a registered handler for Off.
type Subscription int

type subscriber struct {
	id       Subscription
	handler  Handler
	wildcard bool
}

// Bus delivers events to subscribers and keeps a bounded history. State is
// process-lifetime only; nothing is persisted.
type Bus struct {
	mu      sync.Mutex
	typed   map[EventType][]subscriber
	all     []subscriber
	history []Event
	cap     int
	nextID  Subscription

	logger *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistorySize overrides the history ring capacity.
func WithHistorySize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.cap = n
		}
	}
}

// WithLogger sets the logger used for handler failure reports.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		typed:  make(map[EventType][]subscriber),
		cap:    DefaultHistorySize,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Emit assigns an id and timestamp, appends the event to history (oldest
// dropped first once the cap is hit), then synchronously invokes every
// handler registered for the payload's type and every wildcard handler, in
// registration order. A panicking handler does not prevent the remaining
// handlers from running.
func (b *Bus) Emit(payload Payload) Event {
	evt := Event{
		ID:        uuid.NewString(),
		Type:      payload.EventType(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.Lock()
	b.history = append(b.history, evt)
	if len(b.history) > b.cap {
		b.history = b.history[len(b.history)-b.cap:]
	}
	// Snapshot subscribers so handlers may subscribe or emit re-entrantly.
	subs := make([]subscriber, 0, len(b.typed[evt.Type])+len(b.all))
	subs = append(subs, b.typed[evt.Type]...)
	subs = append(subs, b.all...)
	b.mu.Unlock()

	for _, s := range subs {
		b.invoke(s, evt)
	}
	return evt
}

// invoke runs one handler, isolating panics so one bad subscriber cannot
// stall the pipeline.
func (b *Bus) invoke(s subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", string(evt.Type)),
				zap.String("event_id", evt.ID),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(evt)
}

// On registers a handler for one event type.
func (b *Bus) On(t EventType, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.typed[t] = append(b.typed[t], subscriber{id: b.nextID, handler: h})
	return b.nextID
}

// OnAll registers a wildcard handler invoked for every event.
func (b *Bus) OnAll(h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.all = append(b.all, subscriber{id: b.nextID, handler: h, wildcard: true})
	return b.nextID
}

// Off removes a previously registered handler. Unknown ids are ignored.
func (b *Bus) Off(id Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.typed {
		b.typed[t] = removeSub(subs, id)
	}
	b.all = removeSub(b.all, id)
}

func removeSub(subs []subscriber, id Subscription) []subscriber {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// History returns up to limit most recent events, newest-last. limit <= 0
// returns the full retained history.
func (b *Bus) History(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := 0
	if limit > 0 && len(b.history) > limit {
		start = len(b.history) - limit
	}
	out := make([]Event, len(b.history)-start)
	copy(out, b.history[start:])
	return out
}

// EventsByType returns up to limit most recent events of one type,
// newest-last.
func (b *Bus) EventsByType(t EventType, limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Event
	for _, evt := range b.history {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
