// Package events carries domain events from the core services to the
// notification layer. The core only decides and publishes; delivery (WebSocket
// relay, email) belongs to subscribers.
package events

import (
	"context"
	"sync"
	"time"
)

// Event describes a bed transition or an admission status change.
type Event struct {
	Resource  string    `json:"resource"` // "bed", "admission", "vitals"
	ID        string    `json:"id"`
	WardID    string    `json:"ward_id,omitempty"`
	PatientID string    `json:"patient_id,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic returns the subscription topic for the event, e.g. "bed:<ward>".
func (e Event) Topic() string {
	switch e.Resource {
	case "bed":
		return "bed:" + e.WardID
	case "vitals":
		return "vitals:" + e.PatientID
	default:
		return e.Resource + ":" + e.ID
	}
}

// Publisher is implemented by the domain services' event sink.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Subscriber receives every published event.
type Subscriber interface {
	Notify(event Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(event Event)

func (f SubscriberFunc) Notify(event Event) { f(event) }

type bufferKey struct{}

// Buffer holds events published during a unit of work until the work is known
// to have committed. A rolled-back transaction drops its buffer, so
// subscribers never see a transition that did not happen.
type Buffer struct {
	mu   sync.Mutex
	held []heldEvent
}

type heldEvent struct {
	deliver func(Event)
	event   Event
}

// WithBuffer installs a fresh Buffer on ctx. Publish calls made with the
// returned context are held in the buffer instead of reaching subscribers.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	buf := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, buf), buf
}

func bufferFrom(ctx context.Context) *Buffer {
	buf, _ := ctx.Value(bufferKey{}).(*Buffer)
	return buf
}

func (b *Buffer) hold(deliver func(Event), event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held = append(b.held, heldEvent{deliver: deliver, event: event})
}

// Flush releases every held event to its subscribers, in publish order. Call
// after commit; on rollback simply drop the buffer.
func (b *Buffer) Flush() {
	b.mu.Lock()
	held := b.held
	b.held = nil
	b.mu.Unlock()

	for _, h := range held {
		h.deliver(h.event)
	}
}

// Len reports the number of held events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.held)
}

// Bus is an in-process fan-out publisher. Publishing never blocks on
// subscribers; a slow relay must not stall an admit or discharge.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber for all future events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish stamps the event and hands it to every subscriber. When ctx carries
// a Buffer the event is held there instead; the transaction owner flushes it
// after commit.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if buf := bufferFrom(ctx); buf != nil {
		buf.hold(b.deliver, event)
		return
	}
	b.deliver(event)
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.Notify(event)
	}
}

// Nop is a Publisher that discards events. Used in tests and CLI commands.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
