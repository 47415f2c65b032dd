// Package events distributes collection change notifications to observers
// such as watch subscriptions and WebSocket clients.
package events

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

// Event is one collection change. TypedData holds the snapshot payload,
// e.g. SetsUpdatedEvent for SetsUpdated.
type Event struct {
	ID        string
	Type      string
	TypedData any
	Timestamp time.Time

	// Context is the context of the mutation that produced the event.
	Context context.Context
}

// Observer receives dispatched events.
type Observer interface {
	OnEvent(event Event) error
	GetName() string

	// ShouldHandle filters by event type before OnEvent is called.
	ShouldHandle(eventType string) bool
}

// EventDispatcher delivers events to observers synchronously, in
// registration order. Safe for concurrent use.
type EventDispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register adds an observer for all future events.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	d.observers = append(d.observers, observer)
	d.mu.Unlock()

	log.Printf("[EventDispatcher] Registered %s", observer.GetName())
}

// Unregister removes an observer. Unknown observers are ignored.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	idx := slices.Index(d.observers, observer)
	if idx >= 0 {
		d.observers = slices.Delete(d.observers, idx, idx+1)
	}
	d.mu.Unlock()

	if idx >= 0 {
		log.Printf("[EventDispatcher] Unregistered %s", observer.GetName())
	}
}

// Dispatch delivers event to every interested observer and returns once all
// of them have handled it. Observer errors are logged and do not stop delivery.
func (d *EventDispatcher) Dispatch(event Event) {
	metrics.SnapshotsPublished.WithLabelValues(event.Type).Inc()

	for _, observer := range d.interested(event.Type) {
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[EventDispatcher] %s failed on %s: %v", observer.GetName(), event.Type, err)
		}
	}
}

// interested returns a copy of the observers handling eventType, so delivery
// runs without holding the lock.
func (d *EventDispatcher) interested(eventType string) []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Observer, 0, len(d.observers))
	for _, o := range d.observers {
		if o.ShouldHandle(eventType) {
			out = append(out, o)
		}
	}
	return out
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes every observer.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	d.observers = nil
	d.mu.Unlock()
}

// NewTypedEvent creates an Event with typed data and a fresh ID.
func NewTypedEvent[T any](eventType string, data T, ctx context.Context) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TypedData: data,
		Timestamp: time.Now().UTC(),
		Context:   ctx,
	}
}

// GetTypedData extracts the payload of an Event as T.
func GetTypedData[T any](event Event) (T, bool) {
	typed, ok := event.TypedData.(T)
	return typed, ok
}
