package events

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// ChannelObserver delivers the typed payload of one event type to a channel.
// Delivery never blocks: when the buffer is full the oldest queued value is
// dropped, so a receiver that falls behind sees the newest values only.
type ChannelObserver[T any] struct {
	name      string
	eventType string
	ctx       context.Context
	ch        chan T

	mu     sync.Mutex
	closed bool
}

// NewChannelObserver creates a channel observer for eventType.
func NewChannelObserver[T any](ctx context.Context, eventType string, buffer int) *ChannelObserver[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelObserver[T]{
		name:      "ChannelObserver(" + eventType + ")",
		eventType: eventType,
		ctx:       ctx,
		ch:        make(chan T, buffer),
	}
}

// C returns the receive side of the subscription.
func (o *ChannelObserver[T]) C() <-chan T {
	return o.ch
}

// Offer queues a value directly, bypassing the dispatcher.
// Used to seed the initial snapshot before registration.
func (o *ChannelObserver[T]) Offer(value T) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	if err := o.ctx.Err(); err != nil {
		return err
	}

	for {
		select {
		case o.ch <- value:
			return nil
		default:
		}

		select {
		case <-o.ch:
			log.Printf("[%s] Receiver is behind, dropped oldest value", o.name)
		default:
		}
	}
}

// OnEvent forwards the event payload to the channel.
func (o *ChannelObserver[T]) OnEvent(event Event) error {
	data, ok := GetTypedData[T](event)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.TypedData, event.Type)
	}
	return o.Offer(data)
}

// Close closes the channel. Further events are dropped.
func (o *ChannelObserver[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}

// GetName returns the observer's name.
func (o *ChannelObserver[T]) GetName() string {
	return o.name
}

// ShouldHandle returns true only for the subscribed event type.
func (o *ChannelObserver[T]) ShouldHandle(eventType string) bool {
	return eventType == o.eventType
}

// Subscribe registers a channel observer seeded with initial. The observer is
// unregistered and its channel closed when ctx ends.
func Subscribe[T any](ctx context.Context, d *EventDispatcher, eventType string, initial T, buffer int) <-chan T {
	obs := NewChannelObserver[T](ctx, eventType, buffer)
	_ = obs.Offer(initial)
	d.Register(obs)

	go func() {
		<-ctx.Done()
		d.Unregister(obs)
		obs.Close()
	}()

	return obs.C()
}

// LoggingObserver logs all events for debugging purposes.
type LoggingObserver struct {
	name    string
	verbose bool
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		log.Printf("[%s] Event: %s (%s), Data: %+v", o.name, event.Type, event.ID, event.TypedData)
	} else {
		log.Printf("[%s] Event: %s", o.name, event.Type)
	}
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}
