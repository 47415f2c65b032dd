package websocket

import (
	"log"

	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
)

// WebSocketObserver forwards collection snapshots to WebSocket clients.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates an observer that broadcasts on hub.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent broadcasts the event's typed payload.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.Printf("[%s] Cannot emit event %s: hub is nil", o.name, event.Type)
		return nil
	}

	o.hub.BroadcastEvent(FromDomainEvent(event))
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle accepts the collection snapshot events.
func (o *WebSocketObserver) ShouldHandle(eventType string) bool {
	return eventType == events.SetsUpdated || eventType == events.CardsUpdated
}

// FromDomainEvent converts a dispatcher event to the wire envelope.
func FromDomainEvent(event events.Event) Event {
	return Event{
		ID:        event.ID,
		Type:      event.Type,
		Timestamp: event.Timestamp,
		Data:      event.TypedData,
	}
}

var _ events.Observer = (*WebSocketObserver)(nil)
