package events

import "github.com/ramonehamilton/PTCG-Inventory/internal/catalog"

// Event types
const (
	SetsUpdated  = "sets:updated"
	CardsUpdated = "cards:updated"
)

// SetsUpdatedEvent is the payload for sets:updated events.
// It carries the full set list after the mutation.
type SetsUpdatedEvent struct {
	Sets []catalog.Set `json:"sets"`
}

// CardsUpdatedEvent is the payload for cards:updated events.
// It carries the full card summary list after the mutation.
type CardsUpdatedEvent struct {
	Cards []catalog.CardSummary `json:"cards"`
}
