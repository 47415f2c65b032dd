package events

import (
	"context"
	"testing"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

func TestNewTypedEvent(t *testing.T) {
	ctx := context.Background()

	event := NewTypedEvent(SetsUpdated, SetsUpdatedEvent{
		Sets: []catalog.Set{{ID: "sv1"}, {ID: "sv2"}},
	}, ctx)

	if event.Type != SetsUpdated {
		t.Errorf("Expected type %q, got %q", SetsUpdated, event.Type)
	}

	if event.ID == "" {
		t.Error("Expected event ID to be set")
	}

	if event.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	typed, ok := event.TypedData.(SetsUpdatedEvent)
	if !ok {
		t.Fatal("Expected TypedData to be SetsUpdatedEvent")
	}

	if len(typed.Sets) != 2 {
		t.Errorf("Expected 2 sets, got %d", len(typed.Sets))
	}
}

func TestNewTypedEvent_UniqueIDs(t *testing.T) {
	a := NewTypedEvent(CardsUpdated, CardsUpdatedEvent{}, context.Background())
	b := NewTypedEvent(CardsUpdated, CardsUpdatedEvent{}, context.Background())

	if a.ID == b.ID {
		t.Errorf("Expected distinct IDs, got %s twice", a.ID)
	}
}

func TestGetTypedData(t *testing.T) {
	event := NewTypedEvent(CardsUpdated, CardsUpdatedEvent{
		Cards: []catalog.CardSummary{{ID: 1, Name: "Pikachu"}},
	}, context.Background())

	data, ok := GetTypedData[CardsUpdatedEvent](event)
	if !ok {
		t.Fatal("Expected GetTypedData to succeed")
	}

	if data.Cards[0].Name != "Pikachu" {
		t.Errorf("Expected Pikachu, got %q", data.Cards[0].Name)
	}

	// Wrong type
	if _, ok := GetTypedData[SetsUpdatedEvent](event); ok {
		t.Error("Expected GetTypedData to fail for wrong type")
	}
}

func TestGetTypedData_NilTypedData(t *testing.T) {
	event := Event{Type: "test"}

	if _, ok := GetTypedData[SetsUpdatedEvent](event); ok {
		t.Error("Expected GetTypedData to fail for nil TypedData")
	}
}
