// Package inventory defines the collection persistence contract and the
// services built on it.
package inventory

import (
	"context"
	"errors"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

var (
	// ErrNotFound is returned when an update or delete targets a missing card or set.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCard is returned when a card with the same set, position and
	// language is already in the collection.
	ErrDuplicateCard = errors.New("card already in collection")
)

// Store is implemented by the local (SQLite) and remote (PostgreSQL) backends.
// Lookups return nil, nil when nothing matches.
type Store interface {
	// ListSets returns every stored set ordered by release date, newest first.
	ListSets(ctx context.Context) ([]catalog.Set, error)

	// UpsertSets inserts or updates sets in one transaction. A stored
	// abbreviation is kept when the incoming one is nil or blank.
	UpsertSets(ctx context.Context, sets []catalog.Set) error

	// UpdateSetAbbreviation sets or clears a set's abbreviation.
	UpdateSetAbbreviation(ctx context.Context, setID string, abbreviation *string) error

	ListCardSummaries(ctx context.Context) ([]catalog.CardSummary, error)
	GetCard(ctx context.Context, id int64) (*catalog.Card, error)
	FindCardByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error)
	FindCardByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error)

	// InsertCard stores a new card and returns its id.
	InsertCard(ctx context.Context, card *catalog.Card) (int64, error)

	UpdateCard(ctx context.Context, id int64, update catalog.CardUpdate) error
	DeleteCard(ctx context.Context, id int64) error

	Close() error
}
