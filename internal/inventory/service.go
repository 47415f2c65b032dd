package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

// ErrInvalidCard is returned when a card lacks its natural key.
var ErrInvalidCard = errors.New("card requires set id, local id and language")

// Catalog is the reconciliation service as seen by the collection.
type Catalog interface {
	// RefreshSets fetches the unified set list from the providers, never
	// from a cache.
	RefreshSets(ctx context.Context, lang string) ([]catalog.Set, error)
	GetCardDetails(ctx context.Context, setID, localID, lang string) (*catalog.Card, error)
}

// Stats summarizes the collection.
type Stats struct {
	DistinctCards int     `json:"distinct_cards"`
	TotalCopies   int     `json:"total_copies"`
	TotalValue    float64 `json:"total_value"`
}

// Service is the collection facade used by the API layer.
type Service struct {
	catalog Catalog
	repo    *Repository
}

// NewService creates a collection service.
func NewService(c Catalog, repo *Repository) *Service {
	return &Service{catalog: c, repo: repo}
}

// SyncSets fetches the unified set list and stores it. Returns the number of
// sets written; an empty catalog result writes nothing.
func (s *Service) SyncSets(ctx context.Context, lang string) (int, error) {
	sets, err := s.catalog.RefreshSets(ctx, lang)
	if err != nil {
		return 0, err
	}
	if len(sets) == 0 {
		log.Printf("[Inventory] Set sync for %q returned no sets, keeping stored list", lang)
		return 0, nil
	}

	if err := s.repo.UpsertSets(ctx, sets); err != nil {
		return 0, fmt.Errorf("failed to store sets: %w", err)
	}

	log.Printf("[Inventory] Synced %d sets (%s)", len(sets), lang)
	return len(sets), nil
}

// LookupCard fetches a card from the catalog. Returns nil, nil when absent.
func (s *Service) LookupCard(ctx context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return s.catalog.GetCardDetails(ctx, setID, localID, lang)
}

// ConfirmCard adds a card to the collection. A card already stored at the same
// set, position and language yields ErrDuplicateCard.
func (s *Service) ConfirmCard(ctx context.Context, card *catalog.Card) (*catalog.Card, error) {
	if card == nil || card.SetID == "" || card.LocalID == "" || card.Language == "" {
		return nil, ErrInvalidCard
	}

	existing, err := s.repo.FindCardByPosition(ctx, card.SetID, card.LocalID, card.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: id %d", ErrDuplicateCard, existing.ID)
	}

	stored := *card
	if stored.Quantity < 1 {
		stored.Quantity = 1
	}

	id, err := s.repo.InsertCard(ctx, &stored)
	if err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}
	stored.ID = id

	return &stored, nil
}

// GetCard returns one stored card, or nil when missing.
func (s *Service) GetCard(ctx context.Context, id int64) (*catalog.Card, error) {
	return s.repo.GetCard(ctx, id)
}

// PatchCard changes only the fields set in patch and returns the stored card.
func (s *Service) PatchCard(ctx context.Context, id int64, patch catalog.CardPatch) (*catalog.Card, error) {
	card, err := s.repo.PatchCard(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", id, err)
	}
	return card, nil
}

// DeleteCard removes a card from the collection.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	return nil
}

func (s *Service) ListCards(ctx context.Context) ([]catalog.CardSummary, error) {
	return s.repo.ListCardSummaries(ctx)
}

func (s *Service) ListSets(ctx context.Context) ([]catalog.Set, error) {
	return s.repo.ListSets(ctx)
}

// SetAbbreviation stores a user-provided set abbreviation. A blank value clears it.
func (s *Service) SetAbbreviation(ctx context.Context, setID, abbreviation string) error {
	var abbr *string
	if trimmed := strings.TrimSpace(abbreviation); trimmed != "" {
		upper := strings.ToUpper(trimmed)
		abbr = &upper
	}
	if err := s.repo.UpdateSetAbbreviation(ctx, setID, abbr); err != nil {
		return fmt.Errorf("failed to update abbreviation of %s: %w", setID, err)
	}
	return nil
}

func (s *Service) WatchSets(ctx context.Context) (<-chan []catalog.Set, error) {
	return s.repo.WatchSets(ctx)
}

func (s *Service) WatchCards(ctx context.Context) (<-chan []catalog.CardSummary, error) {
	return s.repo.WatchCards(ctx)
}

// Stats computes collection totals. Cards without a price add no value.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	cards, err := s.repo.ListCardSummaries(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, c := range cards {
		stats.DistinctCards++
		stats.TotalCopies += c.Quantity
		if c.Price != nil {
			stats.TotalValue += *c.Price * float64(c.Quantity)
		}
	}
	return stats, nil
}
