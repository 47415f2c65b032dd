package inventory

import (
	"context"
	"log"
	"sync"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

const watchBuffer = 16

// Repository wraps a Store and publishes a full snapshot of the affected
// table after every successful mutation.
type Repository struct {
	store      Store
	dispatcher *events.EventDispatcher

	// mu orders mutations with their snapshots and with new subscriptions,
	// so each subscriber sees every change exactly once.
	mu sync.Mutex
}

// NewRepository creates an observable repository over store.
func NewRepository(store Store, dispatcher *events.EventDispatcher) *Repository {
	if dispatcher == nil {
		dispatcher = events.NewEventDispatcher()
	}
	return &Repository{store: store, dispatcher: dispatcher}
}

// Dispatcher returns the dispatcher snapshots are published on.
func (r *Repository) Dispatcher() *events.EventDispatcher {
	return r.dispatcher
}

// WatchSets streams the set list: the current snapshot first, then one
// snapshot per set mutation. The channel closes when ctx ends.
func (r *Repository) WatchSets(ctx context.Context) (<-chan []catalog.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sets, err := r.store.ListSets(ctx)
	if err != nil {
		return nil, err
	}

	src := events.Subscribe(ctx, r.dispatcher, events.SetsUpdated, events.SetsUpdatedEvent{Sets: sets}, watchBuffer)
	return unwrap(ctx, src, func(e events.SetsUpdatedEvent) []catalog.Set { return e.Sets }), nil
}

// WatchCards streams card summaries: the current snapshot first, then one
// snapshot per card mutation. The channel closes when ctx ends.
func (r *Repository) WatchCards(ctx context.Context) (<-chan []catalog.CardSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cards, err := r.store.ListCardSummaries(ctx)
	if err != nil {
		return nil, err
	}

	src := events.Subscribe(ctx, r.dispatcher, events.CardsUpdated, events.CardsUpdatedEvent{Cards: cards}, watchBuffer)
	return unwrap(ctx, src, func(e events.CardsUpdatedEvent) []catalog.CardSummary { return e.Cards }), nil
}

func unwrap[E, T any](ctx context.Context, src <-chan E, get func(E) T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for e := range src {
			select {
			case out <- get(e):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (r *Repository) ListSets(ctx context.Context) ([]catalog.Set, error) {
	return r.store.ListSets(ctx)
}

func (r *Repository) UpsertSets(ctx context.Context, sets []catalog.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.UpsertSets(ctx, sets)
	metrics.ObserveWrite("upsert_sets", err)
	if err != nil {
		return err
	}
	r.publishSets(ctx)
	return nil
}

func (r *Repository) UpdateSetAbbreviation(ctx context.Context, setID string, abbreviation *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.UpdateSetAbbreviation(ctx, setID, abbreviation)
	metrics.ObserveWrite("update_set_abbreviation", err)
	if err != nil {
		return err
	}
	r.publishSets(ctx)
	return nil
}

func (r *Repository) ListCardSummaries(ctx context.Context) ([]catalog.CardSummary, error) {
	return r.store.ListCardSummaries(ctx)
}

func (r *Repository) GetCard(ctx context.Context, id int64) (*catalog.Card, error) {
	return r.store.GetCard(ctx, id)
}

func (r *Repository) FindCardByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error) {
	return r.store.FindCardByExternalID(ctx, externalID, lang)
}

func (r *Repository) FindCardByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return r.store.FindCardByPosition(ctx, setID, localID, lang)
}

func (r *Repository) InsertCard(ctx context.Context, card *catalog.Card) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.store.InsertCard(ctx, card)
	metrics.ObserveWrite("insert_card", err)
	if err != nil {
		return 0, err
	}
	r.publishCards(ctx)
	return id, nil
}

// PatchCard merges a partial update onto the stored card and returns the
// result. The read and the write happen under the mutation lock.
func (r *Repository) PatchCard(ctx context.Context, id int64, patch catalog.CardPatch) (*catalog.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, err := r.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}

	update := patch.Apply(card)
	err = r.store.UpdateCard(ctx, id, update)
	metrics.ObserveWrite("update_card", err)
	if err != nil {
		return nil, err
	}
	r.publishCards(ctx)

	card.Quantity = update.Quantity
	card.Notes = update.Notes
	card.Price = update.Price
	card.PriceUpdatedAt = update.PriceUpdatedAt
	return card, nil
}

func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.DeleteCard(ctx, id)
	metrics.ObserveWrite("delete_card", err)
	if err != nil {
		return err
	}
	r.publishCards(ctx)
	return nil
}

func (r *Repository) Close() error {
	r.dispatcher.Clear()
	return r.store.Close()
}

func (r *Repository) publishSets(ctx context.Context) {
	sets, err := r.store.ListSets(ctx)
	if err != nil {
		log.Printf("[Repository] Failed to load set snapshot: %v", err)
		return
	}
	r.dispatcher.Dispatch(events.NewTypedEvent(events.SetsUpdated, events.SetsUpdatedEvent{Sets: sets}, ctx))
}

func (r *Repository) publishCards(ctx context.Context) {
	cards, err := r.store.ListCardSummaries(ctx)
	if err != nil {
		log.Printf("[Repository] Failed to load card snapshot: %v", err)
		return
	}
	r.dispatcher.Dispatch(events.NewTypedEvent(events.CardsUpdated, events.CardsUpdatedEvent{Cards: cards}, ctx))
}

var _ Store = (*Repository)(nil)
