package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

// MemoryStore is a non-persistent Store, used for demos and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	sets   map[string]catalog.Set
	order  []string
	cards  map[int64]catalog.Card
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:   make(map[string]catalog.Set),
		cards:  make(map[int64]catalog.Card),
		nextID: 1,
	}
}

func (m *MemoryStore) ListSets(_ context.Context) ([]catalog.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sets := make([]catalog.Set, 0, len(m.order))
	for _, id := range m.order {
		sets = append(sets, m.sets[id])
	}
	sort.SliceStable(sets, func(i, j int) bool {
		return releaseKey(sets[i]) > releaseKey(sets[j])
	})
	return sets, nil
}

func (m *MemoryStore) UpsertSets(_ context.Context, sets []catalog.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range sets {
		existing, ok := m.sets[s.ID]
		if !ok {
			m.order = append(m.order, s.ID)
		} else if blank(s.Abbreviation) {
			s.Abbreviation = existing.Abbreviation
		}
		m.sets[s.ID] = s
	}
	return nil
}

func (m *MemoryStore) UpdateSetAbbreviation(_ context.Context, setID string, abbreviation *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sets[setID]
	if !ok {
		return ErrNotFound
	}
	s.Abbreviation = abbreviation
	m.sets[setID] = s
	return nil
}

func (m *MemoryStore) ListCardSummaries(_ context.Context) ([]catalog.CardSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]catalog.CardSummary, 0, len(m.cards))
	for _, c := range m.cards {
		summaries = append(summaries, catalog.CardSummary{
			ID:         c.ID,
			ExternalID: c.ExternalID,
			SetID:      c.SetID,
			SetName:    m.sets[c.SetID].Name,
			Name:       c.Name,
			LocalID:    c.LocalID,
			Language:   c.Language,
			ImageURL:   c.ImageURL,
			Quantity:   c.Quantity,
			Rarity:     c.Rarity,
			Types:      SplitTypes(JoinTypes(c.Types)),
			Price:      c.Price,
			Page:       BinderPage(c.LocalID),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (m *MemoryStore) GetCard(_ context.Context, id int64) (*catalog.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cards[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) FindCardByExternalID(_ context.Context, externalID, lang string) (*catalog.Card, error) {
	return m.find(func(c catalog.Card) bool {
		return c.ExternalID == externalID && c.Language == lang
	}), nil
}

func (m *MemoryStore) FindCardByPosition(_ context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return m.find(func(c catalog.Card) bool {
		return c.SetID == setID && c.LocalID == localID && c.Language == lang
	}), nil
}

func (m *MemoryStore) find(match func(catalog.Card) bool) *catalog.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.cards {
		if match(c) {
			found := c
			return &found
		}
	}
	return nil
}

func (m *MemoryStore) InsertCard(_ context.Context, card *catalog.Card) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cards {
		if c.SetID == card.SetID && c.LocalID == card.LocalID && c.Language == card.Language {
			return 0, ErrDuplicateCard
		}
	}

	stored := *card
	stored.ID = m.nextID
	stored.Abilities = DecodeAbilities(encodedOrEmpty(EncodeAbilities(card.Abilities)))
	stored.Attacks = DecodeAttacks(encodedOrEmpty(EncodeAttacks(card.Attacks)))
	m.cards[stored.ID] = stored
	m.nextID++
	return stored.ID, nil
}

func (m *MemoryStore) UpdateCard(_ context.Context, id int64, update catalog.CardUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cards[id]
	if !ok {
		return ErrNotFound
	}
	c.Quantity = update.Quantity
	c.Notes = update.Notes
	c.Price = update.Price
	c.PriceUpdatedAt = update.PriceUpdatedAt
	m.cards[id] = c
	return nil
}

func (m *MemoryStore) DeleteCard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return ErrNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func releaseKey(s catalog.Set) string {
	if s.ReleaseDate == nil {
		return ""
	}
	return *s.ReleaseDate
}

// encodedOrEmpty falls back to an empty list encoding.
func encodedOrEmpty(raw string, err error) string {
	if err != nil {
		return "[]"
	}
	return raw
}

var _ Store = (*MemoryStore)(nil)
