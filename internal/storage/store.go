package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
	"github.com/ramonehamilton/PTCG-Inventory/internal/storage/repository"
)

// Store implements inventory.Store on SQLite.
type Store struct {
	db    *DB
	sets  repository.SetRepository
	cards repository.CardRepository
}

// NewStore creates a store over an open database.
func NewStore(db *DB) *Store {
	return &Store{
		db:    db,
		sets:  repository.NewSetRepository(db.Conn()),
		cards: repository.NewCardRepository(db.Conn()),
	}
}

// OpenStore opens (and migrates) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := Open(DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// DB returns the underlying database.
func (s *Store) DB() *DB {
	return s.db
}

func (s *Store) ListSets(ctx context.Context) ([]catalog.Set, error) {
	return s.sets.List(ctx)
}

func (s *Store) UpsertSets(ctx context.Context, sets []catalog.Set) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		repo := repository.NewSetRepository(tx)
		for _, set := range sets {
			if err := repo.Upsert(ctx, set); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpdateSetAbbreviation(ctx context.Context, setID string, abbreviation *string) error {
	found, err := s.sets.UpdateAbbreviation(ctx, setID, abbreviation)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("set %s: %w", setID, inventory.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCardSummaries(ctx context.Context) ([]catalog.CardSummary, error) {
	return s.cards.ListSummaries(ctx)
}

func (s *Store) GetCard(ctx context.Context, id int64) (*catalog.Card, error) {
	return s.cards.GetByID(ctx, id)
}

func (s *Store) FindCardByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error) {
	return s.cards.FindByExternalID(ctx, externalID, lang)
}

func (s *Store) FindCardByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return s.cards.FindByPosition(ctx, setID, localID, lang)
}

func (s *Store) InsertCard(ctx context.Context, card *catalog.Card) (int64, error) {
	id, err := s.cards.Create(ctx, card)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%s/%s (%s): %w", card.SetID, card.LocalID, card.Language, inventory.ErrDuplicateCard)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateCard(ctx context.Context, id int64, update catalog.CardUpdate) error {
	found, err := s.cards.Update(ctx, id, update)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("card %d: %w", id, inventory.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	found, err := s.cards.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("card %d: %w", id, inventory.ErrNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ inventory.Store = (*Store)(nil)
