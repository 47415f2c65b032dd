package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

// SetRepository provides methods for storing synced card sets.
type SetRepository interface {
	// List returns all sets, newest release first. Sets without a release
	// date come last.
	List(ctx context.Context) ([]catalog.Set, error)

	// Upsert inserts or updates one set. A stored abbreviation survives an
	// incoming nil or blank one.
	Upsert(ctx context.Context, set catalog.Set) error

	// UpdateAbbreviation sets or clears a set's abbreviation.
	// Returns false when the set does not exist.
	UpdateAbbreviation(ctx context.Context, setID string, abbreviation *string) (bool, error)

	// GetByID retrieves a set, or nil if it does not exist.
	GetByID(ctx context.Context, setID string) (*catalog.Set, error)
}

type setRepository struct {
	db Querier
}

// NewSetRepository creates a new set repository.
func NewSetRepository(db Querier) SetRepository {
	return &setRepository{db: db}
}

const setColumns = `id, canonical_id, name, name_en, logo_url, card_count_official,
	card_count_total, release_date, abbreviation`

func (r *setRepository) List(ctx context.Context) ([]catalog.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets
		ORDER BY release_date IS NULL, release_date DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sets := []catalog.Set{}
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *s)
	}

	return sets, rows.Err()
}

func (r *setRepository) Upsert(ctx context.Context, set catalog.Set) error {
	query := `
		INSERT INTO sets (` + setColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			canonical_id = excluded.canonical_id,
			name = excluded.name,
			name_en = excluded.name_en,
			logo_url = excluded.logo_url,
			card_count_official = excluded.card_count_official,
			card_count_total = excluded.card_count_total,
			release_date = excluded.release_date,
			abbreviation = COALESCE(NULLIF(TRIM(excluded.abbreviation), ''), sets.abbreviation),
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		set.ID,
		set.CanonicalID,
		set.Name,
		set.NameEN,
		set.LogoURL,
		set.CardCountOfficial,
		set.CardCountTotal,
		nullString(set.ReleaseDate),
		nullString(set.Abbreviation),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert set %s: %w", set.ID, err)
	}
	return nil
}

func (r *setRepository) UpdateAbbreviation(ctx context.Context, setID string, abbreviation *string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sets SET abbreviation = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(abbreviation), setID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update abbreviation of %s: %w", setID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *setRepository) GetByID(ctx context.Context, setID string) (*catalog.Set, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+setColumns+` FROM sets WHERE id = ?`, setID)

	s, err := scanSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSet(row scanner) (*catalog.Set, error) {
	var (
		s            catalog.Set
		releaseDate  sql.NullString
		abbreviation sql.NullString
	)

	err := row.Scan(
		&s.ID,
		&s.CanonicalID,
		&s.Name,
		&s.NameEN,
		&s.LogoURL,
		&s.CardCountOfficial,
		&s.CardCountTotal,
		&releaseDate,
		&abbreviation,
	)
	if err != nil {
		return nil, err
	}

	s.ReleaseDate = stringPtr(releaseDate)
	s.Abbreviation = stringPtr(abbreviation)
	return &s, nil
}
