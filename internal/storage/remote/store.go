// Package remote is the PostgreSQL backend of the collection, used when
// several devices share one inventory.
package remote

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

// Config holds connection pool settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	AutoMigrate     bool
}

// DefaultConfig returns pool settings suited to a single user.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxConns:        8,
		MaxConnIdleTime: 5 * time.Minute,
		MaxConnLifetime: time.Hour,
		AutoMigrate:     true,
	}
}

// Store implements inventory.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	log.Printf("[RemoteStore] Connected to %s", poolConfig.ConnConfig.Host)
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		log.Printf("[RemoteStore] Applied migration %s in %s", r.Source.Path, r.Duration)
	}
	return nil
}

func (s *Store) ListSets(ctx context.Context) ([]catalog.Set, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, canonical_id, name, name_en, logo_url, card_count_official, card_count_total,
			to_char(release_date, 'YYYY-MM-DD'), abbreviation
		FROM sets
		ORDER BY release_date DESC NULLS LAST, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer rows.Close()

	sets := []catalog.Set{}
	for rows.Next() {
		var set catalog.Set
		if err := rows.Scan(
			&set.ID, &set.CanonicalID, &set.Name, &set.NameEN, &set.LogoURL,
			&set.CardCountOfficial, &set.CardCountTotal, &set.ReleaseDate, &set.Abbreviation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, set)
	}

	return sets, rows.Err()
}

func (s *Store) UpsertSets(ctx context.Context, sets []catalog.Set) error {
	if len(sets) == 0 {
		return nil
	}

	query := `
		INSERT INTO sets (id, canonical_id, name, name_en, logo_url, card_count_official,
			card_count_total, release_date, abbreviation, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::date, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			canonical_id = EXCLUDED.canonical_id,
			name = EXCLUDED.name,
			name_en = EXCLUDED.name_en,
			logo_url = EXCLUDED.logo_url,
			card_count_official = EXCLUDED.card_count_official,
			card_count_total = EXCLUDED.card_count_total,
			release_date = EXCLUDED.release_date,
			abbreviation = COALESCE(NULLIF(TRIM(EXCLUDED.abbreviation), ''), sets.abbreviation),
			updated_at = NOW()
	`

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, set := range sets {
			batch.Queue(query,
				set.ID, set.CanonicalID, set.Name, set.NameEN, set.LogoURL,
				set.CardCountOfficial, set.CardCountTotal, set.ReleaseDate, set.Abbreviation,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert sets: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateSetAbbreviation(ctx context.Context, setID string, abbreviation *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sets SET abbreviation = $1, updated_at = NOW() WHERE id = $2`,
		abbreviation, setID)
	if err != nil {
		return fmt.Errorf("failed to update abbreviation of %s: %w", setID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set %s: %w", setID, inventory.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCardSummaries(ctx context.Context) ([]catalog.CardSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.external_id, c.set_id, COALESCE(s.name, ''), c.name, c.local_id,
			c.language, c.image_url, c.quantity, c.rarity, c.types, c.price::float8
		FROM cards c
		LEFT JOIN sets s ON s.id = c.set_id
		ORDER BY c.set_id,
			NULLIF(substring(c.local_id FROM '^[0-9]+'), '')::int NULLS LAST,
			c.local_id, c.language
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	summaries := []catalog.CardSummary{}
	for rows.Next() {
		var sum catalog.CardSummary
		if err := rows.Scan(
			&sum.ID, &sum.ExternalID, &sum.SetID, &sum.SetName, &sum.Name, &sum.LocalID,
			&sum.Language, &sum.ImageURL, &sum.Quantity, &sum.Rarity, &sum.Types, &sum.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card summary: %w", err)
		}
		if sum.Types == nil {
			sum.Types = []string{}
		}
		sum.Page = inventory.BinderPage(sum.LocalID)
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

const cardSelect = `
	SELECT id, external_id, set_id, name, name_en, language, local_id, image_url,
		marketplace_url, quantity, notes, rarity, hp, retreat_cost, types, illustrator, stage,
		regulation_mark, price::float8, price_updated_at, abilities::text, attacks::text,
		legal_standard, legal_expanded
	FROM cards
`

func (s *Store) GetCard(ctx context.Context, id int64) (*catalog.Card, error) {
	return s.queryCard(ctx, cardSelect+`WHERE id = $1`, id)
}

func (s *Store) FindCardByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error) {
	return s.queryCard(ctx, cardSelect+`WHERE external_id = $1 AND language = $2 LIMIT 1`, externalID, lang)
}

func (s *Store) FindCardByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return s.queryCard(ctx, cardSelect+`WHERE set_id = $1 AND local_id = $2 AND language = $3`, setID, localID, lang)
}

func (s *Store) queryCard(ctx context.Context, query string, args ...any) (*catalog.Card, error) {
	var (
		c         catalog.Card
		abilities string
		attacks   string
	)

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.ExternalID, &c.SetID, &c.Name, &c.NameEN, &c.Language, &c.LocalID, &c.ImageURL,
		&c.MarketplaceURL, &c.Quantity, &c.Notes, &c.Rarity, &c.HP, &c.RetreatCost, &c.Types,
		&c.Illustrator, &c.Stage, &c.RegulationMark, &c.Price, &c.PriceUpdatedAt,
		&abilities, &attacks, &c.Legal.Standard, &c.Legal.Expanded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}

	if c.Types == nil {
		c.Types = []string{}
	}
	if c.PriceUpdatedAt != nil {
		t := c.PriceUpdatedAt.UTC()
		c.PriceUpdatedAt = &t
	}
	c.Abilities = inventory.DecodeAbilities(abilities)
	c.Attacks = inventory.DecodeAttacks(attacks)

	return &c, nil
}

func (s *Store) InsertCard(ctx context.Context, card *catalog.Card) (int64, error) {
	abilities, err := inventory.EncodeAbilities(card.Abilities)
	if err != nil {
		return 0, fmt.Errorf("failed to encode abilities: %w", err)
	}
	attacks, err := inventory.EncodeAttacks(card.Attacks)
	if err != nil {
		return 0, fmt.Errorf("failed to encode attacks: %w", err)
	}

	types := card.Types
	if types == nil {
		types = []string{}
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO cards (
			external_id, set_id, name, name_en, language, local_id, image_url,
			marketplace_url, quantity, notes, rarity, hp, retreat_cost, types, illustrator,
			stage, regulation_mark, price, price_updated_at, abilities, attacks,
			legal_standard, legal_expanded
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20::text::jsonb, $21::text::jsonb, $22, $23)
		RETURNING id
	`,
		card.ExternalID, card.SetID, card.Name, card.NameEN, card.Language, card.LocalID,
		card.ImageURL, card.MarketplaceURL, card.Quantity, card.Notes, card.Rarity, card.HP,
		card.RetreatCost, types, card.Illustrator, card.Stage, card.RegulationMark,
		card.Price, card.PriceUpdatedAt, abilities, attacks, card.Legal.Standard, card.Legal.Expanded,
	).Scan(&id)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, fmt.Errorf("%s/%s (%s): %w", card.SetID, card.LocalID, card.Language, inventory.ErrDuplicateCard)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateCard(ctx context.Context, id int64, update catalog.CardUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE cards SET quantity = $1, notes = $2, price = $3, price_updated_at = $4, updated_at = NOW()
		WHERE id = $5
	`, update.Quantity, update.Notes, update.Price, update.PriceUpdatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update card %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %d: %w", id, inventory.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %d: %w", id, inventory.ErrNotFound)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ inventory.Store = (*Store)(nil)
