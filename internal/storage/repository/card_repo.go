package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

// CardRepository provides methods for managing collected cards.
type CardRepository interface {
	// ListSummaries returns lightweight rows for every card, joined with the
	// set name when the set has been synced.
	ListSummaries(ctx context.Context) ([]catalog.CardSummary, error)

	// GetByID retrieves a card, or nil if it does not exist.
	GetByID(ctx context.Context, id int64) (*catalog.Card, error)

	// FindByExternalID retrieves a card by provider id and language, or nil.
	FindByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error)

	// FindByPosition retrieves a card by set, position and language, or nil.
	FindByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error)

	// Create inserts a card and returns its id.
	Create(ctx context.Context, card *catalog.Card) (int64, error)

	// Update writes the user-editable fields. Returns false when the card does not exist.
	Update(ctx context.Context, id int64, update catalog.CardUpdate) (bool, error)

	// Delete removes a card. Returns false when the card does not exist.
	Delete(ctx context.Context, id int64) (bool, error)
}

type cardRepository struct {
	db Querier
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db Querier) CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `id, external_id, set_id, name, name_en, language, local_id, image_url,
	marketplace_url, quantity, notes, rarity, hp, retreat_cost, types, illustrator, stage,
	regulation_mark, price, price_updated_at, abilities, attacks, legal_standard, legal_expanded`

func (r *cardRepository) ListSummaries(ctx context.Context) ([]catalog.CardSummary, error) {
	query := `
		SELECT c.id, c.external_id, c.set_id, COALESCE(s.name, ''), c.name, c.local_id,
			c.language, c.image_url, c.quantity, c.rarity, c.types, c.price
		FROM cards c
		LEFT JOIN sets s ON s.id = c.set_id
		ORDER BY c.set_id, CAST(c.local_id AS INTEGER), c.local_id, c.language
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []catalog.CardSummary{}
	for rows.Next() {
		var (
			s     catalog.CardSummary
			types string
			price sql.NullFloat64
		)
		if err := rows.Scan(
			&s.ID, &s.ExternalID, &s.SetID, &s.SetName, &s.Name, &s.LocalID,
			&s.Language, &s.ImageURL, &s.Quantity, &s.Rarity, &types, &price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card summary: %w", err)
		}

		s.Types = inventory.SplitTypes(types)
		if price.Valid {
			p := price.Float64
			s.Price = &p
		}
		s.Page = inventory.BinderPage(s.LocalID)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*catalog.Card, error) {
	return r.queryOne(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
}

func (r *cardRepository) FindByExternalID(ctx context.Context, externalID, lang string) (*catalog.Card, error) {
	return r.queryOne(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE external_id = ? AND language = ? LIMIT 1`,
		externalID, lang)
}

func (r *cardRepository) FindByPosition(ctx context.Context, setID, localID, lang string) (*catalog.Card, error) {
	return r.queryOne(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE set_id = ? AND local_id = ? AND language = ?`,
		setID, localID, lang)
}

func (r *cardRepository) queryOne(ctx context.Context, query string, args ...any) (*catalog.Card, error) {
	card, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) Create(ctx context.Context, card *catalog.Card) (int64, error) {
	abilities, err := inventory.EncodeAbilities(card.Abilities)
	if err != nil {
		return 0, fmt.Errorf("failed to encode abilities: %w", err)
	}
	attacks, err := inventory.EncodeAttacks(card.Attacks)
	if err != nil {
		return 0, fmt.Errorf("failed to encode attacks: %w", err)
	}

	query := `
		INSERT INTO cards (
			external_id, set_id, name, name_en, language, local_id, image_url,
			marketplace_url, quantity, notes, rarity, hp, retreat_cost, types, illustrator,
			stage, regulation_mark, price, price_updated_at, abilities, attacks,
			legal_standard, legal_expanded
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		card.ExternalID,
		card.SetID,
		card.Name,
		card.NameEN,
		card.Language,
		card.LocalID,
		card.ImageURL,
		nullString(card.MarketplaceURL),
		card.Quantity,
		card.Notes,
		card.Rarity,
		nullInt(card.HP),
		nullInt(card.RetreatCost),
		inventory.JoinTypes(card.Types),
		card.Illustrator,
		card.Stage,
		card.RegulationMark,
		nullFloat(card.Price),
		nullTime(card.PriceUpdatedAt),
		abilities,
		attacks,
		card.Legal.Standard,
		card.Legal.Expanded,
	)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

func (r *cardRepository) Update(ctx context.Context, id int64, update catalog.CardUpdate) (bool, error) {
	query := `
		UPDATE cards SET
			quantity = ?,
			notes = ?,
			price = ?,
			price_updated_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		update.Quantity,
		update.Notes,
		nullFloat(update.Price),
		nullTime(update.PriceUpdatedAt),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update card %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *cardRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete card %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanCard(row scanner) (*catalog.Card, error) {
	var (
		c              catalog.Card
		marketplaceURL sql.NullString
		hp             sql.NullInt64
		retreatCost    sql.NullInt64
		types          string
		price          sql.NullFloat64
		priceUpdatedAt sql.NullTime
		abilities      string
		attacks        string
	)

	err := row.Scan(
		&c.ID,
		&c.ExternalID,
		&c.SetID,
		&c.Name,
		&c.NameEN,
		&c.Language,
		&c.LocalID,
		&c.ImageURL,
		&marketplaceURL,
		&c.Quantity,
		&c.Notes,
		&c.Rarity,
		&hp,
		&retreatCost,
		&types,
		&c.Illustrator,
		&c.Stage,
		&c.RegulationMark,
		&price,
		&priceUpdatedAt,
		&abilities,
		&attacks,
		&c.Legal.Standard,
		&c.Legal.Expanded,
	)
	if err != nil {
		return nil, err
	}

	c.MarketplaceURL = stringPtr(marketplaceURL)
	if hp.Valid {
		v := int(hp.Int64)
		c.HP = &v
	}
	if retreatCost.Valid {
		v := int(retreatCost.Int64)
		c.RetreatCost = &v
	}
	c.Types = inventory.SplitTypes(types)
	if price.Valid {
		v := price.Float64
		c.Price = &v
	}
	if priceUpdatedAt.Valid {
		t := priceUpdatedAt.Time.UTC()
		c.PriceUpdatedAt = &t
	}
	c.Abilities = inventory.DecodeAbilities(abilities)
	c.Attacks = inventory.DecodeAttacks(attacks)

	return &c, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
