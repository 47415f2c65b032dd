package catalog

import (
	"time"
)

// Set is a card set as presented to the collection. When built by the
// reconciliation service it combines English and localized provider data.
type Set struct {
	// ID is the provider-specific identifier used for detail lookups. It is
	// the localized (TCGdex) id when a localized set matched, otherwise the
	// English (pokemontcg.io) id, which TCGdex may not know.
	ID string `json:"id"`

	// CanonicalID is the normalized identifier shared across providers.
	CanonicalID string `json:"canonical_id"`

	Name              string  `json:"name"`
	NameEN            string  `json:"name_en"`
	LogoURL           string  `json:"logo_url,omitempty"`
	CardCountOfficial int     `json:"card_count_official"`
	CardCountTotal    int     `json:"card_count_total"`
	ReleaseDate       *string `json:"release_date,omitempty"` // YYYY-MM-DD
	Abbreviation      *string `json:"abbreviation,omitempty"`
}

// Ability is a card ability (e.g. "Ability", "Poké-Power").
type Ability struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// Attack is a card attack. Damage is empty for attacks without printed damage.
type Attack struct {
	Name   string   `json:"name"`
	Cost   []string `json:"cost"`
	Effect string   `json:"effect,omitempty"`
	Damage string   `json:"damage,omitempty"`
}

// Legality holds format legality flags.
type Legality struct {
	Standard bool `json:"standard"`
	Expanded bool `json:"expanded"`
}

// Card is a full card record.
type Card struct {
	ID             int64      `json:"id"`
	ExternalID     string     `json:"external_id"`
	SetID          string     `json:"set_id" validate:"required,max=32"`
	Name           string     `json:"name"`
	NameEN         string     `json:"name_en"`
	Language       string     `json:"language" validate:"required,max=16"`
	LocalID        string     `json:"local_id" validate:"required,max=16"`
	ImageURL       string     `json:"image_url,omitempty"`
	MarketplaceURL *string    `json:"marketplace_url,omitempty"`
	Quantity       int        `json:"quantity" validate:"gte=0"`
	Notes          string     `json:"notes" validate:"max=2000"`
	Rarity         string     `json:"rarity,omitempty"`
	HP             *int       `json:"hp,omitempty"`
	RetreatCost    *int       `json:"retreat_cost,omitempty"`
	Types          []string   `json:"types"`
	Illustrator    string     `json:"illustrator,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	RegulationMark string     `json:"regulation_mark,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	PriceUpdatedAt *time.Time `json:"price_updated_at,omitempty"`
	Abilities      []Ability  `json:"abilities"`
	Attacks        []Attack   `json:"attacks"`
	Legal          Legality   `json:"legal"`
}

// CardBrief is an entry of a set's card list, used to pick a card number.
type CardBrief struct {
	ID       string `json:"id"`
	LocalID  string `json:"local_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// CardSummary is the lightweight row shown in collection listings.
type CardSummary struct {
	ID         int64    `json:"id"`
	ExternalID string   `json:"external_id"`
	SetID      string   `json:"set_id"`
	SetName    string   `json:"set_name"`
	Name       string   `json:"name"`
	LocalID    string   `json:"local_id"`
	Language   string   `json:"language"`
	ImageURL   string   `json:"image_url,omitempty"`
	Quantity   int      `json:"quantity"`
	Rarity     string   `json:"rarity,omitempty"`
	Types      []string `json:"types"`
	Price      *float64 `json:"price,omitempty"`

	// Page is the 1-based binder page for the card's position in its set.
	Page int `json:"page"`
}

// CardUpdate carries the user-editable fields of a card.
type CardUpdate struct {
	Quantity       int        `json:"quantity" validate:"gte=0"`
	Notes          string     `json:"notes" validate:"max=2000"`
	Price          *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	PriceUpdatedAt *time.Time `json:"price_updated_at,omitempty"`
}

// CardPatch is a partial CardUpdate. Nil fields keep the stored value;
// ClearPrice removes the price and its timestamp.
type CardPatch struct {
	Quantity       *int       `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Notes          *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Price          *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	PriceUpdatedAt *time.Time `json:"price_updated_at,omitempty"`
	ClearPrice     bool       `json:"clear_price,omitempty" validate:"excluded_with=Price"`
}

// Apply merges the patch onto a stored card and returns the full update.
func (p CardPatch) Apply(card *Card) CardUpdate {
	update := CardUpdate{
		Quantity:       card.Quantity,
		Notes:          card.Notes,
		Price:          card.Price,
		PriceUpdatedAt: card.PriceUpdatedAt,
	}

	if p.Quantity != nil {
		update.Quantity = *p.Quantity
	}
	if p.Notes != nil {
		update.Notes = *p.Notes
	}
	if p.ClearPrice {
		update.Price = nil
		update.PriceUpdatedAt = nil
	}
	if p.Price != nil {
		update.Price = p.Price
	}
	if p.PriceUpdatedAt != nil {
		update.PriceUpdatedAt = p.PriceUpdatedAt
	}

	return update
}
