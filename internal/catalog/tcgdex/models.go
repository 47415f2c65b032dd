package tcgdex

import (
	"errors"
	"fmt"
	"time"
)

// SetBrief is an entry of GET /v2/{lang}/sets.
type SetBrief struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	CardCount CardCount `json:"cardCount"`
}

// CardCount holds the printed (official) and total card counts of a set.
type CardCount struct {
	Total    int `json:"total"`
	Official int `json:"official"`
}

// SetDetail is returned by GET /v2/{lang}/sets/{id}.
type SetDetail struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Logo        string      `json:"logo,omitempty"`
	CardCount   CardCount   `json:"cardCount"`
	ReleaseDate string      `json:"releaseDate,omitempty"`
	Cards       []CardBrief `json:"cards"`
}

// CardBrief is a card entry inside a set detail.
type CardBrief struct {
	ID      string `json:"id"`
	LocalID string `json:"localId"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
}

// Card is a full card as returned by GET /v2/{lang}/sets/{set}/{localId}.
type Card struct {
	ID             string     `json:"id"`
	LocalID        string     `json:"localId"`
	Name           string     `json:"name"`
	Image          string     `json:"image,omitempty"`
	Category       string     `json:"category"`
	Illustrator    string     `json:"illustrator,omitempty"`
	Rarity         string     `json:"rarity,omitempty"`
	HP             *int       `json:"hp,omitempty"`
	Types          []string   `json:"types,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	Retreat        *int       `json:"retreat,omitempty"`
	RegulationMark string     `json:"regulationMark,omitempty"`
	Abilities      []Ability  `json:"abilities,omitempty"`
	Attacks        []Attack   `json:"attacks,omitempty"`
	Legal          Legal      `json:"legal"`
	Set            CardSet    `json:"set"`
	Pricing        *Pricing   `json:"pricing,omitempty"`
	Updated        *time.Time `json:"updated,omitempty"`
}

// CardSet is the set reference embedded in a card.
type CardSet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ability is a card ability.
type Ability struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// Attack is a card attack. Damage is a number or a string such as "30+".
type Attack struct {
	Cost   []string    `json:"cost,omitempty"`
	Name   string      `json:"name"`
	Effect string      `json:"effect,omitempty"`
	Damage interface{} `json:"damage,omitempty"`
}

// Legal holds format legality.
type Legal struct {
	Standard bool `json:"standard"`
	Expanded bool `json:"expanded"`
}

// Pricing holds marketplace price data.
type Pricing struct {
	Cardmarket *CardmarketPrice `json:"cardmarket,omitempty"`
}

// CardmarketPrice is the Cardmarket price summary in EUR.
type CardmarketPrice struct {
	ProductID int64      `json:"idProduct,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Avg       *float64   `json:"avg,omitempty"`
	Low       *float64   `json:"low,omitempty"`
	Trend     *float64   `json:"trend,omitempty"`
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
