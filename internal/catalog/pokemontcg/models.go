package pokemontcg

import (
	"encoding/json"
	"fmt"
)

// Set is a set as returned by the pokemontcg.io v2 API.
type Set struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Series       string    `json:"series"`
	PrintedTotal int       `json:"printedTotal"`
	Total        int       `json:"total"`
	PtcgoCode    string    `json:"ptcgoCode,omitempty"`
	ReleaseDate  string    `json:"releaseDate"` // YYYY/MM/DD
	UpdatedAt    string    `json:"updatedAt,omitempty"`
	Images       SetImages `json:"images"`
}

// SetImages contains the symbol and logo URLs of a set.
type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// SetList is the envelope returned by GET /v2/sets. Items are kept raw so
// that a malformed set can be skipped without failing the listing.
type SetList struct {
	Data       []json.RawMessage `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Count      int               `json:"count"`
	TotalCount int               `json:"totalCount"`
}

// APIError represents an error response from the pokemontcg.io API.
type APIError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pokemontcg.io API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("pokemontcg.io API error (HTTP %d)", e.Status)
}
