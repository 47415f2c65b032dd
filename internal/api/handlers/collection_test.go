package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

// mockCollection is a scripted CollectionService.
type mockCollection struct {
	sets   []catalog.Set
	cards  []catalog.CardSummary
	card   *catalog.Card
	stats  inventory.Stats
	synced int
	err    error
	patch  *catalog.CardPatch
	abbr   string
	saved  *catalog.Card
}

func (m *mockCollection) SyncSets(context.Context, string) (int, error) { return m.synced, m.err }
func (m *mockCollection) ListSets(context.Context) ([]catalog.Set, error) {
	return m.sets, m.err
}

func (m *mockCollection) SetAbbreviation(_ context.Context, _ string, abbr string) error {
	m.abbr = abbr
	return m.err
}

func (m *mockCollection) ListCards(context.Context) ([]catalog.CardSummary, error) {
	return m.cards, m.err
}

func (m *mockCollection) ConfirmCard(_ context.Context, card *catalog.Card) (*catalog.Card, error) {
	m.saved = card
	if m.err != nil {
		return m.card, m.err
	}
	stored := *card
	stored.ID = 42
	return &stored, nil
}

func (m *mockCollection) GetCard(context.Context, int64) (*catalog.Card, error) { return m.card, m.err }

func (m *mockCollection) PatchCard(_ context.Context, _ int64, patch catalog.CardPatch) (*catalog.Card, error) {
	m.patch = &patch
	if m.err != nil {
		return nil, m.err
	}
	stored := *m.card
	update := patch.Apply(&stored)
	stored.Quantity = update.Quantity
	stored.Notes = update.Notes
	stored.Price = update.Price
	stored.PriceUpdatedAt = update.PriceUpdatedAt
	return &stored, nil
}

func (m *mockCollection) DeleteCard(context.Context, int64) error { return m.err }

func (m *mockCollection) Stats(context.Context) (inventory.Stats, error) { return m.stats, m.err }

func collectionRouter(m *mockCollection) http.Handler {
	h := NewCollectionHandler(m)
	r := chi.NewRouter()
	r.Get("/sets", h.ListSets)
	r.Post("/sets/sync", h.SyncSets)
	r.Put("/sets/{setID}/abbreviation", h.UpdateAbbreviation)
	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.ConfirmCard)
	r.Get("/cards/stats", h.GetStats)
	r.Get("/cards/{id}", h.GetCard)
	r.Patch("/cards/{id}", h.UpdateCard)
	r.Delete("/cards/{id}", h.DeleteCard)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCollectionHandler_ConfirmCard(t *testing.T) {
	const body = `{"set_id":"sv4pt5","local_id":"232","language":"fr","name":"Dracaufeu ex","quantity":1}`

	t.Run("created", func(t *testing.T) {
		m := &mockCollection{}
		rec := do(t, collectionRouter(m), http.MethodPost, "/cards", body)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Data catalog.Card `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(42), resp.Data.ID)
		assert.Equal(t, "Dracaufeu ex", m.saved.Name)
	})

	t.Run("duplicate", func(t *testing.T) {
		m := &mockCollection{
			card: &catalog.Card{ID: 7},
			err:  fmt.Errorf("%w: id 7", inventory.ErrDuplicateCard),
		}
		rec := do(t, collectionRouter(m), http.MethodPost, "/cards", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "id 7")
	})

	t.Run("missing natural key", func(t *testing.T) {
		m := &mockCollection{}
		rec := do(t, collectionRouter(m), http.MethodPost, "/cards", `{"name":"x","quantity":1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Contains(t, resp.Fields, "set_id")
		assert.Contains(t, resp.Fields, "local_id")
		assert.Contains(t, resp.Fields, "language")
		assert.Nil(t, m.saved)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := do(t, collectionRouter(&mockCollection{}), http.MethodPost, "/cards", `{"set_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure is user visible", func(t *testing.T) {
		m := &mockCollection{err: errors.New("disk I/O error")}
		rec := do(t, collectionRouter(m), http.MethodPost, "/cards", body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "could not save card, please try again", resp.Message)
		assert.NotContains(t, resp.Message, "disk")
	})
}

func TestCollectionHandler_GetCard(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		mock   *mockCollection
		status int
	}{
		{"found", "/cards/3", &mockCollection{card: &catalog.Card{ID: 3}}, http.StatusOK},
		{"missing", "/cards/3", &mockCollection{}, http.StatusNotFound},
		{"invalid id", "/cards/abc", &mockCollection{}, http.StatusBadRequest},
		{"zero id", "/cards/0", &mockCollection{}, http.StatusBadRequest},
		{"error", "/cards/3", &mockCollection{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, collectionRouter(tt.mock), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCollectionHandler_UpdateCard(t *testing.T) {
	decodeCard := func(t *testing.T, rec *httptest.ResponseRecorder) catalog.Card {
		t.Helper()
		var resp struct {
			Data catalog.Card `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		return resp.Data
	}

	t.Run("updated", func(t *testing.T) {
		m := &mockCollection{card: &catalog.Card{ID: 3, Quantity: 1}}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/3", `{"quantity":4,"notes":"graded","price":12.5}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, m.patch)
		require.NotNil(t, m.patch.Quantity)
		assert.Equal(t, 4, *m.patch.Quantity)

		card := decodeCard(t, rec)
		assert.Equal(t, 4, card.Quantity)
		assert.Equal(t, "graded", card.Notes)
		require.NotNil(t, card.Price)
		assert.InDelta(t, 12.5, *card.Price, 1e-9)
	})

	t.Run("partial body keeps other fields", func(t *testing.T) {
		price := 8.0
		m := &mockCollection{card: &catalog.Card{ID: 7, Quantity: 3, Notes: "binder", Price: &price}}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/7", `{"notes":"mint"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, m.patch)
		assert.Nil(t, m.patch.Quantity)
		assert.Nil(t, m.patch.Price)
		assert.False(t, m.patch.ClearPrice)

		card := decodeCard(t, rec)
		assert.Equal(t, 3, card.Quantity)
		assert.Equal(t, "mint", card.Notes)
		require.NotNil(t, card.Price)
		assert.InDelta(t, 8.0, *card.Price, 1e-9)
	})

	t.Run("zero quantity is explicit", func(t *testing.T) {
		m := &mockCollection{card: &catalog.Card{ID: 7, Quantity: 3}}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/7", `{"quantity":0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, m.patch.Quantity)
		assert.Equal(t, 0, decodeCard(t, rec).Quantity)
	})

	t.Run("clear price", func(t *testing.T) {
		price := 8.0
		m := &mockCollection{card: &catalog.Card{ID: 7, Quantity: 3, Price: &price}}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/7", `{"clear_price":true}`)

		require.Equal(t, http.StatusOK, rec.Code)
		card := decodeCard(t, rec)
		assert.Nil(t, card.Price)
		assert.Equal(t, 3, card.Quantity)
	})

	t.Run("clear price with price rejected", func(t *testing.T) {
		m := &mockCollection{}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/7", `{"clear_price":true,"price":2}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Fields, "clear_price")
		assert.Nil(t, m.patch)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		m := &mockCollection{}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/3", `{"quantity":-1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Fields, "quantity")
		assert.Nil(t, m.patch)
	})

	t.Run("not found", func(t *testing.T) {
		m := &mockCollection{err: fmt.Errorf("failed to update card 3: %w", inventory.ErrNotFound)}
		rec := do(t, collectionRouter(m), http.MethodPatch, "/cards/3", `{"quantity":1}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCollectionHandler_DeleteCard(t *testing.T) {
	rec := do(t, collectionRouter(&mockCollection{}), http.MethodDelete, "/cards/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, collectionRouter(&mockCollection{err: inventory.ErrNotFound}), http.MethodDelete, "/cards/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectionHandler_ListCards_Paginated(t *testing.T) {
	cards := make([]catalog.CardSummary, 5)
	for i := range cards {
		cards[i] = catalog.CardSummary{ID: int64(i + 1)}
	}
	m := &mockCollection{cards: cards}

	rec := do(t, collectionRouter(m), http.MethodGet, "/cards?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []catalog.CardSummary `json:"data"`
		Page       int                   `json:"page"`
		TotalCount int                   `json:"total_count"`
		TotalPages int                   `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(3), resp.Data[0].ID)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.TotalCount)
	assert.Equal(t, 3, resp.TotalPages)

	rec = do(t, collectionRouter(m), http.MethodGet, "/cards?page=9&page_size=2", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data)

	rec = do(t, collectionRouter(m), http.MethodGet, "/cards", "")
	var all struct {
		Data []catalog.CardSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all.Data, 5)
}

func TestCollectionHandler_Sets(t *testing.T) {
	t.Run("sync", func(t *testing.T) {
		rec := do(t, collectionRouter(&mockCollection{synced: 12}), http.MethodPost, "/sets/sync?lang=fr", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data SyncResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 12, resp.Data.Synced)
	})

	t.Run("sync with bad language", func(t *testing.T) {
		m := &mockCollection{err: fmt.Errorf("%w: %q", catalog.ErrUnsupportedLanguage, "??")}
		rec := do(t, collectionRouter(m), http.MethodPost, "/sets/sync?lang=??", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("abbreviation", func(t *testing.T) {
		m := &mockCollection{}
		rec := do(t, collectionRouter(m), http.MethodPut, "/sets/sv4pt5/abbreviation", `{"abbreviation":"paf"}`)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "paf", m.abbr)
	})

	t.Run("abbreviation too long", func(t *testing.T) {
		rec := do(t, collectionRouter(&mockCollection{}), http.MethodPut, "/sets/sv4pt5/abbreviation",
			`{"abbreviation":"ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("abbreviation unknown set", func(t *testing.T) {
		rec := do(t, collectionRouter(&mockCollection{err: inventory.ErrNotFound}), http.MethodPut,
			"/sets/nope/abbreviation", `{"abbreviation":"X"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCollectionHandler_GetStats(t *testing.T) {
	m := &mockCollection{stats: inventory.Stats{DistinctCards: 2, TotalCopies: 5, TotalValue: 20.5}}
	rec := do(t, collectionRouter(m), http.MethodGet, "/cards/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data inventory.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, m.stats, resp.Data)
}
