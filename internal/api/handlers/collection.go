package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

const maxPageSize = 500

// CollectionService is the stored collection.
type CollectionService interface {
	SyncSets(ctx context.Context, lang string) (int, error)
	ListSets(ctx context.Context) ([]catalog.Set, error)
	SetAbbreviation(ctx context.Context, setID, abbreviation string) error
	ListCards(ctx context.Context) ([]catalog.CardSummary, error)
	ConfirmCard(ctx context.Context, card *catalog.Card) (*catalog.Card, error)
	GetCard(ctx context.Context, id int64) (*catalog.Card, error)
	PatchCard(ctx context.Context, id int64, patch catalog.CardPatch) (*catalog.Card, error)
	DeleteCard(ctx context.Context, id int64) error
	Stats(ctx context.Context) (inventory.Stats, error)
}

// CollectionHandler handles stored sets and cards.
type CollectionHandler struct {
	service CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(service CollectionService) *CollectionHandler {
	return &CollectionHandler{service: service}
}

// AbbreviationRequest is the body of PUT /sets/{setID}/abbreviation.
// An empty abbreviation clears it.
type AbbreviationRequest struct {
	Abbreviation string `json:"abbreviation" validate:"max=16"`
}

// SyncResult reports a set synchronization.
type SyncResult struct {
	Synced int `json:"synced"`
}

// ListSets returns the stored sets.
func (h *CollectionHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.ListSets(r.Context())
	if err != nil {
		writeError(w, r, "load sets", err)
		return
	}
	response.Success(w, sets)
}

// SyncSets refreshes the stored sets from the catalog.
func (h *CollectionHandler) SyncSets(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.SyncSets(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, "sync sets", err)
		return
	}
	response.Success(w, SyncResult{Synced: n})
}

// UpdateAbbreviation sets the user abbreviation of a set.
func (h *CollectionHandler) UpdateAbbreviation(w http.ResponseWriter, r *http.Request) {
	var req AbbreviationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.SetAbbreviation(r.Context(), chi.URLParam(r, "setID"), req.Abbreviation); err != nil {
		writeError(w, r, "update abbreviation", err)
		return
	}
	response.NoContent(w)
}

// ListCards returns card summaries. With a page parameter the list is paginated.
func (h *CollectionHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListCards(r.Context())
	if err != nil {
		writeError(w, r, "load cards", err)
		return
	}

	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		response.Success(w, cards)
		return
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize := 50
	if s, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && s > 0 {
		pageSize = min(s, maxPageSize)
	}

	start := min((page-1)*pageSize, len(cards))
	end := min(start+pageSize, len(cards))
	response.Paginated(w, cards[start:end], page, pageSize, len(cards))
}

// ConfirmCard adds a catalog card to the collection.
func (h *CollectionHandler) ConfirmCard(w http.ResponseWriter, r *http.Request) {
	var card catalog.Card
	if !decodeAndValidate(w, r, &card) {
		return
	}

	stored, err := h.service.ConfirmCard(r.Context(), &card)
	if err != nil {
		writeError(w, r, "save card", err)
		return
	}
	response.Created(w, stored)
}

// GetCard returns one stored card.
func (h *CollectionHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	card, err := h.service.GetCard(r.Context(), id)
	if err != nil {
		writeError(w, r, "load card", err)
		return
	}
	if card == nil {
		writeError(w, r, "load card", inventory.ErrNotFound)
		return
	}
	response.Success(w, card)
}

// UpdateCard applies a partial edit and returns the updated card. Fields
// missing from the body keep their stored values.
func (h *CollectionHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var patch catalog.CardPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}

	card, err := h.service.PatchCard(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, "update card", err)
		return
	}
	response.Success(w, card)
}

// DeleteCard removes a card from the collection.
func (h *CollectionHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.service.DeleteCard(r.Context(), id); err != nil {
		writeError(w, r, "delete card", err)
		return
	}
	response.NoContent(w)
}

// GetStats returns collection totals.
func (h *CollectionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, "compute stats", err)
		return
	}
	response.Success(w, stats)
}
