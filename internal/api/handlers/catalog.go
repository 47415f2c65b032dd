package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

// CatalogService is the reconciled card catalog.
type CatalogService interface {
	GetAllSets(ctx context.Context, lang string) ([]catalog.Set, error)
	GetSetCards(ctx context.Context, setID, lang string) ([]catalog.CardBrief, error)
	GetCardDetails(ctx context.Context, setID, localID, lang string) (*catalog.Card, error)
}

// CatalogHandler serves catalog lookups that do not touch the collection.
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// GetSets returns the unified set list. An unavailable catalog yields an empty list.
func (h *CatalogHandler) GetSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.catalog.GetAllSets(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, "load sets", err)
		return
	}
	response.Success(w, sets)
}

// GetSetCards returns the card list of one set, used to pick a card number.
func (h *CatalogHandler) GetSetCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog.GetSetCards(r.Context(), chi.URLParam(r, "setID"), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, "load set cards", err)
		return
	}
	response.Success(w, cards)
}

// GetCard returns full details of one catalog card.
func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "setID")
	localID := chi.URLParam(r, "localID")

	card, err := h.catalog.GetCardDetails(r.Context(), setID, localID, r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, "load card", err)
		return
	}
	if card == nil {
		response.NotFound(w, errors.New("card "+setID+"/"+localID+" not found"))
		return
	}
	response.Success(w, card)
}
