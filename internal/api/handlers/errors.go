package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

var errInvalidID = errors.New("id must be a positive integer")

// writeError maps domain errors to HTTP responses. Unexpected errors are
// logged and reported with a generic, user-visible message.
func writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		response.NotFound(w, err)
	case errors.Is(err, inventory.ErrDuplicateCard):
		response.Conflict(w, err)
	case errors.Is(err, inventory.ErrInvalidCard), errors.Is(err, catalog.ErrUnsupportedLanguage):
		response.BadRequest(w, err)
	default:
		log.Printf("[API] %s %s: failed to %s: %v", r.Method, r.URL.Path, action, err)
		response.InternalError(w, errors.New("could not "+action+", please try again"))
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	response.BadRequest(w, err)
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	response.ValidationError(w, fields)
}

// cardID parses the {id} route parameter.
func cardID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
