package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
	"github.com/ramonehamilton/PTCG-Inventory/internal/updater"
	"github.com/ramonehamilton/PTCG-Inventory/internal/version"
)

// ReleaseChecker looks up the latest published release.
type ReleaseChecker interface {
	Check(ctx context.Context) (*updater.Release, error)
}

// SystemHandler handles system-related API requests.
type SystemHandler struct {
	checker ReleaseChecker
}

// NewSystemHandler creates a new SystemHandler. A nil checker disables update checks.
func NewSystemHandler(checker ReleaseChecker) *SystemHandler {
	return &SystemHandler{checker: checker}
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"version": version.GetVersion(),
		"service": "ptcg-inventory",
	})
}

// CheckUpdate reports whether a newer release is available.
func (h *SystemHandler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		response.ServiceUnavailable(w, errors.New("update checks are disabled"))
		return
	}

	release, err := h.checker.Check(r.Context())
	if err != nil {
		log.Printf("[API] Update check failed: %v", err)
		response.BadGateway(w, errors.New("could not reach the release server"))
		return
	}
	response.Success(w, release)
}
