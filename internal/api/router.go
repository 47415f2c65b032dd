package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/handlers"
	"github.com/ramonehamilton/PTCG-Inventory/internal/api/response"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		catalogHandler := handlers.NewCatalogHandler(s.catalog)
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/sets", catalogHandler.GetSets)
			r.Get("/sets/{setID}/cards", catalogHandler.GetSetCards)
			r.Get("/sets/{setID}/cards/{localID}", catalogHandler.GetCard)
		})

		collectionHandler := handlers.NewCollectionHandler(s.collection)
		r.Route("/sets", func(r chi.Router) {
			r.Get("/", collectionHandler.ListSets)
			r.Post("/sync", collectionHandler.SyncSets)
			r.Put("/{setID}/abbreviation", collectionHandler.UpdateAbbreviation)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", collectionHandler.ListCards)
			r.Post("/", collectionHandler.ConfirmCard)
			r.Get("/stats", collectionHandler.GetStats)
			r.Get("/{id}", collectionHandler.GetCard)
			r.Patch("/{id}", collectionHandler.UpdateCard)
			r.Delete("/{id}", collectionHandler.DeleteCard)
		})

		systemHandler := handlers.NewSystemHandler(s.checker)
		r.Route("/system", func(r chi.Router) {
			r.Get("/version", systemHandler.GetVersion)
			r.Get("/update", systemHandler.CheckUpdate)
		})
	})
}

// healthCheck returns the server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]any{
		"status":     "healthy",
		"ws_clients": s.wsHub.ClientCount(),
	})
}
