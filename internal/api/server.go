package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/PTCG-Inventory/internal/api/handlers"
	"github.com/ramonehamilton/PTCG-Inventory/internal/api/websocket"
	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	addr       string

	// WebSocket hub for collection snapshots
	wsHub      *websocket.Hub
	wsObserver *websocket.WebSocketObserver
	dispatcher *events.EventDispatcher

	catalog    handlers.CatalogService
	collection handlers.CollectionService
	checker    handlers.ReleaseChecker
}

// Config holds configuration for the API server.
type Config struct {
	Host string
	Port int
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host: "127.0.0.1",
		Port: 8765,
	}
}

// Dependencies are the services the API exposes.
type Dependencies struct {
	Catalog    handlers.CatalogService
	Collection handlers.CollectionService

	// Checker is optional; without it update checks report 503.
	Checker handlers.ReleaseChecker

	// Dispatcher carries collection snapshots to WebSocket clients. Optional.
	Dispatcher *events.EventDispatcher
}

// NewServer creates a new API server.
func NewServer(cfg *Config, deps Dependencies) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:     chi.NewRouter(),
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		wsHub:      websocket.NewHub(),
		dispatcher: deps.Dispatcher,
		catalog:    deps.Catalog,
		collection: deps.Collection,
		checker:    deps.Checker,
	}

	s.wsHub.SetSnapshot(s.snapshotEvents)
	if s.dispatcher != nil {
		s.wsObserver = websocket.NewWebSocketObserver(s.wsHub)
		s.dispatcher.Register(s.wsObserver)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)

	// Catalog lookups make two upstream calls of up to 30s each.
	s.router.Use(middleware.Timeout(90 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Content-Type enforcement for POST/PUT/PATCH only (not GET/DELETE/OPTIONS)
	s.router.Use(jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// snapshotEvents returns the current sets and cards for a newly connected client.
func (s *Server) snapshotEvents(ctx context.Context) []websocket.Event {
	if s.collection == nil {
		return nil
	}

	var out []websocket.Event
	if sets, err := s.collection.ListSets(ctx); err != nil {
		log.Printf("[API] Failed to load sets snapshot: %v", err)
	} else {
		out = append(out, websocket.FromDomainEvent(
			events.NewTypedEvent(events.SetsUpdated, events.SetsUpdatedEvent{Sets: sets}, ctx)))
	}
	if cards, err := s.collection.ListCards(ctx); err != nil {
		log.Printf("[API] Failed to load cards snapshot: %v", err)
	} else {
		out = append(out, websocket.FromDomainEvent(
			events.NewTypedEvent(events.CardsUpdated, events.CardsUpdatedEvent{Cards: cards}, ctx)))
	}
	return out
}

// Start starts the hub and begins serving in a goroutine.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[API] Server listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] Server error: %v", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests, disconnects WebSocket clients and
// detaches from the dispatcher.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.dispatcher != nil && s.wsObserver != nil {
		s.dispatcher.Unregister(s.wsObserver)
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}

	log.Println("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// WebSocketHub returns the WebSocket hub.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
