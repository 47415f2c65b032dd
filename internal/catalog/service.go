package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/PTCG-Inventory/internal/cache"
	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

// DefaultCacheTTL is how long a reconciled set list is served from cache.
const DefaultCacheTTL = 6 * time.Hour

// SetProvider lists the sets of one catalog.
type SetProvider interface {
	FetchSets(ctx context.Context, lang string) ([]Set, error)
}

// CardProvider serves card-level lookups. Only the localized catalog implements it.
type CardProvider interface {
	GetCardDetails(ctx context.Context, setID, localID, lang string) *Card
	GetSetCards(ctx context.Context, setID, lang string) []CardBrief
}

// LocalizedProvider is a catalog that serves both localized sets and cards.
type LocalizedProvider interface {
	SetProvider
	CardProvider
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Cache stores reconciled set lists per language. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// Service reconciles the English and localized catalogs.
type Service struct {
	english   SetProvider
	localized LocalizedProvider
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewService creates a reconciliation service.
func NewService(english SetProvider, localized LocalizedProvider, opts ServiceOptions) *Service {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Service{
		english:   english,
		localized: localized,
		cache:     c,
		cacheTTL:  ttl,
	}
}

// GetAllSets returns the unified set list for a language, from the cache
// when a fresh entry exists.
//
// Both catalogs are fetched concurrently. If either fails the result is an
// empty list; partial results are never returned. Only an invalid language
// code produces an error.
func (s *Service) GetAllSets(ctx context.Context, lang string) ([]Set, error) {
	lang, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cachedSets(ctx, setsCacheKey(lang)); ok {
		return cached, nil
	}
	return s.fetchSets(ctx, lang), nil
}

// RefreshSets is GetAllSets without the cache read: both catalogs are always
// queried, and a non-empty result replaces the cached entry.
func (s *Service) RefreshSets(ctx context.Context, lang string) ([]Set, error) {
	lang, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	return s.fetchSets(ctx, lang), nil
}

func (s *Service) fetchSets(ctx context.Context, lang string) []Set {
	var english, localized []Set

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sets, err := s.english.FetchSets(gctx, "en")
		if err != nil {
			return fmt.Errorf("english catalog: %w", err)
		}
		english = sets
		return nil
	})
	g.Go(func() error {
		sets, err := s.localized.FetchSets(gctx, lang)
		if err != nil {
			return fmt.Errorf("localized catalog: %w", err)
		}
		localized = sets
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("[CatalogService] Set sync for %s aborted: %v", lang, err)
		return []Set{}
	}

	merged := MergeSets(english, localized)
	if len(merged) > 0 {
		s.storeSets(ctx, setsCacheKey(lang), merged)
	}
	return merged
}

// GetCardDetails looks up one card in the localized catalog.
// Returns nil, nil when the card is not found.
func (s *Service) GetCardDetails(ctx context.Context, setID, localID, lang string) (*Card, error) {
	lang, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	return s.localized.GetCardDetails(ctx, setID, localID, lang), nil
}

// GetSetCards lists the cards of a set in the localized catalog.
func (s *Service) GetSetCards(ctx context.Context, setID, lang string) ([]CardBrief, error) {
	lang, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	return s.localized.GetSetCards(ctx, setID, lang), nil
}

func (s *Service) cachedSets(ctx context.Context, key string) ([]Set, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[CatalogService] Cache read failed for %s: %v", key, err)
		}
		metrics.CatalogCacheLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
		return nil, false
	}

	var sets []Set
	if err := json.Unmarshal(data, &sets); err != nil {
		log.Printf("[CatalogService] Discarding unreadable cache entry %s: %v", key, err)
		_ = s.cache.Delete(ctx, key)
		metrics.CatalogCacheLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
		return nil, false
	}

	metrics.CatalogCacheLookups.WithLabelValues(metrics.OutcomeHit).Inc()
	return sets, true
}

func (s *Service) storeSets(ctx context.Context, key string, sets []Set) {
	data, err := json.Marshal(sets)
	if err != nil {
		log.Printf("[CatalogService] Failed to encode sets for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		log.Printf("[CatalogService] Cache write failed for %s: %v", key, err)
	}
}

func setsCacheKey(lang string) string {
	return "sets:" + lang
}
