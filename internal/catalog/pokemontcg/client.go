// Package pokemontcg is a client for the pokemontcg.io catalog, the source of
// canonical English set data.
package pokemontcg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

const (
	// DefaultBaseURL is the public pokemontcg.io endpoint.
	DefaultBaseURL = "https://api.pokemontcg.io"

	providerName   = "pokemontcg"
	setsPageSize   = 250
	rateLimitDelay = 100 * time.Millisecond // 10 req/sec
	requestTimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client is a rate-limited pokemontcg.io API client.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewClient creates a new pokemontcg.io client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = requestTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "PTCG-Inventory/1.0"
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   opts.UserAgent,
	}
}

// FetchSets retrieves every set in one call and converts it to catalog sets.
// Malformed items are skipped; an envelope failure is returned as an error.
// The language is ignored since this catalog only carries English data.
func (c *Client) FetchSets(ctx context.Context, _ string) ([]catalog.Set, error) {
	started := time.Now()
	url := fmt.Sprintf("%s/v2/sets?pageSize=%d&orderBy=releaseDate", c.baseURL, setsPageSize)

	var list SetList
	if err := c.doRequest(ctx, url, &list); err != nil {
		metrics.ObserveProvider(providerName, "sets", metrics.OutcomeError, started)
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}
	metrics.ObserveProvider(providerName, "sets", metrics.OutcomeSuccess, started)

	sets := make([]catalog.Set, 0, len(list.Data))
	skipped := 0
	for _, raw := range list.Data {
		var s Set
		if err := json.Unmarshal(raw, &s); err != nil || s.ID == "" {
			skipped++
			continue
		}
		sets = append(sets, convertSet(s))
	}

	if skipped > 0 {
		metrics.ProviderItemsSkipped.WithLabelValues(providerName, "sets").Add(float64(skipped))
		log.Printf("[PokemonTCG] Skipped %d malformed sets out of %d", skipped, len(list.Data))
	}

	return sets, nil
}

// GetAllSets returns all sets, or an empty list when the fetch fails.
func (c *Client) GetAllSets(ctx context.Context, lang string) []catalog.Set {
	sets, err := c.FetchSets(ctx, lang)
	if err != nil {
		log.Printf("[PokemonTCG] Failed to fetch sets: %v", err)
		return []catalog.Set{}
	}
	return sets
}

func convertSet(s Set) catalog.Set {
	out := catalog.Set{
		ID:                s.ID,
		Name:              catalog.CleanName(s.Name),
		NameEN:            catalog.CleanName(s.Name),
		LogoURL:           s.Images.Logo,
		CardCountOfficial: s.PrintedTotal,
		CardCountTotal:    s.Total,
		ReleaseDate:       catalog.NormalizeReleaseDate(s.ReleaseDate),
	}
	if code := strings.TrimSpace(s.PtcgoCode); code != "" {
		out.Abbreviation = &code
	}
	return out
}

// doRequest performs a single rate-limited GET and decodes the JSON body.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			envelope.Error.Status = resp.StatusCode
			return &envelope.Error
		}
		return &APIError{Status: resp.StatusCode}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}
