// Package tcgdex is a client for the TCGdex catalog, the source of localized
// set listings and card details.
package tcgdex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/metrics"
)

const (
	// DefaultBaseURL is the public TCGdex endpoint.
	DefaultBaseURL = "https://api.tcgdex.net"

	providerName   = "tcgdex"
	rateLimitDelay = 50 * time.Millisecond
	requestTimeout = 30 * time.Second

	cardmarketProductURL = "https://www.cardmarket.com/en/Pokemon/Products?idProduct=%d"

	imageQuality = "/high.png"
	logoFormat   = ".png"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is a rate-limited TCGdex API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewClient creates a new TCGdex client.
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
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 2),
		userAgent:   opts.UserAgent,
	}
}

// FetchSets retrieves the localized set listing. Malformed items are skipped;
// an envelope failure is returned as an error.
func (c *Client) FetchSets(ctx context.Context, lang string) ([]catalog.Set, error) {
	started := time.Now()
	endpoint := fmt.Sprintf("%s/v2/%s/sets", c.baseURL, url.PathEscape(lang))

	var raw []json.RawMessage
	if err := c.doRequest(ctx, endpoint, &raw); err != nil {
		metrics.ObserveProvider(providerName, "sets", outcomeOf(err), started)
		return nil, fmt.Errorf("failed to get %s sets: %w", lang, err)
	}
	metrics.ObserveProvider(providerName, "sets", metrics.OutcomeSuccess, started)

	sets := make([]catalog.Set, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var s SetBrief
		if err := json.Unmarshal(item, &s); err != nil || s.ID == "" {
			skipped++
			continue
		}
		sets = append(sets, convertSet(s))
	}

	if skipped > 0 {
		metrics.ProviderItemsSkipped.WithLabelValues(providerName, "sets").Add(float64(skipped))
		log.Printf("[TCGdex] Skipped %d malformed %s sets out of %d", skipped, lang, len(raw))
	}

	return sets, nil
}

// GetAllSets returns the localized set listing, or an empty list on failure.
func (c *Client) GetAllSets(ctx context.Context, lang string) []catalog.Set {
	sets, err := c.FetchSets(ctx, lang)
	if err != nil {
		log.Printf("[TCGdex] Failed to fetch sets: %v", err)
		return []catalog.Set{}
	}
	return sets
}

// GetSetCards returns the brief card list of a set, or an empty list on failure.
func (c *Client) GetSetCards(ctx context.Context, setID, lang string) []catalog.CardBrief {
	started := time.Now()
	endpoint := fmt.Sprintf("%s/v2/%s/sets/%s", c.baseURL, url.PathEscape(lang), url.PathEscape(setID))

	var detail SetDetail
	if err := c.doRequest(ctx, endpoint, &detail); err != nil {
		metrics.ObserveProvider(providerName, "set_cards", outcomeOf(err), started)
		log.Printf("[TCGdex] Failed to fetch cards of set %s (%s): %v", setID, lang, err)
		return []catalog.CardBrief{}
	}
	metrics.ObserveProvider(providerName, "set_cards", metrics.OutcomeSuccess, started)

	cards := make([]catalog.CardBrief, 0, len(detail.Cards))
	for _, card := range detail.Cards {
		cards = append(cards, catalog.CardBrief{
			ID:       card.ID,
			LocalID:  card.LocalID,
			Name:     catalog.CleanName(card.Name),
			ImageURL: imageURL(card.Image),
		})
	}
	return cards
}

// GetCardDetails fetches one card. Returns nil when the card is missing or
// the request fails.
func (c *Client) GetCardDetails(ctx context.Context, setID, localID, lang string) *catalog.Card {
	started := time.Now()
	endpoint := fmt.Sprintf("%s/v2/%s/sets/%s/%s", c.baseURL,
		url.PathEscape(lang), url.PathEscape(setID), url.PathEscape(localID))

	var card Card
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		metrics.ObserveProvider(providerName, "card", outcomeOf(err), started)
		log.Printf("[TCGdex] Failed to fetch card %s/%s (%s): %v", setID, localID, lang, err)
		return nil
	}
	metrics.ObserveProvider(providerName, "card", metrics.OutcomeSuccess, started)

	result := convertCard(card, lang)
	if result.SetID == "" {
		result.SetID = setID
	}

	if lang == "en" {
		result.NameEN = result.Name
	} else if name, err := c.englishName(ctx, card.ID); err == nil {
		result.NameEN = name
	} else {
		log.Printf("[TCGdex] English name unavailable for %s: %v", card.ID, err)
	}

	return result
}

// englishName looks up the English printing of a card by its global id.
func (c *Client) englishName(ctx context.Context, cardID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v2/en/cards/%s", c.baseURL, url.PathEscape(cardID))

	var card struct {
		Name string `json:"name"`
	}
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		return "", err
	}
	return catalog.CleanName(card.Name), nil
}

func convertSet(s SetBrief) catalog.Set {
	name := catalog.CleanName(s.Name)
	return catalog.Set{
		ID:                s.ID,
		Name:              name,
		LogoURL:           logoURL(s.Logo),
		CardCountOfficial: s.CardCount.Official,
		CardCountTotal:    s.CardCount.Total,
	}
}

func convertCard(card Card, lang string) *catalog.Card {
	out := &catalog.Card{
		ExternalID:     card.ID,
		SetID:          card.Set.ID,
		Name:           catalog.CleanName(card.Name),
		Language:       lang,
		LocalID:        card.LocalID,
		ImageURL:       imageURL(card.Image),
		Quantity:       1,
		Rarity:         card.Rarity,
		HP:             card.HP,
		RetreatCost:    card.Retreat,
		Types:          append([]string{}, card.Types...),
		Illustrator:    card.Illustrator,
		Stage:          card.Stage,
		RegulationMark: card.RegulationMark,
		Abilities:      make([]catalog.Ability, 0, len(card.Abilities)),
		Attacks:        make([]catalog.Attack, 0, len(card.Attacks)),
		Legal: catalog.Legality{
			Standard: card.Legal.Standard,
			Expanded: card.Legal.Expanded,
		},
	}

	for _, a := range card.Abilities {
		out.Abilities = append(out.Abilities, catalog.Ability{
			Type:   a.Type,
			Name:   a.Name,
			Effect: a.Effect,
		})
	}

	for _, a := range card.Attacks {
		out.Attacks = append(out.Attacks, catalog.Attack{
			Name:   a.Name,
			Cost:   append([]string{}, a.Cost...),
			Effect: a.Effect,
			Damage: damageString(a.Damage),
		})
	}

	if card.Pricing != nil && card.Pricing.Cardmarket != nil {
		cm := card.Pricing.Cardmarket
		price := cm.Trend
		if price == nil {
			price = cm.Avg
		}
		if price != nil {
			p := *price
			out.Price = &p
			out.PriceUpdatedAt = cm.Updated
		}
		if cm.ProductID > 0 {
			link := fmt.Sprintf(cardmarketProductURL, cm.ProductID)
			out.MarketplaceURL = &link
		}
	}

	return out
}

func damageString(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	default:
		return fmt.Sprint(d)
	}
}

func imageURL(base string) string {
	if base == "" || strings.HasSuffix(base, ".png") || strings.HasSuffix(base, ".webp") || strings.HasSuffix(base, ".jpg") {
		return base
	}
	return base + imageQuality
}

func logoURL(base string) string {
	if base == "" || strings.HasSuffix(base, ".png") || strings.HasSuffix(base, ".webp") || strings.HasSuffix(base, ".jpg") {
		return base
	}
	return base + logoFormat
}

func outcomeOf(err error) string {
	if IsNotFound(err) {
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}

// doRequest performs a single rate-limited GET and decodes the JSON body.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return nil

	case http.StatusNotFound:
		return &NotFoundError{URL: endpoint}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
