package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/PTCG-Inventory/internal/cache"
)

type fakeSetProvider struct {
	sets  []Set
	err   error
	calls int32
	langs chan string
}

func (f *fakeSetProvider) FetchSets(_ context.Context, lang string) ([]Set, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.langs != nil {
		f.langs <- lang
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sets, nil
}

type fakeLocalizedProvider struct {
	fakeSetProvider
	card        *Card
	briefs      []CardBrief
	detailCalls int32
	lastLang    string
}

func (f *fakeLocalizedProvider) GetCardDetails(_ context.Context, setID, localID, lang string) *Card {
	atomic.AddInt32(&f.detailCalls, 1)
	f.lastLang = lang
	return f.card
}

func (f *fakeLocalizedProvider) GetSetCards(_ context.Context, setID, lang string) []CardBrief {
	f.lastLang = lang
	return f.briefs
}

// englishOnly fails the test if any card-level call reaches it.
type englishOnly struct {
	fakeSetProvider
	t *testing.T
}

func (e *englishOnly) GetCardDetails(context.Context, string, string, string) *Card {
	e.t.Error("English provider must not serve card details")
	return nil
}

func TestService_GetAllSets(t *testing.T) {
	english := &fakeSetProvider{sets: []Set{{ID: "sv4pt5", Name: "Paldean Fates"}, {ID: "sv1", Name: "Scarlet & Violet"}}}
	localized := &fakeLocalizedProvider{fakeSetProvider: fakeSetProvider{
		sets: []Set{{ID: "sv04.5", Name: "Destinées de Paldea"}, {ID: "sv99", Name: "Local only"}},
	}}

	svc := NewService(english, localized, ServiceOptions{})

	sets, err := svc.GetAllSets(context.Background(), "fr")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "sv04.5", sets[0].ID)
	assert.Equal(t, "Destinées de Paldea", sets[0].Name)
	assert.Equal(t, "Paldean Fates", sets[0].NameEN)
	assert.Equal(t, "sv1", sets[1].ID)
}

func TestService_GetAllSets_PassesBaseLanguage(t *testing.T) {
	english := &fakeSetProvider{langs: make(chan string, 1)}
	localized := &fakeLocalizedProvider{fakeSetProvider: fakeSetProvider{langs: make(chan string, 1)}}

	svc := NewService(english, localized, ServiceOptions{})

	_, err := svc.GetAllSets(context.Background(), "de-DE")
	require.NoError(t, err)
	assert.Equal(t, "en", <-english.langs)
	assert.Equal(t, "de", <-localized.langs)
}

func TestService_GetAllSets_AbortsWhenLocalizedFails(t *testing.T) {
	english := &fakeSetProvider{sets: []Set{{ID: "sv1", Name: "Scarlet & Violet"}}}
	localized := &fakeLocalizedProvider{fakeSetProvider: fakeSetProvider{err: errors.New("boom")}}

	svc := NewService(english, localized, ServiceOptions{})

	sets, err := svc.GetAllSets(context.Background(), "fr")
	require.NoError(t, err)
	assert.NotNil(t, sets)
	assert.Empty(t, sets, "no partial result from the English catalog alone")
}

func TestService_GetAllSets_AbortsWhenEnglishFails(t *testing.T) {
	english := &fakeSetProvider{err: errors.New("timeout")}
	localized := &fakeLocalizedProvider{fakeSetProvider: fakeSetProvider{sets: []Set{{ID: "sv1"}}}}

	svc := NewService(english, localized, ServiceOptions{})

	sets, err := svc.GetAllSets(context.Background(), "fr")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestService_GetAllSets_InvalidLanguage(t *testing.T) {
	english := &fakeSetProvider{}
	localized := &fakeLocalizedProvider{}

	svc := NewService(english, localized, ServiceOptions{})

	_, err := svc.GetAllSets(context.Background(), "??")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Zero(t, atomic.LoadInt32(&english.calls))
}

func TestService_GetAllSets_UsesCache(t *testing.T) {
	mem, err := cache.NewMemoryCache(8)
	require.NoError(t, err)

	english := &fakeSetProvider{sets: []Set{{ID: "sv1", Name: "Scarlet & Violet"}}}
	localized := &fakeLocalizedProvider{fakeSetProvider: fakeSetProvider{sets: []Set{{ID: "sv01", Name: "Écarlate et Violet"}}}}

	svc := NewService(english, localized, ServiceOptions{Cache: mem, CacheTTL: time.Minute})

	first, err := svc.GetAllSets(context.Background(), "fr")
	require.NoError(t, err)
	second, err := svc.GetAllSets(context.Background(), "fr")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&english.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&localized.calls))
}

func TestService_RefreshSets_SkipsCacheRead(t *testing.T) {
	mem, err := cache.NewMemoryCache(8)
	require.NoError(t, err)

	english := &fakeSetProvider{sets: []Set{{ID: "sv1", Name: "Scarlet & Violet"}}}
	localized := &fakeLocalizedProvider{}
	svc := NewService(english, localized, ServiceOptions{Cache: mem, CacheTTL: time.Minute})
	ctx := context.Background()

	_, err = svc.GetAllSets(ctx, "en")
	require.NoError(t, err)

	english.sets = []Set{{ID: "sv1"}, {ID: "sv2"}}
	refreshed, err := svc.RefreshSets(ctx, "en")
	require.NoError(t, err)
	assert.Len(t, refreshed, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&english.calls))

	cached, err := svc.GetAllSets(ctx, "en")
	require.NoError(t, err)
	assert.Len(t, cached, 2, "refresh replaces the cached entry")
	assert.Equal(t, int32(2), atomic.LoadInt32(&english.calls))

	_, err = svc.RefreshSets(ctx, "??")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestService_GetAllSets_EmptyResultNotCached(t *testing.T) {
	mem, err := cache.NewMemoryCache(8)
	require.NoError(t, err)

	english := &fakeSetProvider{err: errors.New("down")}
	localized := &fakeLocalizedProvider{}

	svc := NewService(english, localized, ServiceOptions{Cache: mem})

	_, _ = svc.GetAllSets(context.Background(), "fr")
	assert.Zero(t, mem.Len())
}

func TestService_GetCardDetails_DelegatesToLocalized(t *testing.T) {
	english := &englishOnly{t: t}
	localized := &fakeLocalizedProvider{card: &Card{ExternalID: "sv04.5-232", Name: "Dracaufeu ex"}}

	svc := NewService(english, localized, ServiceOptions{})

	card, err := svc.GetCardDetails(context.Background(), "sv04.5", "232", "fr-CA")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "Dracaufeu ex", card.Name)
	assert.Equal(t, "fr", localized.lastLang)
	assert.Equal(t, int32(1), atomic.LoadInt32(&localized.detailCalls))
	assert.Zero(t, atomic.LoadInt32(&english.calls))
}

func TestService_GetCardDetails_Absent(t *testing.T) {
	svc := NewService(&fakeSetProvider{}, &fakeLocalizedProvider{}, ServiceOptions{})

	card, err := svc.GetCardDetails(context.Background(), "sv1", "999", "en")
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestService_GetSetCards(t *testing.T) {
	localized := &fakeLocalizedProvider{briefs: []CardBrief{{ID: "sv1-1", LocalID: "1", Name: "Pineco"}}}
	svc := NewService(&fakeSetProvider{}, localized, ServiceOptions{})

	cards, err := svc.GetSetCards(context.Background(), "sv1", "")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, "en", localized.lastLang)
}
