package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiwebsocket "github.com/ramonehamilton/PTCG-Inventory/internal/api/websocket"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
	"github.com/ramonehamilton/PTCG-Inventory/internal/inventory"
)

// stubCatalog serves a fixed localized catalog.
type stubCatalog struct{}

func (stubCatalog) GetAllSets(context.Context, string) ([]catalog.Set, error) {
	date := "2024-01-26"
	return []catalog.Set{{ID: "sv04.5", CanonicalID: "sv4pt5", Name: "Destinées de Paldea", ReleaseDate: &date}}, nil
}

func (c stubCatalog) RefreshSets(ctx context.Context, lang string) ([]catalog.Set, error) {
	return c.GetAllSets(ctx, lang)
}

func (stubCatalog) GetSetCards(context.Context, string, string) ([]catalog.CardBrief, error) {
	return []catalog.CardBrief{{ID: "sv04.5-232", LocalID: "232", Name: "Dracaufeu ex"}}, nil
}

func (stubCatalog) GetCardDetails(_ context.Context, setID, localID, lang string) (*catalog.Card, error) {
	if localID != "232" {
		return nil, nil
	}
	return &catalog.Card{ExternalID: setID + "-" + localID, SetID: setID, LocalID: localID, Language: lang, Name: "Dracaufeu ex", Quantity: 1}, nil
}

type testServer struct {
	server *Server
	http   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := inventory.NewRepository(inventory.NewMemoryStore(), nil)
	svc := inventory.NewService(stubCatalog{}, repo)

	s := NewServer(nil, Dependencies{
		Catalog:    stubCatalog{},
		Collection: svc,
		Dispatcher: repo.Dispatcher(),
	})
	go s.wsHub.Run()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})

	return &testServer{server: s, http: ts}
}

func (ts *testServer) request(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(nil, Dependencies{})

	assert.Equal(t, "127.0.0.1:8765", s.Addr())
	assert.NotNil(t, s.WebSocketHub())
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	ts.request(t, http.MethodGet, "/api/v1/sets", "")

	resp := ts.request(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "http_requests_total")
}

func TestServer_RejectsNonJSONBody(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.http.URL+"/api/v1/cards", strings.NewReader("set_id=sv1"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestServer_CardLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/catalog/sets/sv04.5/cards/232?lang=fr", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var looked struct {
		Data catalog.Card `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&looked))

	body, err := json.Marshal(looked.Data)
	require.NoError(t, err)

	resp = ts.request(t, http.MethodPost, "/api/v1/cards", string(body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data catalog.Card `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotZero(t, created.Data.ID)

	resp = ts.request(t, http.MethodPost, "/api/v1/cards", string(body))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/v1/catalog/sets/sv04.5/cards/999?lang=fr", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.request(t, http.MethodPatch, "/api/v1/cards/"+jsonNumber(created.Data.ID), `{"price":3.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.request(t, http.MethodPatch, "/api/v1/cards/"+jsonNumber(created.Data.ID), `{"notes":"mint"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched struct {
		Data catalog.Card `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&patched))
	assert.Equal(t, created.Data.Quantity, patched.Data.Quantity)
	assert.Equal(t, "mint", patched.Data.Notes)
	require.NotNil(t, patched.Data.Price)
	assert.InDelta(t, 3.5, *patched.Data.Price, 1e-9)

	resp = ts.request(t, http.MethodDelete, "/api/v1/cards/"+jsonNumber(created.Data.ID), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/v1/cards/"+jsonNumber(created.Data.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_WebSocketReceivesSnapshots(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() apiwebsocket.Event {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		var event apiwebsocket.Event
		require.NoError(t, json.Unmarshal(message, &event))
		return event
	}

	assert.Equal(t, events.SetsUpdated, read().Type)
	assert.Equal(t, events.CardsUpdated, read().Type)

	time.Sleep(50 * time.Millisecond)

	resp := ts.request(t, http.MethodPost, "/api/v1/sets/sync?lang=fr", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, events.SetsUpdated, read().Type)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
