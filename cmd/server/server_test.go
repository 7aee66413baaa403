package main

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"coinwatch/internal/app"
	"coinwatch/internal/app/apptest"
	"coinwatch/internal/config"
	"coinwatch/internal/provider"
	"coinwatch/internal/search"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	*httptest.Server
	up  *apptest.Upstreams
	app *app.App
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	up := apptest.NewUpstreams(t)
	cfg := up.Config()
	for _, fn := range mutate {
		fn(&cfg)
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	a, err := app.New(cfg, log)
	require.NoError(t, err)
	srv := httptest.NewServer(newHandler(cfg, a, log))
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return &testServer{Server: srv, up: up, app: a}
}

type rawEnvelope struct {
	Data       json.RawMessage `json:"data"`
	FetchedAt  *time.Time      `json:"fetched_at"`
	Stale      bool            `json:"stale"`
	Refreshing bool            `json:"refreshing"`
	Error      *apiError       `json:"error"`
}

func (ts *testServer) get(t *testing.T, path string) (int, rawEnvelope) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	var env rawEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestListings_ServedFromCache(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	status, env := ts.get(t, "/api/listings?currency=eur&page=2&per_page=50")
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, env.Error)
	require.NotNil(t, env.FetchedAt)
	require.False(t, env.Stale)

	var listings []provider.CoinListing
	require.NoError(t, json.Unmarshal(env.Data, &listings))
	require.Len(t, listings, 2)
	require.Equal(t, 51, listings[0].Rank)
	require.Contains(t, listings[0].Quotes, "EUR")

	status, _ = ts.get(t, "/api/listings?currency=EUR&page=2&per_page=50")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, ts.up.Calls("/v1/cryptocurrency/listings/latest"))
}

func TestBadRequests(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	for _, path := range []string{
		"/api/quotes",
		"/api/quotes?ids=1,x",
		"/api/listings?per_page=9000",
		"/api/history?asset=bitcoin&interval=w1",
		"/api/history/bitcoin?range=3",
		"/api/convert?id=1",
	} {
		status, env := ts.get(t, path)
		require.Equal(t, http.StatusBadRequest, status, path)
		require.Equal(t, "bad_request", env.Error.Kind, path)
	}
}

func TestHistoryForSlug_Summary(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	status, env := ts.get(t, "/api/history/bitcoin?range=7d")
	require.Equal(t, http.StatusOK, status)

	var view historyView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Points, 2)
	require.Equal(t, "64000.1234567890", view.Points[0].Price)
	require.NotNil(t, view.Summary)
	require.Equal(t, "64000.123456789", view.Summary.Open)
	require.Equal(t, "64010.5", view.Summary.Close)
	require.Equal(t, "64000.123456789", view.Summary.Low)
	require.Equal(t, "64010.5", view.Summary.High)
	require.Equal(t, "0.0162", view.Summary.ChangePercent)
}

func TestUpstreamAuthFailure(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(c *config.Config) { c.CMC.APIKey = "revoked" })

	status, env := ts.get(t, "/api/global?currency=usd")

	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "auth", env.Error.Kind)
	require.Equal(t, "cmc", env.Error.Provider)
	require.Nil(t, env.FetchedAt)
}

func TestAssetNotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	status, env := ts.get(t, "/api/assets/BITCOIN")
	require.Equal(t, http.StatusOK, status)
	var asset provider.Asset
	require.NoError(t, json.Unmarshal(env.Data, &asset))
	require.Equal(t, "bitcoin", asset.ID)

	status, env = ts.get(t, "/api/assets/nope")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not found", env.Error.Kind)
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	_, env := ts.get(t, "/api/search?q=eth")
	var results []provider.CoinMapEntry
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	require.Equal(t, "ethereum", results[0].Slug)

	_, env = ts.get(t, "/api/search?q=")
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.get(t, "/api/fiat")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
		Cache  struct {
			Keys int `json:"keys"`
		} `json:"cache"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, 1, body.Cache.Keys)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/listings", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/api/fiat", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	gz, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.Contains(t, string(body), "United States Dollar")
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := recoverPanic(log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func dial(t *testing.T, ts *testServer, path string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(strings.Replace(ts.URL, "http://", "ws://", 1)+path, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestWatchListings_DetachesOnDisconnect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	conn := dial(t, ts, "/ws/listings?currency=usd")

	var env rawEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	var listings []provider.CoinListing
	require.NoError(t, json.Unmarshal(env.Data, &listings))
	require.Len(t, listings, 2)
	require.Equal(t, 1, ts.app.Service.Stats().Polled)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		st := ts.app.Service.Stats()
		return st.Subscribers == 0 && st.Polled == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func readState(t *testing.T, conn *websocket.Conn, done func(search.State) bool) search.State {
	t.Helper()
	for {
		var st search.State
		require.NoError(t, conn.ReadJSON(&st))
		if done(st) {
			return st
		}
	}
}

func TestSearchSession_TypeNavigateSelect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	conn := dial(t, ts, "/ws/search")
	defer conn.Close()

	initial := readState(t, conn, func(search.State) bool { return true })
	require.Equal(t, -1, initial.Highlight)

	require.NoError(t, conn.WriteJSON(searchMessage{Type: "input", Text: "bit"}))
	st := readState(t, conn, func(st search.State) bool {
		return st.Debounced == "bit" && !st.Loading && !st.Debouncing
	})
	require.True(t, st.Open)
	require.Len(t, st.Results, 1)

	require.NoError(t, conn.WriteJSON(searchMessage{Type: "key", Key: "ArrowDown"}))
	st = readState(t, conn, func(st search.State) bool { return st.Highlight == 0 })
	require.True(t, st.Open)

	require.NoError(t, conn.WriteJSON(searchMessage{Type: "key", Key: "Enter"}))
	st = readState(t, conn, func(st search.State) bool { return st.Selected != nil })
	require.Equal(t, "bitcoin", st.Selected.Slug)
	require.False(t, st.Open)
	require.Empty(t, st.Query)
}
