package boardhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tickerboard/internal/catalog"
	"tickerboard/internal/market"
	"tickerboard/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(catalog.NewStaticProvider([]market.Instrument{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING"},
		{Symbol: "SOLUSDT", BaseAsset: "SOL", QuoteAsset: "USDT", Status: "TRADING"},
	}), 10)
	require.NoError(t, c.Refresh(context.Background()))
	return c
}

func newTestServer(t *testing.T, maxTracked int) (*Server, *tracker.Dispatcher) {
	t.Helper()
	d := tracker.NewDispatcher()
	d.Start()
	t.Cleanup(d.Stop)

	srv, err := NewServer(ServerConfig{
		Addr:           ":0",
		Dispatcher:     d,
		Catalog:        testCatalog(t),
		MaxInstruments: maxTracked,
	})
	require.NoError(t, err)
	return srv, d
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, 15)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchInstruments(t *testing.T) {
	srv, _ := newTestServer(t, 15)
	rec := doJSON(t, srv, http.MethodGet, "/api/instruments/search?q=btc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []market.Instrument `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "BTCUSDT", resp.Results[0].Symbol)
}

func TestAddInstrument(t *testing.T) {
	t.Run("first add connects the stream", func(t *testing.T) {
		srv, d := newTestServer(t, 15)
		rec := doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"btcusdt"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		assert.Eventually(t, func() bool {
			s := d.Snapshot()
			return s.Selected("BTCUSDT") &&
				s.DesiredConnection &&
				s.Loading &&
				s.SessionStart > 0 &&
				s.Visibility["BTCUSDT"]
		}, time.Second, 5*time.Millisecond)

		s := d.Snapshot()
		assert.NotEmpty(t, s.Colors["BTCUSDT"])
	})

	t.Run("second add keeps session start", func(t *testing.T) {
		srv, d := newTestServer(t, 15)
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
		assert.Eventually(t, func() bool { return d.Snapshot().SessionStart > 0 }, time.Second, 5*time.Millisecond)
		started := d.Snapshot().SessionStart

		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"ETHUSDT"}`).Code)
		assert.Eventually(t, func() bool { return d.Snapshot().Selected("ETHUSDT") }, time.Second, 5*time.Millisecond)
		assert.Equal(t, started, d.Snapshot().SessionStart)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		srv, _ := newTestServer(t, 15)
		rec := doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"NOPEUSDT"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		srv, d := newTestServer(t, 15)
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
		assert.Eventually(t, func() bool { return d.Snapshot().Selected("BTCUSDT") }, time.Second, 5*time.Millisecond)
		rec := doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("capacity limit", func(t *testing.T) {
		srv, d := newTestServer(t, 2)
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"ETHUSDT"}`).Code)
		assert.Eventually(t, func() bool { return len(d.Snapshot().Selection) == 2 }, time.Second, 5*time.Millisecond)

		rec := doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"SOLUSDT"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Len(t, d.Snapshot().Selection, 2)
	})

	t.Run("missing body", func(t *testing.T) {
		srv, _ := newTestServer(t, 15)
		rec := doJSON(t, srv, http.MethodPost, "/api/instruments", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRemoveInstrument(t *testing.T) {
	srv, d := newTestServer(t, 15)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
	require.NoError(t, d.DispatchSync(context.Background(), tracker.IngestSample{Sample: market.PriceSample{
		Symbol: "BTCUSDT", EventTime: 1000, Close: 50000,
	}}))

	rec := doJSON(t, srv, http.MethodDelete, "/api/instruments/BTCUSDT", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Eventually(t, func() bool {
		s := d.Snapshot()
		return !s.Selected("BTCUSDT") && len(s.Histories["BTCUSDT"]) == 0 && !s.DesiredConnection
	}, time.Second, 5*time.Millisecond)

	rec = doJSON(t, srv, http.MethodDelete, "/api/instruments/BTCUSDT", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearInstruments(t *testing.T) {
	srv, d := newTestServer(t, 15)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"ETHUSDT"}`).Code)

	rec := doJSON(t, srv, http.MethodDelete, "/api/instruments", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, d.Snapshot().Selection)
}

func TestLatestPrices(t *testing.T) {
	srv, d := newTestServer(t, 15)
	ctx := context.Background()
	require.NoError(t, d.DispatchSync(ctx, tracker.AddInstrument{Instrument: market.Instrument{Symbol: "BTCUSDT"}}))
	require.NoError(t, d.DispatchSync(ctx, tracker.IngestSample{Sample: market.PriceSample{Symbol: "BTCUSDT", EventTime: 1000, Close: 50000}}))
	require.NoError(t, d.DispatchSync(ctx, tracker.IngestSample{Sample: market.PriceSample{Symbol: "BTCUSDT", EventTime: 2000, Close: 50500}}))

	rec := doJSON(t, srv, http.MethodGet, "/api/prices/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Prices []latestView `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Prices, 1)
	got := resp.Prices[0]
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.InDelta(t, 50500, got.Price, 1e-9)
	assert.Equal(t, "50500", got.PriceText)
	assert.Equal(t, "+500.00", got.Change)
	assert.Equal(t, "+1.00%", got.ChangePercent)
}

func TestPriceSeries(t *testing.T) {
	srv, d := newTestServer(t, 15)
	ctx := context.Background()
	require.NoError(t, d.DispatchSync(ctx, tracker.IngestSample{Sample: market.PriceSample{Symbol: "ETHUSDT", EventTime: 2000, Close: 3000}}))
	require.NoError(t, d.DispatchSync(ctx, tracker.IngestSample{Sample: market.PriceSample{Symbol: "BTCUSDT", EventTime: 1000, Close: 50000}}))

	rec := doJSON(t, srv, http.MethodGet, "/api/prices/series", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Samples []market.PriceSample `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Samples, 2)
	assert.Equal(t, "BTCUSDT", resp.Samples[0].Symbol)
	assert.Equal(t, "ETHUSDT", resp.Samples[1].Symbol)
}

func TestConnectionEndpoint(t *testing.T) {
	srv, d := newTestServer(t, 15)
	require.NoError(t, d.DispatchSync(context.Background(), tracker.SetConnection{Connected: true, Status: "connected"}))

	rec := doJSON(t, srv, http.MethodGet, "/api/connection", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Connection tracker.ConnectionSnapshot `json:"connection"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Connection.Connected)
	assert.Equal(t, "connected", resp.Connection.Status)
}

func TestVisibilityEndpoints(t *testing.T) {
	srv, d := newTestServer(t, 15)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"BTCUSDT"}`).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/instruments", `{"symbol":"ETHUSDT"}`).Code)
	assert.Eventually(t, func() bool {
		s := d.Snapshot()
		return s.Visibility["BTCUSDT"] && s.Visibility["ETHUSDT"]
	}, time.Second, 5*time.Millisecond)

	rec := doJSON(t, srv, http.MethodPost, "/api/visibility/BTCUSDT/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, d.Snapshot().Visibility["BTCUSDT"])

	rec = doJSON(t, srv, http.MethodPost, "/api/visibility/ETHUSDT/only", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"ETHUSDT": true}, d.Snapshot().Visibility)

	rec = doJSON(t, srv, http.MethodPost, "/api/visibility/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"BTCUSDT": true, "ETHUSDT": true}, d.Snapshot().Visibility)
}

func TestChartHTML(t *testing.T) {
	srv, d := newTestServer(t, 15)
	ctx := context.Background()
	require.NoError(t, d.DispatchSync(ctx, tracker.AddInstrument{Instrument: market.Instrument{Symbol: "BTCUSDT"}}))
	require.NoError(t, d.DispatchSync(ctx, tracker.ToggleVisibility{Symbol: "BTCUSDT"}))
	require.NoError(t, d.DispatchSync(ctx, tracker.IngestSample{Sample: market.PriceSample{Symbol: "BTCUSDT", EventTime: 1000, Close: 50000}}))

	rec := doJSON(t, srv, http.MethodGet, "/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BTCUSDT")
}

func TestChartWithoutData(t *testing.T) {
	srv, _ := newTestServer(t, 15)
	rec := doJSON(t, srv, http.MethodGet, "/chart", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
