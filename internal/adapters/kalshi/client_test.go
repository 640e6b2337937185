package kalshi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/adapters/kalshi"
	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(srv *httptest.Server) *kalshi.Client {
	return kalshi.NewClient(srv.URL, time.Millisecond)
}

func TestFetchEvents_Paginates(t *testing.T) {
	page1 := fixture(t, "kalshi_events_page1.json")
	page2 := fixture(t, "kalshi_events_page2.json")

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "KXNFLGAME", r.URL.Query().Get("series_ticker"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "page2" {
			w.Write(page2)
			return
		}
		w.Write(page1)
	}))
	defer srv.Close()

	events, err := newTestClient(srv).FetchEvents(context.Background(), "KXNFLGAME")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int32(2), calls.Load())

	kc := events[0]
	assert.Equal(t, "KXNFLGAME-25SEP07KCLAC", kc.EventTicker)
	assert.Equal(t, int64(1757203200), kc.StrikeTime)
	assert.Equal(t, []string{"Kansas City", "Los Angeles C"}, kc.Teams)

	assert.Equal(t, int64(1757289600), events[1].StrikeTime)
	assert.Equal(t, []string{"Baltimore", "Buffalo"}, events[1].Teams)

	assert.False(t, events[2].HasStrikeTime())
	assert.Nil(t, events[2].Teams)
}

func TestFetchMarkets_WinMarket(t *testing.T) {
	data := fixture(t, "kalshi_markets.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "KXNFLGAME-25SEP07KCLAC", r.URL.Query().Get("event_ticker"))
		w.Write(data)
	}))
	defer srv.Close()

	markets, err := newTestClient(srv).FetchMarkets(context.Background(), "KXNFLGAME-25SEP07KCLAC")
	require.NoError(t, err)
	require.Len(t, markets, 2)

	assert.False(t, markets[0].IsWinMarket())
	kc := markets[1]
	assert.True(t, kc.IsWinMarket())
	assert.Equal(t, "Kansas City", kc.Subtitle)
	assert.Equal(t, 64, kc.LastPrice)
	assert.Equal(t, int64(1757203200+4*3600), kc.CloseTime)
}

func TestFetchTrades_SortedAndFiltered(t *testing.T) {
	data := fixture(t, "kalshi_trades.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/trades", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "KXNFLGAME-25SEP07KCLAC-KC", q.Get("ticker"))
		assert.Equal(t, "1757202300", q.Get("min_ts"))
		assert.Equal(t, "1757208600", q.Get("max_ts"))
		assert.Equal(t, "500", q.Get("limit"))
		w.Write(data)
	}))
	defer srv.Close()

	obs, err := newTestClient(srv).FetchTrades(context.Background(), "KXNFLGAME-25SEP07KCLAC-KC", 1757202300, 1757208600)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, int64(1757202600), obs[0].Timestamp)
	assert.Equal(t, 64, obs[0].PriceCents)
	assert.Equal(t, 2, obs[0].Size)
	assert.Equal(t, int64(1757203805), obs[2].Timestamp)
	assert.Equal(t, 47, obs[2].PriceCents)
	assert.NoError(t, domain.ValidateObservations(obs))
}

func TestFetchCandles_MapsAndDropsInvalid(t *testing.T) {
	data := fixture(t, "kalshi_candles.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/KXNFLGAME/events/KXNFLGAME-25SEP07KCLAC/candlesticks", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("period_interval"))
		w.Write(data)
	}))
	defer srv.Close()

	obs, err := newTestClient(srv).FetchCandles(context.Background(), "KXNFLGAME", "KXNFLGAME-25SEP07KCLAC", 1757202300, 1757208600)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].IsCandle())
	assert.Equal(t, int64(1757202900), obs[0].Timestamp)
	assert.Equal(t, 65, obs[0].PriceCents)
	assert.Equal(t, 48, obs[1].LowCents)
}

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/KXNFLGAME-X-KC", r.URL.Path)
		w.Write([]byte(`{"market":{"ticker":"KXNFLGAME-X-KC","yes_bid":38,"yes_ask":41,"last_price":40}}`))
	}))
	defer srv.Close()

	q, err := newTestClient(srv).FetchQuote(context.Background(), "KXNFLGAME-X-KC")
	require.NoError(t, err)
	assert.Equal(t, 40, q.LastPrice)
	assert.Positive(t, q.Timestamp)
}

func TestFetchEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/KXNFLGAME-25SEP07KCLAC", r.URL.Path)
		w.Write([]byte(`{"event":{"event_ticker":"KXNFLGAME-25SEP07KCLAC","series_ticker":"KXNFLGAME",` +
			`"title":"Kansas City vs Los Angeles C","strike_date":"2025-09-07T00:00:00Z"},"markets":[]}`))
	}))
	defer srv.Close()

	ev, err := newTestClient(srv).FetchEvent(context.Background(), "KXNFLGAME-25SEP07KCLAC")
	require.NoError(t, err)
	assert.Equal(t, "KXNFLGAME", ev.SeriesTicker)
	assert.Equal(t, int64(1757203200), ev.StrikeTime)
	assert.Equal(t, []string{"Kansas City", "Los Angeles C"}, ev.Teams)
}

func TestClient_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"candles":[]}`))
	}))
	defer srv.Close()

	obs, err := newTestClient(srv).FetchCandles(context.Background(), "S", "E", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, obs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarkets(context.Background(), "NOPE")
	require.Error(t, err)

	var se *kalshi.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractTeams(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Kansas City vs Los Angeles C", []string{"Kansas City", "Los Angeles C"}},
		{"Dallas vs. Philadelphia", []string{"Dallas", "Philadelphia"}},
		{"Baltimore @ Buffalo", []string{"Baltimore", "Buffalo"}},
		{"Detroit VERSUS Green Bay", []string{"Detroit", "Green Bay"}},
		{"Pro Football Championship", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kalshi.ExtractTeams(tt.title), tt.title)
	}
}
