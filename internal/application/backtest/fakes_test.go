package backtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// 2025-09-07 17:00 UTC
const kickoff int64 = 1757264400

func testStrategy(t *testing.T) domain.BacktestConfig {
	t.Helper()
	cfg, err := domain.NewBacktestConfig(domain.BacktestParams{
		PregameLookbackSec:   900,
		FavoriteThreshold:    0.60,
		TriggerThreshold:     0.50,
		MonitorWindowSec:     5400,
		FullGameExtensionSec: 6000,
		ReversionBands:       []float64{0.55, 0.60, 0.65, 0.70},
		FeeCents:             1,
		SlippageCents:        1,
		Timeout:              domain.TimeoutHalftime,
		GraceSec:             15,
	})
	require.NoError(t, err)
	return cfg
}

type fakeMarketData struct {
	mu         sync.Mutex
	events     []domain.Event
	markets    map[string][]domain.Market
	trades     map[string][]domain.Observation // por ticker de mercado
	candles    map[string][]domain.Observation // por ticker de evento
	candleErr  error
	tradeErr   map[string]error
	tradeCalls int
}

func newFakeMarketData() *fakeMarketData {
	return &fakeMarketData{
		markets:  make(map[string][]domain.Market),
		trades:   make(map[string][]domain.Observation),
		candles:  make(map[string][]domain.Observation),
		tradeErr: make(map[string]error),
	}
}

// addGame registra un partido con su mercado WIN y un mercado de spread.
func (f *fakeMarketData) addGame(eventTicker string, strike int64, trades ...domain.Observation) domain.Game {
	ev := domain.Event{EventTicker: eventTicker, SeriesTicker: "KXNFLGAME", StrikeTime: strike}
	win := domain.Market{Ticker: eventTicker + "-KC", EventTicker: eventTicker, Title: "Will Kansas City win?"}
	f.events = append(f.events, ev)
	f.markets[eventTicker] = []domain.Market{
		{Ticker: eventTicker + "-SPR", EventTicker: eventTicker, Title: "Spread 3.5"},
		win,
	}
	f.trades[win.Ticker] = trades
	return domain.Game{Event: ev, Market: win}
}

func (f *fakeMarketData) FetchEvents(_ context.Context, _ string) ([]domain.Event, error) {
	return f.events, nil
}

func (f *fakeMarketData) FetchMarkets(_ context.Context, eventTicker string) ([]domain.Market, error) {
	return f.markets[eventTicker], nil
}

func (f *fakeMarketData) FetchTrades(_ context.Context, ticker string, _, _ int64) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tradeCalls++
	if err := f.tradeErr[ticker]; err != nil {
		return nil, err
	}
	return f.trades[ticker], nil
}

func (f *fakeMarketData) FetchCandles(_ context.Context, _, eventTicker string, _, _ int64) ([]domain.Observation, error) {
	if f.candleErr != nil {
		return nil, f.candleErr
	}
	return f.candles[eventTicker], nil
}

type fakeCache struct {
	data map[string][]domain.Observation
	puts int
}

func (c *fakeCache) GetEventData(_ context.Context, ticker string, _, _ int64) ([]domain.Observation, bool, error) {
	obs, ok := c.data[ticker]
	return obs, ok, nil
}

func (c *fakeCache) PutEventData(_ context.Context, ticker string, _, _ int64, obs []domain.Observation) error {
	if c.data == nil {
		c.data = make(map[string][]domain.Observation)
	}
	c.data[ticker] = obs
	c.puts++
	return nil
}

type fakeRunStorage struct {
	saved []domain.BacktestRun
}

func (s *fakeRunStorage) SaveRun(_ context.Context, run domain.BacktestRun) error {
	s.saved = append(s.saved, run)
	return nil
}
func (s *fakeRunStorage) ListRuns(context.Context, int) ([]domain.RunInfo, error) { return nil, nil }
func (s *fakeRunStorage) GetRunTrades(context.Context, string) ([]domain.TradeRecord, error) {
	return nil, nil
}
func (s *fakeRunStorage) Close() error { return nil }

type fakeArtifacts struct {
	paths []string
	err   error
}

func (a *fakeArtifacts) Write(context.Context, domain.BacktestRun) ([]string, error) {
	return a.paths, a.err
}

type fakeArchiver struct {
	runID string
	paths []string
}

func (a *fakeArchiver) Archive(_ context.Context, runID string, paths []string) error {
	a.runID, a.paths = runID, paths
	return nil
}

var errUpstream = errors.New("upstream 503")

// reversionTrades: favorito a 65¢, cae a 47¢, rebota a 60¢.
func reversionTrades(ref int64) []domain.Observation {
	return []domain.Observation{
		domain.NewTrade(ref-300, 65, 10),
		domain.NewTrade(ref+600, 47, 5),
		domain.NewTrade(ref+700, 52, 1),
		domain.NewTrade(ref+800, 60, 1),
	}
}

// flatTrades: nunca califica como favorito.
func flatTrades(ref int64) []domain.Observation {
	return []domain.Observation{
		domain.NewTrade(ref-300, 52, 10),
		domain.NewTrade(ref+600, 40, 5),
	}
}
