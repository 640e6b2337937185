package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/ports"
)

const dateLayout = "2006-01-02"

// Loader turns exchange data into engine input: it discovers games and
// materialises each game's merged observation stream, going through the
// cache when one is configured.
type Loader struct {
	data  ports.MarketData
	cache ports.MarketDataCache // optional
	cfg   domain.BacktestConfig
}

// NewLoader crea un Loader. cache puede ser nil.
func NewLoader(data ports.MarketData, cache ports.MarketDataCache, cfg domain.BacktestConfig) *Loader {
	return &Loader{data: data, cache: cache, cfg: cfg}
}

// Discover lists the series' events whose kickoff falls in [from, to]
// (dates YYYY-MM-DD, UTC, both inclusive; empty means unbounded) and pairs
// each with its WIN market. Events without a WIN market are dropped.
func (l *Loader) Discover(ctx context.Context, series, from, to string) ([]domain.Game, error) {
	lo, hi, err := dateBounds(from, to)
	if err != nil {
		return nil, fmt.Errorf("backtest.Discover: %w", err)
	}

	events, err := l.data.FetchEvents(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("backtest.Discover: %w", err)
	}

	var games []domain.Game
	for _, ev := range events {
		if ev.HasStrikeTime() && (ev.StrikeTime < lo || ev.StrikeTime > hi) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		markets, err := l.data.FetchMarkets(ctx, ev.EventTicker)
		if err != nil {
			slog.Warn("fetch markets failed", "event", ev.EventTicker, "err", err)
			continue
		}
		m, ok := winMarket(markets)
		if !ok {
			slog.Debug("no WIN market, skipping", "event", ev.EventTicker)
			continue
		}
		games = append(games, domain.Game{Event: ev, Market: m})
	}

	slog.Info("games discovered", "series", series, "events", len(events), "games", len(games))
	return games, nil
}

// Load returns the engine input for one game. ok=false means the game must
// be skipped (no kickoff time, or neither candles nor trades in the window).
func (l *Loader) Load(ctx context.Context, g domain.Game) (domain.EventData, bool, error) {
	if !g.Event.HasStrikeTime() {
		slog.Warn("event has no kickoff time, skipping", "event", g.Event.EventTicker)
		return domain.EventData{}, false, nil
	}
	ref := g.Event.StrikeTime
	from, to := l.cfg.DataWindow(ref)

	obs, err := l.observations(ctx, g, from, to)
	if err != nil {
		return domain.EventData{}, false, err
	}
	if len(obs) == 0 {
		slog.Warn("no candles or trades for event, skipping", "event", g.Event.EventTicker)
		return domain.EventData{}, false, nil
	}

	return domain.EventData{
		Context:      l.cfg.Context(g.Event.EventTicker, ref),
		MarketTicker: g.Market.Ticker,
		Observations: obs,
	}, true, nil
}

func (l *Loader) observations(ctx context.Context, g domain.Game, from, to int64) ([]domain.Observation, error) {
	ticker := g.Market.Ticker
	if l.cache != nil {
		obs, ok, err := l.cache.GetEventData(ctx, ticker, from, to)
		if err != nil {
			slog.Warn("cache read failed", "ticker", ticker, "err", err)
		} else if ok {
			slog.Debug("cache hit", "ticker", ticker, "observations", len(obs))
			return obs, nil
		}
	}

	candles, candleErr := l.data.FetchCandles(ctx, g.Event.SeriesTicker, g.Event.EventTicker, from, to)
	if candleErr != nil {
		// Sin candles el engine cae a trades; no es fatal.
		slog.Warn("fetch candles failed, using trades only", "event", g.Event.EventTicker, "err", candleErr)
		candles = nil
	}
	trades, err := l.data.FetchTrades(ctx, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("backtest.Load: %s: %w", g.Event.EventTicker, err)
	}

	obs := domain.MergeObservations(candles, trades)
	slog.Debug("event data fetched", "event", g.Event.EventTicker, "candles", len(candles), "trades", len(trades))

	// Un stream parcial no se cachea: el siguiente Load reintenta los candles.
	if l.cache != nil && candleErr == nil {
		if err := l.cache.PutEventData(ctx, ticker, from, to, obs); err != nil {
			slog.Warn("cache write failed", "ticker", ticker, "err", err)
		}
	}
	return obs, nil
}

func winMarket(markets []domain.Market) (domain.Market, bool) {
	for _, m := range markets {
		if m.IsWinMarket() {
			return m, true
		}
	}
	return domain.Market{}, false
}

func dateBounds(from, to string) (int64, int64, error) {
	lo, hi := int64(0), int64(1<<62)
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start date %q: %w", from, err)
		}
		lo = t.Unix()
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end date %q: %w", to, err)
		}
		hi = t.Add(24*time.Hour - time.Second).Unix()
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("start date %s after end date %s", from, to)
	}
	return lo, hi, nil
}
