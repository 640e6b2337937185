package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// TradeProvider obtiene la cinta de trades de un mercado en [from, to].
// Devuelve observaciones tipo trade ordenadas por timestamp.
type TradeProvider interface {
	FetchTrades(ctx context.Context, ticker string, from, to int64) ([]domain.Observation, error)
}

// CandleProvider fetches candle observations of an event, sorted by period start.
type CandleProvider interface {
	FetchCandles(ctx context.Context, series, eventTicker string, from, to int64) ([]domain.Observation, error)
}

// MarketData is everything the loader needs from the exchange.
type MarketData interface {
	EventProvider
	MarketProvider
	TradeProvider
	CandleProvider
}
