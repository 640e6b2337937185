package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// EventProvider lista los partidos de una serie de Kalshi.
type EventProvider interface {
	// FetchEvents devuelve todos los eventos de la serie.
	// Pagina automáticamente con el cursor de la API.
	FetchEvents(ctx context.Context, series string) ([]domain.Event, error)
}

// MarketProvider obtiene los mercados binarios de un evento.
type MarketProvider interface {
	FetchMarkets(ctx context.Context, eventTicker string) ([]domain.Market, error)
}

// QuoteProvider returns the current top of book of a market.
// The live poller uses it once per poll.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, ticker string) (domain.Quote, error)
}
