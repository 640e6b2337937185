package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

const (
	eventsPath  = "/events"
	marketsPath = "/markets"
	eventsLimit = 200
)

// FetchEvents devuelve todos los eventos de la serie, paginando con cursor.
func (c *Client) FetchEvents(ctx context.Context, series string) ([]domain.Event, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(eventsLimit))
	if series != "" {
		params.Set("series_ticker", series)
	}

	var all []domain.Event
	err := c.paginate(ctx, eventsPath, params, func(page []byte) (string, int, error) {
		var resp eventsResponse
		if err := json.Unmarshal(page, &resp); err != nil {
			return "", 0, err
		}
		for _, e := range resp.Events {
			all = append(all, mapEvent(e))
		}
		return resp.Cursor, len(resp.Events), nil
	})
	if err != nil {
		return nil, fmt.Errorf("kalshi.FetchEvents: %w", err)
	}

	slog.Info("kalshi events fetched", "series", series, "total", len(all))
	return all, nil
}

// FetchEvent devuelve un evento por ticker.
func (c *Client) FetchEvent(ctx context.Context, eventTicker string) (domain.Event, error) {
	var resp eventResponse
	if err := c.get(ctx, eventsPath+"/"+url.PathEscape(eventTicker), nil, &resp); err != nil {
		return domain.Event{}, fmt.Errorf("kalshi.FetchEvent: %s: %w", eventTicker, err)
	}
	return mapEvent(resp.Event), nil
}

// FetchMarkets devuelve los mercados de un evento.
func (c *Client) FetchMarkets(ctx context.Context, eventTicker string) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(eventsLimit))
	params.Set("event_ticker", eventTicker)

	var all []domain.Market
	err := c.paginate(ctx, marketsPath, params, func(page []byte) (string, int, error) {
		var resp marketsResponse
		if err := json.Unmarshal(page, &resp); err != nil {
			return "", 0, err
		}
		for _, m := range resp.Markets {
			all = append(all, mapMarket(m))
		}
		return resp.Cursor, len(resp.Markets), nil
	})
	if err != nil {
		return nil, fmt.Errorf("kalshi.FetchMarkets: %s: %w", eventTicker, err)
	}
	return all, nil
}

// FetchMarket devuelve un mercado por ticker.
func (c *Client) FetchMarket(ctx context.Context, ticker string) (domain.Market, error) {
	var resp marketResponse
	if err := c.get(ctx, marketsPath+"/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("kalshi.FetchMarket: %s: %w", ticker, err)
	}
	return mapMarket(resp.Market), nil
}

// FetchQuote returns the market's top of book, stamped with the local clock.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	m, err := c.FetchMarket(ctx, ticker)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Ticker:    m.Ticker,
		YesBid:    m.YesBid,
		YesAsk:    m.YesAsk,
		LastPrice: m.LastPrice,
		Timestamp: now().Unix(),
	}, nil
}
