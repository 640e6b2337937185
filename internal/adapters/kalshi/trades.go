package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

const (
	tradesPath  = "/markets/trades"
	tradesLimit = 500
)

// FetchTrades obtiene la cinta completa de un mercado en [from, to],
// ordenada por timestamp. Los trades con precio fuera de [0,100] se
// descartan con un warning.
func (c *Client) FetchTrades(ctx context.Context, ticker string, from, to int64) ([]domain.Observation, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(tradesLimit))
	params.Set("ticker", ticker)
	if from > 0 {
		params.Set("min_ts", strconv.FormatInt(from, 10))
	}
	if to > 0 {
		params.Set("max_ts", strconv.FormatInt(to, 10))
	}

	var raw []apiTrade
	err := c.paginate(ctx, tradesPath, params, func(page []byte) (string, int, error) {
		var resp tradesResponse
		if err := json.Unmarshal(page, &resp); err != nil {
			return "", 0, err
		}
		raw = append(raw, resp.Trades...)
		return resp.Cursor, len(resp.Trades), nil
	})
	if err != nil {
		return nil, fmt.Errorf("kalshi.FetchTrades: %s: %w", ticker, err)
	}

	obs := mapTrades(raw)
	slog.Debug("kalshi trades fetched", "ticker", ticker, "count", len(obs), "dropped", len(raw)-len(obs))
	return obs, nil
}

// FetchCandles obtiene los candles de un evento en [from, to] con el
// intervalo configurado en el client, ordenados por inicio de periodo.
func (c *Client) FetchCandles(ctx context.Context, series, eventTicker string, from, to int64) ([]domain.Observation, error) {
	path := fmt.Sprintf("/series/%s/events/%s/candlesticks", url.PathEscape(series), url.PathEscape(eventTicker))
	params := url.Values{}
	params.Set("period_interval", strconv.Itoa(c.CandleInterval))
	if from > 0 {
		params.Set("start_ts", strconv.FormatInt(from, 10))
	}
	if to > 0 {
		params.Set("end_ts", strconv.FormatInt(to, 10))
	}

	var resp candlesResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.FetchCandles: %s/%s: %w", series, eventTicker, err)
	}

	obs := mapCandles(resp.Candles)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Timestamp < obs[j].Timestamp })
	slog.Debug("kalshi candles fetched", "event", eventTicker, "count", len(obs))
	return obs, nil
}
