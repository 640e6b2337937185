package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBase = "https://api.elections.kalshi.com/trade-api/v2"

	// La API pública no documenta límites; 5 req/s (una cada 200ms) es lo
	// que aguanta sin 429 en las pruebas.
	defaultMinInterval = 200 * time.Millisecond

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de la API pública de Kalshi con rate limiting,
// retries y paginación por cursor. No necesita autenticación.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter

	// CandleInterval is the candle period in minutes (1, 60 or 1440).
	CandleInterval int
}

// NewClient crea un Client contra base. Si base está vacío usa producción;
// minInterval <= 0 usa el intervalo por defecto entre requests.
func NewClient(base string, minInterval time.Duration) *Client {
	if base == "" {
		base = DefaultBase
	}
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	return &Client{
		http:           &http.Client{Timeout: 30 * time.Second},
		base:           strings.TrimRight(base, "/"),
		limiter:        rate.NewLimiter(rate.Every(minInterval), 1),
		CandleInterval: 1,
	}
}

// Base devuelve la URL base configurada.
func (c *Client) Base() string { return c.base }

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	slog.Debug("kalshi GET", "url", u)
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by kalshi", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// StatusError is a non-retryable 4xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Code, e.Body)
}

// paginate sigue el cursor hasta que la API devuelve una página vacía o sin
// cursor. fetch decodifica una página y devuelve su cursor y nº de items.
func (c *Client) paginate(ctx context.Context, path string, params url.Values, fetch func(page []byte) (string, int, error)) error {
	if params == nil {
		params = url.Values{}
	}
	for {
		var raw json.RawMessage
		if err := c.get(ctx, path, params, &raw); err != nil {
			return err
		}
		cursor, n, err := fetch(raw)
		if err != nil {
			return fmt.Errorf("decode page: %w", err)
		}
		if n == 0 || cursor == "" {
			return nil
		}
		params.Set("cursor", cursor)
	}
}
