package domain

import (
	"fmt"
	"strings"
	"time"
)

// Event representa un evento de Kalshi (un partido concreto).
type Event struct {
	EventTicker  string
	SeriesTicker string
	Title        string
	Subtitle     string
	Category     string
	StrikeTime   int64    // kickoff/puck-drop en unix seconds; 0 si la API no lo trae
	Teams        []string // extraídos del título ("A vs B", "A @ B")
}

// HasStrikeTime devuelve true si el evento tiene hora de inicio conocida.
func (e Event) HasStrikeTime() bool {
	return e.StrikeTime > 0
}

// Market is a binary contract within an event. Prices are in cents.
type Market struct {
	Ticker      string
	EventTicker string
	Title       string
	Subtitle    string
	Status      string
	YesBid      int
	YesAsk      int
	LastPrice   int
	Volume      int64
	OpenTime    int64
	CloseTime   int64
}

// IsWinMarket reports whether the market is the event's WIN contract.
func (m Market) IsWinMarket() bool {
	return strings.Contains(strings.ToLower(m.Title), "win") ||
		strings.Contains(strings.ToLower(m.Subtitle), "win")
}

// EventContext anchors every relative window of one event. ReferenceTime is
// the kickoff; WindowEnd closes the monitoring (trigger) window.
type EventContext struct {
	EventID       string
	ReferenceTime int64
	WindowEnd     int64
}

// Kickoff devuelve ReferenceTime como time.Time UTC.
func (c EventContext) Kickoff() time.Time {
	return time.Unix(c.ReferenceTime, 0).UTC()
}

// EventData is everything the engine needs for one event: its context and a
// single time-sorted stream of candle and trade observations.
type EventData struct {
	Context      EventContext
	MarketTicker string
	Observations []Observation
}

// Validate checks the event-level preconditions before the engine runs.
func (d EventData) Validate() error {
	if d.Context.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrMalformedInput)
	}
	if d.Context.ReferenceTime <= 0 {
		return fmt.Errorf("%w: event %s has no reference time", ErrMalformedInput, d.Context.EventID)
	}
	if d.Context.WindowEnd < d.Context.ReferenceTime {
		return fmt.Errorf("%w: event %s window ends before reference time", ErrMalformedInput, d.Context.EventID)
	}
	if err := ValidateObservations(d.Observations); err != nil {
		return fmt.Errorf("event %s: %w", d.Context.EventID, err)
	}
	return nil
}

// Counts devuelve cuántos trades y candles contiene el stream.
func (d EventData) Counts() (trades, candles int) {
	for _, o := range d.Observations {
		if o.IsCandle() {
			candles++
		} else {
			trades++
		}
	}
	return trades, candles
}

// Game pairs an event with the WIN market the strategy trades.
type Game struct {
	Event  Event
	Market Market
}
