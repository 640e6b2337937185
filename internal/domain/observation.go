package domain

import (
	"fmt"
	"math"
	"time"
)

// ObservationKind distingue un print de la cinta de un candle agregado.
type ObservationKind uint8

const (
	KindTrade ObservationKind = iota + 1
	KindCandle
)

func (k ObservationKind) String() string {
	switch k {
	case KindTrade:
		return "trade"
	case KindCandle:
		return "candle"
	default:
		return "unknown"
	}
}

// Observation is one price point of a market: either a trade print or a candle.
//
// For trades PriceCents is the print and Open/High/Low mirror it.
// For candles PriceCents is the close and Timestamp is the period start.
// Size is contracts for trades and volume for candles; 0 means unknown.
type Observation struct {
	Kind       ObservationKind
	Timestamp  int64 // unix seconds UTC
	PriceCents int
	OpenCents  int
	HighCents  int
	LowCents   int
	Size       int
}

// NewTrade builds a trade-style observation.
func NewTrade(ts int64, priceCents, size int) Observation {
	return Observation{
		Kind:       KindTrade,
		Timestamp:  ts,
		PriceCents: priceCents,
		OpenCents:  priceCents,
		HighCents:  priceCents,
		LowCents:   priceCents,
		Size:       size,
	}
}

// NewCandle builds a candle-style observation.
func NewCandle(ts int64, open, high, low, close, volume int) Observation {
	return Observation{
		Kind:       KindCandle,
		Timestamp:  ts,
		PriceCents: close,
		OpenCents:  open,
		HighCents:  high,
		LowCents:   low,
		Size:       volume,
	}
}

func (o Observation) IsTrade() bool  { return o.Kind == KindTrade }
func (o Observation) IsCandle() bool { return o.Kind == KindCandle }

// TriggerCents is the price used for trigger detection: the candle low
// (worst intra-bar excursion) or the trade's own price.
func (o Observation) TriggerCents() int {
	if o.Kind == KindCandle {
		return o.LowCents
	}
	return o.PriceCents
}

// Weight is the VWAP weight of a trade. Trades with unknown size count once.
func (o Observation) Weight() int {
	if o.Size > 0 {
		return o.Size
	}
	return 1
}

// Probability devuelve el precio como probabilidad implícita (0–1).
func (o Observation) Probability() float64 {
	return CentsToProbability(o.PriceCents)
}

// Time devuelve el timestamp como time.Time UTC.
func (o Observation) Time() time.Time {
	return time.Unix(o.Timestamp, 0).UTC()
}

// ValidateObservations checks the engine preconditions: known kind, prices in
// [0,100], candle low <= close/open <= high, timestamps non-decreasing.
// The engine never re-sorts; an unsorted stream is a caller bug.
func ValidateObservations(obs []Observation) error {
	var prev int64 = math.MinInt64
	for i, o := range obs {
		if o.Kind != KindTrade && o.Kind != KindCandle {
			return fmt.Errorf("%w: observation %d has unknown kind %d", ErrMalformedInput, i, o.Kind)
		}
		if o.Timestamp < prev {
			return fmt.Errorf("%w: observation %d at %d precedes %d", ErrMalformedInput, i, o.Timestamp, prev)
		}
		prev = o.Timestamp
		for _, p := range [...]int{o.PriceCents, o.OpenCents, o.HighCents, o.LowCents} {
			if !ValidCents(p) {
				return fmt.Errorf("%w: observation %d price %d outside [0,100]", ErrMalformedInput, i, p)
			}
		}
		if o.Kind == KindCandle {
			if o.LowCents > o.HighCents ||
				o.PriceCents < o.LowCents || o.PriceCents > o.HighCents ||
				o.OpenCents < o.LowCents || o.OpenCents > o.HighCents {
				return fmt.Errorf("%w: candle %d at %d has inconsistent OHLC %d/%d/%d/%d",
					ErrMalformedInput, i, o.Timestamp, o.OpenCents, o.HighCents, o.LowCents, o.PriceCents)
			}
		}
		if o.Size < 0 {
			return fmt.Errorf("%w: observation %d has negative size %d", ErrMalformedInput, i, o.Size)
		}
	}
	return nil
}

// MergeObservations merges two time-sorted streams into one. On equal
// timestamps the element of a comes first, so callers pass candles first
// to keep the aggregated bar ahead of the prints it covers.
func MergeObservations(a, b []Observation) []Observation {
	out := make([]Observation, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Timestamp < a[i].Timestamp {
			out = append(out, b[j])
			j++
			continue
		}
		out = append(out, a[i])
		i++
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
