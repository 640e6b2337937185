package engine

// signal.go: pregame reference probability, favorite qualification and
// first-crossing trigger detection. Every function here is pure and assumes
// the observation stream is sorted by timestamp.

import "github.com/alejandrodnm/reversionbot/internal/domain"

// PregameProbability estimates the implied probability over
// [ref-lookback, ref). The close of the last in-window candle wins; without
// candles it falls back to the size-weighted average of the trades.
// ok=false means there was no observation at all, which is not 0%.
func PregameProbability(obs []domain.Observation, ref, lookback int64) (float64, bool) {
	start := ref - lookback

	var (
		lastCandle *domain.Observation
		weighted   int64
		weights    int64
	)
	for i := range obs {
		o := &obs[i]
		if o.Timestamp < start {
			continue
		}
		if o.Timestamp >= ref {
			break
		}
		if o.IsCandle() {
			lastCandle = o
			continue
		}
		w := int64(o.Weight())
		weighted += int64(o.PriceCents) * w
		weights += w
	}

	if lastCandle != nil {
		return lastCandle.Probability(), true
	}
	if weights == 0 {
		return 0, false
	}
	return float64(weighted) / float64(weights) / 100.0, true
}

// IsFavoriteQualified is a strict comparison on the raw probability: p equal
// to the threshold does not qualify, a VWAP a hair above it does.
func IsFavoriteQualified(p, threshold float64) bool {
	return p > threshold
}

// DetectTrigger returns the first observation in [start, end) whose price is
// strictly below threshold. Candles are judged by their low; if any candle
// lies in the window, trades are ignored for detection.
func DetectTrigger(obs []domain.Observation, start, end int64, threshold float64) (domain.TriggerEvent, bool) {
	lo, hi := window(obs, start, end)
	in := obs[lo:hi]

	kind := domain.KindTrade
	for _, o := range in {
		if o.IsCandle() {
			kind = domain.KindCandle
			break
		}
	}

	limit := domain.ProbabilityBasis(threshold)
	for _, o := range in {
		if o.Kind != kind {
			continue
		}
		if domain.CentsBasis(o.TriggerCents()) < limit {
			return domain.TriggerEvent{
				Time:          o.Timestamp,
				PriceCents:    o.TriggerCents(),
				ThresholdUsed: threshold,
				Source:        kind,
			}, true
		}
	}
	return domain.TriggerEvent{}, false
}

// window returns the index range of obs with start <= t < end.
func window(obs []domain.Observation, start, end int64) (int, int) {
	lo := 0
	for lo < len(obs) && obs[lo].Timestamp < start {
		lo++
	}
	hi := lo
	for hi < len(obs) && obs[hi].Timestamp < end {
		hi++
	}
	return lo, hi
}
