package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

const kickoff int64 = 1_700_000_000

func testConfig(t *testing.T, mutate ...func(*domain.BacktestParams)) domain.BacktestConfig {
	t.Helper()
	p := domain.BacktestParams{
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
	}
	for _, m := range mutate {
		m(&p)
	}
	cfg, err := domain.NewBacktestConfig(p)
	require.NoError(t, err)
	return cfg
}

// --- PregameProbability ---

func TestPregameProbability_LastCandleClose(t *testing.T) {
	obs := []domain.Observation{
		domain.NewCandle(kickoff-600, 60, 61, 59, 60, 5),
		domain.NewTrade(kickoff-300, 70, 10),
		domain.NewCandle(kickoff-60, 61, 63, 60, 62, 5),
	}
	p, ok := PregameProbability(obs, kickoff, 900)
	require.True(t, ok)
	assert.InDelta(t, 0.62, p, 1e-12)
}

func TestPregameProbability_TradeVWAP(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff-500, 60, 2),
		domain.NewTrade(kickoff-400, 70, 1),
		domain.NewTrade(kickoff-100, 50, 0), // sin tamaño: cuenta como 1
	}
	p, ok := PregameProbability(obs, kickoff, 900)
	require.True(t, ok)
	assert.InDelta(t, 0.60, p, 1e-12)
}

func TestPregameProbability_WindowBounds(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff-901, 10, 1), // antes de la ventana
		domain.NewTrade(kickoff-900, 70, 1), // inicio inclusivo
		domain.NewTrade(kickoff, 10, 1),     // kickoff exclusivo
	}
	p, ok := PregameProbability(obs, kickoff, 900)
	require.True(t, ok)
	assert.InDelta(t, 0.70, p, 1e-12)
}

func TestPregameProbability_NoData(t *testing.T) {
	obs := []domain.Observation{domain.NewTrade(kickoff+10, 70, 1)}
	_, ok := PregameProbability(obs, kickoff, 900)
	assert.False(t, ok)

	_, ok = PregameProbability(nil, kickoff, 900)
	assert.False(t, ok)
}

// --- IsFavoriteQualified ---

func TestIsFavoriteQualified_Boundary(t *testing.T) {
	assert.False(t, IsFavoriteQualified(0.57, 0.57))
	assert.True(t, IsFavoriteQualified(0.5701, 0.57))
	assert.False(t, IsFavoriteQualified(0.5699, 0.57))
	// 57¢ convertido a probabilidad sigue sin calificar
	assert.False(t, IsFavoriteQualified(domain.CentsToProbability(57), 0.57))
}

func TestIsFavoriteQualified_VWAPJustAboveThreshold(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff-300, 57, 999),
		domain.NewTrade(kickoff-200, 58, 1),
	}
	p, ok := PregameProbability(obs, kickoff, 900)
	require.True(t, ok)
	assert.InDelta(t, 0.57001, p, 1e-12)
	assert.True(t, IsFavoriteQualified(p, 0.57))
}

// --- DetectTrigger ---

func TestDetectTrigger_CandleLow(t *testing.T) {
	obs := []domain.Observation{
		domain.NewCandle(kickoff+60, 60, 61, 55, 58, 1),
		domain.NewCandle(kickoff+120, 52, 53, 48, 51, 1),
	}
	trig, ok := DetectTrigger(obs, kickoff, kickoff+5400, 0.50)
	require.True(t, ok)
	assert.Equal(t, kickoff+120, trig.Time)
	assert.Equal(t, 48, trig.PriceCents)
	assert.Equal(t, domain.KindCandle, trig.Source)
	assert.Equal(t, 0.50, trig.ThresholdUsed)
}

func TestDetectTrigger_StrictlyBelow(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff+10, 50, 1),
		domain.NewTrade(kickoff+20, 49, 1),
	}
	trig, ok := DetectTrigger(obs, kickoff, kickoff+5400, 0.50)
	require.True(t, ok)
	assert.Equal(t, kickoff+20, trig.Time)
}

func TestDetectTrigger_FirstCrossingWins(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff+10, 45, 1),
		domain.NewTrade(kickoff+20, 60, 1),
		domain.NewTrade(kickoff+30, 30, 1),
	}
	trig, ok := DetectTrigger(obs, kickoff, kickoff+5400, 0.50)
	require.True(t, ok)
	assert.Equal(t, kickoff+10, trig.Time)
	assert.Equal(t, 45, trig.PriceCents)
}

func TestDetectTrigger_CandlesTakePrecedence(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff+10, 40, 1), // ignorado: hay candles en la ventana
		domain.NewCandle(kickoff+60, 55, 56, 54, 55, 1),
		domain.NewCandle(kickoff+120, 50, 51, 49, 50, 1),
	}
	trig, ok := DetectTrigger(obs, kickoff, kickoff+5400, 0.50)
	require.True(t, ok)
	assert.Equal(t, kickoff+120, trig.Time)
	assert.Equal(t, domain.KindCandle, trig.Source)
}

func TestDetectTrigger_WindowEndExclusive(t *testing.T) {
	obs := []domain.Observation{
		domain.NewTrade(kickoff-10, 30, 1),
		domain.NewTrade(kickoff+5400, 30, 1),
	}
	_, ok := DetectTrigger(obs, kickoff, kickoff+5400, 0.50)
	assert.False(t, ok)
}

func TestDetectTrigger_FirstSatisfyingTimestamp(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		obs := randomStream(rng, kickoff-600, 40)
		start, end := kickoff, kickoff+1800

		trig, ok := DetectTrigger(obs, start, end, 0.50)

		useCandles := false
		for _, o := range obs {
			if o.Timestamp >= start && o.Timestamp < end && o.IsCandle() {
				useCandles = true
			}
		}
		var want *domain.Observation
		for i := range obs {
			o := obs[i]
			if o.Timestamp < start || o.Timestamp >= end || o.IsCandle() != useCandles {
				continue
			}
			if o.TriggerCents() < 50 && (want == nil || o.Timestamp < want.Timestamp) {
				want = &obs[i]
			}
		}
		if want == nil {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, want.Timestamp, trig.Time)
		assert.Equal(t, want.TriggerCents(), trig.PriceCents)
	}
}

// --- ResolveFill ---

func TestResolveFill_FirstTradeInGrace(t *testing.T) {
	trig := domain.TriggerEvent{Time: kickoff + 100, PriceCents: 48}
	obs := []domain.Observation{
		domain.NewTrade(kickoff+99, 40, 1),
		domain.NewCandle(kickoff+100, 48, 49, 47, 48, 1),
		domain.NewTrade(kickoff+105, 47, 1),
		domain.NewTrade(kickoff+110, 44, 1),
	}
	fill, ok := ResolveFill(obs, trig, 15, 1)
	require.True(t, ok)
	assert.Equal(t, kickoff+105, fill.Time)
	assert.Equal(t, 48, fill.PriceCents)
	assert.Equal(t, 47, fill.RawCents)
	assert.Equal(t, domain.FillTradeWithSlippage, fill.Source)
}

func TestResolveFill_TriggerTimeInclusive(t *testing.T) {
	trig := domain.TriggerEvent{Time: kickoff + 100}
	obs := []domain.Observation{domain.NewTrade(kickoff+100, 45, 1)}
	fill, ok := ResolveFill(obs, trig, 15, 1)
	require.True(t, ok)
	assert.Equal(t, kickoff+100, fill.Time)
}

func TestResolveFill_GraceBoundaryInclusive(t *testing.T) {
	trig := domain.TriggerEvent{Time: kickoff + 100}

	fill, ok := ResolveFill([]domain.Observation{domain.NewTrade(kickoff+115, 45, 1)}, trig, 15, 1)
	require.True(t, ok)
	assert.Equal(t, kickoff+115, fill.Time)

	_, ok = ResolveFill([]domain.Observation{domain.NewTrade(kickoff+116, 45, 1)}, trig, 15, 1)
	assert.False(t, ok)
}

func TestResolveFill_ClampsSlippage(t *testing.T) {
	trig := domain.TriggerEvent{Time: kickoff}
	fill, ok := ResolveFill([]domain.Observation{domain.NewTrade(kickoff, 99, 1)}, trig, 15, 5)
	require.True(t, ok)
	assert.Equal(t, 100, fill.PriceCents)
}

func TestResolveFill_OnlyCandlesIsUnfillable(t *testing.T) {
	trig := domain.TriggerEvent{Time: kickoff}
	obs := []domain.Observation{domain.NewCandle(kickoff+5, 45, 46, 44, 45, 1)}
	_, ok := ResolveFill(obs, trig, 15, 1)
	assert.False(t, ok)
}

// randomStream genera un stream ordenado mezclando trades y candles.
func randomStream(rng *rand.Rand, from int64, n int) []domain.Observation {
	obs := make([]domain.Observation, 0, n)
	ts := from
	for i := 0; i < n; i++ {
		ts += int64(rng.Intn(120))
		p := 30 + rng.Intn(50)
		if rng.Intn(4) == 0 {
			low := max(p-rng.Intn(10), 0)
			high := min(p+rng.Intn(10), 100)
			obs = append(obs, domain.NewCandle(ts, p, high, low, p, rng.Intn(50)))
			continue
		}
		obs = append(obs, domain.NewTrade(ts, p, rng.Intn(5)))
	}
	return obs
}
