package backtest

import (
	"math"
	"sort"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Summarize reduces a run's outcomes into counters, per-band metrics and
// overall statistics. It also returns the trade records sorted by
// (ReferenceTime, EventID), independent of evaluation order.
func Summarize(outcomes []domain.Outcome, bands []float64) (domain.Summary, []domain.TradeRecord) {
	var s domain.Summary
	var trades []domain.TradeRecord
	for _, o := range outcomes {
		s.Counters.Record(o)
		if c, ok := o.(domain.Closed); ok {
			trades = append(trades, c.Record)
		}
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].ReferenceTime != trades[j].ReferenceTime {
			return trades[i].ReferenceTime < trades[j].ReferenceTime
		}
		return trades[i].EventID < trades[j].EventID
	})

	s.Bands = bandMetrics(trades, bands)
	s.Overall = overallMetrics(trades)
	return s, trades
}

func bandMetrics(trades []domain.TradeRecord, bands []float64) []domain.BandMetrics {
	out := make([]domain.BandMetrics, 0, len(bands))
	for _, b := range bands {
		var nets []int
		for _, r := range trades {
			if r.Exit.HitBand(b) {
				nets = append(nets, r.NetCents)
			}
		}

		m := domain.BandMetrics{Band: b, Count: len(nets), TotalCents: sum(nets)}
		if len(trades) > 0 {
			m.HitRate = float64(m.Count) / float64(len(trades))
			m.EVPerTrade = float64(m.TotalCents) / float64(len(trades))
		}
		if len(nets) > 0 {
			mean := float64(m.TotalCents) / float64(len(nets))
			med := median(nets)
			wr := winRate(nets)
			m.MeanNetCents, m.MedianCents, m.WinRate = &mean, &med, &wr

			if sd, ok := sampleStdDev(nets, mean); ok {
				m.StdDevCents = &sd
				if sd > 0 {
					sharpe := mean / sd
					m.Sharpe = &sharpe
				}
			}
		}
		out = append(out, m)
	}
	return out
}

func overallMetrics(trades []domain.TradeRecord) domain.OverallMetrics {
	m := domain.OverallMetrics{
		Trades:   len(trades),
		ByReason: make(map[domain.ExitReason]int),
	}
	if len(trades) == 0 {
		return m
	}

	nets := make([]int, 0, len(trades))
	var hold int64
	for _, r := range trades {
		m.TotalGross += r.GrossCents
		m.TotalNet += r.NetCents
		m.TotalFees += r.FeesCents
		m.TotalSlippage += r.SlippageCents
		m.ByReason[r.Exit.Reason]++
		if r.Exit.NoData {
			m.NoDataExits++
		}
		hold += r.HoldTimeSec
		nets = append(nets, r.NetCents)
	}

	n := float64(len(trades))
	wr := winRate(nets)
	ev := float64(m.TotalNet) / n
	avgHold := float64(hold) / n
	m.WinRate, m.EVPerTrade, m.AvgHoldSec = &wr, &ev, &avgHold
	return m
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

func winRate(nets []int) float64 {
	wins := 0
	for _, n := range nets {
		if n > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(nets))
}

// median de una muestra no vacía; promedia los dos centrales si es par.
func median(xs []int) float64 {
	s := append([]int(nil), xs...)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}

// sampleStdDev usa n-1; indefinida con menos de dos valores.
func sampleStdDev(xs []int, mean float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	var ss float64
	for _, x := range xs {
		d := float64(x) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}
