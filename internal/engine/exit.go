package engine

// exit.go: exit simulation. Rules are applied per trade in chronological
// order and the first match of the first matching trade closes the position:
//
//  1. adverse stop: price <= entry - stop
//  2. reversion band: price >= band, bands tried in ascending order
//
// If nothing matches before the deadline the position times out at the
// deadline at the last known price.

import "github.com/alejandrodnm/reversionbot/internal/domain"

// ExitStep applies the exit rules to a single observation. The live poller
// drives it with each polled price; SimulateExit drives it over history.
func ExitStep(entry domain.EntryFill, o domain.Observation, cfg domain.BacktestConfig) (domain.ExitEvent, bool) {
	price := domain.CentsBasis(o.PriceCents)

	if cfg.AdverseStop != nil {
		floor := domain.CentsBasis(entry.PriceCents) - domain.ProbabilityBasis(*cfg.AdverseStop)
		if price <= floor {
			return exitAt(o, domain.ExitAdverseStop, nil, cfg.SlippageCents), true
		}
	}

	for _, band := range cfg.ReversionBands {
		if price >= domain.ProbabilityBasis(band) {
			b := band
			return exitAt(o, domain.ExitReversionBand, &b, cfg.SlippageCents), true
		}
	}
	return domain.ExitEvent{}, false
}

// SimulateExit walks the trades in (entry.Time, deadline] and always returns
// exactly one exit. A timeout is stamped at the deadline (or one second after
// entry when the fill landed at or past the deadline) and priced at the last
// trade in [entry.Time, deadline]; a fill past the deadline is priced at its
// own trade. With no such trade the exit falls back to the entry price and is
// flagged NoData.
func SimulateExit(obs []domain.Observation, entry domain.EntryFill, deadline int64, cfg domain.BacktestConfig) domain.ExitEvent {
	var last *domain.Observation
	for i := range obs {
		o := &obs[i]
		if o.Timestamp > deadline && o.Timestamp > entry.Time {
			break
		}
		if !o.IsTrade() || o.Timestamp < entry.Time {
			continue
		}
		last = o
		if o.Timestamp == entry.Time {
			continue
		}
		if ev, ok := ExitStep(entry, *o, cfg); ok {
			return ev
		}
	}

	return ForceClose(entry, last, deadline, cfg)
}

// ForceClose builds a timeout exit at the given time priced at last, or at
// the entry price (NoData) when last is nil. The live poller calls it when
// the deadline passes with the position still open.
func ForceClose(entry domain.EntryFill, last *domain.Observation, at int64, cfg domain.BacktestConfig) domain.ExitEvent {
	if at <= entry.Time {
		at = entry.Time + 1
	}
	if last == nil {
		return domain.ExitEvent{
			Time:       at,
			PriceCents: entry.PriceCents,
			Reason:     domain.ExitTimeout,
			Source:     domain.FillNoData,
			NoData:     true,
		}
	}
	return domain.ExitEvent{
		Time:       at,
		PriceCents: domain.ClampCents(last.PriceCents - cfg.SlippageCents),
		Reason:     domain.ExitTimeout,
		Source:     domain.FillTimeout,
	}
}

func exitAt(o domain.Observation, reason domain.ExitReason, band *float64, slippageCents int) domain.ExitEvent {
	return domain.ExitEvent{
		Time:       o.Timestamp,
		PriceCents: domain.ClampCents(o.PriceCents - slippageCents),
		Reason:     reason,
		BandHit:    band,
		Source:     domain.FillTradeWithSlippage,
	}
}
