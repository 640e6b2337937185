package engine

import "github.com/alejandrodnm/reversionbot/internal/domain"

// ComputeExcursions measures the worst and best move against the entry
// price over the trades in (entry.Time, exitTime]. The entry price is part
// of the path, so both excursions are >= 0 and entry-MAE is the path
// minimum. ok=false when no trade was observed during the hold.
func ComputeExcursions(obs []domain.Observation, entry domain.EntryFill, exitTime int64) (domain.Excursion, bool) {
	lo, hi := entry.PriceCents, entry.PriceCents
	seen := false
	for _, o := range obs {
		if o.Timestamp > exitTime {
			break
		}
		if !o.IsTrade() || o.Timestamp <= entry.Time {
			continue
		}
		seen = true
		lo = min(lo, o.PriceCents)
		hi = max(hi, o.PriceCents)
	}
	if !seen {
		return domain.Excursion{}, false
	}
	return domain.Excursion{
		MAECents: entry.PriceCents - lo,
		MFECents: hi - entry.PriceCents,
	}, true
}

// ComputePnL is per-contract accounting in cents. Fees are charged on both
// legs. Slippage is already inside the prices and is only reported.
func ComputePnL(entryCents, exitCents, feeCents, slippageCents int) domain.PnL {
	gross := exitCents - entryCents
	fees := 2 * feeCents
	return domain.PnL{
		GrossCents:    gross,
		NetCents:      gross - fees,
		FeesCents:     fees,
		SlippageCents: 2 * slippageCents,
	}
}
