package engine

import "github.com/alejandrodnm/reversionbot/internal/domain"

// ResolveFill takes the chronologically first trade in
// [trigger.Time, trigger.Time+graceSec], both ends inclusive, and pays the
// slippage on top of its price. ok=false means the signal is unfillable.
func ResolveFill(obs []domain.Observation, trigger domain.TriggerEvent, graceSec int64, slippageCents int) (domain.EntryFill, bool) {
	last := trigger.Time + graceSec
	for _, o := range obs {
		if o.Timestamp < trigger.Time || !o.IsTrade() {
			continue
		}
		if o.Timestamp > last {
			break
		}
		return domain.EntryFill{
			Time:       o.Timestamp,
			PriceCents: domain.ClampCents(o.PriceCents + slippageCents),
			RawCents:   o.PriceCents,
			Source:     domain.FillTradeWithSlippage,
		}, true
	}
	return domain.EntryFill{}, false
}
