package domain

import "time"

// TriggerEvent is the first crossing below the trigger threshold.
type TriggerEvent struct {
	Time          int64
	PriceCents    int
	ThresholdUsed float64
	Source        ObservationKind // candle (low) or trade
}

// FillSource explains where an entry or exit price came from.
type FillSource string

const (
	FillTradeWithSlippage FillSource = "trade_with_slippage"
	FillTimeout           FillSource = "timeout"
	FillNoData            FillSource = "no_data"
	FillEntryPrice        FillSource = "entry_price"
)

// EntryFill is the executed entry for a trigger.
type EntryFill struct {
	Time       int64
	PriceCents int // fill price + slippage, clamped
	RawCents   int // observed trade price before slippage
	Source     FillSource
}

// Probability devuelve el precio de entrada como probabilidad.
func (e EntryFill) Probability() float64 {
	return CentsToProbability(e.PriceCents)
}

// ExitReason is the rule that closed a position.
type ExitReason string

const (
	ExitReversionBand ExitReason = "reversion_band"
	ExitTimeout       ExitReason = "timeout"
	ExitAdverseStop   ExitReason = "adverse_stop"
)

// ExitEvent is the single exit produced for an entry.
type ExitEvent struct {
	Time       int64
	PriceCents int
	Reason     ExitReason
	BandHit    *float64 // only for ExitReversionBand
	Source     FillSource
	NoData     bool // timeout with no price at all; exit priced at entry
}

// Probability devuelve el precio de salida como probabilidad.
func (e ExitEvent) Probability() float64 {
	return CentsToProbability(e.PriceCents)
}

// HitBand reports whether the exit hit the given band.
func (e ExitEvent) HitBand(band float64) bool {
	return e.BandHit != nil && ProbabilityBasis(*e.BandHit) == ProbabilityBasis(band)
}

// Excursion holds MAE/MFE in cents; both are >= 0.
type Excursion struct {
	MAECents int
	MFECents int
}

// MAE devuelve la excursión adversa máxima como delta de probabilidad.
func (x Excursion) MAE() float64 { return CentsToProbability(x.MAECents) }

// MFE devuelve la excursión favorable máxima como delta de probabilidad.
func (x Excursion) MFE() float64 { return CentsToProbability(x.MFECents) }

// PnL is the per-contract accounting of one trade, in cents.
// Slippage is already inside the entry/exit prices and is reported apart.
type PnL struct {
	GrossCents    int
	NetCents      int
	FeesCents     int
	SlippageCents int
}

// TradeRecord is the immutable output unit of the backtest: one per
// qualifying, filled event.
type TradeRecord struct {
	EventID       string
	MarketTicker  string
	ReferenceTime int64
	PregameProb   float64
	Trigger       TriggerEvent
	Entry         EntryFill
	Exit          ExitEvent
	PnL
	Excursion   *Excursion // nil when no observation was seen during the hold
	HoldTimeSec int64
}

// IsWin devuelve true si el P&L neto es positivo.
func (r TradeRecord) IsWin() bool {
	return r.NetCents > 0
}

// EntryTime devuelve la hora de entrada como time.Time UTC.
func (r TradeRecord) EntryTime() time.Time { return time.Unix(r.Entry.Time, 0).UTC() }

// ExitTime devuelve la hora de salida como time.Time UTC.
func (r TradeRecord) ExitTime() time.Time { return time.Unix(r.Exit.Time, 0).UTC() }
