package domain

import "time"

// Counters are the per-run tallies. Every analyzed event lands in exactly
// one terminal bucket: NoPregameData, NotFavorite, NoTrigger, Unfillable,
// Filled or Errored. Skipped events (no kickoff, no WIN market, no data,
// fetch failure) never reach the engine and are not analyzed.
type Counters struct {
	Skipped       int
	Analyzed      int
	NoPregameData int
	NotFavorite   int
	Qualified     int // pregame threshold met
	NoTrigger     int
	Unfillable    int
	Filled        int // produced a TradeRecord
	Errored       int
}

// Record tallies one outcome.
func (c *Counters) Record(o Outcome) {
	c.Analyzed++
	switch v := o.(type) {
	case Unqualified:
		if v.HasPregameData() {
			c.NotFavorite++
		} else {
			c.NoPregameData++
		}
	case Qualified:
		c.Qualified++
		c.NoTrigger++
	case Triggered:
		c.Qualified++
		c.Unfillable++
	case Filled, Closed:
		c.Qualified++
		c.Filled++
	case Errored:
		c.Errored++
	}
}

// Add suma los contadores de otro worker.
func (c *Counters) Add(o Counters) {
	c.Skipped += o.Skipped
	c.Analyzed += o.Analyzed
	c.NoPregameData += o.NoPregameData
	c.NotFavorite += o.NotFavorite
	c.Qualified += o.Qualified
	c.NoTrigger += o.NoTrigger
	c.Unfillable += o.Unfillable
	c.Filled += o.Filled
	c.Errored += o.Errored
}

// BandMetrics aggregates the trades whose exit hit one reversion band.
// Pointer fields are nil when the statistic is undefined for the bucket
// (no trades, fewer than two trades for StdDev, zero deviation for Sharpe).
type BandMetrics struct {
	Band         float64
	Count        int
	HitRate      float64 // Count / all filled trades
	MeanNetCents *float64
	MedianCents  *float64
	StdDevCents  *float64
	WinRate      *float64
	TotalCents   int
	Sharpe       *float64
	EVPerTrade   float64 // band total / all filled trades
}

// OverallMetrics summarises every filled trade regardless of exit reason.
type OverallMetrics struct {
	Trades        int
	TotalGross    int
	TotalNet      int
	TotalFees     int
	TotalSlippage int
	WinRate       *float64
	EVPerTrade    *float64
	AvgHoldSec    *float64
	ByReason      map[ExitReason]int
	NoDataExits   int
}

// Summary is the reduction of one backtest run.
type Summary struct {
	Counters Counters
	Bands    []BandMetrics
	Overall  OverallMetrics
}

// BacktestRun is one persisted execution of the backtester.
type BacktestRun struct {
	ID         string // UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Series     string
	DateFrom   string
	DateTo     string
	Config     BacktestConfig
	Summary    Summary
	Trades     []TradeRecord
}

// RunInfo is the short listing of a stored run.
type RunInfo struct {
	ID         string
	StartedAt  time.Time
	Series     string
	Analyzed   int
	Filled     int
	TotalNet   int
	EVPerTrade *float64
}
