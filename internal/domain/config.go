package domain

import (
	"fmt"
	"slices"
)

// TimeoutPolicy selects the exit deadline.
type TimeoutPolicy string

const (
	TimeoutHalftime TimeoutPolicy = "halftime"
	TimeoutFullGame TimeoutPolicy = "full"
)

// BacktestParams are the raw, unvalidated run parameters.
type BacktestParams struct {
	PregameLookbackSec   int64
	FavoriteThreshold    float64
	TriggerThreshold     float64
	MonitorWindowSec     int64
	FullGameExtensionSec int64
	ReversionBands       []float64
	FeeCents             int
	SlippageCents        int
	AdverseStop          *float64
	Timeout              TimeoutPolicy
	GraceSec             int64
}

// BacktestConfig is the validated, read-only configuration of a run.
// Build it with NewBacktestConfig; bands are sorted ascending.
type BacktestConfig struct {
	PregameLookbackSec   int64
	FavoriteThreshold    float64
	TriggerThreshold     float64
	MonitorWindowSec     int64
	FullGameExtensionSec int64
	ReversionBands       []float64
	FeeCents             int
	SlippageCents        int
	AdverseStop          *float64
	Timeout              TimeoutPolicy
	GraceSec             int64
}

// NewBacktestConfig validates p and returns an immutable config.
func NewBacktestConfig(p BacktestParams) (BacktestConfig, error) {
	if len(p.ReversionBands) == 0 {
		return BacktestConfig{}, fmt.Errorf("%w: reversion band list is empty", ErrInvalidConfig)
	}
	bands := slices.Clone(p.ReversionBands)
	slices.Sort(bands)
	for i, b := range bands {
		if b <= 0 || b >= 1 {
			return BacktestConfig{}, fmt.Errorf("%w: reversion band %.4f outside (0,1)", ErrInvalidConfig, b)
		}
		if i > 0 && ProbabilityBasis(bands[i-1]) == ProbabilityBasis(b) {
			return BacktestConfig{}, fmt.Errorf("%w: duplicate reversion band %.4f", ErrInvalidConfig, b)
		}
	}
	if !inUnit(p.FavoriteThreshold) {
		return BacktestConfig{}, fmt.Errorf("%w: favorite threshold %.4f outside [0,1]", ErrInvalidConfig, p.FavoriteThreshold)
	}
	if !inUnit(p.TriggerThreshold) {
		return BacktestConfig{}, fmt.Errorf("%w: trigger threshold %.4f outside [0,1]", ErrInvalidConfig, p.TriggerThreshold)
	}
	if p.AdverseStop != nil && (*p.AdverseStop <= 0 || *p.AdverseStop > 1) {
		return BacktestConfig{}, fmt.Errorf("%w: adverse stop %.4f outside (0,1]", ErrInvalidConfig, *p.AdverseStop)
	}
	if p.PregameLookbackSec <= 0 {
		return BacktestConfig{}, fmt.Errorf("%w: pregame lookback must be positive, got %d", ErrInvalidConfig, p.PregameLookbackSec)
	}
	if p.MonitorWindowSec <= 0 {
		return BacktestConfig{}, fmt.Errorf("%w: monitoring window must be positive, got %d", ErrInvalidConfig, p.MonitorWindowSec)
	}
	if p.FullGameExtensionSec < 0 {
		return BacktestConfig{}, fmt.Errorf("%w: negative full-game extension %d", ErrInvalidConfig, p.FullGameExtensionSec)
	}
	if p.GraceSec < 0 {
		return BacktestConfig{}, fmt.Errorf("%w: negative grace period %d", ErrInvalidConfig, p.GraceSec)
	}
	if !ValidCents(p.FeeCents) {
		return BacktestConfig{}, fmt.Errorf("%w: fee %d¢ outside [0,100]", ErrInvalidConfig, p.FeeCents)
	}
	if !ValidCents(p.SlippageCents) {
		return BacktestConfig{}, fmt.Errorf("%w: slippage %d¢ outside [0,100]", ErrInvalidConfig, p.SlippageCents)
	}
	switch p.Timeout {
	case TimeoutHalftime, TimeoutFullGame:
	default:
		return BacktestConfig{}, fmt.Errorf("%w: unknown timeout policy %q", ErrInvalidConfig, p.Timeout)
	}

	var stop *float64
	if p.AdverseStop != nil {
		v := *p.AdverseStop
		stop = &v
	}

	return BacktestConfig{
		PregameLookbackSec:   p.PregameLookbackSec,
		FavoriteThreshold:    p.FavoriteThreshold,
		TriggerThreshold:     p.TriggerThreshold,
		MonitorWindowSec:     p.MonitorWindowSec,
		FullGameExtensionSec: p.FullGameExtensionSec,
		ReversionBands:       bands,
		FeeCents:             p.FeeCents,
		SlippageCents:        p.SlippageCents,
		AdverseStop:          stop,
		Timeout:              p.Timeout,
		GraceSec:             p.GraceSec,
	}, nil
}

// Context builds the EventContext for an event kicking off at ref.
func (c BacktestConfig) Context(eventID string, ref int64) EventContext {
	return EventContext{
		EventID:       eventID,
		ReferenceTime: ref,
		WindowEnd:     ref + c.MonitorWindowSec,
	}
}

// Deadline is the exit deadline of an event under the configured policy.
func (c BacktestConfig) Deadline(ec EventContext) int64 {
	if c.Timeout == TimeoutFullGame {
		return ec.WindowEnd + c.FullGameExtensionSec
	}
	return ec.WindowEnd
}

// DataWindow is the span of observations a backtest needs for an event.
func (c BacktestConfig) DataWindow(ref int64) (from, to int64) {
	return ref - c.PregameLookbackSec, ref + c.MonitorWindowSec + c.FullGameExtensionSec
}

func inUnit(p float64) bool {
	return p >= 0 && p <= 1
}
