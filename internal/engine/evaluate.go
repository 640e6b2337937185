package engine

import (
	"fmt"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Evaluate runs the whole pipeline for one event and returns its terminal
// outcome. Lack of data short-circuits into Unqualified, Qualified or
// Triggered; only malformed input is an error.
func Evaluate(ev domain.EventData, cfg domain.BacktestConfig) (domain.Outcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("engine.Evaluate: %w", err)
	}

	ec := ev.Context
	obs := ev.Observations

	pregame, ok := PregameProbability(obs, ec.ReferenceTime, cfg.PregameLookbackSec)
	if !ok {
		return domain.Unqualified{Event: ec.EventID}, nil
	}
	if !IsFavoriteQualified(pregame, cfg.FavoriteThreshold) {
		return domain.Unqualified{Event: ec.EventID, Pregame: &pregame}, nil
	}

	trigger, ok := DetectTrigger(obs, ec.ReferenceTime, ec.WindowEnd, cfg.TriggerThreshold)
	if !ok {
		return domain.Qualified{Event: ec.EventID, Pregame: pregame}, nil
	}

	entry, ok := ResolveFill(obs, trigger, cfg.GraceSec, cfg.SlippageCents)
	if !ok {
		return domain.Triggered{Event: ec.EventID, Pregame: pregame, Trigger: trigger}, nil
	}

	exit := SimulateExit(obs, entry, cfg.Deadline(ec), cfg)

	var exc *domain.Excursion
	if x, ok := ComputeExcursions(obs, entry, exit.Time); ok {
		exc = &x
	}

	return domain.Closed{
		Record: NewTradeRecord(ev, pregame, trigger, entry, exit, exc, cfg),
	}, nil
}

// NewTradeRecord assembles the scored record of a closed position.
func NewTradeRecord(
	ev domain.EventData,
	pregame float64,
	trigger domain.TriggerEvent,
	entry domain.EntryFill,
	exit domain.ExitEvent,
	exc *domain.Excursion,
	cfg domain.BacktestConfig,
) domain.TradeRecord {
	return domain.TradeRecord{
		EventID:       ev.Context.EventID,
		MarketTicker:  ev.MarketTicker,
		ReferenceTime: ev.Context.ReferenceTime,
		PregameProb:   pregame,
		Trigger:       trigger,
		Entry:         entry,
		Exit:          exit,
		PnL:           ComputePnL(entry.PriceCents, exit.PriceCents, cfg.FeeCents, cfg.SlippageCents),
		Excursion:     exc,
		HoldTimeSec:   exit.Time - entry.Time,
	}
}
