package backtest

// concurrent.go: worker pool de evaluación. Los eventos son independientes,
// así que el orden de los resultados no importa: la agregación posterior
// es una reducción conmutativa.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/engine"
)

// evaluateConcurrent evalúa todos los eventos en paralelo. Un evento con
// input malformado se convierte en domain.Errored y el resto sigue.
// Si workers <= 0 usa runtime.NumCPU().
func evaluateConcurrent(
	ctx context.Context,
	events []domain.EventData,
	cfg domain.BacktestConfig,
	workers int,
) []domain.Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workCh := make(chan domain.EventData, len(events))
	resultCh := make(chan domain.Outcome, len(events))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range workCh {
				resultCh <- evaluateOne(ev, cfg)
			}
		}()
	}

	// Dejar de encolar si el caller cancela; lo ya encolado termina.
	queued := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			break
		}
		workCh <- ev
		queued++
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]domain.Outcome, 0, queued)
	for o := range resultCh {
		outcomes = append(outcomes, o)
	}

	slog.Debug("concurrent evaluation complete",
		"events_queued", queued,
		"workers", workers,
	)
	return outcomes
}

func evaluateOne(ev domain.EventData, cfg domain.BacktestConfig) domain.Outcome {
	out, err := engine.Evaluate(ev, cfg)
	if err != nil {
		slog.Warn("event errored", "event", ev.Context.EventID, "err", err)
		return domain.Errored{Event: ev.Context.EventID, Err: err}
	}
	slog.Debug("event evaluated", "event", ev.Context.EventID, "stage", out.Stage().String())
	return out
}
