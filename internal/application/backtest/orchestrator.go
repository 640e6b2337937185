package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/metrics"
	"github.com/alejandrodnm/reversionbot/internal/ports"
)

// Config contiene lo que identifica una ejecución además de los parámetros
// de la estrategia.
type Config struct {
	Series   string
	DateFrom string // YYYY-MM-DD, vacío = sin límite
	DateTo   string
	Workers  int // goroutines de evaluación (0 = NumCPU)
}

// Backtester orquesta discover → load → evaluate → summarize y entrega el
// resultado a los sinks configurados. Todos los sinks son opcionales.
type Backtester struct {
	cfg       Config
	strategy  domain.BacktestConfig
	loader    *Loader
	storage   ports.RunStorage
	reporter  ports.Reporter
	artifacts ports.ArtifactWriter
	archiver  ports.Archiver
	metrics   *metrics.Registry
}

// Option configura sinks opcionales del Backtester.
type Option func(*Backtester)

// WithStorage persiste cada run en el historial.
func WithStorage(s ports.RunStorage) Option { return func(b *Backtester) { b.storage = s } }

// WithReporter imprime el resultado al terminar.
func WithReporter(r ports.Reporter) Option { return func(b *Backtester) { b.reporter = r } }

// WithArtifacts escribe CSV/markdown; si además hay archiver, los sube.
func WithArtifacts(w ports.ArtifactWriter, a ports.Archiver) Option {
	return func(b *Backtester) { b.artifacts, b.archiver = w, a }
}

// WithMetrics registra outcomes, trades y duración.
func WithMetrics(m *metrics.Registry) Option { return func(b *Backtester) { b.metrics = m } }

// New crea un Backtester con todas las dependencias inyectadas.
func New(cfg Config, strategy domain.BacktestConfig, loader *Loader, opts ...Option) *Backtester {
	b := &Backtester{cfg: cfg, strategy: strategy, loader: loader}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run ejecuta un backtest completo sobre los partidos de la serie.
func (b *Backtester) Run(ctx context.Context) (domain.BacktestRun, error) {
	games, err := b.loader.Discover(ctx, b.cfg.Series, b.cfg.DateFrom, b.cfg.DateTo)
	if err != nil {
		b.recordRun("error", 0)
		return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w", err)
	}
	return b.RunGames(ctx, games)
}

// RunGames evalúa una lista de partidos ya descubiertos. El fetch es
// secuencial (lo limita el rate limiter del cliente); la evaluación es
// paralela.
func (b *Backtester) RunGames(ctx context.Context, games []domain.Game) (domain.BacktestRun, error) {
	run := domain.BacktestRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Series:    b.cfg.Series,
		DateFrom:  b.cfg.DateFrom,
		DateTo:    b.cfg.DateTo,
		Config:    b.strategy,
	}
	slog.Info("backtest starting", "run", run.ID, "series", run.Series, "games", len(games))

	var skipped int
	events := make([]domain.EventData, 0, len(games))
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			b.recordRun("cancelled", time.Since(run.StartedAt).Seconds())
			return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w", err)
		}
		ev, ok, err := b.loader.Load(ctx, g)
		if err != nil {
			slog.Warn("load failed, skipping event", "event", g.Event.EventTicker, "err", err)
			skipped++
			continue
		}
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	outcomes := evaluateConcurrent(ctx, events, b.strategy, b.cfg.Workers)
	if err := ctx.Err(); err != nil {
		b.recordRun("cancelled", time.Since(run.StartedAt).Seconds())
		return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w", err)
	}

	run.Summary, run.Trades = Summarize(outcomes, b.strategy.ReversionBands)
	run.Summary.Counters.Skipped = skipped
	run.FinishedAt = time.Now().UTC()

	if b.metrics != nil {
		for _, o := range outcomes {
			b.metrics.RecordOutcome(o)
		}
		for _, t := range run.Trades {
			b.metrics.RecordTrade(t)
		}
	}
	b.recordRun("ok", run.FinishedAt.Sub(run.StartedAt).Seconds())

	c := run.Summary.Counters
	slog.Info("backtest complete",
		"run", run.ID,
		"analyzed", c.Analyzed,
		"skipped", c.Skipped,
		"qualified", c.Qualified,
		"filled", c.Filled,
		"total_net_cents", run.Summary.Overall.TotalNet,
		"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
	)

	b.deliver(ctx, run)
	return run, nil
}

// deliver entrega el run a los sinks. Un sink que falla no invalida el run.
func (b *Backtester) deliver(ctx context.Context, run domain.BacktestRun) {
	if b.storage != nil {
		if err := b.storage.SaveRun(ctx, run); err != nil {
			slog.Warn("storage error", "run", run.ID, "err", err)
		}
	}
	if b.artifacts != nil {
		paths, err := b.artifacts.Write(ctx, run)
		if err != nil {
			slog.Warn("artifact write failed", "run", run.ID, "err", err)
		} else if b.archiver != nil {
			if err := b.archiver.Archive(ctx, run.ID, paths); err != nil {
				slog.Warn("archive failed", "run", run.ID, "err", err)
			}
		}
	}
	if b.reporter != nil {
		if err := b.reporter.Report(ctx, run); err != nil {
			slog.Warn("reporter error", "err", err)
		}
	}
}

func (b *Backtester) recordRun(status string, seconds float64) {
	if b.metrics != nil {
		b.metrics.RecordBacktest(status, seconds)
	}
}
