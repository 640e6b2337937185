package live

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/metrics"
	"github.com/alejandrodnm/reversionbot/internal/ports"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultContracts    = 1
)

// DefaultCheckpoints are the pregame snapshots taken before kickoff.
var DefaultCheckpoints = []time.Duration{6 * time.Hour, 3 * time.Hour, 30 * time.Minute}

// Config holds the poller's scheduling parameters. Strategy thresholds come
// from domain.BacktestConfig so live and backtest share one policy.
type Config struct {
	PollInterval time.Duration
	Checkpoints  []time.Duration // antes del kickoff, de mayor a menor
	Contracts    int
}

// Poller follows scheduled games and drives each one through the engine's
// decisions with one quote per poll. It owns the per-event state; it is not
// safe for concurrent use.
type Poller struct {
	cfg      Config
	strategy domain.BacktestConfig
	quotes   ports.QuoteProvider
	executor ports.OrderExecutor
	store    ports.LiveStorage // optional
	metrics  *metrics.Registry // optional
	now      func() time.Time
	events   map[string]*tracked
}

// New creates a Poller. store and reg may be nil.
func New(
	cfg Config,
	strategy domain.BacktestConfig,
	quotes ports.QuoteProvider,
	executor ports.OrderExecutor,
	store ports.LiveStorage,
	reg *metrics.Registry,
) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if len(cfg.Checkpoints) == 0 {
		cfg.Checkpoints = DefaultCheckpoints
	}
	cps := append([]time.Duration(nil), cfg.Checkpoints...)
	sort.Slice(cps, func(i, j int) bool { return cps[i] > cps[j] })
	cfg.Checkpoints = cps
	if cfg.Contracts <= 0 {
		cfg.Contracts = defaultContracts
	}
	return &Poller{
		cfg:      cfg,
		strategy: strategy,
		quotes:   quotes,
		executor: executor,
		store:    store,
		metrics:  reg,
		now:      time.Now,
		events:   make(map[string]*tracked),
	}
}

// Track adds a game to the poller. Games without kickoff time or already
// tracked are ignored.
func (p *Poller) Track(g domain.Game) bool {
	if !g.Event.HasStrikeTime() {
		return false
	}
	if _, ok := p.events[g.Event.EventTicker]; ok {
		return false
	}
	ec := p.strategy.Context(g.Event.EventTicker, g.Event.StrikeTime)
	p.events[g.Event.EventTicker] = &tracked{
		game:     g,
		ec:       ec,
		deadline: p.strategy.Deadline(ec),
	}
	slog.Info("tracking game",
		"event", g.Event.EventTicker,
		"market", g.Market.Ticker,
		"kickoff", ec.Kickoff().Format(time.RFC3339),
	)
	return true
}

// Run polls until every tracked game reaches a terminal state or ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("live poller starting",
		"events", len(p.events),
		"interval", p.cfg.PollInterval,
		"checkpoints", p.cfg.Checkpoints,
	)

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for p.Active() > 0 {
		select {
		case <-ctx.Done():
			slog.Info("live poller stopped", "active", p.Active())
			return nil
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
	slog.Info("all tracked games finished")
	return nil
}

// PollOnce advances every active game by one step.
func (p *Poller) PollOnce(ctx context.Context) {
	now := p.now().Unix()
	for _, id := range p.sortedIDs() {
		if ctx.Err() != nil {
			return
		}
		t := p.events[id]
		if t.done {
			continue
		}
		p.step(ctx, t, now)
	}
	p.publish()
}

// Active devuelve cuántos partidos siguen sin estado terminal.
func (p *Poller) Active() int {
	n := 0
	for _, t := range p.events {
		if !t.done {
			n++
		}
	}
	return n
}

// States returns a snapshot of the per-event state. Games still waiting
// for kickoff are absent.
func (p *Poller) States() map[string]domain.Outcome {
	out := make(map[string]domain.Outcome, len(p.events))
	for id, t := range p.events {
		if t.state != nil {
			out[id] = t.state
		}
	}
	return out
}

func (p *Poller) step(ctx context.Context, t *tracked, now int64) {
	switch st := t.state.(type) {
	case nil:
		p.pregameStep(ctx, t, now)
	case domain.Qualified:
		p.monitorStep(ctx, t, st, now)
	case domain.Triggered:
		p.entryStep(ctx, t, st, now, nil)
	case domain.Filled:
		p.exitStep(ctx, t, st, now)
	default:
		t.done = true
	}
}

func (p *Poller) sortedIDs() []string {
	ids := make([]string, 0, len(p.events))
	for id := range p.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// publish actualiza los gauges de Prometheus.
func (p *Poller) publish() {
	if p.metrics == nil {
		return
	}
	byStage := make(map[domain.Stage]int)
	open := 0
	for _, t := range p.events {
		if t.state == nil {
			continue
		}
		byStage[t.state.Stage()]++
		if _, ok := t.state.(domain.Filled); ok {
			open++
		}
	}
	p.metrics.SetTracked(byStage)
	p.metrics.SetOpenPositions(open)
}
