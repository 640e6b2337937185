package live

// state.go: transiciones por evento.
//
//	pending ──kickoff──▶ Unqualified (terminal)
//	                 └─▶ Qualified ──trigger──▶ Triggered ──fill──▶ Filled ──exit──▶ Closed
//
// Qualified y Triggered pasan a terminales cuando vence su ventana
// (fin del monitoreo / gracia). Un fallo de orden no cambia el estado:
// se reintenta en el siguiente poll.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/engine"
)

type tracked struct {
	game     domain.Game
	ec       domain.EventContext
	deadline int64
	state    domain.Outcome // nil hasta el kickoff

	taken   int                  // checkpoints pregame ya registrados
	pregame []domain.Observation // precios de los checkpoints
	hold    []domain.Observation // precios vistos con la posición abierta
	last    *domain.Observation  // último precio desde la entrada
	done    bool
}

func (p *Poller) pregameStep(ctx context.Context, t *tracked, now int64) {
	ref := t.ec.ReferenceTime
	if now < ref {
		due := 0
		for _, cp := range p.cfg.Checkpoints {
			if now >= ref-int64(cp/time.Second) {
				due++
			}
		}
		if due <= t.taken {
			return
		}
		obs, ok := p.poll(ctx, t, now)
		if !ok {
			return
		}
		t.pregame = append(t.pregame, obs)
		t.taken = due
		slog.Info("pregame checkpoint",
			"event", t.ec.EventID,
			"checkpoint", due,
			"price_cents", obs.PriceCents,
		)
		return
	}

	// Kickoff: decide con el checkpoint más cercano al partido.
	if len(t.pregame) == 0 {
		slog.Info("no pregame price recorded, not trading", "event", t.ec.EventID)
		p.transition(ctx, t, domain.Unqualified{Event: t.ec.EventID})
		t.done = true
		return
	}
	pregame := t.pregame[len(t.pregame)-1].Probability()
	if !engine.IsFavoriteQualified(pregame, p.strategy.FavoriteThreshold) {
		slog.Info("favorite not qualified", "event", t.ec.EventID, "pregame", pregame)
		p.transition(ctx, t, domain.Unqualified{Event: t.ec.EventID, Pregame: &pregame})
		t.done = true
		return
	}

	q := domain.Qualified{Event: t.ec.EventID, Pregame: pregame}
	slog.Info("favorite qualified", "event", t.ec.EventID, "pregame", pregame)
	p.transition(ctx, t, q)
	p.monitorStep(ctx, t, q, now)
}

func (p *Poller) monitorStep(ctx context.Context, t *tracked, st domain.Qualified, now int64) {
	if now >= t.ec.WindowEnd {
		slog.Info("monitoring window closed without trigger", "event", t.ec.EventID)
		t.done = true
		return
	}
	obs, ok := p.poll(ctx, t, now)
	if !ok {
		return
	}
	trig, ok := engine.DetectTrigger([]domain.Observation{obs}, t.ec.ReferenceTime, t.ec.WindowEnd, p.strategy.TriggerThreshold)
	if !ok {
		return
	}

	tr := domain.Triggered{Event: st.Event, Pregame: st.Pregame, Trigger: trig}
	slog.Info("trigger detected", "event", t.ec.EventID, "price_cents", trig.PriceCents)
	p.transition(ctx, t, tr)
	p.entryStep(ctx, t, tr, now, &obs)
}

// entryStep intenta la entrada. obs es el precio ya leído en este poll, si lo hay.
func (p *Poller) entryStep(ctx context.Context, t *tracked, st domain.Triggered, now int64, obs *domain.Observation) {
	if now > st.Trigger.Time+p.strategy.GraceSec {
		slog.Info("grace period expired without fill", "event", t.ec.EventID)
		t.done = true
		return
	}
	if obs == nil {
		o, ok := p.poll(ctx, t, now)
		if !ok {
			return
		}
		obs = &o
	}
	fill, ok := engine.ResolveFill([]domain.Observation{*obs}, st.Trigger, p.strategy.GraceSec, p.strategy.SlippageCents)
	if !ok {
		return
	}

	order, ok := p.place(ctx, t, domain.SideBuy, fill.PriceCents, "entry")
	if !ok {
		return
	}
	if order.FilledCents > 0 {
		fill.PriceCents = order.FilledCents
	}

	last := *obs
	t.last = &last
	slog.Info("position opened", "event", t.ec.EventID, "entry_cents", fill.PriceCents)
	p.transition(ctx, t, domain.Filled{Event: st.Event, Pregame: st.Pregame, Trigger: st.Trigger, Entry: fill})
}

func (p *Poller) exitStep(ctx context.Context, t *tracked, st domain.Filled, now int64) {
	if now >= t.deadline {
		p.close(ctx, t, st, engine.ForceClose(st.Entry, t.last, t.deadline, p.strategy))
		return
	}
	obs, ok := p.poll(ctx, t, now)
	if !ok || obs.Timestamp <= st.Entry.Time {
		return
	}
	t.hold = append(t.hold, obs)
	t.last = &obs

	if ev, ok := engine.ExitStep(st.Entry, obs, p.strategy); ok {
		p.close(ctx, t, st, ev)
	}
}

func (p *Poller) close(ctx context.Context, t *tracked, st domain.Filled, ev domain.ExitEvent) {
	order, ok := p.place(ctx, t, domain.SideSell, ev.PriceCents, string(ev.Reason))
	if !ok {
		return
	}
	if order.FilledCents > 0 {
		ev.PriceCents = order.FilledCents
	}

	var exc *domain.Excursion
	if x, ok := engine.ComputeExcursions(t.hold, st.Entry, ev.Time); ok {
		exc = &x
	}
	data := domain.EventData{Context: t.ec, MarketTicker: t.game.Market.Ticker}
	rec := engine.NewTradeRecord(data, st.Pregame, st.Trigger, st.Entry, ev, exc, p.strategy)

	slog.Info("position closed",
		"event", t.ec.EventID,
		"reason", ev.Reason,
		"exit_cents", ev.PriceCents,
		"net_cents", rec.NetCents,
	)
	if p.metrics != nil {
		p.metrics.RecordTrade(rec)
	}
	p.transition(ctx, t, domain.Closed{Record: rec})
	t.done = true
}

// poll lee el quote actual como observación tipo trade sellada con el reloj
// del poller.
func (p *Poller) poll(ctx context.Context, t *tracked, now int64) (domain.Observation, bool) {
	q, err := p.quotes.FetchQuote(ctx, t.game.Market.Ticker)
	if p.metrics != nil {
		p.metrics.RecordPoll(err == nil)
	}
	if err != nil {
		slog.Warn("quote fetch failed", "event", t.ec.EventID, "err", err)
		return domain.Observation{}, false
	}
	q.Timestamp = now
	obs, ok := q.Observation()
	if !ok {
		slog.Debug("quote has no price", "event", t.ec.EventID)
	}
	return obs, ok
}

// place envía una orden; ok=false deja el estado intacto para reintentar.
func (p *Poller) place(ctx context.Context, t *tracked, side domain.OrderSide, cents int, reason string) (domain.LiveOrder, bool) {
	order, err := p.executor.PlaceOrder(ctx, domain.OrderRequest{
		EventID:    t.ec.EventID,
		Ticker:     t.game.Market.Ticker,
		Side:       side,
		PriceCents: cents,
		Contracts:  p.cfg.Contracts,
		Reason:     reason,
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordOrder(side, "error")
		}
		slog.Warn("order failed, retrying next poll", "event", t.ec.EventID, "side", side, "err", err)
		return domain.LiveOrder{}, false
	}
	if p.metrics != nil {
		p.metrics.RecordOrder(side, string(order.Status))
	}
	if order.Status != domain.LiveStatusFilled {
		slog.Warn("order not filled, retrying next poll", "event", t.ec.EventID, "side", side, "status", order.Status)
		return order, false
	}
	return order, true
}

func (p *Poller) transition(ctx context.Context, t *tracked, next domain.Outcome) {
	t.state = next
	if p.store == nil {
		return
	}
	if err := p.store.SaveLivePosition(ctx, t.position()); err != nil {
		slog.Warn("save position failed", "event", t.ec.EventID, "err", err)
	}
}

func (t *tracked) position() domain.LivePosition {
	pos := domain.LivePosition{
		EventID:   t.ec.EventID,
		Ticker:    t.game.Market.Ticker,
		Stage:     t.state.Stage(),
		UpdatedAt: time.Now().UTC(),
	}
	if n := len(t.pregame); n > 0 {
		pos.PregameCents = t.pregame[n-1].PriceCents
	}
	switch st := t.state.(type) {
	case domain.Filled:
		pos.EntryCents, pos.EntryTime = st.Entry.PriceCents, st.Entry.Time
	case domain.Closed:
		r := st.Record
		pos.EntryCents, pos.EntryTime = r.Entry.PriceCents, r.Entry.Time
		pos.ExitCents, pos.ExitTime, pos.ExitReason = r.Exit.PriceCents, r.Exit.Time, r.Exit.Reason
		pos.NetCents = r.NetCents
	}
	return pos
}
