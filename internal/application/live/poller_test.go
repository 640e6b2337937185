package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/metrics"
)

const kickoff int64 = 1757264400

type fakeQuotes struct {
	price map[string]int
	err   error
	calls int
}

func (f *fakeQuotes) FetchQuote(_ context.Context, ticker string) (domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return domain.Quote{Ticker: ticker, LastPrice: f.price[ticker]}, nil
}

type fakeExecutor struct {
	requests []domain.OrderRequest
	failNext int
}

func (f *fakeExecutor) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.LiveOrder, error) {
	f.requests = append(f.requests, req)
	if f.failNext > 0 {
		f.failNext--
		return domain.LiveOrder{}, errors.New("exchange unavailable")
	}
	return domain.LiveOrder{
		EventID:     req.EventID,
		Ticker:      req.Ticker,
		Side:        req.Side,
		PriceCents:  req.PriceCents,
		Contracts:   req.Contracts,
		Status:      domain.LiveStatusFilled,
		FilledCents: req.PriceCents,
	}, nil
}

type fakeLiveStore struct {
	positions map[string]domain.LivePosition
}

func (s *fakeLiveStore) ApplyLiveSchema(context.Context) error { return nil }
func (s *fakeLiveStore) SaveLiveOrder(context.Context, domain.LiveOrder) error {
	return nil
}
func (s *fakeLiveStore) GetLiveOrders(context.Context, string) ([]domain.LiveOrder, error) {
	return nil, nil
}
func (s *fakeLiveStore) SaveLivePosition(_ context.Context, p domain.LivePosition) error {
	if s.positions == nil {
		s.positions = make(map[string]domain.LivePosition)
	}
	s.positions[p.EventID] = p
	return nil
}
func (s *fakeLiveStore) GetLivePositions(context.Context) ([]domain.LivePosition, error) {
	return nil, nil
}

type harness struct {
	poller *Poller
	quotes *fakeQuotes
	exec   *fakeExecutor
	store  *fakeLiveStore
	reg    *metrics.Registry
	game   domain.Game
	clock  int64
}

func newHarness(t *testing.T, mutate ...func(*domain.BacktestParams)) *harness {
	t.Helper()
	params := domain.BacktestParams{
		PregameLookbackSec:   900,
		FavoriteThreshold:    0.60,
		TriggerThreshold:     0.50,
		MonitorWindowSec:     5400,
		FullGameExtensionSec: 6000,
		ReversionBands:       []float64{0.55, 0.60, 0.65, 0.70},
		FeeCents:             1,
		SlippageCents:        1,
		Timeout:              domain.TimeoutHalftime,
		GraceSec:             15,
	}
	for _, m := range mutate {
		m(&params)
	}
	strategy, err := domain.NewBacktestConfig(params)
	require.NoError(t, err)

	h := &harness{
		quotes: &fakeQuotes{price: map[string]int{}},
		exec:   &fakeExecutor{},
		store:  &fakeLiveStore{},
		reg:    metrics.NewRegistry(),
		game: domain.Game{
			Event:  domain.Event{EventTicker: "KXNFLGAME-25SEP07KCLAC", StrikeTime: kickoff},
			Market: domain.Market{Ticker: "KXNFLGAME-25SEP07KCLAC-KC", Title: "Kansas City to win"},
		},
	}
	h.poller = New(Config{}, strategy, h.quotes, h.exec, h.store, h.reg)
	h.poller.now = func() time.Time { return time.Unix(h.clock, 0) }
	require.True(t, h.poller.Track(h.game))
	return h
}

// at avanza el reloj a ts con el precio dado y hace un poll.
func (h *harness) at(ts int64, price int) {
	h.clock = ts
	h.quotes.price[h.game.Market.Ticker] = price
	h.poller.PollOnce(context.Background())
}

func (h *harness) state() domain.Outcome {
	return h.poller.States()[h.game.Event.EventTicker]
}

func TestPoller_FullReversionCycle(t *testing.T) {
	h := newHarness(t)

	h.at(kickoff-7*3600, 70) // antes del primer checkpoint: no hace nada
	assert.Zero(t, h.quotes.calls)

	h.at(kickoff-6*3600, 64)
	h.at(kickoff-1800, 65)
	assert.Nil(t, h.state(), "no state before kickoff")

	h.at(kickoff, 62)
	assert.Equal(t, domain.StageQualified, h.state().Stage())

	h.at(kickoff+600, 47)
	filled, ok := h.state().(domain.Filled)
	require.True(t, ok, "expected filled, got %T", h.state())
	assert.Equal(t, 48, filled.Entry.PriceCents)
	assert.Equal(t, kickoff+600, filled.Trigger.Time)

	h.at(kickoff+700, 52)
	assert.Equal(t, domain.StageFilled, h.state().Stage())

	h.at(kickoff+800, 60)
	closed, ok := h.state().(domain.Closed)
	require.True(t, ok, "expected closed, got %T", h.state())
	r := closed.Record
	assert.Equal(t, domain.ExitReversionBand, r.Exit.Reason)
	assert.Equal(t, 59, r.Exit.PriceCents)
	assert.Equal(t, 9, r.NetCents)
	assert.InDelta(t, 0.65, r.PregameProb, 1e-12)
	require.NotNil(t, r.Excursion)
	assert.Equal(t, 0, r.Excursion.MAECents)
	assert.Equal(t, 12, r.Excursion.MFECents)

	require.Len(t, h.exec.requests, 2)
	assert.Equal(t, domain.SideBuy, h.exec.requests[0].Side)
	assert.Equal(t, "entry", h.exec.requests[0].Reason)
	assert.Equal(t, domain.SideSell, h.exec.requests[1].Side)
	assert.Equal(t, "reversion_band", h.exec.requests[1].Reason)

	pos := h.store.positions[h.game.Event.EventTicker]
	assert.Equal(t, domain.StageClosed, pos.Stage)
	assert.Equal(t, 65, pos.PregameCents)
	assert.Equal(t, 9, pos.NetCents)
	assert.Zero(t, h.poller.Active())
}

func TestPoller_NotFavorite(t *testing.T) {
	h := newHarness(t)
	h.at(kickoff-1800, 60) // justo en el umbral: no califica
	h.at(kickoff, 60)

	u, ok := h.state().(domain.Unqualified)
	require.True(t, ok)
	require.NotNil(t, u.Pregame)
	assert.InDelta(t, 0.60, *u.Pregame, 1e-12)
	assert.Zero(t, h.poller.Active())
	assert.Empty(t, h.exec.requests)
}

func TestPoller_TrackedAfterKickoffHasNoPregame(t *testing.T) {
	h := newHarness(t)
	h.at(kickoff+60, 40)

	u, ok := h.state().(domain.Unqualified)
	require.True(t, ok)
	assert.False(t, u.HasPregameData())
}

func TestPoller_NoTriggerUntilWindowEnd(t *testing.T) {
	h := newHarness(t)
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)
	h.at(kickoff+3000, 55)
	h.at(kickoff+5400, 30) // fin de ventana exclusivo

	assert.Equal(t, domain.StageQualified, h.state().Stage())
	assert.Zero(t, h.poller.Active())
	assert.Empty(t, h.exec.requests)
}

func TestPoller_EntryFailureRetriedWithinGrace(t *testing.T) {
	h := newHarness(t)
	h.exec.failNext = 1
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)

	h.at(kickoff+600, 45)
	assert.Equal(t, domain.StageTriggered, h.state().Stage())

	h.at(kickoff+610, 46)
	filled, ok := h.state().(domain.Filled)
	require.True(t, ok)
	assert.Equal(t, 47, filled.Entry.PriceCents)
	assert.Equal(t, kickoff+610, filled.Entry.Time)
}

func TestPoller_EntryFailurePastGraceIsUnfillable(t *testing.T) {
	h := newHarness(t)
	h.exec.failNext = 1
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)
	h.at(kickoff+600, 45)
	h.at(kickoff+616, 45)

	assert.Equal(t, domain.StageTriggered, h.state().Stage())
	assert.Zero(t, h.poller.Active())
	assert.Len(t, h.exec.requests, 1)
}

func TestPoller_TimeoutForceClose(t *testing.T) {
	h := newHarness(t)
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)
	h.at(kickoff+600, 45)
	h.at(kickoff+1200, 47)
	h.at(kickoff+5400, 90) // deadline: cierra al último precio visto

	closed, ok := h.state().(domain.Closed)
	require.True(t, ok, "expected closed, got %T", h.state())
	r := closed.Record
	assert.Equal(t, domain.ExitTimeout, r.Exit.Reason)
	assert.Equal(t, kickoff+5400, r.Exit.Time)
	assert.Equal(t, 46, r.Exit.PriceCents)
	assert.Equal(t, "timeout", h.exec.requests[1].Reason)
}

func TestPoller_AdverseStop(t *testing.T) {
	h := newHarness(t, func(p *domain.BacktestParams) {
		stop := 0.12
		p.AdverseStop = &stop
	})
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)
	h.at(kickoff+300, 45) // entrada 46
	h.at(kickoff+400, 34) // 46 - 12 = 34 → stop

	closed, ok := h.state().(domain.Closed)
	require.True(t, ok)
	assert.Equal(t, domain.ExitAdverseStop, closed.Record.Exit.Reason)
	assert.Equal(t, 33, closed.Record.Exit.PriceCents)
}

func TestPoller_ExitFailureKeepsPositionOpen(t *testing.T) {
	h := newHarness(t)
	h.at(kickoff-1800, 70)
	h.at(kickoff, 70)
	h.at(kickoff+600, 45)

	h.exec.failNext = 1
	h.at(kickoff+700, 60)
	assert.Equal(t, domain.StageFilled, h.state().Stage())

	h.at(kickoff+710, 61)
	closed, ok := h.state().(domain.Closed)
	require.True(t, ok)
	assert.Equal(t, 60, closed.Record.Exit.PriceCents)
}

func TestPoller_QuoteErrorsDoNotAdvance(t *testing.T) {
	h := newHarness(t)
	h.quotes.err = errors.New("timeout")
	h.at(kickoff-1800, 70)
	h.quotes.err = nil
	h.at(kickoff, 70)

	u, ok := h.state().(domain.Unqualified)
	require.True(t, ok)
	assert.False(t, u.HasPregameData())
}

func TestPoller_Track(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.poller.Track(h.game), "duplicate")
	assert.False(t, h.poller.Track(domain.Game{Event: domain.Event{EventTicker: "NOKICK"}}))
}

func TestPoller_RunStopsWhenAllDone(t *testing.T) {
	h := newHarness(t)
	h.clock = kickoff + 60 // pasado el kickoff sin pregame: termina al primer poll

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.poller.Run(ctx))
	assert.Zero(t, h.poller.Active())
}
