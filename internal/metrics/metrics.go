package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Backtest metrics
	eventOutcomes    *prometheus.CounterVec
	exitReasons      *prometheus.CounterVec
	tradeNetCents    prometheus.Histogram
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram

	// Live metrics
	livePolls     *prometheus.CounterVec
	liveOrders    *prometheus.CounterVec
	openPositions prometheus.Gauge
	trackedEvents *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		eventOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversion_event_outcomes_total",
				Help: "Events evaluated by terminal stage",
			},
			[]string{"stage"},
		),
		exitReasons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversion_exits_total",
				Help: "Closed positions by exit reason",
			},
			[]string{"reason"},
		),
		tradeNetCents: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reversion_trade_net_cents",
				Help:    "Net P&L per contract in cents",
				Buckets: []float64{-40, -20, -10, -5, 0, 5, 10, 20, 40},
			},
		),
		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversion_backtests_total",
				Help: "Total number of backtests",
			},
			[]string{"status"},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reversion_backtest_duration_seconds",
				Help:    "Backtest duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 900},
			},
		),
	}

	r.livePolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reversion_live_polls_total",
			Help: "Quote polls issued by the live poller",
		},
		[]string{"status"},
	)
	r.liveOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reversion_live_orders_total",
			Help: "Orders sent by the live poller",
		},
		[]string{"side", "status"},
	)
	r.openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reversion_live_open_positions",
			Help: "Positions currently held by the live poller",
		},
	)
	r.trackedEvents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reversion_live_tracked_events",
			Help: "Events tracked by the live poller by stage",
		},
		[]string{"stage"},
	)

	reg.MustRegister(r.eventOutcomes)
	reg.MustRegister(r.exitReasons)
	reg.MustRegister(r.tradeNetCents)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.livePolls)
	reg.MustRegister(r.liveOrders)
	reg.MustRegister(r.openPositions)
	reg.MustRegister(r.trackedEvents)

	return r
}

// RecordOutcome records one evaluated event and, if closed, its trade.
func (r *Registry) RecordOutcome(o domain.Outcome) {
	r.eventOutcomes.WithLabelValues(o.Stage().String()).Inc()
	if c, ok := o.(domain.Closed); ok {
		r.RecordTrade(c.Record)
	}
}

// RecordTrade records a closed position.
func (r *Registry) RecordTrade(rec domain.TradeRecord) {
	r.exitReasons.WithLabelValues(string(rec.Exit.Reason)).Inc()
	r.tradeNetCents.Observe(float64(rec.NetCents))
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordPoll records a live quote poll.
func (r *Registry) RecordPoll(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	r.livePolls.WithLabelValues(status).Inc()
}

// RecordOrder records an order sent by the live poller.
func (r *Registry) RecordOrder(side domain.OrderSide, status string) {
	r.liveOrders.WithLabelValues(string(side), status).Inc()
}

// SetOpenPositions sets the number of open live positions.
func (r *Registry) SetOpenPositions(n int) {
	r.openPositions.Set(float64(n))
}

// SetTracked sets the number of tracked events per stage.
func (r *Registry) SetTracked(byStage map[domain.Stage]int) {
	r.trackedEvents.Reset()
	for st, n := range byStage {
		r.trackedEvents.WithLabelValues(st.String()).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
