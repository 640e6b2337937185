package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/reversionbot/internal/adapters/notify"
	"github.com/alejandrodnm/reversionbot/internal/adapters/paper"
	"github.com/alejandrodnm/reversionbot/internal/application/backtest"
	"github.com/alejandrodnm/reversionbot/internal/application/live"
	"github.com/alejandrodnm/reversionbot/internal/metrics"
)

var lv struct {
	series      string
	days        int
	metricsAddr string
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Follow upcoming games and paper-trade the strategy in real time",
	Args:  cobra.NoArgs,
	RunE:  runLive,
}

func init() {
	f := liveCmd.Flags()
	f.StringVar(&lv.series, "series", "", "Kalshi series ticker (default from config)")
	f.IntVar(&lv.days, "days", 0, "track games kicking off within this many days (default from config)")
	f.StringVar(&lv.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	strategy, err := cfg.Backtest()
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.ApplyLiveSchema(ctx); err != nil {
		return err
	}

	days := cfg.Live.LookaheadDays
	if lv.days > 0 {
		days = lv.days
	}
	now := time.Now().UTC()
	series := firstNonEmpty(lv.series, cfg.Run.Series)

	client := newClient()
	games, err := backtest.NewLoader(client, nil, strategy).Discover(ctx, series,
		now.Format("2006-01-02"), now.AddDate(0, 0, days).Format("2006-01-02"))
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	if addr := firstNonEmpty(lv.metricsAddr, cfg.Live.MetricsAddr); addr != "" {
		srv := serveMetrics(addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	poller := live.New(live.Config{
		PollInterval: cfg.PollInterval(),
		Checkpoints:  cfg.Checkpoints(),
		Contracts:    cfg.Live.Contracts,
	}, strategy, client, paper.NewExecutor(store), store, reg)

	tracked := 0
	for _, g := range games {
		if g.Event.StrikeTime <= now.Unix() {
			continue
		}
		if poller.Track(g) {
			tracked++
		}
	}
	if tracked == 0 {
		slog.Warn("no upcoming games to track", "series", series, "days", days)
		return nil
	}

	slog.Info("[PAPER] live poller running", "series", series, "games", tracked)
	if err := poller.Run(ctx); err != nil {
		return err
	}
	notify.NewConsole(0).PrintLiveStates(poller.States())
	return nil
}

func serveMetrics(addr string, reg *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	return srv
}
