package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/reversionbot/internal/adapters/archive"
	"github.com/alejandrodnm/reversionbot/internal/adapters/export"
	"github.com/alejandrodnm/reversionbot/internal/adapters/notify"
	"github.com/alejandrodnm/reversionbot/internal/application/backtest"
	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/ports"
)

var bt struct {
	series    string
	from      string
	to        string
	workers   int
	noCache   bool
	outDir    string
	maxTrades int

	favorite float64
	trigger  float64
	bands    []float64
	stop     float64
	timeout  string
	fee      int
	slippage int
	grace    int64
	lookback int64
	window   int64
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a series' games and score the reversion strategy",
	Example: `  reversion backtest --from 2025-09-04 --to 2025-09-08
  reversion backtest --series KXNFLGAME --bands 0.55,0.60 --stop 0.12 --timeout full`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&bt.series, "series", "", "Kalshi series ticker (default from config)")
	f.StringVar(&bt.from, "from", "", "first kickoff date YYYY-MM-DD (inclusive)")
	f.StringVar(&bt.to, "to", "", "last kickoff date YYYY-MM-DD (inclusive)")
	f.IntVar(&bt.workers, "workers", 0, "evaluation goroutines (0 = config / NumCPU)")
	f.BoolVar(&bt.noCache, "no-cache", false, "always fetch from the API")
	f.StringVar(&bt.outDir, "out", "", "artifacts directory (default from config; empty disables)")
	f.IntVar(&bt.maxTrades, "max-trades", 50, "trades shown in the console table (0 = all)")

	f.Float64Var(&bt.favorite, "favorite", 0, "pregame favorite threshold")
	f.Float64Var(&bt.trigger, "trigger", 0, "in-game trigger threshold")
	f.Float64SliceVar(&bt.bands, "bands", nil, "reversion bands, comma separated")
	f.Float64Var(&bt.stop, "stop", 0, "adverse stop as probability drop (0 disables)")
	f.StringVar(&bt.timeout, "timeout", "", "timeout policy: halftime|full")
	f.IntVar(&bt.fee, "fee", 0, "fee per side in cents")
	f.IntVar(&bt.slippage, "slippage", 0, "slippage per side in cents")
	f.Int64Var(&bt.grace, "grace", 0, "fill grace period in seconds")
	f.Int64Var(&bt.lookback, "lookback", 0, "pregame lookback in seconds")
	f.Int64Var(&bt.window, "window", 0, "monitoring window in seconds from kickoff")

	rootCmd.AddCommand(backtestCmd)
}

// applyStrategyFlags sobreescribe la config con los flags que el usuario pasó.
func applyStrategyFlags(cmd *cobra.Command) {
	s := &cfg.Strategy
	changed := cmd.Flags().Changed
	if changed("favorite") {
		s.FavoriteThreshold = bt.favorite
	}
	if changed("trigger") {
		s.TriggerThreshold = bt.trigger
	}
	if changed("bands") {
		s.ReversionBands = bt.bands
	}
	if changed("stop") {
		if bt.stop > 0 {
			s.AdverseStop = &bt.stop
		} else {
			s.AdverseStop = nil
		}
	}
	if changed("timeout") {
		s.Timeout = bt.timeout
	}
	if changed("fee") {
		s.FeeCents = &bt.fee
	}
	if changed("slippage") {
		s.SlippageCents = &bt.slippage
	}
	if changed("grace") {
		s.GraceSec = &bt.grace
	}
	if changed("lookback") {
		s.PregameLookbackSec = bt.lookback
	}
	if changed("window") {
		s.MonitorWindowSec = bt.window
	}
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	applyStrategyFlags(cmd)

	strategy, err := cfg.Backtest()
	if err != nil {
		return err
	}

	run := backtest.Config{
		Series:   firstNonEmpty(bt.series, cfg.Run.Series),
		DateFrom: firstNonEmpty(bt.from, cfg.Run.DateFrom),
		DateTo:   firstNonEmpty(bt.to, cfg.Run.DateTo),
		Workers:  cfg.Run.Workers,
	}
	if bt.workers > 0 {
		run.Workers = bt.workers
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var cache ports.MarketDataCache
	if cfg.Run.UseCache && !bt.noCache {
		cache = store
	}

	opts := []backtest.Option{
		backtest.WithStorage(store),
		backtest.WithReporter(notify.NewConsole(bt.maxTrades)),
	}
	if dir := firstNonEmpty(bt.outDir, cfg.Artifacts.Dir); dir != "" {
		var arch ports.Archiver
		if s3 := cfg.Artifacts.S3; s3.Bucket != "" {
			a, err := archive.NewS3(archive.S3Config{
				Bucket:    s3.Bucket,
				Endpoint:  s3.Endpoint,
				Region:    s3.Region,
				AccessKey: s3.AccessKey,
				SecretKey: s3.SecretKey,
				Prefix:    s3.Prefix,
			})
			if err != nil {
				return err
			}
			arch = a
		}
		opts = append(opts, backtest.WithArtifacts(export.NewWriter(dir, strings.Join(os.Args, " ")), arch))
	}

	slog.Info("reversion backtest starting",
		"series", run.Series,
		"from", run.DateFrom,
		"to", run.DateTo,
		"bands", strategy.ReversionBands,
		"timeout", strategy.Timeout,
		"cache", cache != nil,
	)

	loader := backtest.NewLoader(newClient(), cache, strategy)
	result, err := backtest.New(run, strategy, loader, opts...).Run(ctx)
	if err != nil {
		return err
	}
	if result.Summary.Counters.Analyzed == 0 {
		slog.Warn("no games analyzed", "series", run.Series)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// pickWinMarket devuelve el mercado WIN del evento.
func pickWinMarket(ev domain.Event, markets []domain.Market) (domain.Game, error) {
	for _, m := range markets {
		if m.IsWinMarket() {
			return domain.Game{Event: ev, Market: m}, nil
		}
	}
	return domain.Game{}, fmt.Errorf("event %s has no WIN market", ev.EventTicker)
}
