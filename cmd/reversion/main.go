package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/reversionbot/config"
	"github.com/alejandrodnm/reversionbot/internal/adapters/kalshi"
	"github.com/alejandrodnm/reversionbot/internal/adapters/storage"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reversion",
	Short: "Mean-reversion backtester and live poller for Kalshi game markets",
	Long: `reversion replays Kalshi trade tape to score a favorite-dip mean-reversion
strategy, and can follow upcoming games live with a paper executor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		setupLogger(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newClient() *kalshi.Client {
	c := kalshi.NewClient(cfg.Kalshi.Base, cfg.MinInterval())
	c.CandleInterval = cfg.Kalshi.CandleIntervalMin
	return c
}

func openStore() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	slog.Debug("storage opened", "dsn", cfg.Storage.DSN)
	return store, nil
}

func setupLogger(lc config.LogConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
