package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/reversionbot/internal/adapters/export"
	"github.com/alejandrodnm/reversionbot/internal/application/backtest"
	"github.com/alejandrodnm/reversionbot/internal/engine"
)

var pullOut string

var pullGameCmd = &cobra.Command{
	Use:   "pull-game <event-ticker>",
	Short: "Fetch one game's candles and trades, cache them and dump them to CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runPullGame,
}

func init() {
	pullGameCmd.Flags().StringVarP(&pullOut, "out", "o", "", "CSV path (default <event-ticker>.csv)")
	rootCmd.AddCommand(pullGameCmd)
}

func runPullGame(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ticker := args[0]

	strategy, err := cfg.Backtest()
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	client := newClient()
	ev, err := client.FetchEvent(ctx, ticker)
	if err != nil {
		return err
	}
	markets, err := client.FetchMarkets(ctx, ticker)
	if err != nil {
		return err
	}
	game, err := pickWinMarket(ev, markets)
	if err != nil {
		return err
	}

	data, ok, err := backtest.NewLoader(client, store, strategy).Load(ctx, game)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("no data for game", "event", ticker)
		return nil
	}

	out := pullOut
	if out == "" {
		out = ticker + ".csv"
	}
	if err := export.WriteObservations(out, data.Observations); err != nil {
		return err
	}

	trades, candles := data.Counts()
	attrs := []any{"event", ticker, "market", game.Market.Ticker, "trades", trades, "candles", candles, "path", out}
	if outcome, err := engine.Evaluate(data, strategy); err != nil {
		attrs = append(attrs, "err", err)
	} else {
		attrs = append(attrs, "stage", outcome.Stage().String())
	}
	slog.Info("game pulled", attrs...)
	return nil
}
