package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/reversionbot/internal/adapters/export"
	"github.com/alejandrodnm/reversionbot/internal/adapters/notify"
	"github.com/alejandrodnm/reversionbot/internal/application/backtest"
)

var disc struct {
	series string
	from   string
	to     string
	csv    string
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List a series' games and their WIN markets",
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.StringVar(&disc.series, "series", "", "Kalshi series ticker (default from config)")
	f.StringVar(&disc.from, "from", "", "first kickoff date YYYY-MM-DD (inclusive)")
	f.StringVar(&disc.to, "to", "", "last kickoff date YYYY-MM-DD (inclusive)")
	f.StringVar(&disc.csv, "csv", "", "also write the games to this CSV file")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	strategy, err := cfg.Backtest()
	if err != nil {
		return err
	}
	series := firstNonEmpty(disc.series, cfg.Run.Series)

	games, err := backtest.NewLoader(newClient(), nil, strategy).Discover(cmd.Context(), series, disc.from, disc.to)
	if err != nil {
		return err
	}

	notify.NewConsole(0).PrintGames(games)

	if disc.csv != "" {
		if err := export.WriteGames(disc.csv, games); err != nil {
			return err
		}
		slog.Info("games written", "path", disc.csv, "count", len(games))
	}
	return nil
}
