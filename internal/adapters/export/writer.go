package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Writer implementa ports.ArtifactWriter: un directorio por ejecución con
// trades.csv, by_event.csv, band_metrics.csv y summary.md.
type Writer struct {
	baseDir     string
	commandLine string
}

// NewWriter crea un Writer bajo baseDir. commandLine se anota en summary.md.
func NewWriter(baseDir, commandLine string) *Writer {
	return &Writer{baseDir: baseDir, commandLine: commandLine}
}

// RunDir devuelve el directorio de artefactos de un run.
func (w *Writer) RunDir(run domain.BacktestRun) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return filepath.Join(w.baseDir, run.StartedAt.UTC().Format("20060102T150405Z")+"_"+id)
}

// Write escribe todos los artefactos y devuelve sus rutas.
func (w *Writer) Write(_ context.Context, run domain.BacktestRun) ([]string, error) {
	dir := w.RunDir(run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.Write: mkdir: %w", err)
	}

	files := []struct {
		name  string
		write func(string) error
	}{
		{"trades.csv", func(p string) error { return writeCSV(p, tradeRows(run.Trades)) }},
		{"by_event.csv", func(p string) error { return writeCSV(p, eventRows(run.Trades)) }},
		{"band_metrics.csv", func(p string) error { return writeCSV(p, bandRows(run.Summary.Bands)) }},
		{"summary.md", func(p string) error { return os.WriteFile(p, []byte(w.summaryMarkdown(run)), 0o644) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := f.write(p); err != nil {
			return nil, fmt.Errorf("export.Write: %s: %w", f.name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteObservations vuelca el stream de un partido (pull-game).
func WriteObservations(path string, obs []domain.Observation) error {
	rows := [][]string{{"timestamp", "time_utc", "kind", "price_cents", "open", "high", "low", "close", "size"}}
	for _, o := range obs {
		row := []string{
			strconv.FormatInt(o.Timestamp, 10),
			o.Time().Format(time.RFC3339),
			o.Kind.String(),
			strconv.Itoa(o.PriceCents),
		}
		if o.IsCandle() {
			row = append(row,
				strconv.Itoa(o.OpenCents),
				strconv.Itoa(o.HighCents),
				strconv.Itoa(o.LowCents),
				strconv.Itoa(o.PriceCents),
				strconv.Itoa(o.Size),
			)
		} else {
			row = append(row, "", "", "", "", strconv.Itoa(o.Size))
		}
		rows = append(rows, row)
	}
	if err := writeCSV(path, rows); err != nil {
		return fmt.Errorf("export.WriteObservations: %w", err)
	}
	return nil
}

// WriteGames vuelca el resultado de discover.
func WriteGames(path string, games []domain.Game) error {
	rows := [][]string{{"event_ticker", "series_ticker", "title", "strike_time", "team_a", "team_b", "market_ticker", "market_title"}}
	for _, g := range games {
		var a, b string
		if len(g.Event.Teams) == 2 {
			a, b = g.Event.Teams[0], g.Event.Teams[1]
		}
		strike := ""
		if g.Event.HasStrikeTime() {
			strike = time.Unix(g.Event.StrikeTime, 0).UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			g.Event.EventTicker, g.Event.SeriesTicker, g.Event.Title, strike,
			a, b, g.Market.Ticker, g.Market.Title,
		})
	}
	if err := writeCSV(path, rows); err != nil {
		return fmt.Errorf("export.WriteGames: %w", err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
