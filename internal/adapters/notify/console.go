package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Console implementa ports.Reporter escribiendo tablas a un io.Writer.
type Console struct {
	out       io.Writer
	maxTrades int // 0 = todos
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(maxTrades int) *Console {
	return &Console{out: os.Stdout, maxTrades: maxTrades}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Report imprime contadores, métricas por banda, resumen global y trades.
func (c *Console) Report(_ context.Context, run domain.BacktestRun) error {
	fmt.Fprintf(c.out, "\n=== BACKTEST %s ===\n", run.ID)
	fmt.Fprintf(c.out, "  series: %s  range: %s → %s  duration: %s\n",
		orDash(run.Series), orDash(run.DateFrom), orDash(run.DateTo),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	c.printCounters(run.Summary.Counters)
	c.printBands(run.Summary.Bands)
	c.printOverall(run.Summary.Overall)

	if len(run.Trades) == 0 {
		fmt.Fprintln(c.out, "\n  No trades filled")
		return nil
	}
	c.PrintTrades(run.Trades)
	return nil
}

func (c *Console) printCounters(k domain.Counters) {
	fmt.Fprintln(c.out)
	table := tablewriter.NewWriter(c.out)
	table.Header("Skipped", "Analyzed", "No pregame", "Not favorite", "Qualified", "No trigger", "Unfillable", "Filled", "Errored")
	table.Append(
		fmt.Sprint(k.Skipped),
		fmt.Sprint(k.Analyzed),
		fmt.Sprint(k.NoPregameData),
		fmt.Sprint(k.NotFavorite),
		fmt.Sprint(k.Qualified),
		fmt.Sprint(k.NoTrigger),
		fmt.Sprint(k.Unfillable),
		fmt.Sprint(k.Filled),
		fmt.Sprint(k.Errored),
	)
	table.Render()
}

func (c *Console) printBands(bands []domain.BandMetrics) {
	fmt.Fprintln(c.out, "\n  Reversion bands")
	table := tablewriter.NewWriter(c.out)
	table.Header("Band", "Count", "Hit rate", "Mean ¢", "Median ¢", "Std ¢", "Win rate", "Total ¢", "Sharpe", "EV/trade ¢")
	for _, b := range bands {
		table.Append(
			fmt.Sprintf("%.2f", b.Band),
			fmt.Sprint(b.Count),
			pctStr(b.HitRate),
			optFloat(b.MeanNetCents, "%.2f"),
			optFloat(b.MedianCents, "%.1f"),
			optFloat(b.StdDevCents, "%.2f"),
			optPct(b.WinRate),
			fmt.Sprintf("%+d", b.TotalCents),
			optFloat(b.Sharpe, "%.2f"),
			fmt.Sprintf("%+.2f", b.EVPerTrade),
		)
	}
	table.Render()
}

func (c *Console) printOverall(o domain.OverallMetrics) {
	fmt.Fprintln(c.out, "\n  Overall")
	fmt.Fprintf(c.out, "  trades: %d  gross: %+d¢  net: %+d¢  fees: %d¢  slippage: %d¢\n",
		o.Trades, o.TotalGross, o.TotalNet, o.TotalFees, o.TotalSlippage)
	fmt.Fprintf(c.out, "  win rate: %s  EV/trade: %s¢  avg hold: %s\n",
		optPct(o.WinRate), optFloat(o.EVPerTrade, "%+.2f"), holdStr(o.AvgHoldSec))

	if len(o.ByReason) > 0 {
		reasons := make([]string, 0, len(o.ByReason))
		for r := range o.ByReason {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		parts := make([]string, 0, len(reasons))
		for _, r := range reasons {
			parts = append(parts, fmt.Sprintf("%s=%d", r, o.ByReason[domain.ExitReason(r)]))
		}
		fmt.Fprintf(c.out, "  exits: %s", strings.Join(parts, " "))
		if o.NoDataExits > 0 {
			fmt.Fprintf(c.out, "  (no_data=%d)", o.NoDataExits)
		}
		fmt.Fprintln(c.out)
	}
}

// PrintTrades imprime la tabla de trades, limitada a maxTrades si está configurado.
func (c *Console) PrintTrades(trades []domain.TradeRecord) {
	shown := trades
	if c.maxTrades > 0 && len(shown) > c.maxTrades {
		shown = shown[:c.maxTrades]
	}

	fmt.Fprintln(c.out, "\n  Trades")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Event", "Kickoff", "Pregame", "Trigger", "Entry", "Exit", "Reason", "Net ¢", "Hold", "MAE", "MFE")
	for i, r := range shown {
		mae, mfe := "-", "-"
		if r.Excursion != nil {
			mae = fmt.Sprint(r.Excursion.MAECents)
			mfe = fmt.Sprint(r.Excursion.MFECents)
		}
		reason := string(r.Exit.Reason)
		if r.Exit.BandHit != nil {
			reason = fmt.Sprintf("band %.2f", *r.Exit.BandHit)
		}
		if r.Exit.NoData {
			reason += " (no data)"
		}
		table.Append(
			fmt.Sprint(i+1),
			truncate(r.EventID, 28),
			time.Unix(r.ReferenceTime, 0).UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.0f%%", r.PregameProb*100),
			fmt.Sprint(r.Trigger.PriceCents),
			fmt.Sprint(r.Entry.PriceCents),
			fmt.Sprint(r.Exit.PriceCents),
			reason,
			fmt.Sprintf("%+d", r.NetCents),
			formatDuration(time.Duration(r.HoldTimeSec)*time.Second),
			mae,
			mfe,
		)
	}
	table.Render()

	if len(shown) < len(trades) {
		fmt.Fprintf(c.out, "  ... %d more trades (see trades.csv)\n", len(trades)-len(shown))
	}
}

// PrintGames imprime los partidos descubiertos.
func (c *Console) PrintGames(games []domain.Game) {
	if len(games) == 0 {
		fmt.Fprintln(c.out, "No games found")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Event", "Kickoff (UTC)", "Teams", "WIN market")
	for i, g := range games {
		kickoff := "-"
		if g.Event.HasStrikeTime() {
			kickoff = time.Unix(g.Event.StrikeTime, 0).UTC().Format("2006-01-02 15:04")
		}
		table.Append(
			fmt.Sprint(i+1),
			g.Event.EventTicker,
			kickoff,
			strings.Join(g.Event.Teams, " vs "),
			g.Market.Ticker,
		)
	}
	table.Render()
}

// PrintRuns imprime el historial de ejecuciones.
func (c *Console) PrintRuns(runs []domain.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No runs stored")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Started", "Series", "Analyzed", "Filled", "Net ¢", "EV/trade ¢")
	for _, r := range runs {
		table.Append(
			r.ID,
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			orDash(r.Series),
			fmt.Sprint(r.Analyzed),
			fmt.Sprint(r.Filled),
			fmt.Sprintf("%+d", r.TotalNet),
			optFloat(r.EVPerTrade, "%+.2f"),
		)
	}
	table.Render()
}

// PrintLiveStates imprime el estado actual de cada partido seguido en vivo.
func (c *Console) PrintLiveStates(states map[string]domain.Outcome) {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(c.out, "[%s] %d games past kickoff\n", time.Now().Format("15:04:05"), len(ids))
	if len(ids) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Event", "Stage", "Pregame", "Entry", "Exit", "Net ¢")
	for _, id := range ids {
		pregame, entry, exit, net := "-", "-", "-", "-"
		switch st := states[id].(type) {
		case domain.Unqualified:
			if st.Pregame != nil {
				pregame = fmt.Sprintf("%.0f%%", *st.Pregame*100)
			}
		case domain.Qualified:
			pregame = fmt.Sprintf("%.0f%%", st.Pregame*100)
		case domain.Triggered:
			pregame = fmt.Sprintf("%.0f%%", st.Pregame*100)
		case domain.Filled:
			pregame = fmt.Sprintf("%.0f%%", st.Pregame*100)
			entry = fmt.Sprint(st.Entry.PriceCents)
		case domain.Closed:
			r := st.Record
			pregame = fmt.Sprintf("%.0f%%", r.PregameProb*100)
			entry = fmt.Sprint(r.Entry.PriceCents)
			exit = fmt.Sprintf("%d (%s)", r.Exit.PriceCents, r.Exit.Reason)
			net = fmt.Sprintf("%+d", r.NetCents)
		}
		table.Append(id, states[id].Stage().String(), pregame, entry, exit, net)
	}
	table.Render()
}
