package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func (w *Writer) summaryMarkdown(run domain.BacktestRun) string {
	var sb strings.Builder
	cfg := run.Config
	c := run.Summary.Counters
	o := run.Summary.Overall

	fmt.Fprintf(&sb, "# Backtest %s\n\n", run.ID)
	fmt.Fprintf(&sb, "- Started: %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Series: %s\n", run.Series)
	fmt.Fprintf(&sb, "- Date range: %s to %s\n", dash(run.DateFrom), dash(run.DateTo))
	if w.commandLine != "" {
		fmt.Fprintf(&sb, "- Command: `%s`\n", w.commandLine)
	}

	sb.WriteString("\n## Config\n\n| Parameter | Value |\n|---|---|\n")
	stop := "none"
	if cfg.AdverseStop != nil {
		stop = ftoa(*cfg.AdverseStop)
	}
	bands := make([]string, len(cfg.ReversionBands))
	for i, b := range cfg.ReversionBands {
		bands[i] = ftoa(b)
	}
	for _, kv := range [][2]string{
		{"pregame_lookback_sec", fmt.Sprint(cfg.PregameLookbackSec)},
		{"favorite_threshold", ftoa(cfg.FavoriteThreshold)},
		{"trigger_threshold", ftoa(cfg.TriggerThreshold)},
		{"monitor_window_sec", fmt.Sprint(cfg.MonitorWindowSec)},
		{"full_game_extension_sec", fmt.Sprint(cfg.FullGameExtensionSec)},
		{"reversion_bands", strings.Join(bands, ", ")},
		{"fee_cents", fmt.Sprint(cfg.FeeCents)},
		{"slippage_cents", fmt.Sprint(cfg.SlippageCents)},
		{"adverse_stop", stop},
		{"timeout", string(cfg.Timeout)},
		{"grace_sec", fmt.Sprint(cfg.GraceSec)},
	} {
		fmt.Fprintf(&sb, "| %s | %s |\n", kv[0], kv[1])
	}

	sb.WriteString("\n## Counts\n\n")
	fmt.Fprintf(&sb, "- Skipped: %d\n- Analyzed: %d\n- No pregame data: %d\n- Not favorite: %d\n",
		c.Skipped, c.Analyzed, c.NoPregameData, c.NotFavorite)
	fmt.Fprintf(&sb, "- Qualified: %d\n- No trigger: %d\n- Unfillable: %d\n- Filled: %d\n- Errored: %d\n",
		c.Qualified, c.NoTrigger, c.Unfillable, c.Filled, c.Errored)

	sb.WriteString("\n## Reversion bands\n\n")
	sb.WriteString("| Band | Count | Hit rate | Mean ¢ | Median ¢ | Std ¢ | Win rate | Total ¢ | Sharpe | EV/trade ¢ |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, b := range run.Summary.Bands {
		fmt.Fprintf(&sb, "| %.2f | %d | %.3f | %s | %s | %s | %s | %d | %s | %.3f |\n",
			b.Band, b.Count, b.HitRate,
			mdOpt(b.MeanNetCents), mdOpt(b.MedianCents), mdOpt(b.StdDevCents),
			mdOpt(b.WinRate), b.TotalCents, mdOpt(b.Sharpe), b.EVPerTrade)
	}

	sb.WriteString("\n## Overall\n\n")
	fmt.Fprintf(&sb, "- Trades: %d\n- Gross: %d¢\n- Net: %d¢\n- Fees: %d¢\n- Slippage: %d¢\n",
		o.Trades, o.TotalGross, o.TotalNet, o.TotalFees, o.TotalSlippage)
	fmt.Fprintf(&sb, "- Win rate: %s\n- EV/trade: %s¢\n- Avg hold: %ss\n",
		mdOpt(o.WinRate), mdOpt(o.EVPerTrade), mdOpt(o.AvgHoldSec))

	reasons := make([]string, 0, len(o.ByReason))
	for r := range o.ByReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&sb, "- Exits by %s: %d\n", r, o.ByReason[domain.ExitReason(r)])
	}
	if o.NoDataExits > 0 {
		fmt.Fprintf(&sb, "- No-data exits: %d\n", o.NoDataExits)
	}
	return sb.String()
}

func mdOpt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
