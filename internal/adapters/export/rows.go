package export

import (
	"strconv"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func tradeRows(trades []domain.TradeRecord) [][]string {
	rows := [][]string{{
		"event_id", "market_ticker", "kickoff_utc", "pregame_prob",
		"trigger_time", "trigger_cents", "trigger_source",
		"entry_time", "entry_cents", "entry_raw_cents",
		"exit_time", "exit_cents", "exit_reason", "band_hit", "exit_source", "no_data",
		"gross_cents", "fees_cents", "slippage_cents", "net_cents",
		"mae_cents", "mfe_cents", "hold_sec",
	}}
	for _, r := range trades {
		rows = append(rows, []string{
			r.EventID,
			r.MarketTicker,
			utc(r.ReferenceTime),
			ftoa(r.PregameProb),
			utc(r.Trigger.Time),
			strconv.Itoa(r.Trigger.PriceCents),
			r.Trigger.Source.String(),
			utc(r.Entry.Time),
			strconv.Itoa(r.Entry.PriceCents),
			strconv.Itoa(r.Entry.RawCents),
			utc(r.Exit.Time),
			strconv.Itoa(r.Exit.PriceCents),
			string(r.Exit.Reason),
			optFtoa(r.Exit.BandHit),
			string(r.Exit.Source),
			strconv.FormatBool(r.Exit.NoData),
			strconv.Itoa(r.GrossCents),
			strconv.Itoa(r.FeesCents),
			strconv.Itoa(r.SlippageCents),
			strconv.Itoa(r.NetCents),
			excursion(r.Excursion, true),
			excursion(r.Excursion, false),
			strconv.FormatInt(r.HoldTimeSec, 10),
		})
	}
	return rows
}

// eventRows: una fila por evento con lo esencial para revisar a mano.
func eventRows(trades []domain.TradeRecord) [][]string {
	rows := [][]string{{"event_id", "kickoff_utc", "pregame_prob", "entry_cents", "exit_cents", "exit_reason", "net_cents", "win"}}
	for _, r := range trades {
		rows = append(rows, []string{
			r.EventID,
			utc(r.ReferenceTime),
			ftoa(r.PregameProb),
			strconv.Itoa(r.Entry.PriceCents),
			strconv.Itoa(r.Exit.PriceCents),
			string(r.Exit.Reason),
			strconv.Itoa(r.NetCents),
			strconv.FormatBool(r.IsWin()),
		})
	}
	return rows
}

func bandRows(bands []domain.BandMetrics) [][]string {
	rows := [][]string{{"band", "count", "hit_rate", "mean_net_cents", "median_cents", "std_cents", "win_rate", "total_cents", "sharpe", "ev_per_trade"}}
	for _, b := range bands {
		rows = append(rows, []string{
			ftoa(b.Band),
			strconv.Itoa(b.Count),
			ftoa(b.HitRate),
			optFtoa(b.MeanNetCents),
			optFtoa(b.MedianCents),
			optFtoa(b.StdDevCents),
			optFtoa(b.WinRate),
			strconv.Itoa(b.TotalCents),
			optFtoa(b.Sharpe),
			ftoa(b.EVPerTrade),
		})
	}
	return rows
}

func utc(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// optFtoa: celda vacía para estadísticas indefinidas.
func optFtoa(v *float64) string {
	if v == nil {
		return ""
	}
	return ftoa(*v)
}

func excursion(x *domain.Excursion, adverse bool) string {
	if x == nil {
		return ""
	}
	if adverse {
		return strconv.Itoa(x.MAECents)
	}
	return strconv.Itoa(x.MFECents)
}
