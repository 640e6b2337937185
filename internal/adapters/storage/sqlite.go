package storage

// sqlite.go: historial de backtests.
//
// Tablas:
//   - `backtest_runs`: una fila por ejecución (config JSON + contadores).
//   - `run_bands`: métricas agregadas por banda de reversión.
//   - `run_trades`: un TradeRecord por fila; NULL donde el valor es ausente
//     (band_hit, mae, mfe), nunca 0.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    id             TEXT PRIMARY KEY,
    started_at     DATETIME NOT NULL,
    finished_at    DATETIME NOT NULL,
    series         TEXT     NOT NULL DEFAULT '',
    date_from      TEXT     NOT NULL DEFAULT '',
    date_to        TEXT     NOT NULL DEFAULT '',
    config_json    TEXT     NOT NULL,
    analyzed       INTEGER  NOT NULL DEFAULT 0,
    no_pregame     INTEGER  NOT NULL DEFAULT 0,
    not_favorite   INTEGER  NOT NULL DEFAULT 0,
    qualified      INTEGER  NOT NULL DEFAULT 0,
    no_trigger     INTEGER  NOT NULL DEFAULT 0,
    unfillable     INTEGER  NOT NULL DEFAULT 0,
    filled         INTEGER  NOT NULL DEFAULT 0,
    errored        INTEGER  NOT NULL DEFAULT 0,
    total_net      INTEGER  NOT NULL DEFAULT 0,
    ev_per_trade   REAL
);

CREATE TABLE IF NOT EXISTS run_bands (
    run_id       TEXT    NOT NULL,
    band         REAL    NOT NULL,
    count        INTEGER NOT NULL DEFAULT 0,
    hit_rate     REAL    NOT NULL DEFAULT 0,
    mean_net     REAL,
    median_net   REAL,
    stddev_net   REAL,
    win_rate     REAL,
    total_cents  INTEGER NOT NULL DEFAULT 0,
    sharpe       REAL,
    ev_per_trade REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, band)
);

CREATE TABLE IF NOT EXISTS run_trades (
    run_id         TEXT    NOT NULL,
    event_id       TEXT    NOT NULL,
    market_ticker  TEXT    NOT NULL DEFAULT '',
    reference_time INTEGER NOT NULL,
    pregame_prob   REAL    NOT NULL,
    trigger_time   INTEGER NOT NULL,
    trigger_cents  INTEGER NOT NULL,
    entry_time     INTEGER NOT NULL,
    entry_cents    INTEGER NOT NULL,
    entry_raw      INTEGER NOT NULL,
    exit_time      INTEGER NOT NULL,
    exit_cents     INTEGER NOT NULL,
    exit_reason    TEXT    NOT NULL,
    exit_source    TEXT    NOT NULL,
    band_hit       REAL,
    no_data        INTEGER NOT NULL DEFAULT 0,
    gross_cents    INTEGER NOT NULL,
    net_cents      INTEGER NOT NULL,
    fees_cents     INTEGER NOT NULL,
    slippage_cents INTEGER NOT NULL,
    mae_cents      INTEGER,
    mfe_cents      INTEGER,
    hold_sec       INTEGER NOT NULL,
    PRIMARY KEY (run_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON backtest_runs(started_at DESC);
`

// SQLiteStorage implementa ports.RunStorage, ports.MarketDataCache y
// ports.LiveStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	for _, s := range []string{schema, cacheSchema} {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
		}
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste una ejecución completa en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.BacktestRun) error {
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	c := run.Summary.Counters
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		  (id, started_at, finished_at, series, date_from, date_to, config_json,
		   analyzed, no_pregame, not_favorite, qualified, no_trigger, unfillable, filled, errored,
		   total_net, ev_per_trade)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Series, run.DateFrom, run.DateTo, string(cfgJSON),
		c.Analyzed, c.NoPregameData, c.NotFavorite, c.Qualified, c.NoTrigger, c.Unfillable, c.Filled, c.Errored,
		run.Summary.Overall.TotalNet, nullFloat(run.Summary.Overall.EVPerTrade),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	for _, b := range run.Summary.Bands {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO run_bands
			  (run_id, band, count, hit_rate, mean_net, median_net, stddev_net, win_rate, total_cents, sharpe, ev_per_trade)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, b.Band, b.Count, b.HitRate, nullFloat(b.MeanNetCents), nullFloat(b.MedianCents),
			nullFloat(b.StdDevCents), nullFloat(b.WinRate), b.TotalCents, nullFloat(b.Sharpe), b.EVPerTrade,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert band %.2f: %w", b.Band, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO run_trades
		  (run_id, event_id, market_ticker, reference_time, pregame_prob, trigger_time, trigger_cents,
		   entry_time, entry_cents, entry_raw, exit_time, exit_cents, exit_reason, exit_source, band_hit, no_data,
		   gross_cents, net_cents, fees_cents, slippage_cents, mae_cents, mfe_cents, hold_sec)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Trades {
		var mae, mfe any
		if r.Excursion != nil {
			mae, mfe = r.Excursion.MAECents, r.Excursion.MFECents
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.EventID, r.MarketTicker, r.ReferenceTime, r.PregameProb, r.Trigger.Time, r.Trigger.PriceCents,
			r.Entry.Time, r.Entry.PriceCents, r.Entry.RawCents, r.Exit.Time, r.Exit.PriceCents,
			string(r.Exit.Reason), string(r.Exit.Source), nullFloat(r.Exit.BandHit), boolToInt(r.Exit.NoData),
			r.GrossCents, r.NetCents, r.FeesCents, r.SlippageCents, mae, mfe, r.HoldTimeSec,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %s: %w", r.EventID, err)
		}
	}

	return tx.Commit()
}

// ListRuns devuelve las últimas ejecuciones, más recientes primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, series, analyzed, filled, total_net, ev_per_trade
		FROM backtest_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunInfo
	for rows.Next() {
		var (
			r  domain.RunInfo
			ev sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Series, &r.Analyzed, &r.Filled, &r.TotalNet, &ev); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan: %w", err)
		}
		r.EVPerTrade = floatPtr(ev)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunTrades devuelve los trades de una ejecución ordenados por entrada.
func (s *SQLiteStorage) GetRunTrades(ctx context.Context, runID string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, market_ticker, reference_time, pregame_prob, trigger_time, trigger_cents,
		       entry_time, entry_cents, entry_raw, exit_time, exit_cents, exit_reason, exit_source, band_hit, no_data,
		       gross_cents, net_cents, fees_cents, slippage_cents, mae_cents, mfe_cents, hold_sec
		FROM run_trades WHERE run_id = ?
		ORDER BY entry_time ASC, event_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRunTrades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var (
			r              domain.TradeRecord
			reason, source string
			band           sql.NullFloat64
			noData         int
			mae, mfe       sql.NullInt64
		)
		if err := rows.Scan(
			&r.EventID, &r.MarketTicker, &r.ReferenceTime, &r.PregameProb, &r.Trigger.Time, &r.Trigger.PriceCents,
			&r.Entry.Time, &r.Entry.PriceCents, &r.Entry.RawCents, &r.Exit.Time, &r.Exit.PriceCents,
			&reason, &source, &band, &noData,
			&r.GrossCents, &r.NetCents, &r.FeesCents, &r.SlippageCents, &mae, &mfe, &r.HoldTimeSec,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRunTrades: scan: %w", err)
		}
		r.Entry.Source = domain.FillTradeWithSlippage
		r.Exit.Reason = domain.ExitReason(reason)
		r.Exit.Source = domain.FillSource(source)
		r.Exit.BandHit = floatPtr(band)
		r.Exit.NoData = noData == 1
		if mae.Valid && mfe.Valid {
			r.Excursion = &domain.Excursion{MAECents: int(mae.Int64), MFECents: int(mfe.Int64)}
		}
		trades = append(trades, r)
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
