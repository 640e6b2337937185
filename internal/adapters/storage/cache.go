package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Una ventana descargada se guarda aunque venga vacía: así un partido sin
// datos tampoco vuelve a pedirse.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS market_windows (
    ticker     TEXT     NOT NULL,
    from_ts    INTEGER  NOT NULL,
    to_ts      INTEGER  NOT NULL,
    fetched_at DATETIME NOT NULL,
    PRIMARY KEY (ticker, from_ts, to_ts)
);

CREATE TABLE IF NOT EXISTS market_observations (
    ticker  TEXT    NOT NULL,
    from_ts INTEGER NOT NULL,
    to_ts   INTEGER NOT NULL,
    seq     INTEGER NOT NULL,
    kind    INTEGER NOT NULL,
    ts      INTEGER NOT NULL,
    price   INTEGER NOT NULL,
    open    INTEGER NOT NULL,
    high    INTEGER NOT NULL,
    low     INTEGER NOT NULL,
    size    INTEGER NOT NULL,
    PRIMARY KEY (ticker, from_ts, to_ts, seq)
);
`

// GetEventData devuelve el stream cacheado para (ticker, from, to).
// ok=false si esa ventana nunca se descargó.
func (s *SQLiteStorage) GetEventData(ctx context.Context, ticker string, from, to int64) ([]domain.Observation, bool, error) {
	var fetched time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM market_windows WHERE ticker=? AND from_ts=? AND to_ts=?`,
		ticker, from, to,
	).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetEventData: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, ts, price, open, high, low, size
		FROM market_observations
		WHERE ticker=? AND from_ts=? AND to_ts=?
		ORDER BY seq ASC`, ticker, from, to)
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetEventData: query: %w", err)
	}
	defer rows.Close()

	obs := []domain.Observation{}
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.Kind, &o.Timestamp, &o.PriceCents, &o.OpenCents, &o.HighCents, &o.LowCents, &o.Size); err != nil {
			return nil, false, fmt.Errorf("storage.GetEventData: scan: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, true, rows.Err()
}

// PutEventData reemplaza la ventana cacheada de un mercado.
func (s *SQLiteStorage) PutEventData(ctx context.Context, ticker string, from, to int64, obs []domain.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.PutEventData: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM market_observations WHERE ticker=? AND from_ts=? AND to_ts=?`, ticker, from, to,
	); err != nil {
		return fmt.Errorf("storage.PutEventData: clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO market_windows (ticker, from_ts, to_ts, fetched_at) VALUES (?,?,?,?)`,
		ticker, from, to, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("storage.PutEventData: window: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_observations (ticker, from_ts, to_ts, seq, kind, ts, price, open, high, low, size)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("storage.PutEventData: prepare: %w", err)
	}
	defer stmt.Close()

	for i, o := range obs {
		if _, err := stmt.ExecContext(ctx, ticker, from, to, i, int(o.Kind), o.Timestamp,
			o.PriceCents, o.OpenCents, o.HighCents, o.LowCents, o.Size,
		); err != nil {
			return fmt.Errorf("storage.PutEventData: insert %d: %w", i, err)
		}
	}
	return tx.Commit()
}
