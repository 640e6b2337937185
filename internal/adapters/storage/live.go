package storage

// live.go: persistencia del live poller.
//
// Tablas:
//   live_orders     órdenes enviadas al executor (paper o real)
//   live_positions  último estado conocido de cada evento seguido

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

const liveSchema = `
CREATE TABLE IF NOT EXISTS live_orders (
    id           TEXT PRIMARY KEY,   -- local UUID
    event_id     TEXT NOT NULL,
    ticker       TEXT NOT NULL,
    side         TEXT NOT NULL,      -- BUY / SELL
    price_cents  INTEGER NOT NULL,
    contracts    INTEGER NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'OPEN',
    placed_at    DATETIME NOT NULL,
    filled_at    DATETIME,
    filled_cents INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS live_orders_event ON live_orders(event_id);

CREATE TABLE IF NOT EXISTS live_positions (
    event_id      TEXT PRIMARY KEY,
    ticker        TEXT NOT NULL,
    stage         TEXT NOT NULL,
    pregame_cents INTEGER NOT NULL DEFAULT 0,
    entry_cents   INTEGER NOT NULL DEFAULT 0,
    entry_time    INTEGER NOT NULL DEFAULT 0,
    exit_cents    INTEGER NOT NULL DEFAULT 0,
    exit_time     INTEGER NOT NULL DEFAULT 0,
    exit_reason   TEXT NOT NULL DEFAULT '',
    net_cents     INTEGER NOT NULL DEFAULT 0,
    updated_at    DATETIME NOT NULL
);
`

// ApplyLiveSchema creates the live tables if they don't exist.
func (s *SQLiteStorage) ApplyLiveSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, liveSchema); err != nil {
		return fmt.Errorf("live schema: %w", err)
	}
	return nil
}

// SaveLiveOrder inserts or replaces a live order.
func (s *SQLiteStorage) SaveLiveOrder(ctx context.Context, o domain.LiveOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO live_orders
		  (id, event_id, ticker, side, price_cents, contracts, reason, status, placed_at, filled_at, filled_cents)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.EventID, o.Ticker, string(o.Side), o.PriceCents, o.Contracts, o.Reason,
		string(o.Status), o.PlacedAt.UTC(), nullTime(o.FilledAt), o.FilledCents,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveLiveOrder: %w", err)
	}
	return nil
}

// GetLiveOrders returns the orders of one event, oldest first.
func (s *SQLiteStorage) GetLiveOrders(ctx context.Context, eventID string) ([]domain.LiveOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, ticker, side, price_cents, contracts, reason, status, placed_at, filled_at, filled_cents
		FROM live_orders WHERE event_id=? ORDER BY placed_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetLiveOrders: %w", err)
	}
	defer rows.Close()

	var orders []domain.LiveOrder
	for rows.Next() {
		var (
			o            domain.LiveOrder
			side, status string
			filledAt     sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.EventID, &o.Ticker, &side, &o.PriceCents, &o.Contracts, &o.Reason,
			&status, &o.PlacedAt, &filledAt, &o.FilledCents); err != nil {
			return nil, fmt.Errorf("storage.GetLiveOrders: scan: %w", err)
		}
		o.Side = domain.OrderSide(side)
		o.Status = domain.LiveOrderStatus(status)
		if filledAt.Valid {
			t := filledAt.Time
			o.FilledAt = &t
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SaveLivePosition upserts the state of one tracked event.
func (s *SQLiteStorage) SaveLivePosition(ctx context.Context, p domain.LivePosition) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO live_positions
		  (event_id, ticker, stage, pregame_cents, entry_cents, entry_time, exit_cents, exit_time, exit_reason, net_cents, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.EventID, p.Ticker, p.Stage.String(), p.PregameCents, p.EntryCents, p.EntryTime,
		p.ExitCents, p.ExitTime, string(p.ExitReason), p.NetCents, updated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveLivePosition: %w", err)
	}
	return nil
}

// GetLivePositions returns every tracked event, most recently updated first.
func (s *SQLiteStorage) GetLivePositions(ctx context.Context) ([]domain.LivePosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, ticker, stage, pregame_cents, entry_cents, entry_time, exit_cents, exit_time, exit_reason, net_cents, updated_at
		FROM live_positions ORDER BY updated_at DESC, event_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetLivePositions: %w", err)
	}
	defer rows.Close()

	var out []domain.LivePosition
	for rows.Next() {
		var (
			p             domain.LivePosition
			stage, reason string
		)
		if err := rows.Scan(&p.EventID, &p.Ticker, &stage, &p.PregameCents, &p.EntryCents, &p.EntryTime,
			&p.ExitCents, &p.ExitTime, &reason, &p.NetCents, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage.GetLivePositions: scan: %w", err)
		}
		p.Stage = parseStage(stage)
		p.ExitReason = domain.ExitReason(reason)
		out = append(out, p)
	}
	return out, rows.Err()
}

func parseStage(s string) domain.Stage {
	for st := domain.StageUnqualified; st <= domain.StageErrored; st++ {
		if st.String() == s {
			return st
		}
	}
	return 0
}
