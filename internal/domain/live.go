package domain

import "time"

// Quote is one snapshot of a market's top of book.
type Quote struct {
	Ticker    string
	YesBid    int
	YesAsk    int
	LastPrice int
	Timestamp int64
}

// Mid devuelve el precio de referencia del quote en centavos: el último trade
// si existe, si no el punto medio bid/ask. ok=false si no hay precio.
func (q Quote) Mid() (int, bool) {
	if q.LastPrice > 0 {
		return q.LastPrice, true
	}
	if q.YesBid > 0 && q.YesAsk > 0 {
		return (q.YesBid + q.YesAsk) / 2, true
	}
	return 0, false
}

// Observation turns the quote into a trade-style observation.
func (q Quote) Observation() (Observation, bool) {
	p, ok := q.Mid()
	if !ok || !ValidCents(p) {
		return Observation{}, false
	}
	return NewTrade(q.Timestamp, p, 0), true
}

// OrderSide is the direction of a live order on the YES contract.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// LiveOrderStatus represents the lifecycle of an order placed by the poller.
type LiveOrderStatus string

const (
	LiveStatusOpen      LiveOrderStatus = "OPEN"
	LiveStatusFilled    LiveOrderStatus = "FILLED"
	LiveStatusCancelled LiveOrderStatus = "CANCELLED"
	LiveStatusRejected  LiveOrderStatus = "REJECTED"
)

// OrderRequest is sent to the order executor.
type OrderRequest struct {
	EventID    string
	Ticker     string
	Side       OrderSide
	PriceCents int
	Contracts  int
	Reason     string // "entry", "reversion_band", "adverse_stop", "timeout"
}

// LiveOrder is an order placed by the live poller.
type LiveOrder struct {
	ID          string // UUID (local tracking)
	EventID     string
	Ticker      string
	Side        OrderSide
	PriceCents  int
	Contracts   int
	Reason      string
	Status      LiveOrderStatus
	PlacedAt    time.Time
	FilledAt    *time.Time
	FilledCents int
}

// LivePosition is the persisted view of one event tracked by the poller.
type LivePosition struct {
	EventID      string
	Ticker       string
	Stage        Stage
	PregameCents int
	EntryCents   int
	EntryTime    int64
	ExitCents    int
	ExitTime     int64
	ExitReason   ExitReason
	NetCents     int
	UpdatedAt    time.Time
}
