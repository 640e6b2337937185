package paper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/reversionbot/internal/domain"
	"github.com/alejandrodnm/reversionbot/internal/ports"
)

// Executor implementa ports.OrderExecutor sin tocar el exchange: cada orden
// válida se llena al precio pedido y se guarda en LiveStorage.
type Executor struct {
	store ports.LiveStorage // optional
	now   func() time.Time
}

// NewExecutor crea un executor de papel. store puede ser nil.
func NewExecutor(store ports.LiveStorage) *Executor {
	return &Executor{store: store, now: time.Now}
}

// PlaceOrder simula la orden. Precios fuera de [0,100] o cantidad no
// positiva se rechazan sin error.
func (e *Executor) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.LiveOrder, error) {
	now := e.now().UTC()
	order := domain.LiveOrder{
		ID:         uuid.NewString(),
		EventID:    req.EventID,
		Ticker:     req.Ticker,
		Side:       req.Side,
		PriceCents: req.PriceCents,
		Contracts:  req.Contracts,
		Reason:     req.Reason,
		PlacedAt:   now,
	}

	if !domain.ValidCents(req.PriceCents) || req.Contracts <= 0 {
		order.Status = domain.LiveStatusRejected
	} else {
		order.Status = domain.LiveStatusFilled
		order.FilledAt = &now
		order.FilledCents = req.PriceCents
	}

	if e.store != nil {
		if err := e.store.SaveLiveOrder(ctx, order); err != nil {
			return domain.LiveOrder{}, fmt.Errorf("paper.PlaceOrder: save: %w", err)
		}
	}

	slog.Info("[PAPER] order",
		"event", req.EventID,
		"side", req.Side,
		"price_cents", req.PriceCents,
		"contracts", req.Contracts,
		"reason", req.Reason,
		"status", order.Status,
	)
	return order, nil
}
