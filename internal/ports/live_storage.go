package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// LiveStorage persists the poller's orders and per-event positions.
type LiveStorage interface {
	ApplyLiveSchema(ctx context.Context) error

	// Orders
	SaveLiveOrder(ctx context.Context, order domain.LiveOrder) error
	GetLiveOrders(ctx context.Context, eventID string) ([]domain.LiveOrder, error)

	// Positions
	SaveLivePosition(ctx context.Context, pos domain.LivePosition) error
	GetLivePositions(ctx context.Context) ([]domain.LivePosition, error)
}
