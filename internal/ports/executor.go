package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// OrderExecutor places orders for the live poller. A failed call leaves the
// poller's state untouched; it retries on the next poll.
type OrderExecutor interface {
	// PlaceOrder submits an order and returns it with its final status.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.LiveOrder, error)
}
