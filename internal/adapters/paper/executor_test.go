package paper_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/adapters/paper"
	"github.com/alejandrodnm/reversionbot/internal/adapters/storage"
	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func TestExecutor_FillsAndPersists(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, db.ApplyLiveSchema(ctx))

	ex := paper.NewExecutor(db)
	order, err := ex.PlaceOrder(ctx, domain.OrderRequest{
		EventID: "EV", Ticker: "EV-KC", Side: domain.SideBuy, PriceCents: 48, Contracts: 2, Reason: "entry",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.LiveStatusFilled, order.Status)
	assert.Equal(t, 48, order.FilledCents)
	require.NotNil(t, order.FilledAt)

	stored, err := db.GetLiveOrders(ctx, "EV")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)
	assert.Equal(t, "entry", stored[0].Reason)
}

func TestExecutor_RejectsInvalidOrders(t *testing.T) {
	ex := paper.NewExecutor(nil)

	order, err := ex.PlaceOrder(context.Background(), domain.OrderRequest{EventID: "EV", PriceCents: 101, Contracts: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.LiveStatusRejected, order.Status)
	assert.Nil(t, order.FilledAt)

	order, err = ex.PlaceOrder(context.Background(), domain.OrderRequest{EventID: "EV", PriceCents: 50})
	require.NoError(t, err)
	assert.Equal(t, domain.LiveStatusRejected, order.Status)
}
