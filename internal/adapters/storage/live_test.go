package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func TestLiveStorage_Orders(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	require.NoError(t, db.ApplyLiveSchema(ctx))

	placed := time.Now().UTC().Truncate(time.Second)
	filled := placed.Add(time.Second)
	require.NoError(t, db.SaveLiveOrder(ctx, domain.LiveOrder{
		ID: "o1", EventID: "EV", Ticker: "EV-KC", Side: domain.SideBuy, PriceCents: 41, Contracts: 1,
		Reason: "entry", Status: domain.LiveStatusFilled, PlacedAt: placed, FilledAt: &filled, FilledCents: 41,
	}))
	require.NoError(t, db.SaveLiveOrder(ctx, domain.LiveOrder{
		ID: "o2", EventID: "EV", Ticker: "EV-KC", Side: domain.SideSell, PriceCents: 55, Contracts: 1,
		Reason: "reversion_band", Status: domain.LiveStatusOpen, PlacedAt: placed.Add(time.Minute),
	}))
	require.NoError(t, db.SaveLiveOrder(ctx, domain.LiveOrder{
		ID: "other", EventID: "EV2", Ticker: "EV2-X", Side: domain.SideBuy, PriceCents: 30, Contracts: 1,
		Status: domain.LiveStatusOpen, PlacedAt: placed,
	}))

	orders, err := db.GetLiveOrders(ctx, "EV")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, domain.SideBuy, orders[0].Side)
	assert.Equal(t, domain.LiveStatusFilled, orders[0].Status)
	require.NotNil(t, orders[0].FilledAt)
	assert.Nil(t, orders[1].FilledAt)
}

func TestLiveStorage_Positions(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	require.NoError(t, db.ApplyLiveSchema(ctx))

	pos := domain.LivePosition{EventID: "EV", Ticker: "EV-KC", Stage: domain.StageFilled, PregameCents: 62, EntryCents: 41, EntryTime: 100}
	require.NoError(t, db.SaveLivePosition(ctx, pos))

	pos.Stage = domain.StageClosed
	pos.ExitCents, pos.ExitTime, pos.ExitReason, pos.NetCents = 55, 200, domain.ExitReversionBand, 12
	require.NoError(t, db.SaveLivePosition(ctx, pos))

	got, err := db.GetLivePositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StageClosed, got[0].Stage)
	assert.Equal(t, domain.ExitReversionBand, got[0].ExitReason)
	assert.Equal(t, 12, got[0].NetCents)
}
