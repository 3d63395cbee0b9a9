package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/redisclient"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingLedger struct{}

func (failingLedger) MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func placedEvent(id string) *models.OrderPlacedEvent {
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   id,
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     "o1",
		OrderNumber: "ORD-1",
		TotalAmount: decimal.NewFromInt(25),
		TotalItems:  3,
	}
}

func TestOrderEventWorker_DeduplicatesByEventID(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redisclient.NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	w := &OrderEventWorker{ledger: client, logger: zap.NewNop()}
	ctx := context.Background()

	require.NoError(t, w.HandleOrderPlaced(ctx, placedEvent("evt-1")))
	require.NoError(t, w.HandleOrderPlaced(ctx, placedEvent("evt-1")))

	fresh, err := client.MarkEventProcessed(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.True(t, mr.Exists("processed:evt-1"))
	assert.Greater(t, mr.TTL("processed:evt-1"), time.Duration(0))
}

func TestOrderEventWorker_LedgerFailure(t *testing.T) {
	w := &OrderEventWorker{ledger: failingLedger{}, logger: zap.NewNop()}

	err := w.HandleOrderPlaced(context.Background(), placedEvent("evt-2"))
	assert.Error(t, err)
}

func TestOrderEventWorker_WithoutLedger(t *testing.T) {
	w := &OrderEventWorker{logger: zap.NewNop()}

	assert.NoError(t, w.HandleOrderPlaced(context.Background(), placedEvent("evt-3")))
	assert.NoError(t, w.HandleOrderPlaced(context.Background(), placedEvent("evt-3")))
}
