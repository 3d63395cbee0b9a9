package worker

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const processedEventTTL = 24 * time.Hour

// EventLedger remembers which events were already handled
type EventLedger interface {
	MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// OrderEventWorker consumes order events published after checkout
type OrderEventWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	ledger       EventLedger
	logger       *zap.Logger
}

// NewOrderEventWorker creates a new order event worker. ledger may be nil,
// in which case redelivered events are handled again.
func NewOrderEventWorker(consumer *broker.Consumer, ledger EventLedger) *OrderEventWorker {
	w := &OrderEventWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		ledger:       ledger,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	return w
}

// Start starts the worker
func (w *OrderEventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order event worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderEventWorker) Stop() error {
	w.logger.Info("Stopping order event worker")
	return w.consumer.Close()
}

// HandleOrderPlaced records a placed order once per event id
func (w *OrderEventWorker) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderEventWorker.HandleOrderPlaced")
	defer span.End()

	if w.ledger != nil {
		first, err := w.ledger.MarkEventProcessed(ctx, event.EventID, processedEventTTL)
		if err != nil {
			util.RecordError(span, err)
			util.OrderEventsProcessedTotal.WithLabelValues(event.EventType, "error").Inc()
			return fmt.Errorf("failed to check event %s: %w", event.EventID, err)
		}
		if !first {
			util.OrderEventsProcessedTotal.WithLabelValues(event.EventType, "duplicate").Inc()
			w.logger.Info("Skipping duplicate event", zap.String("event_id", event.EventID))
			return nil
		}
	}

	util.OrderEventsProcessedTotal.WithLabelValues(event.EventType, "success").Inc()
	w.logger.Info("Order placed event processed",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber),
		zap.Int("total_items", event.TotalItems),
		zap.String("total_amount", event.TotalAmount.String()))
	return nil
}
