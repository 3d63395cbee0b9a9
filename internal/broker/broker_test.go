package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func sampleEvent() *models.OrderPlacedEvent {
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		OrderID:     "order-doc-1",
		OrderNumber: "ORD-1714555800000",
		TotalAmount: decimal.NewFromInt(25),
		TotalItems:  3,
		Items: []models.OrderItemData{
			{ProductID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
	}
}

func TestEventPublisher_PublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	publisher := NewEventPublisher(&Producer{writer: w, logger: zap.NewNop()})

	require.NoError(t, publisher.PublishOrderPlaced(context.Background(), sampleEvent()))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "order-order-doc-1", string(w.messages[0].Key))

	var decoded models.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "evt-1", decoded.EventID)
	assert.Equal(t, "ORD-1714555800000", decoded.OrderNumber)
	assert.True(t, decimal.NewFromInt(25).Equal(decoded.TotalAmount))
	assert.Len(t, decoded.Items, 2)
}

func TestProducer_WriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("no brokers")}
	p := &Producer{writer: w, logger: zap.NewNop()}

	err := p.PublishEvent(context.Background(), "k", map[string]string{"a": "b"})
	assert.Error(t, err)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEventHandler_RoutesOrderPlaced(t *testing.T) {
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	h := &EventHandler{logger: zap.NewNop()}
	var got *models.OrderPlacedEvent
	h.OnOrderPlaced(func(ctx context.Context, e *models.OrderPlacedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: body}))
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TotalItems)
}

func TestEventHandler_IgnoresUnknownTypes(t *testing.T) {
	h := &EventHandler{logger: zap.NewNop()}
	called := false
	h.OnOrderPlaced(func(ctx context.Context, e *models.OrderPlacedEvent) error {
		called = true
		return nil
	})

	err := h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)})
	require.NoError(t, err)
	assert.False(t, called)

	err = h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}

func TestConsumer_CommitsHandledMessagesOnly(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("bad")},
		{Offset: 3, Value: []byte("ok")},
	}}
	c := &Consumer{reader: r, topic: "order-events", logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
			if string(msg.Value) == "bad" {
				return errors.New("cannot handle")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return r.committedCount() == 2 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
