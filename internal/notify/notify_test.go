package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/pkg/logger"
)

type countingSink struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []model.OrderEvent
}

func (s *countingSink) Send(_ context.Context, e model.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("transient")
	}
	s.got = append(s.got, e)
	return nil
}

func (s *countingSink) snapshot() (int, []model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]model.OrderEvent(nil), s.got...)
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(sink, config.NotifyConfig{QueueSize: 16})
	stop := d.Start(2)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(context.Background(), model.OrderEvent{ID: "e", Type: model.EventOrderCreated, OrderNumber: "ORD-1"}))
	}
	require.NoError(t, stop(context.Background()))

	_, got := sink.snapshot()
	assert.Len(t, got, 10)
	assert.EqualValues(t, 10, d.Stats().Delivered)
	assert.ErrorIs(t, d.Publish(context.Background(), model.OrderEvent{}), ErrStopped)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	sink := &countingSink{failures: 2}
	d := NewDispatcher(sink, config.NotifyConfig{QueueSize: 4, MaxRetries: 3, RetryDelay: time.Millisecond})
	stop := d.Start(1)

	require.NoError(t, d.Publish(context.Background(), model.OrderEvent{ID: "e1", Type: model.EventOrderStatusChanged, OrderNumber: "ORD-2"}))
	require.NoError(t, stop(context.Background()))

	calls, got := sink.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestDispatcher_GivesUpAfterRetries(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	sink := &countingSink{failures: 100}
	d := NewDispatcher(sink, config.NotifyConfig{QueueSize: 4, MaxRetries: 1})
	stop := d.Start(1)
	require.NoError(t, d.Publish(context.Background(), model.OrderEvent{ID: "e1", OrderNumber: "ORD-3"}))
	require.NoError(t, stop(context.Background()))

	calls, _ := sink.snapshot()
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 1, d.Stats().Failed)
	assert.Equal(t, 1, logs.FilterMessage("deliver event failed").Len())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(&countingSink{}, config.NotifyConfig{QueueSize: 1})
	// 未启动 worker，第二条必然溢出
	require.NoError(t, d.Publish(context.Background(), model.OrderEvent{ID: "a"}))
	assert.ErrorIs(t, d.Publish(context.Background(), model.OrderEvent{ID: "b"}), ErrQueueFull)
	assert.EqualValues(t, 1, d.Stats().Dropped)
	assert.Equal(t, 1, d.Stats().Queued)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := sink.Send(context.Background(), model.OrderEvent{
		ID: "evt-1", Type: model.EventOrderCreated, OrderNumber: "ORD-20260102-123456",
		Status: model.OrderStatusPending, OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ORD-20260102-123456", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var decoded model.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, model.OrderStatusPending, decoded.Status)

	carrier := headerCarrier(msg.Headers)
	assert.Equal(t, "order.created", carrier.Get("event_type"))

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)

	w.err = errors.New("broker down")
	assert.Error(t, sink.Send(context.Background(), model.OrderEvent{VariantID: 3}))
}

func TestMultiSink(t *testing.T) {
	good := &countingSink{}
	bad := &countingSink{failures: 1}
	err := MultiSink{good, bad, LogSink{}}.Send(context.Background(), model.OrderEvent{ID: "x"})
	assert.Error(t, err)
	_, got := good.snapshot()
	assert.Len(t, got, 1)
}
