package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/pkg/logger"
)

// MessageWriter kafka.Writer 的最小接口，测试中可替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 以订单号为 key 写入 Kafka，消息头带事件类型与 trace 上下文
type KafkaSink struct {
	w MessageWriter
}

func NewKafkaSink(w MessageWriter) *KafkaSink { return &KafkaSink{w: w} }

// NewKafkaWriter 按配置创建 kafka.Writer
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireAll,
	}
}

func (s *KafkaSink) Send(ctx context.Context, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	carrier := headerCarrier{{Key: "event_type", Value: []byte(event.Type)}}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	return s.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Key()),
		Value:   payload,
		Headers: carrier,
		Time:    event.OccurredAt,
	})
}

func (s *KafkaSink) Close() error { return s.w.Close() }

// headerCarrier 让 otel 传播器读写 Kafka 消息头
type headerCarrier []kafka.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c))
	for i, h := range *c {
		keys[i] = h.Key
	}
	return keys
}

// LogSink 只记录日志，未接消息队列时使用
type LogSink struct{}

func (LogSink) Send(_ context.Context, event model.OrderEvent) error {
	logger.Info("order event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("key", event.Key()),
		zap.String("status", string(event.Status)),
		zap.String("previous_status", string(event.PreviousStatus)),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

// MultiSink 依次投递到每个 sink，汇总错误
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, event model.OrderEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
