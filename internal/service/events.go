package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/pkg/logger"
)

// EventPublisher 领域事件的下游投递（通知方）
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

// CartClearer 下单成功后清理来源购物车
type CartClearer interface {
	Clear(ctx context.Context, owner string) error
}

// eventRaiser 补齐事件 ID 与时间后投递；投递失败只记日志
type eventRaiser struct {
	publisher EventPublisher
	now       func() time.Time
}

func newEventRaiser(publisher EventPublisher, now func() time.Time) *eventRaiser {
	if now == nil {
		now = time.Now
	}
	return &eventRaiser{publisher: publisher, now: now}
}

func (r *eventRaiser) raise(ctx context.Context, e model.OrderEvent) {
	if r == nil || r.publisher == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now().UTC()
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		logger.Warn("publish event failed",
			zap.String("event_id", e.ID),
			zap.String("type", string(e.Type)),
			zap.String("key", e.Key()),
			zap.Error(err),
		)
	}
}
