package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/pkg/apperr"
)

// TransitionPolicy 允许的状态迁移表；nil 表示任意迁移
type TransitionPolicy map[model.OrderStatus][]model.OrderStatus

// NewTransitionPolicy 从配置构建迁移表，未知状态报错
func NewTransitionPolicy(raw map[string][]string) (TransitionPolicy, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	p := make(TransitionPolicy, len(raw))
	for from, tos := range raw {
		f := model.OrderStatus(from)
		if !f.Valid() {
			return nil, fmt.Errorf("unknown status %q in transition table", from)
		}
		for _, to := range tos {
			t := model.OrderStatus(to)
			if !t.Valid() {
				return nil, fmt.Errorf("unknown status %q in transition table", to)
			}
			p[f] = append(p[f], t)
		}
	}
	return p, nil
}

// Allows 是否允许 from -> to
func (p TransitionPolicy) Allows(from, to model.OrderStatus) bool {
	if p == nil {
		return true
	}
	for _, s := range p[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusTracker 维护只追加的状态流水，并保持订单当前状态与流水末尾一致
type StatusTracker struct {
	db     *gorm.DB
	orders repository.OrderRepository
	policy TransitionPolicy
	events *eventRaiser
	now    func() time.Time
}

func NewStatusTracker(db *gorm.DB, orders repository.OrderRepository, policy TransitionPolicy, publisher EventPublisher, now func() time.Time) *StatusTracker {
	if now == nil {
		now = time.Now
	}
	return &StatusTracker{db: db, orders: orders, policy: policy, events: newEventRaiser(publisher, now), now: now}
}

// Append 在事务内追加一条流水并同步订单状态
func (t *StatusTracker) Append(ctx context.Context, tx *gorm.DB, order *model.Order, status model.OrderStatus, note, actor string) (*model.OrderStatusHistory, error) {
	if note == "" {
		note = "status changed to " + string(status)
	}
	h := &model.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    status,
		Notes:     note,
		ChangedBy: actor,
		CreatedAt: t.now().UTC(),
	}
	repo := t.orders.WithTx(tx)
	if err := repo.AppendHistory(ctx, h); err != nil {
		return nil, err
	}
	if order.Status != status {
		if err := repo.UpdateStatus(ctx, order.ID, status); err != nil {
			return nil, err
		}
	}
	order.Status = status
	return h, nil
}

// Transition 管理员变更订单状态，提交后发出 order.status_changed
func (t *StatusTracker) Transition(ctx context.Context, orderID uint, status model.OrderStatus, note, actor string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}

	var (
		order    *model.Order
		previous model.OrderStatus
		entry    *model.OrderStatusHistory
	)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = t.orders.WithTx(tx).LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("order %d not found", orderID)
			}
			return err
		}
		previous = order.Status
		if !t.policy.Allows(previous, status) {
			return apperr.Conflict("cannot change order status from %s to %s", previous, status)
		}
		entry, err = t.Append(ctx, tx, order, status, note, actor)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	t.events.raise(ctx, model.OrderEvent{
		Type:           model.EventOrderStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: previous,
		Status:         status,
		Notes:          entry.Notes,
		Actor:          actor,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		CustomerEmail:  order.CustomerEmail,
		Total:          order.Total,
	})

	full, err := t.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperr.System(err)
	}
	return full, nil
}
