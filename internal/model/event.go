package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EventType 领域事件类型
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventVariantLowStock    EventType = "variant.low_stock"
)

// OrderEvent 提交后发给通知方的领域事件
type OrderEvent struct {
	ID             string          `json:"id"`
	Type           EventType       `json:"type"`
	OrderID        uint            `json:"order_id,omitempty"`
	OrderNumber    string          `json:"order_number,omitempty"`
	PreviousStatus OrderStatus     `json:"previous_status,omitempty"`
	Status         OrderStatus     `json:"status,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	CustomerName   string          `json:"customer_name,omitempty"`
	CustomerPhone  string          `json:"customer_phone,omitempty"`
	CustomerEmail  string          `json:"customer_email,omitempty"`
	Total          decimal.Decimal `json:"total"`
	VariantID      uint            `json:"variant_id,omitempty"`
	StockQuantity  int             `json:"stock_quantity,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Key 分区键：订单事件按订单号，库存事件按规格
func (e OrderEvent) Key() string {
	if e.OrderNumber != "" {
		return e.OrderNumber
	}
	return "variant-" + strconv.FormatUint(uint64(e.VariantID), 10)
}
