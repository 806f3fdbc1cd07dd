package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// OrderStatuses 全部合法状态
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Order 订单。金额字段在创建时计算一次，之后不再重算。
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerID      *uint           `json:"customer_id" gorm:"index"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(100);not null"`
	CustomerPhone   string          `json:"customer_phone" gorm:"type:varchar(20);index"`
	CustomerEmail   string          `json:"customer_email" gorm:"type:varchar(254)"`
	BirthDay        *int            `json:"birth_day,omitempty"`
	BirthMonth      *int            `json:"birth_month,omitempty"`
	BirthYear       *int            `json:"birth_year,omitempty"`
	City            string          `json:"city" gorm:"type:varchar(100);not null"`
	Area            string          `json:"area" gorm:"type:varchar(100)"`
	Address         string          `json:"address" gorm:"type:text;not null"`
	LocationDetails string          `json:"location_details" gorm:"type:text"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	CouponID        *uint           `json:"coupon_id,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty" gorm:"type:varchar(20)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null;default:pending"`
	Notes           string          `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Items         []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history" gorm:"foreignKey:OrderID"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 下单瞬间的商品快照，之后目录价格变化不影响
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"index;not null"`
	VariantID   uint            `json:"variant_id" gorm:"index;not null"`
	ProductName string          `json:"product_name" gorm:"type:varchar(200);not null"`
	VariantSize int             `json:"variant_size"`
	SKU         string          `json:"sku" gorm:"type:varchar(50)"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusHistory 状态流水，只追加
type OrderStatusHistory struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OrderID   uint        `json:"order_id" gorm:"index;not null"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);not null"`
	Notes     string      `json:"notes" gorm:"type:text"`
	ChangedBy string      `json:"changed_by" gorm:"type:varchar(100)"`
	CreatedAt time.Time   `json:"created_at"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
