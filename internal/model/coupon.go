package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 折扣类型
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon 优惠券，UsedCount 只在订单提交的同一事务内递增
type Coupon struct {
	ID                uint                `json:"id" gorm:"primaryKey"`
	Code              string              `json:"code" gorm:"type:varchar(20);uniqueIndex;not null"`
	DiscountType      DiscountType        `json:"discount_type" gorm:"type:varchar(15);not null"`
	DiscountValue     decimal.Decimal     `json:"discount_value" gorm:"type:decimal(10,2);not null"`
	MinOrderAmount    decimal.Decimal     `json:"min_order_amount" gorm:"type:decimal(10,2);not null;default:0"`
	MaxDiscountAmount decimal.NullDecimal `json:"max_discount_amount" gorm:"type:decimal(10,2)"`
	UsageLimit        *int                `json:"usage_limit"`
	UsedCount         int                 `json:"used_count" gorm:"not null;default:0"`
	ValidFrom         time.Time           `json:"valid_from" gorm:"not null"`
	ValidTo           time.Time           `json:"valid_to" gorm:"not null"`
	IsActive          bool                `json:"is_active" gorm:"not null;default:true"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (Coupon) TableName() string { return "coupons" }
