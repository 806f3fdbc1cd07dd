package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerProfile 客户档案（下单时创建或更新，不会被下单流程删除）
type CustomerProfile struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"type:varchar(100);not null;index:idx_customer_phone_name"`
	Phone           string          `json:"phone" gorm:"type:varchar(20);index:idx_customer_phone_name;index:idx_customer_phone"`
	Email           string          `json:"email" gorm:"type:varchar(254)"`
	BirthDay        *int            `json:"birth_day,omitempty"`
	BirthMonth      *int            `json:"birth_month,omitempty"`
	BirthYear       *int            `json:"birth_year,omitempty"`
	City            string          `json:"city" gorm:"type:varchar(100)"`
	Area            string          `json:"area" gorm:"type:varchar(100)"`
	Address         string          `json:"address" gorm:"type:text"`
	LocationDetails string          `json:"location_details" gorm:"type:text"`
	TotalOrders     int             `json:"total_orders" gorm:"not null;default:0"`
	TotalSpent      decimal.Decimal `json:"total_spent" gorm:"type:decimal(12,2);not null;default:0"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value" gorm:"type:decimal(12,2);not null;default:0"`
	LastOrderDate   *time.Time      `json:"last_order_date,omitempty"`
	LastActivity    time.Time       `json:"last_activity" gorm:"index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (CustomerProfile) TableName() string { return "customer_profiles" }
