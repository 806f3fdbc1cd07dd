package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 目录商品（只读引用，目录管理不在本服务范围内）
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(200);uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Variant 可购买的规格（容量/包装），拥有独立价格与库存
type Variant struct {
	ID                uint                `json:"id" gorm:"primaryKey"`
	ProductID         uint                `json:"product_id" gorm:"index;not null"`
	Product           *Product            `json:"product,omitempty"`
	SizeML            int                 `json:"size_ml"`
	SKU               string              `json:"sku" gorm:"type:varchar(50);uniqueIndex"`
	Price             decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	SalePrice         decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(10,2)"`
	StockQuantity     int                 `json:"stock_quantity" gorm:"not null;default:0;check:chk_variant_stock,stock_quantity >= 0"`
	LowStockThreshold int                 `json:"low_stock_threshold" gorm:"not null;default:5"`
	IsActive          bool                `json:"is_active" gorm:"not null;default:true"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (Variant) TableName() string { return "variants" }

// EffectivePrice 有效价格：促销价存在且非零时取促销价，否则取原价
func (v Variant) EffectivePrice() decimal.Decimal {
	if v.SalePrice.Valid && !v.SalePrice.Decimal.IsZero() {
		return v.SalePrice.Decimal
	}
	return v.Price
}

// ProductName 快照用的商品名
func (v Variant) ProductName() string {
	if v.Product != nil {
		return v.Product.Name
	}
	return ""
}
