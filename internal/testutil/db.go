// Package testutil 提供基于 sqlite 内存库的测试夹具
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
)

var dbSeq atomic.Int64

// NewDB 打开独立的共享缓存内存库并完成迁移；单连接保证同一个库在测试内可见
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.InitSchema(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Dec 把字符串解析为 decimal，测试内使用
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedVariant 创建一个商品及其规格
func SeedVariant(tb testing.TB, db *gorm.DB, name string, price string, stock int) *model.Variant {
	tb.Helper()
	seq := dbSeq.Add(1)
	p := &model.Product{Name: name, Slug: fmt.Sprintf("%s-%d", name, seq), IsActive: true}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	v := &model.Variant{
		ProductID:         p.ID,
		Product:           p,
		SizeML:            100,
		SKU:               fmt.Sprintf("SKU-%d", seq),
		Price:             Dec(price),
		StockQuantity:     stock,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	if err := db.Omit("Product").Create(v).Error; err != nil {
		tb.Fatalf("seed variant: %v", err)
	}
	return v
}

// CouponOption 调整种子优惠券字段
type CouponOption func(*model.Coupon)

func WithUsageLimit(n int) CouponOption {
	return func(c *model.Coupon) { c.UsageLimit = &n }
}

func WithMaxDiscount(s string) CouponOption {
	return func(c *model.Coupon) { c.MaxDiscountAmount = decimal.NewNullDecimal(Dec(s)) }
}

func WithMinOrder(s string) CouponOption {
	return func(c *model.Coupon) { c.MinOrderAmount = Dec(s) }
}

func WithWindow(from, to time.Time) CouponOption {
	return func(c *model.Coupon) { c.ValidFrom, c.ValidTo = from, to }
}

func Inactive() CouponOption {
	return func(c *model.Coupon) { c.IsActive = false }
}

// SeedCoupon 创建一个当前有效的优惠券
func SeedCoupon(tb testing.TB, db *gorm.DB, code string, typ model.DiscountType, value string, opts ...CouponOption) *model.Coupon {
	tb.Helper()
	now := time.Now().UTC()
	c := &model.Coupon{
		Code:           code,
		DiscountType:   typ,
		DiscountValue:  Dec(value),
		MinOrderAmount: decimal.Zero,
		ValidFrom:      now.Add(-24 * time.Hour),
		ValidTo:        now.Add(24 * time.Hour),
		IsActive:       true,
	}
	for _, o := range opts {
		o(c)
	}
	// is_active 有默认值 true，零值 false 需要显式写入
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed coupon: %v", err)
	}
	if !c.IsActive {
		if err := db.Model(c).Update("is_active", false).Error; err != nil {
			tb.Fatalf("deactivate coupon: %v", err)
		}
	}
	return c
}
