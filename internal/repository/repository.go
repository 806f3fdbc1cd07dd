package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/order-engine/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// forUpdate 行级写锁；sqlite 驱动会忽略该子句，依赖带条件的原子更新兜底
var forUpdate = clause.Locking{Strength: "UPDATE"}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// InitSchema 初始化表结构
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Variant{},
		&model.CustomerProfile{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
