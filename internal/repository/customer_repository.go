package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
)

// CustomerRepository 客户档案仓储
type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	// FindByPhoneAndName 精确匹配 (phone, name)
	FindByPhoneAndName(ctx context.Context, phone, name string) (*model.CustomerProfile, error)
	// FindByPhone 仅按电话匹配，多条时取最近活跃的一条
	FindByPhone(ctx context.Context, phone string) (*model.CustomerProfile, error)
	Create(ctx context.Context, c *model.CustomerProfile) error
	// UpdateContact 只写身份与联系字段，不覆盖聚合统计
	UpdateContact(ctx context.Context, c *model.CustomerProfile) error
	// RecordOrder 原子累加订单统计，单条 UPDATE 持有行锁
	RecordOrder(ctx context.Context, id uint, total decimal.Decimal, at time.Time) error
}

type customerRepository struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepository{db: db} }

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepository{db: tx}
}

func (r *customerRepository) FindByPhoneAndName(ctx context.Context, phone, name string) (*model.CustomerProfile, error) {
	var c model.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("phone = ? AND name = ?", phone, name).
		Order("last_activity DESC, id DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *customerRepository) FindByPhone(ctx context.Context, phone string) (*model.CustomerProfile, error) {
	var c model.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("last_activity DESC, id DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *model.CustomerProfile) error {
	return r.db.WithContext(ctx).Create(c).Error
}

var contactColumns = []string{
	"name", "email", "birth_day", "birth_month", "birth_year",
	"city", "area", "address", "location_details", "last_activity",
}

func (r *customerRepository) UpdateContact(ctx context.Context, c *model.CustomerProfile) error {
	return r.db.WithContext(ctx).Model(c).Select(contactColumns).Updates(c).Error
}

func (r *customerRepository) RecordOrder(ctx context.Context, id uint, total decimal.Decimal, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.CustomerProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_orders":    gorm.Expr("total_orders + 1"),
			"total_spent":     gorm.Expr("total_spent + ?", total),
			"avg_order_value": gorm.Expr("ROUND((total_spent + ?) * 1.0 / (total_orders + 1), 2)", total),
			"last_order_date": at,
			"last_activity":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
