package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository

	// Create 创建订单（连同 Items）
	Create(ctx context.Context, order *model.Order) error

	// GetByID 查询订单，预加载明细与状态流水
	GetByID(ctx context.Context, id uint) (*model.Order, error)

	// GetByOrderNumber 根据订单号查询
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// LockByID 加行锁读取订单（不含明细）
	LockByID(ctx context.Context, id uint) (*model.Order, error)

	// ExistsOrderNumber 订单号是否已被占用
	ExistsOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error

	// AppendHistory 追加状态流水
	AppendHistory(ctx context.Context, h *model.OrderStatusHistory) error

	// Count 统计订单数量
	Count(ctx context.Context) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.withDetails(ctx).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.withDetails(ctx).Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *orderRepository) LockByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) ExistsOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) AppendHistory(ctx context.Context, h *model.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}
