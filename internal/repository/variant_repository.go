package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
)

// VariantRepository 规格与库存仓储
type VariantRepository interface {
	WithTx(tx *gorm.DB) VariantRepository
	GetByID(ctx context.Context, id uint) (*model.Variant, error)
	// LockByIDs 按 id 升序加行锁读取，固定加锁顺序避免死锁
	LockByIDs(ctx context.Context, ids []uint) ([]model.Variant, error)
	// DecrementStock 比较并扣减：库存不足时不修改并返回 false
	DecrementStock(ctx context.Context, id uint, qty int) (bool, error)
	Create(ctx context.Context, v *model.Variant) error
}

type variantRepository struct{ db *gorm.DB }

func NewVariantRepository(db *gorm.DB) VariantRepository { return &variantRepository{db: db} }

func (r *variantRepository) WithTx(tx *gorm.DB) VariantRepository {
	return &variantRepository{db: tx}
}

func (r *variantRepository) GetByID(ctx context.Context, id uint) (*model.Variant, error) {
	var v model.Variant
	if err := r.db.WithContext(ctx).Preload("Product").First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *variantRepository) LockByIDs(ctx context.Context, ids []uint) ([]model.Variant, error) {
	var res []model.Variant
	if len(ids) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Preload("Product").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&res).Error
	return res, err
}

func (r *variantRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *variantRepository) Create(ctx context.Context, v *model.Variant) error {
	return r.db.WithContext(ctx).Create(v).Error
}
