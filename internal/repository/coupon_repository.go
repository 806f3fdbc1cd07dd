package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
)

// CouponRepository 优惠券仓储，券码大小写不敏感
type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	LockByCode(ctx context.Context, code string) (*model.Coupon, error)
	// IncrementUsage 在未达上限时 used_count+1，达到上限返回 false
	IncrementUsage(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, c *model.Coupon) error
}

type couponRepository struct{ db *gorm.DB }

func NewCouponRepository(db *gorm.DB) CouponRepository { return &couponRepository{db: db} }

func (r *couponRepository) WithTx(tx *gorm.DB) CouponRepository {
	return &couponRepository{db: tx}
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.find(r.db.WithContext(ctx), code)
}

func (r *couponRepository) LockByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.find(r.db.WithContext(ctx).Clauses(forUpdate), code)
}

func (r *couponRepository) find(q *gorm.DB, code string) (*model.Coupon, error) {
	var c model.Coupon
	if err := q.Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *couponRepository) IncrementUsage(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}
