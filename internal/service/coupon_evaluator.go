package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/pkg/apperr"
)

var hundred = decimal.NewFromInt(100)

// Evaluate 校验优惠券并计算折扣（保留两位小数）。纯函数，不修改 coupon。
func Evaluate(c *model.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.IsActive {
		return decimal.Zero, apperr.Conflict("coupon %s is not active", c.Code)
	}
	if now.Before(c.ValidFrom) {
		return decimal.Zero, apperr.Conflict("coupon %s is not valid yet", c.Code)
	}
	if now.After(c.ValidTo) {
		return decimal.Zero, apperr.Conflict("coupon %s has expired", c.Code)
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return decimal.Zero, apperr.Conflict("coupon %s has reached its usage limit", c.Code)
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return decimal.Zero, apperr.Conflict("minimum order amount for coupon %s is %s",
			c.Code, c.MinOrderAmount.StringFixed(2)).
			WithDetails(map[string]any{"min_order_amount": c.MinOrderAmount.StringFixed(2)})
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount.Valid && discount.GreaterThan(c.MaxDiscountAmount.Decimal) {
			discount = c.MaxDiscountAmount.Decimal
		}
	case model.DiscountFixed:
		discount = c.DiscountValue
	default:
		return decimal.Zero, apperr.System(errors.New("unknown discount type " + string(c.DiscountType)))
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2), nil
}

// CouponQuote 结账前的优惠券校验结果
type CouponQuote struct {
	Code           string             `json:"code"`
	Valid          bool               `json:"valid"`
	DiscountType   model.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	MaxDiscount    *decimal.Decimal   `json:"max_discount"`
	MinOrderAmount decimal.Decimal    `json:"min_order_amount"`
	Discount       decimal.Decimal    `json:"discount"`
}

// CouponEvaluator 优惠券校验与核销
type CouponEvaluator struct {
	coupons repository.CouponRepository
	now     func() time.Time
}

func NewCouponEvaluator(coupons repository.CouponRepository, now func() time.Time) *CouponEvaluator {
	if now == nil {
		now = time.Now
	}
	return &CouponEvaluator{coupons: coupons, now: now}
}

// Validate 只读校验，不改变 used_count
func (e *CouponEvaluator) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*CouponQuote, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("coupon code is required")
	}
	if cartTotal.IsNegative() {
		return nil, apperr.Validation("cart_total must not be negative")
	}
	c, err := e.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, couponLookupError(code, err)
	}
	discount, err := Evaluate(c, cartTotal, e.now())
	if err != nil {
		return nil, err
	}
	q := &CouponQuote{
		Code:           c.Code,
		Valid:          true,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		Discount:       discount,
	}
	if c.MaxDiscountAmount.Valid {
		m := c.MaxDiscountAmount.Decimal
		q.MaxDiscount = &m
	}
	return q, nil
}

// Apply 在事务内锁定优惠券、计算折扣并核销一次
func (e *CouponEvaluator) Apply(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	repo := e.coupons.WithTx(tx)
	c, err := repo.LockByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, couponLookupError(code, err)
	}
	discount, err := Evaluate(c, subtotal, e.now())
	if err != nil {
		return nil, decimal.Zero, err
	}
	ok, err := repo.IncrementUsage(ctx, c.ID)
	if err != nil {
		return nil, decimal.Zero, apperr.System(err)
	}
	if !ok {
		return nil, decimal.Zero, apperr.Conflict("coupon %s has reached its usage limit", c.Code)
	}
	c.UsedCount++
	return c, discount, nil
}

func couponLookupError(code string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("coupon %s not found", strings.ToUpper(strings.TrimSpace(code)))
	}
	return apperr.System(err)
}
