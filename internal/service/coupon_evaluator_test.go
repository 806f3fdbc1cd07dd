package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/internal/testutil"
	"github.com/d60-Lab/order-engine/pkg/apperr"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	base := func() *model.Coupon {
		return &model.Coupon{
			Code:          "TEST10",
			DiscountType:  model.DiscountPercentage,
			DiscountValue: testutil.Dec("10"),
			ValidFrom:     now.Add(-time.Hour),
			ValidTo:       now.Add(time.Hour),
			IsActive:      true,
		}
	}
	limit := func(n int) *int { return &n }

	tests := []struct {
		name     string
		mutate   func(c *model.Coupon)
		subtotal string
		want     string
		kind     apperr.Kind
	}{
		{name: "percentage", subtotal: "100", want: "10"},
		{name: "percentage rounded", subtotal: "33.33", want: "3.33"},
		{name: "percentage capped", mutate: func(c *model.Coupon) {
			c.MaxDiscountAmount = decimal.NewNullDecimal(testutil.Dec("5"))
		}, subtotal: "100", want: "5"},
		{name: "fixed", mutate: func(c *model.Coupon) {
			c.DiscountType, c.DiscountValue = model.DiscountFixed, testutil.Dec("30")
		}, subtotal: "100", want: "30"},
		{name: "fixed never exceeds subtotal", mutate: func(c *model.Coupon) {
			c.DiscountType, c.DiscountValue = model.DiscountFixed, testutil.Dec("80")
		}, subtotal: "50", want: "50"},
		{name: "inactive", mutate: func(c *model.Coupon) { c.IsActive = false }, subtotal: "100", kind: apperr.KindConflict},
		{name: "expired", mutate: func(c *model.Coupon) { c.ValidTo = now.Add(-time.Minute) }, subtotal: "100", kind: apperr.KindConflict},
		{name: "not started", mutate: func(c *model.Coupon) { c.ValidFrom = now.Add(time.Minute) }, subtotal: "100", kind: apperr.KindConflict},
		{name: "exhausted", mutate: func(c *model.Coupon) { c.UsageLimit, c.UsedCount = limit(2), 2 }, subtotal: "100", kind: apperr.KindConflict},
		{name: "below minimum", mutate: func(c *model.Coupon) { c.MinOrderAmount = testutil.Dec("100") }, subtotal: "50", kind: apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			if tt.mutate != nil {
				tt.mutate(c)
			}
			got, err := Evaluate(c, testutil.Dec(tt.subtotal), now)
			if tt.kind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.kind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, testutil.Dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestEvaluate_MinimumMessageCarriesThreshold(t *testing.T) {
	now := time.Now()
	c := &model.Coupon{
		Code: "BIG", DiscountType: model.DiscountFixed, DiscountValue: testutil.Dec("10"),
		MinOrderAmount: testutil.Dec("100"), IsActive: true,
		ValidFrom: now.Add(-time.Hour), ValidTo: now.Add(time.Hour),
	}
	_, err := Evaluate(c, testutil.Dec("50"), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100.00")
}

func TestCouponEvaluator_ValidateHasNoSideEffects(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCoupon(t, db, "TEST10", model.DiscountPercentage, "10",
		testutil.WithUsageLimit(1), testutil.WithMaxDiscount("50"))
	eval := NewCouponEvaluator(repository.NewCouponRepository(db), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := eval.Validate(ctx, "test10", testutil.Dec("100"))
		require.NoError(t, err)
		assert.True(t, q.Valid)
		assert.True(t, testutil.Dec("10").Equal(q.Discount))
		require.NotNil(t, q.MaxDiscount)
		assert.True(t, testutil.Dec("50").Equal(*q.MaxDiscount))
	}

	var reloaded model.Coupon
	require.NoError(t, db.First(&reloaded, c.ID).Error)
	assert.Equal(t, 0, reloaded.UsedCount)

	_, err := eval.Validate(ctx, "missing", testutil.Dec("100"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = eval.Validate(ctx, " ", testutil.Dec("100"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCouponEvaluator_InactiveIsDistinctFromUnknown(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedCoupon(t, db, "OFF", model.DiscountFixed, "5", testutil.Inactive())
	eval := NewCouponEvaluator(repository.NewCouponRepository(db), nil)

	_, err := eval.Validate(context.Background(), "OFF", testutil.Dec("100"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
