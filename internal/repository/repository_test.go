package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/internal/testutil"
)

func TestVariantDecrementStock_NeverNegative(t *testing.T) {
	db := testutil.NewDB(t)
	v := testutil.SeedVariant(t, db, "oud", "100", 3)
	repo := repository.NewVariantRepository(db)
	ctx := context.Background()

	ok, err := repo.DecrementStock(ctx, v.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, v.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)
	assert.Equal(t, "oud", got.ProductName())
}

func TestVariantLockByIDs_Ordered(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedVariant(t, db, "a", "10", 1)
	b := testutil.SeedVariant(t, db, "b", "10", 1)
	repo := repository.NewVariantRepository(db)

	var got []model.Variant
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		got, err = repo.WithTx(tx).LockByIDs(context.Background(), []uint{b.ID, a.ID, 999})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
	require.NotNil(t, got[1].Product)
	assert.Equal(t, "b", got[1].Product.Name)
}

func TestCouponRepository(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.SeedCoupon(t, db, "SAVE10", model.DiscountPercentage, "10", testutil.WithUsageLimit(1))
	repo := repository.NewCouponRepository(db)
	ctx := context.Background()

	got, err := repo.GetByCode(ctx, "  save10 ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = repo.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ok, err := repo.IncrementUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok, "usage limit reached")

	got, err = repo.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestCustomerRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCustomerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	older := &model.CustomerProfile{Name: "Ahmed", Phone: "01000000000", LastActivity: now.Add(-time.Hour)}
	newer := &model.CustomerProfile{Name: "Mona", Phone: "01000000000", LastActivity: now}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.FindByPhoneAndName(ctx, "01000000000", "Ahmed")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	got, err = repo.FindByPhone(ctx, "01000000000")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = repo.FindByPhone(ctx, "0999")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.RecordOrder(ctx, older.ID, testutil.Dec("100"), now))
	require.NoError(t, repo.RecordOrder(ctx, older.ID, testutil.Dec("50"), now))

	got = &model.CustomerProfile{}
	require.NoError(t, db.First(got, older.ID).Error)
	assert.Equal(t, 2, got.TotalOrders)
	assert.True(t, testutil.Dec("150").Equal(got.TotalSpent), got.TotalSpent.String())
	assert.True(t, testutil.Dec("75").Equal(got.AvgOrderValue), got.AvgOrderValue.String())
	require.NotNil(t, got.LastOrderDate)

	assert.ErrorIs(t, repo.RecordOrder(ctx, 424242, testutil.Dec("1"), now), repository.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	order := &model.Order{
		OrderNumber:  "ORD-20260101-000001",
		CustomerName: "Ahmed",
		City:         "Cairo",
		Address:      "1 Nile St",
		Subtotal:     testutil.Dec("200"),
		ShippingCost: testutil.Dec("0"),
		Total:        testutil.Dec("200"),
		Status:       model.OrderStatusPending,
		Items: []model.OrderItem{
			{VariantID: 1, ProductName: "oud", Quantity: 2, UnitPrice: testutil.Dec("100"), TotalPrice: testutil.Dec("200")},
		},
	}
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, repo.AppendHistory(ctx, &model.OrderStatusHistory{OrderID: order.ID, Status: model.OrderStatusPending, Notes: "order created"}))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed))
	require.NoError(t, repo.AppendHistory(ctx, &model.OrderStatusHistory{OrderID: order.ID, Status: model.OrderStatusConfirmed}))

	exists, err := repo.ExistsOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
	require.Len(t, got.Items, 1)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, model.OrderStatusPending, got.StatusHistory[0].Status)
	assert.Equal(t, model.OrderStatusConfirmed, got.StatusHistory[1].Status)

	dup := *order
	dup.ID = 0
	dup.Items = nil
	err = repo.Create(ctx, &dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, model.OrderStatusShipped), repository.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func BenchmarkDecrementStock(b *testing.B) {
	db := testutil.NewDB(b)
	v := testutil.SeedVariant(b, db, "bench", "10", b.N+1)
	repo := repository.NewVariantRepository(db)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.DecrementStock(ctx, v.ID, 1); err != nil {
			b.Fatalf("decrement: %v", err)
		}
	}
}
