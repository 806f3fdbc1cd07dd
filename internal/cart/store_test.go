package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/order-engine/internal/testutil"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, testutil.NewDB(t), time.Hour), mr
}

func TestRedisStore_PutItemsClear(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "u1", 7, 2))
	require.NoError(t, s.Put(ctx, "u1", 3, 1))
	require.NoError(t, s.Put(ctx, "u1", 7, 4))
	assert.ErrorIs(t, s.Put(ctx, "u1", 7, 100), ErrInvalidQuantity)

	lines, err := s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []Line{{VariantID: 3, Quantity: 1}, {VariantID: 7, Quantity: 4}}, lines)
	assert.Equal(t, time.Hour, mr.TTL("cart:u1"))

	require.NoError(t, s.Put(ctx, "u1", 3, 0))
	lines, err = s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, s.Clear(ctx, "u1"))
	assert.False(t, mr.Exists("cart:u1"))
	lines, err = s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisStore_ViewUsesSnapshotCache(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	v := testutil.SeedVariant(t, s.db, "oud", "45.50", 3)

	require.NoError(t, s.Put(ctx, "u2", v.ID, 2))
	require.NoError(t, s.Put(ctx, "u2", 9999, 1))

	view, err := s.View(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	require.NotNil(t, view.Lines[0].Variant)
	assert.Equal(t, "oud", view.Lines[0].Variant.ProductName)
	assert.True(t, testutil.Dec("91").Equal(view.Subtotal), view.Subtotal.String())
	assert.Nil(t, view.Lines[1].Variant)
	assert.True(t, mr.Exists(variantKey(v.ID)))
	assert.EqualValues(t, 1, s.VariantLoads())

	// 只有缺失的 9999 会再次回源
	_, err = s.View(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.VariantLoads())

	require.NoError(t, s.Put(ctx, "u2", 9999, 0))
	_, err = s.View(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.VariantLoads())
}
