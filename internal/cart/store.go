// Package cart 基于 Redis 的购物车存储，下单成功后由订单服务清空
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
)

// MaxQuantity 单个规格在购物车中的数量上限
const MaxQuantity = 99

var ErrInvalidQuantity = errors.New("quantity must be between 0 and 99")

// Line 购物车中的一行
type Line struct {
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// VariantSnapshot 购物车展示所需的规格快照，缓存在 variant:<id>
type VariantSnapshot struct {
	ID          uint            `json:"id"`
	ProductName string          `json:"product_name"`
	SizeML      int             `json:"size_ml"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	InStock     int             `json:"in_stock"`
	IsActive    bool            `json:"is_active"`
}

// ViewLine 带价格的购物车行
type ViewLine struct {
	Line
	Variant   *VariantSnapshot `json:"variant,omitempty"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

// View 购物车展示
type View struct {
	Owner    string          `json:"owner"`
	Lines    []ViewLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// RedisStore 购物车存为 hash cart:<owner>，field 为 variant_id，value 为数量
type RedisStore struct {
	rdb         *redis.Client
	db          *gorm.DB
	ttl         time.Duration
	snapshotTTL time.Duration

	variantLoads atomic.Int64
}

func NewRedisStore(rdb *redis.Client, db *gorm.DB, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, db: db, ttl: ttl, snapshotTTL: time.Minute}
}

func cartKey(owner string) string { return "cart:" + owner }

func variantKey(id uint) string { return fmt.Sprintf("variant:%d", id) }

// Put 设置某规格的数量，0 表示移除
func (s *RedisStore) Put(ctx context.Context, owner string, variantID uint, qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}
	key := cartKey(owner)
	field := strconv.FormatUint(uint64(variantID), 10)
	pipe := s.rdb.TxPipeline()
	if qty == 0 {
		pipe.HDel(ctx, key, field)
	} else {
		pipe.HSet(ctx, key, field, qty)
	}
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Items 按 variant_id 升序返回购物车内容
func (s *RedisStore) Items(ctx context.Context, owner string) ([]Line, error) {
	raw, err := s.rdb.HGetAll(ctx, cartKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(raw))
	for field, val := range raw {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(val)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, Line{VariantID: uint(id), Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].VariantID < lines[j].VariantID })
	return lines, nil
}

// Clear 删除整个购物车
func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	return s.rdb.Del(ctx, cartKey(owner)).Err()
}

// View 返回带价格的购物车；规格快照先查缓存，未命中批量回源数据库
func (s *RedisStore) View(ctx context.Context, owner string) (*View, error) {
	lines, err := s.Items(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.VariantID
	}
	snaps, err := s.loadVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	v := &View{Owner: owner, Lines: make([]ViewLine, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		vl := ViewLine{Line: l, LineTotal: decimal.Zero}
		if snap, ok := snaps[l.VariantID]; ok {
			vl.Variant = &snap
			vl.LineTotal = snap.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			v.Subtotal = v.Subtotal.Add(vl.LineTotal)
		}
		v.Lines = append(v.Lines, vl)
	}
	return v, nil
}

func (s *RedisStore) loadVariants(ctx context.Context, ids []uint) (map[uint]VariantSnapshot, error) {
	out := make(map[uint]VariantSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = variantKey(id)
	}
	if vals, err := s.rdb.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var snap VariantSnapshot
			if json.Unmarshal([]byte(str), &snap) == nil {
				out[ids[i]] = snap
			}
		}
	}

	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	s.variantLoads.Add(1)
	var variants []model.Variant
	if err := s.db.WithContext(ctx).Preload("Product").Where("id IN ?", missing).Find(&variants).Error; err != nil {
		return nil, err
	}
	pipe := s.rdb.Pipeline()
	for _, v := range variants {
		snap := VariantSnapshot{
			ID:          v.ID,
			ProductName: v.ProductName(),
			SizeML:      v.SizeML,
			UnitPrice:   v.EffectivePrice(),
			InStock:     v.StockQuantity,
			IsActive:    v.IsActive,
		}
		out[v.ID] = snap
		if payload, err := json.Marshal(snap); err == nil {
			pipe.Set(ctx, variantKey(v.ID), payload, s.snapshotTTL)
		}
	}
	_, _ = pipe.Exec(ctx)
	return out, nil
}

// VariantLoads 回源数据库的次数
func (s *RedisStore) VariantLoads() int64 { return s.variantLoads.Load() }
