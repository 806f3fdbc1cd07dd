package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/pkg/apperr"
)

// LineItem 一行购买请求
type LineItem struct {
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// PricedLine 校验通过、已冻结价格的购买行
type PricedLine struct {
	Variant    model.Variant
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// OrderItem 生成订单明细快照
func (l PricedLine) OrderItem() model.OrderItem {
	return model.OrderItem{
		VariantID:   l.Variant.ID,
		ProductName: l.Variant.ProductName(),
		VariantSize: l.Variant.SizeML,
		SKU:         l.Variant.SKU,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TotalPrice:  l.TotalPrice,
	}
}

// StockLevel 扣减后的库存水位
type StockLevel struct {
	VariantID   uint
	Remaining   int
	Threshold   int
	Decremented int
}

// Low 本次扣减是否跨过低库存阈值；已低于阈值的后续扣减不再提示
func (s StockLevel) Low() bool {
	return s.Remaining <= s.Threshold && s.Remaining+s.Decremented > s.Threshold
}

// InventoryLedger 库存校验与扣减
type InventoryLedger struct {
	variants repository.VariantRepository
}

func NewInventoryLedger(variants repository.VariantRepository) *InventoryLedger {
	return &InventoryLedger{variants: variants}
}

// Reserve 锁定并校验所有购买行；任意一行失败则整体失败，不做任何修改。
// 同一规格的多行合并为一行，按首次出现的顺序返回。
func (l *InventoryLedger) Reserve(ctx context.Context, tx *gorm.DB, lines []LineItem) ([]PricedLine, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}

	order := make([]uint, 0, len(lines))
	qty := make(map[uint]int, len(lines))
	for _, ln := range lines {
		if ln.VariantID == 0 {
			return nil, apperr.Validation("variant_id is required")
		}
		if ln.Quantity < 1 {
			return nil, apperr.Validation("quantity for variant %d must be at least 1", ln.VariantID)
		}
		if _, seen := qty[ln.VariantID]; !seen {
			order = append(order, ln.VariantID)
		}
		qty[ln.VariantID] += ln.Quantity
	}

	ids := append([]uint(nil), order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked, err := l.variants.WithTx(tx).LockByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.System(err)
	}
	byID := make(map[uint]model.Variant, len(locked))
	for _, v := range locked {
		byID[v.ID] = v
	}

	priced := make([]PricedLine, 0, len(order))
	for _, id := range order {
		v, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("variant %d not found", id).
				WithDetails(map[string]any{"variant_id": id})
		}
		if !v.IsActive || (v.Product != nil && !v.Product.IsActive) {
			return nil, apperr.Conflict("variant %d is not available", id).
				WithDetails(map[string]any{"variant_id": id})
		}
		q := qty[id]
		if q > v.StockQuantity {
			return nil, apperr.Conflict("insufficient stock for %s: requested %d, available %d",
				displayName(v), q, v.StockQuantity).
				WithDetails(map[string]any{"variant_id": id, "requested": q, "available": v.StockQuantity})
		}
		unit := v.EffectivePrice()
		priced = append(priced, PricedLine{
			Variant:    v,
			Quantity:   q,
			UnitPrice:  unit,
			TotalPrice: unit.Mul(decimal.NewFromInt(int64(q))),
		})
	}
	return priced, nil
}

// Commit 按 id 升序原子扣减库存；条件更新未命中视为并发冲突
func (l *InventoryLedger) Commit(ctx context.Context, tx *gorm.DB, lines []PricedLine) ([]StockLevel, error) {
	sorted := append([]PricedLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Variant.ID < sorted[j].Variant.ID })

	repo := l.variants.WithTx(tx)
	levels := make([]StockLevel, 0, len(sorted))
	for _, ln := range sorted {
		ok, err := repo.DecrementStock(ctx, ln.Variant.ID, ln.Quantity)
		if err != nil {
			return nil, apperr.System(err)
		}
		if !ok {
			return nil, apperr.Conflict("insufficient stock for %s", displayName(ln.Variant)).
				WithDetails(map[string]any{"variant_id": ln.Variant.ID, "requested": ln.Quantity})
		}
		levels = append(levels, StockLevel{
			VariantID:   ln.Variant.ID,
			Remaining:   ln.Variant.StockQuantity - ln.Quantity,
			Threshold:   ln.Variant.LowStockThreshold,
			Decremented: ln.Quantity,
		})
	}
	return levels, nil
}

// Subtotal 所有行金额之和
func Subtotal(lines []PricedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, ln := range lines {
		sum = sum.Add(ln.TotalPrice)
	}
	return sum
}

func displayName(v model.Variant) string {
	if name := v.ProductName(); name != "" {
		if v.SizeML > 0 {
			return name + " " + strconv.Itoa(v.SizeML) + "ml"
		}
		return name
	}
	return v.SKU
}
