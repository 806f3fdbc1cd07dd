// checkoutbench 并发结账压测：验证库存不超卖并输出延迟分位
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/notify"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/internal/service"
	"github.com/d60-Lab/order-engine/pkg/apperr"
	"github.com/d60-Lab/order-engine/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := repository.InitSchema(db); err != nil {
		panic(err)
	}
	ctx := context.Background()

	N := envInt("N", 2000)
	CONC := envInt("CONC", 16)
	STOCK := envInt("STOCK", 500)
	PHONES := envInt("PHONES", 50)
	couponLimit := envInt("COUPON_LIMIT", 0)

	variants := repository.NewVariantRepository(db)
	coupons := repository.NewCouponRepository(db)
	orders := repository.NewOrderRepository(db)

	tag := uuid.NewString()[:8]
	product := model.Product{Name: "bench-" + tag, Slug: "bench-" + tag, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		panic(err)
	}
	variant := model.Variant{
		ProductID:         product.ID,
		SizeML:            100,
		SKU:               "BENCH-" + tag,
		Price:             decimal.NewFromInt(100),
		StockQuantity:     STOCK,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	if err := variants.Create(ctx, &variant); err != nil {
		panic(err)
	}

	// 可选：每隔一单使用一张限量券，校验 used_count 不超过上限
	var couponCode string
	if couponLimit > 0 {
		now := time.Now().UTC()
		coupon := model.Coupon{
			Code:          "BENCH" + tag,
			DiscountType:  model.DiscountFixed,
			DiscountValue: decimal.NewFromInt(10),
			UsageLimit:    &couponLimit,
			ValidFrom:     now.Add(-time.Hour),
			ValidTo:       now.Add(24 * time.Hour),
			IsActive:      true,
		}
		if err := coupons.Create(ctx, &coupon); err != nil {
			panic(err)
		}
		couponCode = coupon.Code
	}
	ordersBefore := must(orders.Count(ctx))

	dispatcher := notify.NewDispatcher(notify.MultiSink{}, cfg.Notify)
	stopDispatcher := dispatcher.Start(cfg.Notify.Workers)
	opts := must(service.OptionsFromConfig(cfg.Order, cfg.Tracking))
	svc := service.NewOrderService(service.Deps{
		DB:        db,
		Customers: repository.NewCustomerRepository(db),
		Variants:  variants,
		Coupons:   coupons,
		Orders:    orders,
		Publisher: dispatcher,
	}, opts)

	workers := CONC
	if workers > N {
		workers = N
	}
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu         sync.Mutex
		lat        = make([]time.Duration, 0, N)
		succeeded  int
		discounted int
		conflicts  int
		failures   = map[apperr.Kind]int{}
		wg         sync.WaitGroup
	)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				in := service.CreateOrderInput{
					Customer: service.CustomerInput{
						Name:    fmt.Sprintf("buyer-%d", i),
						Phone:   fmt.Sprintf("010%08d", i%PHONES),
						City:    "Cairo",
						Address: "bench street",
					},
					Items: []service.LineItem{{VariantID: variant.ID, Quantity: 1}},
				}
				if couponCode != "" && i%2 == 0 {
					in.CouponCode = couponCode
				}
				st := time.Now()
				_, err := svc.CreateOrder(ctx, in)
				d := time.Since(st)

				mu.Lock()
				lat = append(lat, d)
				switch {
				case err == nil:
					succeeded++
					if in.CouponCode != "" {
						discounted++
					}
				case apperr.IsKind(err, apperr.KindConflict):
					conflicts++
				default:
					failures[apperr.KindOf(err)]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)
	_ = stopDispatcher(context.Background())

	remaining := must(variants.GetByID(ctx, variant.ID)).StockQuantity
	placed := must(orders.Count(ctx)) - ordersBefore

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("driver=%s N=%d CONC=%d STOCK=%d PHONES=%d\n", cfg.Database.Driver, N, CONC, STOCK, PHONES)
	fmt.Printf("checkout total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		total, total/time.Duration(N), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99))
	fmt.Printf("succeeded=%d conflicts=%d other=%v placed=%d remaining_stock=%d events=%+v\n",
		succeeded, conflicts, failures, placed, remaining, dispatcher.Stats())

	if placed != int64(succeeded) {
		fmt.Printf("ORDER COUNT MISMATCH: %d reported, %d stored\n", succeeded, placed)
		os.Exit(1)
	}
	if couponCode != "" {
		used := must(coupons.GetByCode(ctx, couponCode)).UsedCount
		fmt.Printf("coupon %s used=%d limit=%d discounted_orders=%d\n", couponCode, used, couponLimit, discounted)
		if used > couponLimit || used != discounted {
			fmt.Println("COUPON OVERUSE DETECTED")
			os.Exit(1)
		}
	}

	expected := STOCK - succeeded
	if remaining != expected || remaining < 0 || succeeded > STOCK {
		fmt.Printf("OVERSELL DETECTED: expected remaining %d, got %d\n", expected, remaining)
		os.Exit(1)
	}
	fmt.Println("no oversell")
}
