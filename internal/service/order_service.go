package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/pkg/apperr"
	"github.com/d60-Lab/order-engine/pkg/logger"
	"github.com/d60-Lab/order-engine/pkg/tracing"
)

const checkoutActor = "checkout"

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	Customer   CustomerInput
	Notes      string
	CouponCode string
	Items      []LineItem
	// CartOwner 下单后需要清空的购物车归属，空表示无
	CartOwner string
}

// OrderService 订单服务
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	TrackOrder(ctx context.Context, orderNumber, phone string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus, note, actor string) (*model.Order, error)
	ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (*CouponQuote, error)
}

// Options 下单策略
type Options struct {
	ShippingCost         decimal.Decimal
	NumberPrefix         string
	NumberSuffixDigits   int
	NumberAttempts       int
	CartClearTimeout     time.Duration
	RequireTrackingPhone bool
	Transitions          TransitionPolicy
}

// OptionsFromConfig 由配置生成下单策略
func OptionsFromConfig(order config.OrderConfig, tracking config.TrackingConfig) (Options, error) {
	shipping, err := order.Shipping()
	if err != nil {
		return Options{}, err
	}
	policy, err := NewTransitionPolicy(order.Transitions)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ShippingCost:         shipping,
		NumberPrefix:         order.NumberPrefix,
		NumberSuffixDigits:   order.NumberSuffixDigits,
		NumberAttempts:       order.NumberAttempts,
		CartClearTimeout:     order.CartClearTimeout,
		RequireTrackingPhone: tracking.RequirePhone,
		Transitions:          policy,
	}, nil
}

// Deps 订单服务依赖；Clock 与 Digits 可在测试中替换
type Deps struct {
	DB        *gorm.DB
	Customers repository.CustomerRepository
	Variants  repository.VariantRepository
	Coupons   repository.CouponRepository
	Orders    repository.OrderRepository
	Publisher EventPublisher
	Cart      CartClearer
	Clock     func() time.Time
	Digits    func(n int) string
}

type orderService struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	reconcile *CustomerReconciler
	inventory *InventoryLedger
	coupons   *CouponEvaluator
	tracker   *StatusTracker
	events    *eventRaiser
	cart      CartClearer
	opts      Options
	now       func() time.Time
	digits    func(n int) string
}

// NewOrderService 组装订单服务
func NewOrderService(deps Deps, opts Options) OrderService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	digits := deps.Digits
	if digits == nil {
		digits = randomDigits
	}
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = "ORD"
	}
	if opts.NumberSuffixDigits <= 0 {
		opts.NumberSuffixDigits = 6
	}
	if opts.NumberAttempts <= 0 {
		opts.NumberAttempts = 5
	}
	if opts.CartClearTimeout <= 0 {
		opts.CartClearTimeout = 2 * time.Second
	}
	return &orderService{
		db:        deps.DB,
		orders:    deps.Orders,
		customers: deps.Customers,
		reconcile: NewCustomerReconciler(deps.Customers),
		inventory: NewInventoryLedger(deps.Variants),
		coupons:   NewCouponEvaluator(deps.Coupons, now),
		tracker:   NewStatusTracker(deps.DB, deps.Orders, opts.Transitions, deps.Publisher, now),
		events:    newEventRaiser(deps.Publisher, now),
		cart:      deps.Cart,
		opts:      opts,
		now:       now,
		digits:    digits,
	}
}

func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

func validateCreate(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return apperr.Validation("customer name is required")
	}
	if strings.TrimSpace(in.Customer.City) == "" {
		return apperr.Validation("city is required")
	}
	if strings.TrimSpace(in.Customer.Address) == "" {
		return apperr.Validation("address is required")
	}
	for _, it := range in.Items {
		if it.VariantID == 0 {
			return apperr.Validation("variant_id is required")
		}
		if it.Quantity < 1 {
			return apperr.Validation("quantity for variant %d must be at least 1", it.VariantID)
		}
	}
	return nil
}

// checkoutResult 事务提交后需要的信息
type checkoutResult struct {
	order  *model.Order
	levels []StockLevel
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	ctx, span := tracing.Tracer("order-engine/service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("order.lines", len(in.Items)))

	if err := validateCreate(in); err != nil {
		return nil, err
	}

	var (
		res *checkoutResult
		err error
	)
	for attempt := 1; attempt <= s.opts.NumberAttempts; attempt++ {
		res, err = s.checkout(ctx, in)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logger.Warn("order number collided at insert, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		ae := apperr.Wrap(err)
		if ae.Kind == apperr.KindSystem {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout failed")
			logger.Error("checkout failed",
				zap.String("customer_phone", NormalizePhone(in.Customer.Phone)),
				zap.Int("lines", len(in.Items)),
				zap.Error(err),
			)
		}
		return nil, ae
	}

	order := res.order
	span.SetAttributes(attribute.String("order.number", order.OrderNumber))
	logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)

	s.events.raise(ctx, model.OrderEvent{
		Type:          model.EventOrderCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
	})
	for _, lv := range res.levels {
		if lv.Low() {
			s.events.raise(ctx, model.OrderEvent{
				Type:          model.EventVariantLowStock,
				VariantID:     lv.VariantID,
				StockQuantity: lv.Remaining,
			})
		}
	}
	s.clearCart(ctx, in.CartOwner, order.OrderNumber)

	full, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		logger.Error("reload created order failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return order, nil
	}
	return full, nil
}

// checkout 单个事务：客户匹配 -> 库存校验 -> 优惠券 -> 金额 -> 订单号 -> 落库 -> 扣库存 -> 客户统计 -> 初始流水
func (s *orderService) checkout(ctx context.Context, in CreateOrderInput) (*checkoutResult, error) {
	var res checkoutResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()

		customer, _, err := s.reconcile.Reconcile(ctx, tx, in.Customer, now)
		if err != nil {
			return err
		}

		lines, err := s.inventory.Reserve(ctx, tx, in.Items)
		if err != nil {
			return err
		}
		subtotal := Subtotal(lines)

		discount := decimal.Zero
		var coupon *model.Coupon
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			coupon, discount, err = s.coupons.Apply(ctx, tx, code, subtotal)
			if err != nil {
				return err
			}
		}

		total := subtotal.Add(s.opts.ShippingCost).Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		number, err := s.nextOrderNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, ln := range lines {
			items = append(items, ln.OrderItem())
		}
		order := &model.Order{
			OrderNumber:     number,
			CustomerID:      &customer.ID,
			CustomerName:    customer.Name,
			CustomerPhone:   customer.Phone,
			CustomerEmail:   strings.TrimSpace(in.Customer.Email),
			BirthDay:        in.Customer.BirthDay,
			BirthMonth:      in.Customer.BirthMonth,
			BirthYear:       in.Customer.BirthYear,
			City:            strings.TrimSpace(in.Customer.City),
			Area:            strings.TrimSpace(in.Customer.Area),
			Address:         strings.TrimSpace(in.Customer.Address),
			LocationDetails: strings.TrimSpace(in.Customer.LocationDetails),
			Subtotal:        subtotal,
			DiscountAmount:  discount,
			ShippingCost:    s.opts.ShippingCost,
			Total:           total,
			Status:          model.OrderStatusPending,
			Notes:           strings.TrimSpace(in.Notes),
			Items:           items,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
			order.CouponCode = coupon.Code
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		levels, err := s.inventory.Commit(ctx, tx, lines)
		if err != nil {
			return err
		}

		if err := s.customers.WithTx(tx).RecordOrder(ctx, customer.ID, total, now); err != nil {
			return err
		}

		if _, err := s.tracker.Append(ctx, tx, order, model.OrderStatusPending, "order created", checkoutActor); err != nil {
			return err
		}

		res = checkoutResult{order: order, levels: levels}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// nextOrderNumber 生成 PREFIX-YYYYMMDD-NNNNNN，事务内检查占用
func (s *orderService) nextOrderNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	repo := s.orders.WithTx(tx)
	for i := 0; i < s.opts.NumberAttempts; i++ {
		candidate := fmt.Sprintf("%s-%s-%s", s.opts.NumberPrefix, now.Format("20060102"), s.digits(s.opts.NumberSuffixDigits))
		exists, err := repo.ExistsOrderNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperr.System(fmt.Errorf("could not allocate a unique order number after %d attempts", s.opts.NumberAttempts))
}

// clearCart 购物车清理不影响订单结果，失败只记日志
func (s *orderService) clearCart(ctx context.Context, owner, orderNumber string) {
	if s.cart == nil || owner == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CartClearTimeout)
	defer cancel()
	if err := s.cart.Clear(cctx, owner); err != nil {
		logger.Warn("clear cart failed",
			zap.String("order_number", orderNumber),
			zap.String("cart_owner", owner),
			zap.Error(err),
		)
	}
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("order %d not found", id)
		}
		return nil, apperr.System(err)
	}
	return order, nil
}

// TrackOrder 公开查询。提供 phone 时必须与下单电话一致，不一致与订单不存在返回相同错误
func (s *orderService) TrackOrder(ctx context.Context, orderNumber, phone string) (*model.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	phone = NormalizePhone(phone)
	if orderNumber == "" {
		return nil, apperr.Validation("order_number is required")
	}
	if phone == "" && s.opts.RequireTrackingPhone {
		return nil, apperr.Validation("phone is required")
	}

	notFound := apperr.NotFound("order %s not found", orderNumber)
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound
		}
		return nil, apperr.System(err)
	}
	if phone != "" && phone != NormalizePhone(order.CustomerPhone) {
		return nil, notFound
	}
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus, note, actor string) (*model.Order, error) {
	ctx, span := tracing.Tracer("order-engine/service").Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)), attribute.String("order.status", string(status)))

	order, err := s.tracker.Transition(ctx, id, status, strings.TrimSpace(note), actor)
	if err != nil {
		if apperr.IsKind(err, apperr.KindSystem) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "status transition failed")
			logger.Error("status transition failed", zap.Uint("order_id", id), zap.String("status", string(status)), zap.Error(err))
		}
		return nil, err
	}
	logger.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
		zap.String("actor", actor),
	)
	return order, nil
}

func (s *orderService) ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (*CouponQuote, error) {
	q, err := s.coupons.Validate(ctx, code, cartTotal)
	if err != nil && apperr.IsKind(err, apperr.KindSystem) {
		logger.Error("validate coupon failed", zap.Error(err))
	}
	return q, err
}
