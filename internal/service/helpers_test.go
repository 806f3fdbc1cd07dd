package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) ofType(t model.EventType) []model.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.OrderEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeCart struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (c *fakeCart) Clear(_ context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, owner)
	return c.err
}

// unreservedNumbers 订单号占用检查总是放行，冲突只能在插入时由唯一索引发现
type unreservedNumbers struct {
	repository.OrderRepository
}

func (u unreservedNumbers) WithTx(tx *gorm.DB) repository.OrderRepository {
	return unreservedNumbers{u.OrderRepository.WithTx(tx)}
}

func (unreservedNumbers) ExistsOrderNumber(context.Context, string) (bool, error) {
	return false, nil
}

// digitSeq 依次返回给定后缀，用完后重复最后一个
func digitSeq(seq ...string) func(int) string {
	var mu sync.Mutex
	return func(int) string {
		mu.Lock()
		defer mu.Unlock()
		s := seq[0]
		if len(seq) > 1 {
			seq = seq[1:]
		}
		return s
	}
}

type fixture struct {
	db        *gorm.DB
	svc       OrderService
	publisher *recordingPublisher
	cart      *fakeCart
}

func newFixture(t *testing.T, opts Options, tweak ...func(*Deps)) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	cart := &fakeCart{}
	deps := Deps{
		DB:        db,
		Customers: repository.NewCustomerRepository(db),
		Variants:  repository.NewVariantRepository(db),
		Coupons:   repository.NewCouponRepository(db),
		Orders:    repository.NewOrderRepository(db),
		Publisher: pub,
		Cart:      cart,
	}
	for _, fn := range tweak {
		fn(&deps)
	}
	return &fixture{db: db, svc: NewOrderService(deps, opts), publisher: pub, cart: cart}
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var v model.Variant
	if err := f.db.First(&v, id).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return v.StockQuantity
}

func (f *fixture) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func checkoutInput(phone, name string, items ...LineItem) CreateOrderInput {
	return CreateOrderInput{
		Customer: CustomerInput{
			Name:    name,
			Phone:   phone,
			City:    "Cairo",
			Address: "12 Tahrir Sq",
		},
		Items: items,
	}
}

// mapLookup 内存版 CustomerLookup
type mapLookup struct {
	profiles []*model.CustomerProfile
	err      error
}

func (m *mapLookup) FindByPhoneAndName(_ context.Context, phone, name string) (*model.CustomerProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.profiles {
		if p.Phone == phone && p.Name == name {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mapLookup) FindByPhone(_ context.Context, phone string) (*model.CustomerProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	var best *model.CustomerProfile
	for _, p := range m.profiles {
		if p.Phone == phone && (best == nil || p.LastActivity.After(best.LastActivity)) {
			best = p
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

var errBoom = errors.New("boom")

func configOrder(shipping string, transitions map[string][]string) config.OrderConfig {
	return config.OrderConfig{
		ShippingCost:       shipping,
		NumberPrefix:       "ORD",
		NumberSuffixDigits: 6,
		NumberAttempts:     5,
		Transitions:        transitions,
	}
}

func configTracking(require bool) config.TrackingConfig {
	return config.TrackingConfig{RequirePhone: require}
}
