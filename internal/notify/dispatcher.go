// Package notify 把订单领域事件异步投递给下游通知方
package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/pkg/logger"
)

var (
	ErrQueueFull = errors.New("notify queue full")
	ErrStopped   = errors.New("notify dispatcher stopped")
)

// Sink 事件的最终去向
type Sink interface {
	Send(ctx context.Context, event model.OrderEvent) error
}

type job struct {
	ctx   context.Context
	event model.OrderEvent
	enqAt time.Time
}

// Dispatcher 本地异步投递：有界队列 + 固定 worker，队列满时丢弃并告警
type Dispatcher struct {
	sink       Sink
	ch         chan job
	maxRetries int
	retryDelay time.Duration
	sendTO     time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

func NewDispatcher(sink Sink, cfg config.NotifyConfig) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Dispatcher{
		sink:       sink,
		ch:         make(chan job, size),
		maxRetries: retries,
		retryDelay: cfg.RetryDelay,
		sendTO:     5 * time.Second,
	}
}

// Start 启动 worker，返回停止函数；停止时排空队列，ctx 到期则放弃剩余事件
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.ch {
				d.deliver(j)
			}
		}()
	}
	return d.stop
}

func (d *Dispatcher) stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.ch)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Warn("notify dispatcher stopped before draining", zap.Int("pending", len(d.ch)))
		return ctx.Err()
	}
}

// Publish 非阻塞入队
func (d *Dispatcher) Publish(ctx context.Context, event model.OrderEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.ch <- job{ctx: context.WithoutCancel(ctx), event: event, enqAt: time.Now()}:
		return nil
	default:
		d.dropped.Add(1)
		logger.Warn("notify queue full, drop event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("key", event.Key()),
		)
		return ErrQueueFull
	}
}

func (d *Dispatcher) deliver(j job) {
	var err error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 && d.retryDelay > 0 {
			time.Sleep(d.retryDelay * time.Duration(attempt))
		}
		ctx, cancel := context.WithTimeout(j.ctx, d.sendTO)
		err = d.sink.Send(ctx, j.event)
		cancel()
		if err == nil {
			d.delivered.Add(1)
			logger.Debug("event delivered",
				zap.String("event_id", j.event.ID),
				zap.String("type", string(j.event.Type)),
				zap.Duration("latency", time.Since(j.enqAt)),
			)
			return
		}
	}
	d.failed.Add(1)
	logger.Error("deliver event failed",
		zap.String("event_id", j.event.ID),
		zap.String("type", string(j.event.Type)),
		zap.String("key", j.event.Key()),
		zap.Int("attempts", d.maxRetries+1),
		zap.Error(err),
	)
}

// Stats 投递统计（采样值）
type Stats struct {
	Queued    int   `json:"queued"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:    len(d.ch),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
