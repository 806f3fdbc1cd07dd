// @title Order Engine API
// @version 1.0
// @description 下单、订单跟踪、优惠券校验与订单状态管理
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/api"
	"github.com/d60-Lab/order-engine/internal/api/handler"
	"github.com/d60-Lab/order-engine/internal/cart"
	"github.com/d60-Lab/order-engine/internal/notify"
	"github.com/d60-Lab/order-engine/internal/repository"
	"github.com/d60-Lab/order-engine/internal/service"
	"github.com/d60-Lab/order-engine/pkg/database"
	"github.com/d60-Lab/order-engine/pkg/logger"
	"github.com/d60-Lab/order-engine/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "order-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if cfg.Database.AutoMigrate {
		if err := repository.InitSchema(db); err != nil {
			return err
		}
	}

	sink, closeSink := buildSink(cfg)
	defer closeSink()
	dispatcher := notify.NewDispatcher(sink, cfg.Notify)
	stopDispatcher := dispatcher.Start(cfg.Notify.Workers)

	var carts *cart.RedisStore
	checks := map[string]handler.HealthCheck{"database": pingDB(db)}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		carts = cart.NewRedisStore(rdb, db, cfg.Redis.CartTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	opts, err := service.OptionsFromConfig(cfg.Order, cfg.Tracking)
	if err != nil {
		return err
	}
	deps := service.Deps{
		DB:        db,
		Customers: repository.NewCustomerRepository(db),
		Variants:  repository.NewVariantRepository(db),
		Coupons:   repository.NewCouponRepository(db),
		Orders:    repository.NewOrderRepository(db),
		Publisher: dispatcher,
	}
	var cartStore handler.CartStore
	if carts != nil {
		deps.Cart = carts
		cartStore = carts
	}
	orders := service.NewOrderService(deps, opts)

	router := api.NewRouter(cfg, handler.New(orders, cartStore, checks))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("notify drain incomplete", zap.Error(err), zap.Any("stats", dispatcher.Stats()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	return nil
}

// buildSink 事件去向：始终写日志，开启 Kafka 时同时写入 Kafka
func buildSink(cfg *config.Config) (notify.Sink, func()) {
	if !cfg.Kafka.Enabled {
		return notify.LogSink{}, func() {}
	}
	ks := notify.NewKafkaSink(notify.NewKafkaWriter(cfg.Kafka))
	return notify.MultiSink{notify.LogSink{}, ks}, func() {
		if err := ks.Close(); err != nil {
			logger.Warn("close kafka writer", zap.Error(err))
		}
	}
}

func pingDB(db *gorm.DB) handler.HealthCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
