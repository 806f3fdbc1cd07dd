package api

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/order-engine/docs"

	"github.com/d60-Lab/order-engine/config"
	"github.com/d60-Lab/order-engine/internal/api/handler"
	"github.com/d60-Lab/order-engine/internal/api/middleware"
)

// NewRouter 注册中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second}),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer), middleware.CartOwner())

	public := v1.Group("")
	if cfg.RateLimit.Enabled {
		public.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}
	{
		public.POST("/orders", h.CreateOrder)
		public.GET("/orders/track", h.TrackOrder)
		public.POST("/coupons/validate", h.ValidateCoupon)

		public.GET("/cart", h.GetCart)
		public.PUT("/cart/items", h.PutCartItem)
		public.DELETE("/cart", h.ClearCart)
	}

	admin := v1.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/orders/:id", h.GetOrder)
		admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	}
	return r
}
