package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/order-engine/internal/cart"
	"github.com/d60-Lab/order-engine/internal/service"
)

// 上下文 key，由中间件写入
const (
	CtxActor     = "actor"
	CtxCartOwner = "cart_owner"
)

// CartStore 购物车存储
type CartStore interface {
	service.CartClearer
	Put(ctx context.Context, owner string, variantID uint, qty int) error
	Items(ctx context.Context, owner string) ([]cart.Line, error)
	View(ctx context.Context, owner string) (*cart.View, error)
}

// HealthCheck 依赖探活
type HealthCheck func(ctx context.Context) error

// Handler HTTP 处理器
type Handler struct {
	orders service.OrderService
	carts  CartStore
	checks map[string]HealthCheck
}

// New 创建处理器；carts 为 nil 时购物车接口返回 503
func New(orders service.OrderService, carts CartStore, checks map[string]HealthCheck) *Handler {
	return &Handler{orders: orders, carts: carts, checks: checks}
}

// bindMessage 把绑定/校验错误转成面向用户的一句话
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	return "invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "phone":
		return name + " must be a valid phone number"
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func cartOwner(c *gin.Context) string {
	return c.GetString(CtxCartOwner)
}
