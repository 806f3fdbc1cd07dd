package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-engine/internal/api/handler"
)

const (
	HeaderCartSession = "X-Cart-Session"
	CookieCartSession = "cart_session"
)

// CartOwner 解析购物车归属：登录用户 > X-Cart-Session 头 > cart_session cookie。需放在 Auth 之后。
func CartOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := ""
		if claims, ok := ClaimsFrom(c); ok && claims.Subject != "" {
			owner = "user:" + claims.Subject
		} else if s := strings.TrimSpace(c.GetHeader(HeaderCartSession)); s != "" {
			owner = "session:" + s
		} else if s, err := c.Cookie(CookieCartSession); err == nil && strings.TrimSpace(s) != "" {
			owner = "session:" + strings.TrimSpace(s)
		}
		if owner != "" {
			c.Set(handler.CtxCartOwner, owner)
		}
		c.Next()
	}
}
