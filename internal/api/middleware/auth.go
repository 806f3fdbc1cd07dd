package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/order-engine/internal/api/handler"
	"github.com/d60-Lab/order-engine/pkg/response"
)

const (
	ctxClaims = "claims"
	RoleAdmin = "admin"
)

// Claims 访问令牌载荷；令牌由外部身份服务签发
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Actor 写入状态流水的操作人
func (c *Claims) Actor() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Role
}

func parseToken(raw, secret, issuer string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Auth 可选鉴权：携带有效令牌时写入 claims，否则按匿名放行
func Auth(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearer(c); raw != "" {
			if claims, err := parseToken(raw, secret, issuer); err == nil {
				c.Set(ctxClaims, claims)
				c.Set(handler.CtxActor, claims.Actor())
			}
		}
		c.Next()
	}
}

// RequireAdmin 必须是 admin 角色
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ctxClaims)
		if !ok {
			response.Unauthorized(c, "missing or invalid token")
			return
		}
		claims, _ := v.(*Claims)
		if claims == nil || claims.Role != RoleAdmin {
			response.Forbidden(c, "admin role required")
			return
		}
		c.Next()
	}
}

// ClaimsFrom 读取当前请求的令牌载荷
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
