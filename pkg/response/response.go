package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-engine/pkg/apperr"
	"github.com/d60-Lab/order-engine/pkg/logger"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Success 200 + 数据本体
func Success(c *gin.Context, data any) {
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Created 201 + 数据本体
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest 400，用于请求体无法解析等场景
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg, Code: string(apperr.KindValidation)})
}

// Unauthorized 401
func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Error: msg, Code: "unauthorized"})
}

// Forbidden 403
func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Error: msg, Code: "forbidden"})
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{Error: "too many requests", Code: "rate_limited"})
}

// InternalError 500，细节只进日志与 Sentry
func InternalError(c *gin.Context, err error) {
	Error(c, apperr.System(err))
}

// Error 按错误类别映射 HTTP 状态码
func Error(c *gin.Context, err error) {
	ae := apperr.Wrap(err)
	status := StatusOf(ae.Kind)
	if ae.Kind == apperr.KindSystem {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(ae.Err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil && ae.Err != nil {
			hub.CaptureException(ae.Err)
		}
		c.AbortWithStatusJSON(status, ErrorBody{Error: ae.Message, Code: string(ae.Kind)})
		return
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: ae.Message, Code: string(ae.Kind), Details: ae.Details})
}

// StatusOf 错误类别 -> HTTP 状态码
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
