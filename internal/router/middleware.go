package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 64
)

// acceptRequestID 上游传入的 ID 会进日志，只接受短的可见 ASCII
func acceptRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// RequestIDMiddleware 沿用上游 X-Request-ID，缺失或不合规时生成 UUID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !acceptRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件；探针请求不记录，网关回调附带 txn_ref 与遮蔽签名后的查询串
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "/health" || route == "/ready" {
			return
		}
		fields := []interface{}{
			response.RequestIDKey, response.RequestID(c),
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if txnRef := strings.TrimSpace(c.Query("vnp_TxnRef")); txnRef != "" {
			fields = append(fields, "txn_ref", txnRef, "query", logger.RedactQuery(c.Request.URL.RawQuery))
		}
		log := sugar.With(fields...)
		switch {
		case len(c.Errors) > 0:
			log.Errorw("http_request", "errors", c.Errors.String())
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Errorw("http_request")
		default:
			log.Infow("http_request")
		}
	}
}
