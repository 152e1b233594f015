package shared

import (
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	var id string
	if c != nil {
		id = response.RequestID(c)
	}
	if id == "" {
		return logger.S()
	}
	return logger.SW(response.RequestIDKey, id)
}

// RespondError 按消息键写出错误响应；err 非空时记日志，客户端只看到消息键对应的文案
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := Message(key)
	if err != nil {
		RequestLog(c).Errorw("handler_error", "code", code, "key", key, "error", err)
	}
	response.Error(c, code, msg)
}
