package public

import (
	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 收银台与网关回调：下单、状态轮询、回跳、IPN、验证码
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
