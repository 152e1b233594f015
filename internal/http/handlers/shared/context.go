package shared

import (
	"strings"

	"github.com/vnpay-checkout/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminUsernameKey 管理员用户名在 gin 上下文中的键。
const AdminUsernameKey = "admin_username"

// GetAdminUsername 从上下文读取已鉴权的管理员用户名并统一处理错误响应。
func GetAdminUsername(c *gin.Context) (string, bool) {
	value, exists := c.Get(AdminUsernameKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	username, ok := value.(string)
	if !ok || strings.TrimSpace(username) == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return username, true
}
