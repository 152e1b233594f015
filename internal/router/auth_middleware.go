package router

import (
	"strings"

	"github.com/vnpay-checkout/internal/authz"
	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// bearerToken 取 Authorization 中的 Bearer 令牌，scheme 不区分大小写
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTAuthMiddleware 校验管理员令牌并把用户名写入上下文
func JWTAuthMiddleware(authService *service.AuthService, secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil || strings.TrimSpace(secretKey) == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}
		claims, err := authService.ParseJWT(token)
		if err != nil || strings.TrimSpace(claims.Username) == "" {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		c.Set(handlershared.AdminUsernameKey, claims.Username)
		c.Next()
	}
}

// AdminRBACMiddleware 以路由模板和方法做 Casbin 判定，须挂在 JWTAuthMiddleware 之后
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetString(handlershared.AdminUsernameKey))
		if username == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceAdmin(username, route, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed", "admin", username, "route", route, "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_denied", "admin", username, "route", authz.NormalizeObject(route), "method", c.Request.Method)
			response.Forbidden(c, handlershared.Message("error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, handlershared.Message(key))
	c.Abort()
}
