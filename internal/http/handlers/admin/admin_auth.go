package admin

import (
	"errors"
	"strings"

	"github.com/vnpay-checkout/internal/constants"
	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username       string                              `json:"username" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// AdminLogin 管理员登录，签发 JWT
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if !handlershared.VerifyCaptcha(c, h.CaptchaService, constants.CaptchaSceneAdminLogin, req.CaptchaPayload) {
		return
	}

	username := strings.TrimSpace(req.Username)
	token, expiresAt, err := h.AuthService.Login(username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLog(c).Warnw("admin_login_failed", "username", username, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("admin_login_succeeded", "username", username, "client_ip", c.ClientIP())
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"username":   username,
	})
}

// GetAdminProfile 当前管理员信息及角色
func (h *Handler) GetAdminProfile(c *gin.Context) {
	username, ok := handlershared.GetAdminUsername(c)
	if !ok {
		return
	}
	roles := []string{}
	if h.AuthzService != nil {
		assigned, err := h.AuthzService.AdminRoles(username)
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		roles = assigned
	}
	response.Success(c, gin.H{
		"username": username,
		"roles":    roles,
	})
}
