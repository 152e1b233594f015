package shared

import (
	"errors"
	"strings"

	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// CaptchaPayloadRequest 验证码请求载荷。
type CaptchaPayloadRequest struct {
	CaptchaID      string `json:"captcha_id"`
	CaptchaCode    string `json:"captcha_code"`
	TurnstileToken string `json:"turnstile_token"`
}

// ToServicePayload 转换为 service 层验证码载荷。
func (r CaptchaPayloadRequest) ToServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:      strings.TrimSpace(r.CaptchaID),
		CaptchaCode:    strings.TrimSpace(r.CaptchaCode),
		TurnstileToken: strings.TrimSpace(r.TurnstileToken),
	}
}

// VerifyCaptcha 校验场景验证码，失败时直接写出错误响应并返回 false。
func VerifyCaptcha(c *gin.Context, captchaService *service.CaptchaService, scene string, payload CaptchaPayloadRequest) bool {
	err := captchaService.Verify(c.Request.Context(), scene, payload.ToServicePayload(), c.ClientIP())
	switch {
	case err == nil:
		return true
	case errors.Is(err, service.ErrCaptchaRequired):
		RespondError(c, response.CodeBadRequest, "error.captcha_required", nil)
	case errors.Is(err, service.ErrCaptchaInvalid):
		RequestLog(c).Warnw("captcha_rejected", "scene", scene, "client_ip", c.ClientIP())
		RespondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
	case errors.Is(err, service.ErrCaptchaConfigInvalid):
		RespondError(c, response.CodeInternal, "error.captcha_config_invalid", err)
	default:
		RespondError(c, response.CodeUnavailable, "error.captcha_verify_failed", err)
	}
	return false
}
