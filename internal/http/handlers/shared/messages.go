package shared

import "strings"

// 错误消息表，key 与接口层使用的错误键一一对应。
var messages = map[string]string{
	"error.bad_request":                 "invalid request",
	"error.unauthorized":                "unauthorized",
	"error.forbidden":                   "forbidden",
	"error.not_found":                   "resource not found",
	"error.internal":                    "internal server error",
	"error.too_many_requests":           "too many requests, please retry later",
	"error.rate_limit_unavailable":      "rate limiter unavailable",
	"error.login_too_many":              "too many login attempts",
	"error.jwt_secret_missing":          "jwt secret is not configured",
	"error.auth_header_missing":         "authorization header is missing",
	"error.auth_header_invalid":         "authorization header is invalid",
	"error.token_invalid":               "token is invalid or expired",
	"error.login_invalid":               "invalid username or password",
	"error.payment_invalid":             "payment request is invalid",
	"error.payment_amount_invalid":      "payment amount must be positive and within the gateway limit",
	"error.payment_not_found":           "payment not found",
	"error.payment_fetch_failed":        "failed to fetch payment",
	"error.payment_create_failed":       "failed to create payment",
	"error.payment_update_failed":       "failed to update payment",
	"error.payment_amount_mismatch":     "payment amount does not match",
	"error.payment_already_confirmed":   "payment already confirmed",
	"error.payment_gateway_unavailable": "payment gateway is not configured",
	"error.callback_signature_invalid":  "callback signature is invalid",
	"error.callback_payload_invalid":    "callback payload is invalid",
	"error.callback_replayed":           "callback already processed",
	"error.captcha_required":            "captcha is required",
	"error.captcha_invalid":             "captcha is invalid or expired",
	"error.captcha_config_invalid":      "captcha is not configured",
	"error.captcha_verify_failed":       "captcha verification failed",
	"error.captcha_unavailable":         "image captcha is not enabled",
	"error.captcha_generate_failed":     "failed to generate captcha",
}

// Message 解析错误键对应的提示消息，未登记的键原样返回。
func Message(key string) string {
	key = strings.TrimSpace(key)
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
