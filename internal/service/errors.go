package service

import "errors"

var (
	ErrPaymentInvalid            = errors.New("payment invalid")
	ErrPaymentAmountInvalid      = errors.New("payment amount invalid")
	ErrPaymentNotFound           = errors.New("payment not found")
	ErrPaymentFetchFailed        = errors.New("payment fetch failed")
	ErrPaymentCreateFailed       = errors.New("payment create failed")
	ErrPaymentUpdateFailed       = errors.New("payment update failed")
	ErrPaymentAmountMismatch     = errors.New("payment amount mismatch")
	ErrPaymentAlreadyConfirmed   = errors.New("payment already confirmed")
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrCallbackSignatureInvalid  = errors.New("callback signature invalid")
	ErrCallbackPayloadInvalid    = errors.New("callback payload invalid")
	ErrCallbackReplayed          = errors.New("callback replayed")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrTokenInvalid              = errors.New("token invalid")
	ErrWeakPassword              = errors.New("password too weak")
	ErrCaptchaRequired           = errors.New("captcha required")
	ErrCaptchaInvalid            = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid      = errors.New("captcha config invalid")
	ErrCaptchaVerifyFailed       = errors.New("captcha verify failed")
)
