package constants

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusExpired   = "expired"
)

// 支付提供方常量
const (
	PaymentProviderVnpay = "vnpay"
)

// 支付交互方式常量
const (
	PaymentInteractionRedirect = "redirect"
)

// 回调来源常量
const (
	CallbackSourceReturn = "return"
	CallbackSourceIPN    = "ipn"
)

// VNPay IPN 应答码
const (
	VnpayIPNCodeSuccess          = "00"
	VnpayIPNCodeOrderNotFound    = "01"
	VnpayIPNCodeAlreadyConfirmed = "02"
	VnpayIPNCodeInvalidAmount    = "04"
	VnpayIPNCodeInvalidSignature = "97"
	VnpayIPNCodeUnknown          = "99"
)

// VNPay IPN 应答消息
const (
	VnpayIPNMessageSuccess          = "Confirm Success"
	VnpayIPNMessageOrderNotFound    = "Order not found"
	VnpayIPNMessageAlreadyConfirmed = "Order already confirmed"
	VnpayIPNMessageInvalidAmount    = "Invalid amount"
	VnpayIPNMessageInvalidSignature = "Invalid signature"
	VnpayIPNMessageUnknown          = "Unknow error"
)

// 验证码提供方
const (
	CaptchaProviderNone      = "none"
	CaptchaProviderImage     = "image"
	CaptchaProviderTurnstile = "turnstile"
)

// 验证码场景
const (
	CaptchaSceneAdminLogin = "admin_login"
	CaptchaSceneCheckout   = "checkout"
)

// 队列常量
const (
	QueueDefault              = "default"
	QueueCritical             = "critical"
	TaskPaymentTimeoutExpire  = "payment:timeout_expire"
	TaskPaymentResultNotify   = "payment:result_notify"
	TaskPaymentOverdueSweep   = "payment:overdue_sweep"
	PaymentResultNotifyMaxTry = 5
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vnp"
)

// 币种常量
const (
	CurrencyDefault = "VND"
)

// 默认时区（VNPay 要求 GMT+7）
const (
	TimezoneDefault = "Asia/Ho_Chi_Minh"
)
