package vnpay

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PaymentMethod 支付方式标识
	PaymentMethod = "VnPay"

	DefaultVersion   = "2.1.0"
	DefaultCommand   = "pay"
	DefaultCurrency  = "VND"
	DefaultLocale    = "vn"
	DefaultOrderType = "other"

	// DateLayout vnp_CreateDate / vnp_ExpireDate 格式（yyyyMMddHHmmss）
	DateLayout = "20060102150405"

	// OrderInfoPrefix 未指定描述时的订单说明前缀
	OrderInfoPrefix = "Thanh toan don hang:"

	ParamPrefix         = "vnp_"
	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
)

// 响应码
const (
	ResponseCodeSuccess   = "00"
	ResponseCodeSuspected = "07"
	ResponseCodeCancelled = "24"
)

var (
	ErrConfigInvalid    = errors.New("vnpay config invalid")
	ErrRequestInvalid   = errors.New("vnpay request invalid")
	ErrSignatureInvalid = errors.New("vnpay signature invalid")
	ErrResponseInvalid  = errors.New("vnpay response invalid")
)

// Config VNPay 网关配置
type Config struct {
	BaseURL      string `json:"base_url"`   // 支付网关地址
	MerchantCode string `json:"tmn_code"`   // 商户号 vnp_TmnCode
	APIVersion   string `json:"version"`    // vnp_Version
	Command      string `json:"command"`    // vnp_Command
	CurrencyCode string `json:"curr_code"`  // vnp_CurrCode
	Locale       string `json:"locale"`     // vnp_Locale
	CallbackURL  string `json:"return_url"` // vnp_ReturnUrl
	HashSecret   string `json:"-"`          // 签名密钥，不参与序列化
	OrderType    string `json:"order_type"` // 默认 vnp_OrderType
}

// Normalize 补齐默认值
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.MerchantCode = strings.TrimSpace(c.MerchantCode)
	c.CallbackURL = strings.TrimSpace(c.CallbackURL)
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = DefaultVersion
	}
	if strings.TrimSpace(c.Command) == "" {
		c.Command = DefaultCommand
	}
	if strings.TrimSpace(c.CurrencyCode) == "" {
		c.CurrencyCode = DefaultCurrency
	}
	c.CurrencyCode = strings.ToUpper(strings.TrimSpace(c.CurrencyCode))
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = DefaultLocale
	}
	if strings.TrimSpace(c.OrderType) == "" {
		c.OrderType = DefaultOrderType
	}
}

// ValidateConfig 校验配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if cfg.MerchantCode == "" {
		return fmt.Errorf("%w: tmn_code is required", ErrConfigInvalid)
	}
	if cfg.CallbackURL == "" {
		return fmt.Errorf("%w: return_url is required", ErrConfigInvalid)
	}
	if cfg.HashSecret == "" {
		return fmt.Errorf("%w: hash_secret is required", ErrConfigInvalid)
	}
	return nil
}

// String 隐藏密钥
func (c Config) String() string {
	return fmt.Sprintf("vnpay.Config{base_url=%s tmn_code=%s version=%s command=%s curr_code=%s locale=%s return_url=%s hash_secret=***}",
		c.BaseURL, c.MerchantCode, c.APIVersion, c.Command, c.CurrencyCode, c.Locale, c.CallbackURL)
}

// LogFields 结构化日志字段，hash_secret 仅记录是否已配置
func (c Config) LogFields() []interface{} {
	return []interface{}{
		"base_url", c.BaseURL,
		"tmn_code", c.MerchantCode,
		"version", c.APIVersion,
		"command", c.Command,
		"curr_code", c.CurrencyCode,
		"locale", c.Locale,
		"return_url", c.CallbackURL,
		"hash_secret_set", c.HashSecret != "",
	}
}
