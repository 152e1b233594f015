package vnpay

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var minorUnitScale = decimal.NewFromInt(100)

// PaymentRequest 下单请求
type PaymentRequest struct {
	OrderID     string          // 业务订单号
	PayerName   string          // 付款人名称
	Description string          // 订单说明
	Amount      decimal.Decimal // 金额（主单位）
	CreatedAt   time.Time       // 创建时间
	ExpireAt    time.Time       // 过期时间（可选）
	ClientIP    string          // 客户端 IP
	OrderType   string          // 订单类型（可选，默认取配置）
	TxnRef      string          // 交易流水号
	BankCode    string          // 指定银行（可选）
	Locale      string          // 语言（可选，默认取配置）
}

// MinorUnits 金额换算为最小货币单位（×100 截断）
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitScale).Truncate(0).IntPart()
}

// FitsMinorUnits 换算后的最小单位金额是否落在 int64 范围内
func FitsMinorUnits(amount decimal.Decimal) bool {
	return amount.Mul(minorUnitScale).Truncate(0).BigInt().IsInt64()
}

// BuildParams 构造规范化请求参数
func BuildParams(cfg *Config, req PaymentRequest) (*Params, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	orderInfo := strings.TrimSpace(req.Description)
	if orderInfo == "" {
		orderInfo = OrderInfoPrefix + strings.TrimSpace(req.OrderID)
	}
	orderType := strings.TrimSpace(req.OrderType)
	if orderType == "" {
		orderType = cfg.OrderType
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = cfg.Locale
	}

	params := NewParams()
	params.Set("vnp_Version", cfg.APIVersion)
	params.Set("vnp_Command", cfg.Command)
	params.Set("vnp_TmnCode", cfg.MerchantCode)
	params.Set("vnp_Amount", fmt.Sprintf("%d", MinorUnits(req.Amount)))
	params.Set("vnp_CreateDate", req.CreatedAt.Format(DateLayout))
	params.Set("vnp_CurrCode", cfg.CurrencyCode)
	params.Set("vnp_IpAddr", strings.TrimSpace(req.ClientIP))
	params.Set("vnp_Locale", locale)
	params.Set("vnp_OrderInfo", orderInfo)
	params.Set("vnp_OrderType", orderType)
	params.Set("vnp_ReturnUrl", cfg.CallbackURL)
	params.Set("vnp_TxnRef", strings.TrimSpace(req.TxnRef))
	if !req.ExpireAt.IsZero() {
		params.Set("vnp_ExpireDate", req.ExpireAt.Format(DateLayout))
	}
	params.Set("vnp_BankCode", strings.TrimSpace(req.BankCode))
	params.Set("vnp_Bill_FirstName", strings.TrimSpace(req.PayerName))
	return params, nil
}

// BuildRedirectURL 生成带签名的支付跳转地址
func BuildRedirectURL(cfg *Config, req PaymentRequest) (string, error) {
	params, err := BuildParams(cfg, req)
	if err != nil {
		return "", err
	}
	return SignedURL(cfg.BaseURL, params, cfg.HashSecret), nil
}

// SignedURL 对参数签名并拼接跳转地址
func SignedURL(baseURL string, params *Params, hashSecret string) string {
	unsigned := params.Encode()
	signature := SignHmacSHA512([]byte(hashSecret), []byte(unsigned))
	if unsigned == "" {
		return baseURL + "?" + ParamSecureHash + "=" + signature
	}
	return baseURL + "?" + unsigned + "&" + ParamSecureHash + "=" + signature
}

func validateRequest(req PaymentRequest) error {
	txnRef := strings.TrimSpace(req.TxnRef)
	if txnRef == "" {
		return fmt.Errorf("%w: txn_ref is required", ErrRequestInvalid)
	}
	// 回调按 int64 解析 vnp_TxnRef
	if _, err := strconv.ParseInt(txnRef, 10, 64); err != nil {
		return fmt.Errorf("%w: txn_ref must be an int64 number", ErrRequestInvalid)
	}
	if strings.TrimSpace(req.OrderID) == "" && strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: order_id is required", ErrRequestInvalid)
	}
	if !FitsMinorUnits(req.Amount) {
		return fmt.Errorf("%w: amount out of range", ErrRequestInvalid)
	}
	if MinorUnits(req.Amount) <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrRequestInvalid)
	}
	if req.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at is required", ErrRequestInvalid)
	}
	if strings.TrimSpace(req.ClientIP) == "" {
		return fmt.Errorf("%w: client_ip is required", ErrRequestInvalid)
	}
	return nil
}
