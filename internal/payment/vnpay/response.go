package vnpay

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PaymentResponse 回调解析结果
// 验签失败时仅 Success=false，其余字段不填充
type PaymentResponse struct {
	Success           bool   `json:"success"`
	PaymentMethod     string `json:"payment_method,omitempty"`
	OrderDescription  string `json:"order_description,omitempty"`
	OrderID           string `json:"order_id,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	ResponseCode      string `json:"response_code,omitempty"`
	TransactionStatus string `json:"transaction_status,omitempty"`
	Amount            int64  `json:"amount,omitempty"` // 最小货币单位
	BankCode          string `json:"bank_code,omitempty"`
	PayDate           string `json:"pay_date,omitempty"`
	Token             string `json:"-"`
}

// Paid 网关确认支付成功
func (r *PaymentResponse) Paid() bool {
	if r == nil || !r.Success {
		return false
	}
	if r.ResponseCode != ResponseCodeSuccess {
		return false
	}
	return r.TransactionStatus == "" || r.TransactionStatus == ResponseCodeSuccess
}

// Cancelled 付款人取消
func (r *PaymentResponse) Cancelled() bool {
	return r != nil && r.Success && r.ResponseCode == ResponseCodeCancelled
}

// Suspected 已扣款但被网关标记为可疑交易，需人工核查
func (r *PaymentResponse) Suspected() bool {
	return r != nil && r.Success && r.ResponseCode == ResponseCodeSuspected
}

// ResponseParams 过滤 vnp_ 参数并去除签名字段
func ResponseParams(raw map[string]string) *Params {
	params := NewParams()
	for key, value := range raw {
		if key == "" || !strings.HasPrefix(key, ParamPrefix) {
			continue
		}
		params.Set(key, value)
	}
	params.Del(ParamSecureHashType)
	params.Del(ParamSecureHash)
	return params
}

// VerifySignature 校验回调签名
func VerifySignature(raw map[string]string, receivedSignature, hashSecret string) bool {
	signData := ResponseParams(raw).Encode()
	expected := SignHmacSHA512([]byte(hashSecret), []byte(signData))
	return EqualSignature(expected, receivedSignature)
}

// VerifyAndParse 验签并解析回调参数
func VerifyAndParse(raw map[string]string, receivedSignature, hashSecret string) (*PaymentResponse, error) {
	if hashSecret == "" {
		return &PaymentResponse{Success: false}, fmt.Errorf("%w: hash_secret is required", ErrConfigInvalid)
	}
	if !VerifySignature(raw, receivedSignature, hashSecret) {
		return &PaymentResponse{Success: false}, ErrSignatureInvalid
	}

	params := ResponseParams(raw)
	if _, err := requireInt(params, "vnp_TxnRef"); err != nil {
		return &PaymentResponse{Success: false}, err
	}
	// vnp_TransactionNo 仅在网关生成交易后出现
	if params.Has("vnp_TransactionNo") {
		if _, err := requireInt(params, "vnp_TransactionNo"); err != nil {
			return &PaymentResponse{Success: false}, err
		}
	}
	amount, err := requireInt(params, "vnp_Amount")
	if err != nil {
		return &PaymentResponse{Success: false}, err
	}
	return &PaymentResponse{
		Success:           true,
		PaymentMethod:     PaymentMethod,
		OrderDescription:  params.Get("vnp_OrderInfo"),
		OrderID:           strings.TrimSpace(params.Get("vnp_TxnRef")),
		TransactionID:     strings.TrimSpace(params.Get("vnp_TransactionNo")),
		ResponseCode:      params.Get("vnp_ResponseCode"),
		TransactionStatus: params.Get("vnp_TransactionStatus"),
		Amount:            amount,
		BankCode:          params.Get("vnp_BankCode"),
		PayDate:           params.Get("vnp_PayDate"),
		Token:             strings.TrimSpace(receivedSignature),
	}, nil
}

// VerifyQuery 从查询参数中读取签名并验签解析
func VerifyQuery(query url.Values, hashSecret string) (*PaymentResponse, error) {
	return VerifyAndParse(FlattenQuery(query), query.Get(ParamSecureHash), hashSecret)
}

// FlattenQuery 每个键取第一个值
func FlattenQuery(query url.Values) map[string]string {
	raw := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		raw[key] = values[0]
	}
	return raw
}

func requireInt(params *Params, key string) (int64, error) {
	value := strings.TrimSpace(params.Get(key))
	if value == "" {
		return 0, fmt.Errorf("%w: %s is missing", ErrResponseInvalid, key)
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrResponseInvalid, key)
	}
	return parsed, nil
}
