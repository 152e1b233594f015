package vnpay

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func buildTestConfig() *Config {
	cfg := &Config{
		BaseURL:      "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		MerchantCode: "DEMO0001",
		CallbackURL:  "https://example.com/api/v1/payments/vnpay/return",
		HashSecret:   "SECRETKEYFORTESTS",
	}
	cfg.Normalize()
	return cfg
}

func buildTestRequest() PaymentRequest {
	return PaymentRequest{
		OrderID:   "7f1c2a5e-0a1b-4c3d-9e8f-001122334455",
		PayerName: "Nguyen Van A",
		Amount:    decimal.RequireFromString("150000.756"),
		CreatedAt: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		ClientIP:  "203.0.113.7",
		TxnRef:    "638712345678901234",
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := buildTestConfig()
	if cfg.APIVersion != DefaultVersion || cfg.Command != DefaultCommand {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CurrencyCode != "VND" || cfg.Locale != "vn" || cfg.OrderType != "other" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if strings.Contains(cfg.String(), cfg.HashSecret) {
		t.Fatalf("config string must not expose hash secret")
	}
	for _, field := range cfg.LogFields() {
		if value, ok := field.(string); ok && value == cfg.HashSecret {
			t.Fatalf("log fields must not expose hash secret")
		}
	}
}

func TestValidateConfigRequireHashSecret(t *testing.T) {
	cfg := buildTestConfig()
	cfg.HashSecret = ""
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
	if _, err := BuildRedirectURL(cfg, buildTestRequest()); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestBuildRedirectURLDeterministic(t *testing.T) {
	cfg := buildTestConfig()
	req := buildTestRequest()
	first, err := BuildRedirectURL(cfg, req)
	if err != nil {
		t.Fatalf("build redirect url failed: %v", err)
	}
	second, err := BuildRedirectURL(cfg, req)
	if err != nil {
		t.Fatalf("build redirect url failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical urls:\n%s\n%s", first, second)
	}
}

func TestBuildRedirectURLLayout(t *testing.T) {
	cfg := buildTestConfig()
	req := buildTestRequest()
	got, err := BuildRedirectURL(cfg, req)
	if err != nil {
		t.Fatalf("build redirect url failed: %v", err)
	}
	params, err := BuildParams(cfg, req)
	if err != nil {
		t.Fatalf("build params failed: %v", err)
	}
	unsigned := params.Encode()
	want := cfg.BaseURL + "?" + unsigned + "&vnp_SecureHash=" + SignHmacSHA512([]byte(cfg.HashSecret), []byte(unsigned))
	if got != want {
		t.Fatalf("unexpected url:\n got=%s\nwant=%s", got, want)
	}
	if params.Get("vnp_Amount") != "15000075" {
		t.Fatalf("expected truncated minor units, got %s", params.Get("vnp_Amount"))
	}
	if params.Get("vnp_CreateDate") != "20260102150405" {
		t.Fatalf("unexpected create date: %s", params.Get("vnp_CreateDate"))
	}
	if params.Get("vnp_OrderInfo") != OrderInfoPrefix+req.OrderID {
		t.Fatalf("unexpected order info: %s", params.Get("vnp_OrderInfo"))
	}
	if params.Has("vnp_ExpireDate") || params.Has("vnp_BankCode") {
		t.Fatalf("optional empty fields must be dropped")
	}
	if !strings.Contains(got, "vnp_OrderInfo=Thanh%20toan%20don%20hang%3A") {
		t.Fatalf("order info must be percent-encoded with %%20: %s", got)
	}
	signature := got[strings.LastIndex(got, "=")+1:]
	if len(signature) != 128 {
		t.Fatalf("expected 128 hex signature, got %d", len(signature))
	}
}

func TestBuildRedirectURLRejectsInvalidRequest(t *testing.T) {
	cfg := buildTestConfig()
	cases := []struct {
		name   string
		mutate func(*PaymentRequest)
	}{
		{name: "missing txn ref", mutate: func(r *PaymentRequest) { r.TxnRef = " " }},
		{name: "zero amount", mutate: func(r *PaymentRequest) { r.Amount = decimal.RequireFromString("0.009") }},
		{name: "missing created at", mutate: func(r *PaymentRequest) { r.CreatedAt = time.Time{} }},
		{name: "missing client ip", mutate: func(r *PaymentRequest) { r.ClientIP = "" }},
		{name: "missing order", mutate: func(r *PaymentRequest) { r.OrderID = ""; r.Description = "" }},
		{name: "non numeric txn ref", mutate: func(r *PaymentRequest) { r.TxnRef = "ORD-abc-1" }},
		{name: "txn ref overflows int64", mutate: func(r *PaymentRequest) { r.TxnRef = "99999999999999999999" }},
		{name: "amount overflows minor units", mutate: func(r *PaymentRequest) { r.Amount = decimal.RequireFromString("184467440737095517.16") }},
		{name: "negative amount", mutate: func(r *PaymentRequest) { r.Amount = decimal.RequireFromString("-5") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := buildTestRequest()
			tc.mutate(&req)
			if _, err := BuildRedirectURL(cfg, req); !errors.Is(err, ErrRequestInvalid) {
				t.Fatalf("expected ErrRequestInvalid, got %v", err)
			}
		})
	}
}

func TestFitsMinorUnits(t *testing.T) {
	cases := map[string]bool{
		"1":                     true,
		"92233720368547758.07":  true,
		"92233720368547758.08":  false,
		"184467440737095517.16": false,
		"-92233720368547758.08": true,
		"-92233720368547758.09": false,
	}
	for raw, want := range cases {
		if got := FitsMinorUnits(decimal.RequireFromString(raw)); got != want {
			t.Fatalf("FitsMinorUnits(%s) = %v, want %v", raw, got, want)
		}
	}
}

func TestBuildRedirectURLNumericTxnRefRoundTrip(t *testing.T) {
	cfg := buildTestConfig()
	req := buildTestRequest()
	req.TxnRef = "9223372036854775807"
	redirect, err := BuildRedirectURL(cfg, req)
	if err != nil {
		t.Fatalf("build redirect url failed: %v", err)
	}
	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect url failed: %v", err)
	}
	query := parsed.Query()
	query.Set("vnp_ResponseCode", ResponseCodeSuccess)
	query.Set("vnp_TransactionStatus", ResponseCodeSuccess)
	query.Set("vnp_TransactionNo", "14000001")
	query.Del(ParamSecureHash)
	raw := FlattenQuery(query)
	signature := SignHmacSHA512([]byte(cfg.HashSecret), []byte(ResponseParams(raw).Encode()))
	resp, err := VerifyAndParse(raw, signature, cfg.HashSecret)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if resp.OrderID != "9223372036854775807" {
		t.Fatalf("unexpected txn ref: %s", resp.OrderID)
	}
}

func TestSignedURLEmptyParams(t *testing.T) {
	got := SignedURL("https://pay.example", NewParams(), "secret")
	want := "https://pay.example?vnp_SecureHash=" + SignHmacSHA512([]byte("secret"), nil)
	if got != want {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"1":         100,
		"10.5":      1050,
		"10.999":    1099,
		"150000":    15000000,
		"0.01":      1,
		"123456.78": 12345678,
	}
	for raw, want := range cases {
		if got := MinorUnits(decimal.RequireFromString(raw)); got != want {
			t.Fatalf("amount %s: want %d got %d", raw, want, got)
		}
	}
}

func redirectQuery(t *testing.T, redirect string) url.Values {
	t.Helper()
	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect url failed: %v", err)
	}
	return parsed.Query()
}

func TestVerifyRoundTrip(t *testing.T) {
	cfg := buildTestConfig()
	req := buildTestRequest()
	req.Description = "Khoa hoc Go + HMAC & ky tu: 100%"
	redirect, err := BuildRedirectURL(cfg, req)
	if err != nil {
		t.Fatalf("build redirect url failed: %v", err)
	}

	resp, err := VerifyQuery(redirectQuery(t, redirect), cfg.HashSecret)
	if err != nil {
		t.Fatalf("verify round trip failed: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
	if resp.OrderID != req.TxnRef {
		t.Fatalf("unexpected order id: %s", resp.OrderID)
	}
	if resp.Amount != MinorUnits(req.Amount) {
		t.Fatalf("unexpected amount: %d", resp.Amount)
	}
	if resp.OrderDescription != req.Description {
		t.Fatalf("unexpected description: %s", resp.OrderDescription)
	}
	if resp.PaymentMethod != PaymentMethod {
		t.Fatalf("unexpected payment method: %s", resp.PaymentMethod)
	}
}

func buildCallback(secret string) map[string]string {
	raw := map[string]string{
		"vnp_Amount":            "15000075",
		"vnp_BankCode":          "NCB",
		"vnp_BankTranNo":        "VNP14226112",
		"vnp_CardType":          "ATM",
		"vnp_OrderInfo":         "Thanh toan don hang:42",
		"vnp_PayDate":           "20260102151000",
		"vnp_ResponseCode":      "00",
		"vnp_TmnCode":           "DEMO0001",
		"vnp_TransactionNo":     "14226112",
		"vnp_TransactionStatus": "00",
		"vnp_TxnRef":            "638712345678901234",
	}
	raw[ParamSecureHash] = SignHmacSHA512([]byte(secret), []byte(ResponseParams(raw).Encode()))
	raw[ParamSecureHashType] = "HmacSHA512"
	raw["utm_source"] = "injected"
	return raw
}

func TestVerifyAndParseSuccess(t *testing.T) {
	raw := buildCallback("secret")
	resp, err := VerifyAndParse(raw, raw[ParamSecureHash], "secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !resp.Paid() || resp.Cancelled() {
		t.Fatalf("expected paid response: %+v", resp)
	}
	if resp.TransactionID != "14226112" || resp.BankCode != "NCB" || resp.Token != raw[ParamSecureHash] {
		t.Fatalf("unexpected fields: %+v", resp)
	}
}

func TestVerifyAndParseCaseInsensitiveSignature(t *testing.T) {
	raw := buildCallback("secret")
	resp, err := VerifyAndParse(raw, strings.ToUpper(raw[ParamSecureHash]), "secret")
	if err != nil || !resp.Success {
		t.Fatalf("upper case signature should verify: %v", err)
	}
}

func TestVerifyAndParseIgnoresNonPrefixedParams(t *testing.T) {
	raw := buildCallback("secret")
	raw["extra"] = "tampered"
	if _, err := VerifyAndParse(raw, raw[ParamSecureHash], "secret"); err != nil {
		t.Fatalf("non vnp_ params must not affect signature: %v", err)
	}
}

func TestVerifyAndParseTamperDetection(t *testing.T) {
	base := buildCallback("secret")
	signature := base[ParamSecureHash]
	for key := range ResponseParams(base).values {
		t.Run(key, func(t *testing.T) {
			raw := buildCallback("secret")
			value := []byte(raw[key])
			if value[0] == 'X' {
				value[0] = 'Y'
			} else {
				value[0] = 'X'
			}
			raw[key] = string(value)
			resp, err := VerifyAndParse(raw, signature, "secret")
			if !errors.Is(err, ErrSignatureInvalid) {
				t.Fatalf("expected ErrSignatureInvalid, got %v", err)
			}
			if resp == nil || resp.Success || resp.OrderID != "" || resp.Amount != 0 {
				t.Fatalf("failed verification must not expose fields: %+v", resp)
			}
		})
	}
}

func TestVerifyAndParseWrongSecret(t *testing.T) {
	raw := buildCallback("secret")
	if _, err := VerifyAndParse(raw, raw[ParamSecureHash], "other"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyAndParseEmptyValueDoesNotAffectSignature(t *testing.T) {
	raw := buildCallback("secret")
	raw["vnp_CardHolder"] = ""
	if _, err := VerifyAndParse(raw, raw[ParamSecureHash], "secret"); err != nil {
		t.Fatalf("empty value must be ignored: %v", err)
	}
}

func TestVerifyAndParseDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{name: "txn ref not numeric", mutate: func(raw map[string]string) { raw["vnp_TxnRef"] = "ORDER-1" }},
		{name: "txn ref missing", mutate: func(raw map[string]string) { delete(raw, "vnp_TxnRef") }},
		{name: "amount missing", mutate: func(raw map[string]string) { delete(raw, "vnp_Amount") }},
		{name: "amount not numeric", mutate: func(raw map[string]string) { raw["vnp_Amount"] = "10.5" }},
		{name: "transaction no not numeric", mutate: func(raw map[string]string) { raw["vnp_TransactionNo"] = "abc" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := buildCallback("secret")
			tc.mutate(raw)
			delete(raw, ParamSecureHash)
			signature := SignHmacSHA512([]byte("secret"), []byte(ResponseParams(raw).Encode()))
			resp, err := VerifyAndParse(raw, signature, "secret")
			if !errors.Is(err, ErrResponseInvalid) {
				t.Fatalf("expected ErrResponseInvalid, got %v", err)
			}
			if errors.Is(err, ErrSignatureInvalid) {
				t.Fatalf("decode error must be distinct from signature error")
			}
			if resp == nil || resp.Success {
				t.Fatalf("expected unsuccessful response")
			}
		})
	}
}

func TestPaymentResponseStatus(t *testing.T) {
	cancelled := &PaymentResponse{Success: true, ResponseCode: ResponseCodeCancelled}
	if !cancelled.Cancelled() || cancelled.Paid() {
		t.Fatalf("unexpected cancelled status")
	}
	pending := &PaymentResponse{Success: true, ResponseCode: "00", TransactionStatus: "01"}
	if pending.Paid() {
		t.Fatalf("transaction status 01 must not be paid")
	}
	suspected := &PaymentResponse{Success: true, ResponseCode: ResponseCodeSuspected}
	if !suspected.Suspected() || suspected.Paid() || suspected.Cancelled() {
		t.Fatalf("unexpected suspected status")
	}
	var nilResp *PaymentResponse
	if nilResp.Paid() || nilResp.Cancelled() || nilResp.Suspected() {
		t.Fatalf("nil response must not be paid")
	}
}
