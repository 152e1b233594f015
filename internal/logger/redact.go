package logger

import (
	"net/url"
	"strings"
)

const (
	redactedValue = "***"
	// 查询串中使用无需转义的占位
	redactedQueryValue = "redacted"
)

// 不允许明文输出的日志字段与回调参数
var sensitiveKeys = map[string]struct{}{
	"hash_secret":     {},
	"secret":          {},
	"jwt_secret":      {},
	"authorization":   {},
	"vnp_securehash":  {},
	"captcha_code":    {},
	"turnstile_token": {},
}

// Redact 遮蔽敏感字段的值，kv 为 key/value 交替序列，不修改入参
func Redact(kv ...interface{}) []interface{} {
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok && isSensitiveKey(key) {
			out[i+1] = redactedValue
		}
	}
	return out
}

// RedactQuery 遮蔽回调查询串中的签名等参数，解析失败时整体遮蔽
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return redactedQueryValue
	}
	for key := range values {
		if isSensitiveKey(key) {
			values[key] = []string{redactedQueryValue}
		}
	}
	return values.Encode()
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if _, ok := sensitiveKeys[normalized]; ok {
		return true
	}
	return strings.HasSuffix(normalized, "_secret") || strings.HasSuffix(normalized, "password")
}
