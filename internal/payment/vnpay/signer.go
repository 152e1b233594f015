package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignHmacSHA512 计算 HMAC-SHA512，输出小写十六进制
func SignHmacSHA512(key, message []byte) string {
	mac := hmac.New(sha512.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// EqualSignature 签名比较（忽略大小写）
func EqualSignature(expected, given string) bool {
	given = strings.TrimSpace(given)
	if given == "" || len(given) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(given)))
}

// ShortSignature 截断签名用于日志
func ShortSignature(sig string) string {
	sig = strings.TrimSpace(sig)
	if len(sig) <= 12 {
		return sig
	}
	return sig[:12] + "..."
}
