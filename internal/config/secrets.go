package config

import (
	"strings"
)

const minJWTSecretLength = 32

var placeholderSecrets = []string{"change-me", "change-in-production", "your-secret-key", "your-hash-secret", "replace-with"}

func isPlaceholder(secret string) bool {
	lower := strings.ToLower(secret)
	for _, marker := range placeholderSecrets {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsRelease server.mode 是否为 release
func (c *Config) IsRelease() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Mode), "release")
}

// SecretProblems 列出密钥配置问题；release 模式下任何一项都应拒绝启动
func (c *Config) SecretProblems() []string {
	var problems []string
	jwt := strings.TrimSpace(c.JWT.SecretKey)
	if len(jwt) < minJWTSecretLength || isPlaceholder(jwt) {
		problems = append(problems, "jwt.secret is shorter than 32 bytes or still a placeholder")
	}
	hash := strings.TrimSpace(c.Vnpay.HashSecret)
	if hash == "" || isPlaceholder(hash) {
		problems = append(problems, "vnpay.hash_secret is empty or still a placeholder")
	}
	if strings.TrimSpace(c.Vnpay.TmnCode) == "" {
		problems = append(problems, "vnpay.tmn_code is empty")
	}
	return problems
}
