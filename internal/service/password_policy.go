package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vnpay-checkout/internal/config"
)

// bcrypt 只取前 72 字节，超出部分不参与校验
const bcryptMaxPasswordBytes = 72

type charClass struct {
	required bool
	label    string
	match    func(rune) bool
}

func isSpecialRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// ValidatePassword 按密码策略校验管理员明文密码，一次返回所有未满足项
func ValidatePassword(policy config.PasswordPolicyConfig, password string) error {
	if len(password) > bcryptMaxPasswordBytes {
		return fmt.Errorf("%w: at most %d bytes allowed", ErrWeakPassword, bcryptMaxPasswordBytes)
	}

	var missing []string
	if n := len([]rune(password)); policy.MinLength > 0 && n < policy.MinLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", policy.MinLength))
	}
	classes := []charClass{
		{policy.RequireUpper, "an uppercase letter", unicode.IsUpper},
		{policy.RequireLower, "a lowercase letter", unicode.IsLower},
		{policy.RequireNumber, "a digit", unicode.IsDigit},
		{policy.RequireSpecial, "a special character", isSpecialRune},
	}
	for _, class := range classes {
		if class.required && strings.IndexFunc(password, class.match) < 0 {
			missing = append(missing, class.label)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: requires %s", ErrWeakPassword, strings.Join(missing, ", "))
	}
	return nil
}
