package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/logger"

	"github.com/redis/go-redis/v9"
)

const captchaStoreOpTimeout = time.Second

// CaptchaStore 基于 Redis 的图片验证码答案存储，实现 base64Captcha.Store，多实例共享
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建验证码存储
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return fmt.Sprintf("captcha:%s", strings.TrimSpace(id))
}

// Set 保存验证码答案
func (s *CaptchaStore) Set(id string, value string) error {
	if !Enabled() {
		return errors.New("redis disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreOpTimeout)
	defer cancel()
	return redisClient.Set(ctx, buildKey(captchaKey(id)), value, s.ttl).Err()
}

// Get 读取验证码答案，clear 为 true 时读取后删除
func (s *CaptchaStore) Get(id string, clear bool) string {
	if !Enabled() || strings.TrimSpace(id) == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreOpTimeout)
	defer cancel()
	key := buildKey(captchaKey(id))
	var (
		value string
		err   error
	)
	if clear {
		value, err = redisClient.GetDel(ctx, key).Result()
	} else {
		value, err = redisClient.Get(ctx, key).Result()
	}
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnw("captcha_store_get_failed", "error", err)
		}
		return ""
	}
	return value
}

// Verify 校验验证码答案（忽略大小写）
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	stored := s.Get(id, clear)
	return stored != "" && strings.EqualFold(stored, answer)
}
