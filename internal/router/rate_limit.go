package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// 读取限流 key 时最多缓冲的请求体大小
const rateLimitBodyPeekLimit = 64 << 10

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// RateCounter 固定窗口计数器，返回窗口内的累计次数与剩余秒数
type RateCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

type redisRateCounter struct {
	client *redis.Client
}

// NewRedisRateCounter 基于 Redis 的计数器，未启用 Redis 时返回 nil（不限流）
func NewRedisRateCounter(client *redis.Client) RateCounter {
	if client == nil {
		return nil
	}
	return redisRateCounter{client: client}
}

func (r redisRateCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	values, err := rateLimitScript.Run(ctx, r.client, []string{key}, int(window/time.Second)).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
	}
	return values[0], time.Duration(values[1]) * time.Second, nil
}

// RateLimitMiddleware 频率限制中间件，counter 为 nil 时放行
func RateLimitMiddleware(counter RateCounter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	window := time.Duration(rule.WindowSeconds) * time.Second
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.too_many_requests"
	}
	return func(c *gin.Context) {
		if counter == nil || !rule.active() {
			c.Next()
			return
		}

		key := c.ClientIP()
		if keyFunc != nil {
			if custom := strings.TrimSpace(keyFunc(c)); custom != "" {
				key = custom
			}
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		count, ttl, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warnw("rate_limit_counter_failed", "key", key, "error", err)
			response.Error(c, response.CodeUnavailable, handlershared.Message("error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := int(ttl / time.Second)
		if wait < 1 {
			wait = rule.WindowSeconds
		}
		logger.Infow("rate_limit_exceeded", "key", key, "count", count, "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(wait))
		response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("%s (retry after %ds)", handlershared.Message(msgKey), wait))
		c.Abort()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndQuery 使用 IP + 查询参数作为限流 key
// 回调按 vnp_TxnRef 分桶，避免网关出口 IP 被整体限流
func KeyByIPAndQuery(param string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// KeyByIPAndJSONField 使用 IP + JSON 字段（忽略大小写）作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// peekJSONField 读取请求体中的字符串字段，并把已读内容放回请求体
func peekJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(c.Request.Body, rateLimitBodyPeekLimit))
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), c.Request.Body), c.Request.Body}
	if err != nil || len(head) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(head, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
