package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const paymentStatusCacheTTL = 30 * time.Second

// PaymentStatusSnapshot 支付状态快照，供前端轮询使用
type PaymentStatusSnapshot struct {
	PaymentID    uint   `json:"payment_id"`
	OrderID      string `json:"order_id"`
	TxnRef       string `json:"txn_ref"`
	Status       string `json:"status"`
	ResponseCode string `json:"response_code"`
	UpdatedAt    int64  `json:"updated_at"`
}

func paymentStatusKey(txnRef string) string {
	return fmt.Sprintf("payment:status:%s", strings.TrimSpace(txnRef))
}

func callbackReplayKey(source, token string) string {
	return fmt.Sprintf("payment:callback:%s:%s", strings.TrimSpace(source), strings.ToLower(strings.TrimSpace(token)))
}

// GetPaymentStatus 获取支付状态快照
func GetPaymentStatus(ctx context.Context, txnRef string) (*PaymentStatusSnapshot, bool, error) {
	if strings.TrimSpace(txnRef) == "" {
		return nil, false, nil
	}
	return loadJSON[PaymentStatusSnapshot](ctx, paymentStatusKey(txnRef))
}

// SetPaymentStatus 写入支付状态快照
func SetPaymentStatus(ctx context.Context, snapshot *PaymentStatusSnapshot) error {
	if snapshot == nil || strings.TrimSpace(snapshot.TxnRef) == "" {
		return nil
	}
	return storeJSON(ctx, paymentStatusKey(snapshot.TxnRef), snapshot, paymentStatusCacheTTL)
}

// DelPaymentStatus 删除支付状态快照
func DelPaymentStatus(ctx context.Context, txnRef string) error {
	if strings.TrimSpace(txnRef) == "" {
		return nil
	}
	return del(ctx, paymentStatusKey(txnRef))
}

// MarkCallbackSeen 标记回调签名已处理，返回 true 表示首次出现。
// Redis 未启用时始终返回 true，由数据库条件更新保证幂等。
func MarkCallbackSeen(ctx context.Context, source, token string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return true, nil
	}
	if !Enabled() {
		return true, nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return redisClient.SetNX(ctx, buildKey(callbackReplayKey(source, token)), time.Now().Unix(), ttl).Result()
}

// ReleaseCallbackSeen 撤销回调标记，处理失败时允许网关重试
func ReleaseCallbackSeen(ctx context.Context, source, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return del(ctx, callbackReplayKey(source, token))
}
