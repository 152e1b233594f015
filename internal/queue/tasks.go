package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vnpay-checkout/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentTimeoutExpire 支付超时过期任务
	TaskPaymentTimeoutExpire = constants.TaskPaymentTimeoutExpire
	// TaskPaymentResultNotify 支付结果通知任务
	TaskPaymentResultNotify = constants.TaskPaymentResultNotify
	// TaskPaymentOverdueSweep 待支付记录超时兜底扫描
	TaskPaymentOverdueSweep = constants.TaskPaymentOverdueSweep
)

// PaymentTimeoutExpirePayload 支付超时过期任务载荷
type PaymentTimeoutExpirePayload struct {
	PaymentID uint   `json:"payment_id"`
	TxnRef    string `json:"txn_ref"`
}

// PaymentResultNotifyPayload 支付结果通知任务载荷
type PaymentResultNotifyPayload struct {
	PaymentID    uint   `json:"payment_id"`
	OrderID      string `json:"order_id"`
	TxnRef       string `json:"txn_ref"`
	Status       string `json:"status"`
	ResponseCode string `json:"response_code"`
	AmountMinor  int64  `json:"amount_minor"`
	Source       string `json:"source"`
}

// PaymentOverdueSweepPayload 单次扫描的批量上限
type PaymentOverdueSweepPayload struct {
	BatchSize int `json:"batch_size"`
}

// NewPaymentTimeoutExpireTask 创建支付超时过期任务
func NewPaymentTimeoutExpireTask(payload PaymentTimeoutExpirePayload) (*asynq.Task, error) {
	if payload.PaymentID == 0 {
		return nil, fmt.Errorf("%s: payment_id is required", TaskPaymentTimeoutExpire)
	}
	return newJSONTask(TaskPaymentTimeoutExpire, payload)
}

// NewPaymentResultNotifyTask 创建支付结果通知任务
func NewPaymentResultNotifyTask(payload PaymentResultNotifyPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.TxnRef) == "" || strings.TrimSpace(payload.Status) == "" {
		return nil, fmt.Errorf("%s: txn_ref and status are required", TaskPaymentResultNotify)
	}
	return newJSONTask(TaskPaymentResultNotify, payload)
}

// NewPaymentOverdueSweepTask 创建超时兜底扫描任务
func NewPaymentOverdueSweepTask(payload PaymentOverdueSweepPayload) (*asynq.Task, error) {
	if payload.BatchSize <= 0 {
		return nil, fmt.Errorf("%s: batch_size must be positive", TaskPaymentOverdueSweep)
	}
	return newJSONTask(TaskPaymentOverdueSweep, payload)
}

func newJSONTask(taskType string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body), nil
}

func timeoutExpireTaskID(payload PaymentTimeoutExpirePayload) string {
	return fmt.Sprintf("%s:%s", TaskPaymentTimeoutExpire, strings.TrimSpace(payload.TxnRef))
}

// paymentResultTaskID 同一交易同一状态只通知一次
func paymentResultTaskID(payload PaymentResultNotifyPayload) string {
	return fmt.Sprintf("%s:%s:%s", TaskPaymentResultNotify, strings.TrimSpace(payload.TxnRef), strings.TrimSpace(payload.Status))
}
