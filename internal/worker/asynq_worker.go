package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/provider"
	"github.com/vnpay-checkout/internal/queue"
	"github.com/vnpay-checkout/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentTimeoutExpire, c.handlePaymentTimeoutExpire)
	mux.HandleFunc(queue.TaskPaymentResultNotify, c.handlePaymentResultNotify)
	mux.HandleFunc(queue.TaskPaymentOverdueSweep, c.handlePaymentOverdueSweep)
}

// handlePaymentOverdueSweep 兜底过期超时任务丢失的待支付记录
func (c *Consumer) handlePaymentOverdueSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.PaymentService == nil {
		return nil
	}
	var payload queue.PaymentOverdueSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	count, err := c.PaymentService.ExpireOverduePayments(ctx, payload.BatchSize)
	if err != nil {
		logger.Warnw("worker_payment_overdue_sweep_failed", "error", err)
		return err
	}
	if count > 0 {
		logger.Infow("worker_payment_overdue_sweep_done", "expired", count)
	}
	return nil
}

func (c *Consumer) handlePaymentTimeoutExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_timeout_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentTimeoutExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_timeout_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 {
		logger.Debugw("worker_payment_timeout_expire_skip_invalid_payload", "payment_id", payload.PaymentID)
		return nil
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_payment_timeout_expire_skip_service_nil", "payment_id", payload.PaymentID)
		return nil
	}
	expired, err := c.PaymentService.ExpirePayment(ctx, payload.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			logger.Debugw("worker_payment_timeout_expire_skip_not_found", "payment_id", payload.PaymentID)
			return nil
		case errors.Is(err, service.ErrPaymentFetchFailed):
			logger.Warnw("worker_payment_timeout_expire_fetch_failed", "payment_id", payload.PaymentID, "error", err)
			return err
		default:
			logger.Warnw("worker_payment_timeout_expire_failed", "payment_id", payload.PaymentID, "error", err)
			return err
		}
	}
	logger.Debugw("worker_payment_timeout_expire_done",
		"payment_id", payload.PaymentID,
		"txn_ref", payload.TxnRef,
		"expired", expired,
	)
	return nil
}

func (c *Consumer) handlePaymentResultNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_result_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentResultNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_result_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 || payload.TxnRef == "" {
		logger.Debugw("worker_payment_result_notify_skip_invalid_payload",
			"payment_id", payload.PaymentID,
			"txn_ref", payload.TxnRef,
		)
		return nil
	}
	logger.Infow("payment_result_notified",
		"payment_id", payload.PaymentID,
		"order_id", payload.OrderID,
		"txn_ref", payload.TxnRef,
		"status", payload.Status,
		"response_code", payload.ResponseCode,
		"amount_minor", payload.AmountMinor,
		"source", payload.Source,
	)
	return nil
}
