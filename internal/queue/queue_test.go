package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vnpay-checkout/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueuePaymentTimeoutExpire(PaymentTimeoutExpirePayload{PaymentID: 1}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueuePaymentResultNotify(PaymentResultNotifyPayload{PaymentID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
}

func TestNewPaymentTimeoutExpireTask(t *testing.T) {
	task, err := NewPaymentTimeoutExpireTask(PaymentTimeoutExpirePayload{PaymentID: 7, TxnRef: "123"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskPaymentTimeoutExpire {
		t.Fatalf("task type want %s got %s", TaskPaymentTimeoutExpire, task.Type())
	}
	var payload PaymentTimeoutExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.PaymentID != 7 || payload.TxnRef != "123" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestTaskIDs(t *testing.T) {
	got := paymentResultTaskID(PaymentResultNotifyPayload{TxnRef: " 123 ", Status: "success"})
	if got != "payment:result_notify:123:success" {
		t.Fatalf("unexpected result task id: %s", got)
	}
	got = timeoutExpireTaskID(PaymentTimeoutExpirePayload{PaymentID: 1, TxnRef: "260101120000000001 "})
	if got != TaskPaymentTimeoutExpire+":260101120000000001" {
		t.Fatalf("unexpected expire task id: %s", got)
	}
}

func TestNewTaskRejectsIncompletePayload(t *testing.T) {
	if _, err := NewPaymentTimeoutExpireTask(PaymentTimeoutExpirePayload{TxnRef: "1"}); err == nil {
		t.Fatalf("expire task without payment id should fail")
	}
	if _, err := NewPaymentResultNotifyTask(PaymentResultNotifyPayload{TxnRef: "1"}); err == nil {
		t.Fatalf("notify task without status should fail")
	}
	if _, err := NewPaymentResultNotifyTask(PaymentResultNotifyPayload{Status: "success"}); err == nil {
		t.Fatalf("notify task without txn ref should fail")
	}
	if _, err := NewPaymentOverdueSweepTask(PaymentOverdueSweepPayload{}); err == nil {
		t.Fatalf("sweep task without batch size should fail")
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] || cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("result notify queue should outrank expiry queue: %+v", cfg.Queues)
	}
	if cfg.ErrorHandler == nil {
		t.Fatalf("task failures should be logged")
	}

	opt, _ = BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("default addr mismatch: %s", opt.Addr)
	}
	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: "::1", Concurrency: 3, Queues: map[string]int{CriticalQueue: 1}})
	if opt.Addr != "[::1]:6379" || cfg.Concurrency != 3 || len(cfg.Queues) != 1 {
		t.Fatalf("custom queue config not applied: %+v %+v", opt, cfg)
	}
}
