package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	DefaultQueue  = constants.QueueDefault
	CriticalQueue = constants.QueueCritical

	defaultConcurrency = 10
	// 去重 ID 在任务完成后保留的时长，覆盖网关的重复回调窗口
	resultNotifyRetention = 24 * time.Hour
)

// Client 支付任务投递客户端，未启用队列时所有投递为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueuePaymentTimeoutExpire 在支付有效期结束时投递过期任务，同一流水号只保留一个
func (c *Client) EnqueuePaymentTimeoutExpire(payload PaymentTimeoutExpirePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentTimeoutExpireTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task,
		asynq.Queue(DefaultQueue),
		asynq.ProcessIn(max(delay, 0)),
		asynq.TaskID(timeoutExpireTaskID(payload)),
	)
}

// EnqueuePaymentResultNotify 投递支付结果通知，同一交易同一状态只投递一次
func (c *Client) EnqueuePaymentResultNotify(payload PaymentResultNotifyPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentResultNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(constants.PaymentResultNotifyMaxTry),
		asynq.TaskID(paymentResultTaskID(payload)),
		asynq.Retention(resultNotifyRetention),
	}, opts...)...)
}

// enqueue 重复的任务 ID 视为已投递
func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	_, err := c.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// BuildServerConfig 生成 worker 配置，critical 队列承载结果通知
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency:  defaultConcurrency,
		Queues:       map[string]int{CriticalQueue: 6, DefaultQueue: 3},
		ErrorHandler: asynq.ErrorHandlerFunc(logTaskFailure),
	}
	if cfg != nil && cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return redisOpt(cfg), serverCfg
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	logger.Warnw("queue_task_failed",
		"task_type", task.Type(),
		"task_id", taskID,
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host, port := "127.0.0.1", 6379
	opt := asynq.RedisClientOpt{}
	if cfg != nil {
		if h := strings.TrimSpace(cfg.Host); h != "" {
			host = h
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opt.Password = cfg.Password
		opt.DB = cfg.DB
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	return opt
}
