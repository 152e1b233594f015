package worker

import (
	"context"
	"errors"
	"time"

	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	overdueSweepSpec      = "@every 1m"
	overdueSweepBatchSize = 200
	// 多实例同时调度时只入队一次
	overdueSweepUniqueTTL = 50 * time.Second
)

// Service 消费支付任务，并按周期调度超时兜底扫描
type Service struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// NewService 创建 worker，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer, loc *time.Location) (*Service, error) {
	switch {
	case cfg == nil || !cfg.Enabled:
		return nil, errors.New("queue disabled")
	case consumer == nil:
		return nil, errors.New("consumer is nil")
	}
	redisOpt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location:        loc,
		PostEnqueueFunc: logSweepEnqueue,
	})
	if err := registerOverdueSweep(scheduler); err != nil {
		return nil, err
	}
	return &Service{
		server:    asynq.NewServer(redisOpt, serverCfg),
		mux:       mux,
		scheduler: scheduler,
	}, nil
}

func registerOverdueSweep(scheduler *asynq.Scheduler) error {
	task, err := queue.NewPaymentOverdueSweepTask(queue.PaymentOverdueSweepPayload{BatchSize: overdueSweepBatchSize})
	if err != nil {
		return err
	}
	_, err = scheduler.Register(overdueSweepSpec, task,
		asynq.Queue(queue.DefaultQueue),
		asynq.MaxRetry(0),
		asynq.Unique(overdueSweepUniqueTTL),
	)
	return err
}

func logSweepEnqueue(info *asynq.TaskInfo, err error) {
	switch {
	case err == nil:
		logger.Debugw("worker_overdue_sweep_scheduled", "task_id", info.ID)
	case errors.Is(err, asynq.ErrDuplicateTask):
		// 其他实例已入队
	default:
		logger.Warnw("worker_overdue_sweep_schedule_failed", "error", err)
	}
}

// Name 服务名称
func (s *Service) Name() string { return "worker" }

// Start 启动消费与调度后阻塞到 ctx 结束，信号由 app.Runner 处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if err := s.scheduler.Start(); err != nil {
		s.server.Shutdown()
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 先停调度再等待进行中的任务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.scheduler.Shutdown()
		s.server.Shutdown()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
