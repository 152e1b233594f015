package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/provider"
	"github.com/vnpay-checkout/internal/router"
	"github.com/vnpay-checkout/internal/worker"

	"go.uber.org/zap"
)

// Mode 启动模式
type Mode string

const (
	ModeAll    Mode = "all"
	ModeAPI    Mode = "api"
	ModeWorker Mode = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// ParseMode 解析命令行传入的启动模式
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return ModeAll, nil
	}
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	}
	return "", fmt.Errorf("unknown mode: %s", raw)
}

func (m Mode) servesHTTP() bool { return m == ModeAll || m == ModeAPI }

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            Mode
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.S()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	if o.Mode == "" {
		o.Mode = ModeAll
	}
	return o
}

// listenAddr 收银台 HTTP 监听地址
func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// BuildRunner 按模式装配收银台 HTTP 与过期/通知 worker
func BuildRunner(cfg *config.Config, mode Mode) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("init container: %w", err)
	}
	runner := NewRunner()
	runner.OnShutdown(container.Close)

	if mode.servesHTTP() {
		runner.Add(NewHTTPService(listenAddr(cfg), router.SetupRouter(cfg, container)))
	}

	switch {
	case mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled):
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container), cfg.Vnpay.Location())
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("init payment worker: %w", err)
		}
		runner.Add(workerService)
	case mode == ModeAll:
		// 未启用队列时依赖下单与回调路径上的懒过期
		logger.Warnw("app_worker_skipped_queue_disabled")
	}
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start",
		"addr", listenAddr(opts.Config),
		"mode", string(opts.Mode),
		"services", runner.Names(),
		"vnpay_tmn_code", opts.Config.Vnpay.TmnCode,
	)
	return runner.RunUntilSignal(opts.Signals, opts.ShutdownTimeout, opts.Logger)
}
