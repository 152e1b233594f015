package provider

import (
	"fmt"
	"time"

	"github.com/vnpay-checkout/internal/authz"
	"github.com/vnpay-checkout/internal/cache"
	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/queue"
	"github.com/vnpay-checkout/internal/repository"
	"github.com/vnpay-checkout/internal/service"

	"github.com/mojocn/base64Captcha"
)

// Container 进程内共享的仓库与服务
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	PaymentRepo            repository.PaymentRepository
	PaymentCallbackLogRepo repository.PaymentCallbackLogRepository

	AuthzService   *authz.Service
	AuthService    *service.AuthService
	CaptchaService *service.CaptchaService
	PaymentService *service.PaymentService
}

// NewContainer 装配仓库与服务；Redis 与队列不可用时降级运行，授权初始化失败则返回错误
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}
	c := &Container{
		Config:                 cfg,
		QueueClient:            openQueueClient(&cfg.Queue),
		PaymentRepo:            repository.NewPaymentRepository(models.DB),
		PaymentCallbackLogRepo: repository.NewPaymentCallbackLogRepository(models.DB),
	}

	authzService, err := setupAuthz(cfg.Admin.Accounts)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.AuthzService = authzService
	c.AuthService = service.NewAuthService(cfg.JWT, cfg.Admin)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha, c.captchaStore())
	c.PaymentService = service.NewPaymentService(
		c.PaymentRepo,
		c.PaymentCallbackLogRepo,
		c.QueueClient,
		cfg.Vnpay.ToGatewayConfig(),
		service.PaymentOptions{
			ExpireAfter:       cfg.Payment.ExpireDuration(),
			CallbackReplayTTL: cfg.Payment.CallbackReplayTTL(),
			Location:          cfg.Vnpay.Location(),
		},
	)
	return c, nil
}

func openQueueClient(cfg *config.QueueConfig) *queue.Client {
	if !cfg.Enabled {
		return nil
	}
	client, err := queue.NewClient(cfg)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		return nil
	}
	return client
}

// setupAuthz 写入预置角色，并按 admin.accounts 同步管理员角色
func setupAuthz(accounts []config.AdminAccount) (*authz.Service, error) {
	svc, err := authz.NewService(models.DB)
	if err != nil {
		return nil, err
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		return nil, fmt.Errorf("bootstrap builtin roles: %w", err)
	}
	assignments := make(map[string][]string, len(accounts))
	for _, account := range accounts {
		assignments[account.Username] = account.Roles
	}
	if err := svc.SyncAdminRoles(assignments); err != nil {
		return nil, fmt.Errorf("sync admin roles: %w", err)
	}
	return svc, nil
}

// captchaStore Redis 可用时跨实例共享验证码答案，否则回退进程内存储
func (c *Container) captchaStore() base64Captcha.Store {
	if !cache.Enabled() {
		return nil
	}
	expire := service.NormalizeCaptchaConfig(c.Config.Captcha).Image.ExpireSeconds
	return cache.NewCaptchaStore(time.Duration(expire) * time.Second)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
