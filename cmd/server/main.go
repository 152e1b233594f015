package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/vnpay-checkout/internal/app"
	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	var rawMode string
	flag.StringVar(&rawMode, "mode", string(app.ModeAll), "启动模式: all (默认), api, worker")
	flag.Parse()
	mode, err := app.ParseMode(rawMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	// release 模式下密钥不合格直接拒绝启动，其他模式只告警
	for _, problem := range cfg.SecretProblems() {
		if cfg.IsRelease() {
			stdLog.Fatalf("拒绝以 release 模式启动: %s", problem)
		}
		logger.Warnw("config_secret_weak", "problem", problem)
	}
	if len(cfg.Admin.Accounts) == 0 {
		logger.Warnw("config_admin_accounts_empty")
	}
	logger.Infow("vnpay_gateway_configured", cfg.Vnpay.ToGatewayConfig().LogFields()...)

	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}
