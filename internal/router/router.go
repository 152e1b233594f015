package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/cache"
	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/constants"
	adminhandlers "github.com/vnpay-checkout/internal/http/handlers/admin"
	publichandlers "github.com/vnpay-checkout/internal/http/handlers/public"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	limiter := NewRedisRateCounter(cache.Client())
	callbackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:vnpay_callback", redisPrefix),
		WindowSeconds: cfg.Security.CallbackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CallbackRateLimit.MaxRequests,
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:vnpay_checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		MessageKey:    "error.login_too_many",
	}
	captchaImageRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:captcha_image", redisPrefix),
		WindowSeconds: cfg.Security.CaptchaRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CaptchaRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 收银台与网关回调
		payments := apiV1.Group("/payments/vnpay")
		{
			payments.POST("", RateLimitMiddleware(limiter, checkoutRule, KeyByIPAndJSONField("order_id")), publicHandler.CreateVnpayPayment)
			payments.GET("/return", RateLimitMiddleware(limiter, callbackRule, KeyByIPAndQuery("vnp_TxnRef")), publicHandler.VnpayReturn)
			payments.GET("/ipn", RateLimitMiddleware(limiter, callbackRule, KeyByIPAndQuery("vnp_TxnRef")), publicHandler.VnpayIPN)
			payments.GET("/:txn_ref", publicHandler.GetVnpayPaymentStatus)
		}

		// 验证码
		captcha := apiV1.Group("/captcha")
		{
			captcha.GET("/config", publicHandler.GetCaptchaConfig)
			captcha.GET("/image", RateLimitMiddleware(limiter, captchaImageRule, KeyByIP), publicHandler.GetImageCaptcha)
		}

		// 管理端
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(limiter, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("", JWTAuthMiddleware(c.AuthService, cfg.JWT.SecretKey), AdminRBACMiddleware(c.AuthzService))
			registerAdminRoutes(authorized, adminRouteTable(adminHandler))
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readinessHandler(models.Ping, cache.Enabled, cache.Ping))

	return r
}

// readinessHandler 数据库必须可用；Redis 启用时也必须可用，否则回调去重与限流会失效
func readinessHandler(pingDB func(context.Context) error, redisEnabled func() bool, pingRedis func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		ready := true
		if err := pingDB(ctx); err != nil {
			status["database"] = err.Error()
			ready = false
		}
		if redisEnabled() {
			status["redis"] = "ok"
			if err := pingRedis(ctx); err != nil {
				status["redis"] = err.Error()
				ready = false
			}
		}
		if !ready {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
