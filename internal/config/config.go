package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/payment/vnpay"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Vnpay    VnpayConfig    `mapstructure:"vnpay"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // SQL 日志级别
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 管理端 JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 管理员账号配置
type AdminConfig struct {
	Accounts []AdminAccount `mapstructure:"accounts"`
}

// AdminAccount 管理员账号
type AdminAccount struct {
	Username     string   `mapstructure:"username"`
	PasswordHash string   `mapstructure:"password_hash"` // bcrypt 哈希
	Roles        []string `mapstructure:"roles"`         // 授权角色，如 finance / readonly_auditor
}

// FindAccount 按用户名查找管理员账号
func (c AdminConfig) FindAccount(username string) (AdminAccount, bool) {
	username = strings.TrimSpace(username)
	for _, account := range c.Accounts {
		if strings.TrimSpace(account.Username) == username && username != "" {
			return account, true
		}
	}
	return AdminAccount{}, false
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CallbackRateLimit RateLimitConfig      `mapstructure:"callback_rate_limit"`
	CheckoutRateLimit RateLimitConfig      `mapstructure:"checkout_rate_limit"`
	LoginRateLimit    RateLimitConfig      `mapstructure:"login_rate_limit"`
	CaptchaRateLimit  RateLimitConfig      `mapstructure:"captcha_rate_limit"`
	PasswordPolicy    PasswordPolicyConfig `mapstructure:"password_policy"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// PasswordPolicyConfig 管理员密码策略配置
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// CaptchaConfig 验证码配置
type CaptchaConfig struct {
	Provider  string                 `mapstructure:"provider"` // none / image / turnstile
	Scenes    CaptchaSceneConfig     `mapstructure:"scenes"`
	Image     CaptchaImageConfig     `mapstructure:"image"`
	Turnstile CaptchaTurnstileConfig `mapstructure:"turnstile"`
}

// CaptchaSceneConfig 验证码场景开关
type CaptchaSceneConfig struct {
	AdminLogin bool `mapstructure:"admin_login"`
	Checkout   bool `mapstructure:"checkout"`
}

// CaptchaImageConfig 图片验证码配置
type CaptchaImageConfig struct {
	Length        int `mapstructure:"length"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	NoiseCount    int `mapstructure:"noise_count"`
	ShowLine      int `mapstructure:"show_line"`
	ExpireSeconds int `mapstructure:"expire_seconds"`
	MaxStore      int `mapstructure:"max_store"`
}

// CaptchaTurnstileConfig Cloudflare Turnstile 配置
type CaptchaTurnstileConfig struct {
	SiteKey   string `mapstructure:"site_key"`
	SecretKey string `mapstructure:"secret_key"`
	VerifyURL string `mapstructure:"verify_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// VnpayConfig VNPay 网关配置
type VnpayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TmnCode        string `mapstructure:"tmn_code"`
	HashSecret     string `mapstructure:"hash_secret"`
	Version        string `mapstructure:"version"`
	Command        string `mapstructure:"command"`
	CurrCode       string `mapstructure:"curr_code"`
	Locale         string `mapstructure:"locale"`
	ReturnURL      string `mapstructure:"return_url"`
	OrderType      string `mapstructure:"order_type"`
	Timezone       string `mapstructure:"timezone"`
	FrontReturnURL string `mapstructure:"front_return_url"`
}

// ToGatewayConfig 转换为网关配置
func (c VnpayConfig) ToGatewayConfig() *vnpay.Config {
	cfg := &vnpay.Config{
		BaseURL:      c.BaseURL,
		MerchantCode: c.TmnCode,
		APIVersion:   c.Version,
		Command:      c.Command,
		CurrencyCode: c.CurrCode,
		Locale:       c.Locale,
		CallbackURL:  c.ReturnURL,
		HashSecret:   c.HashSecret,
		OrderType:    c.OrderType,
	}
	cfg.Normalize()
	return cfg
}

// Location 解析网关时区，tzdata 缺失时回退到 GMT+7
func (c VnpayConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = constants.TimezoneDefault
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("GMT+7", 7*60*60)
	}
	return loc
}

// PaymentConfig 支付流程配置
type PaymentConfig struct {
	ExpireMinutes            int `mapstructure:"expire_minutes"`
	CallbackReplayTTLSeconds int `mapstructure:"callback_replay_ttl_seconds"`
}

// ExpireDuration 支付链接有效期
func (c PaymentConfig) ExpireDuration() time.Duration {
	if c.ExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.ExpireMinutes) * time.Minute
}

// CallbackReplayTTL 回调防重放窗口
func (c PaymentConfig) CallbackReplayTTL() time.Duration {
	if c.CallbackReplayTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.CallbackReplayTTLSeconds) * time.Second
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 vnpay.hash_secret -> VNPAY_HASH_SECRET)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/vnpay.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "vnpay-checkout")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("admin.accounts", []map[string]interface{}{})
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "vnp")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.callback_rate_limit.window_seconds", 60)
	v.SetDefault("security.callback_rate_limit.max_requests", 120)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 20)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_requests", 10)
	v.SetDefault("security.captcha_rate_limit.window_seconds", 60)
	v.SetDefault("security.captcha_rate_limit.max_requests", 30)
	v.SetDefault("security.password_policy.min_length", 12)
	v.SetDefault("security.password_policy.require_upper", true)
	v.SetDefault("security.password_policy.require_lower", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("security.password_policy.require_special", false)
	v.SetDefault("captcha.provider", constants.CaptchaProviderNone)
	v.SetDefault("captcha.scenes.admin_login", false)
	v.SetDefault("captcha.scenes.checkout", false)
	v.SetDefault("captcha.image.length", 5)
	v.SetDefault("captcha.image.width", 240)
	v.SetDefault("captcha.image.height", 80)
	v.SetDefault("captcha.image.noise_count", 2)
	v.SetDefault("captcha.image.show_line", 2)
	v.SetDefault("captcha.image.expire_seconds", 300)
	v.SetDefault("captcha.image.max_store", 10240)
	v.SetDefault("captcha.turnstile.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	v.SetDefault("captcha.turnstile.timeout_ms", 2000)
	v.SetDefault("vnpay.base_url", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	v.SetDefault("vnpay.tmn_code", "")
	v.SetDefault("vnpay.hash_secret", "")
	v.SetDefault("vnpay.version", vnpay.DefaultVersion)
	v.SetDefault("vnpay.command", vnpay.DefaultCommand)
	v.SetDefault("vnpay.curr_code", vnpay.DefaultCurrency)
	v.SetDefault("vnpay.locale", vnpay.DefaultLocale)
	v.SetDefault("vnpay.return_url", "http://localhost:8080/api/v1/payments/vnpay/return")
	v.SetDefault("vnpay.order_type", vnpay.DefaultOrderType)
	v.SetDefault("vnpay.timezone", constants.TimezoneDefault)
	v.SetDefault("vnpay.front_return_url", "")
	v.SetDefault("payment.expire_minutes", 15)
	v.SetDefault("payment.callback_replay_ttl_seconds", 86400)
}
