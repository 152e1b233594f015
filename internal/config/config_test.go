package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected server port: %s", cfg.Server.Port)
	}
	if cfg.Vnpay.Version != "2.1.0" || cfg.Vnpay.CurrCode != "VND" || cfg.Vnpay.Locale != "vn" {
		t.Fatalf("unexpected vnpay defaults: %+v", cfg.Vnpay)
	}
	if cfg.Payment.ExpireMinutes != 15 {
		t.Fatalf("unexpected expire minutes: %d", cfg.Payment.ExpireMinutes)
	}
	if cfg.Queue.Queues["critical"] != 6 {
		t.Fatalf("unexpected queue weights: %+v", cfg.Queue.Queues)
	}
}

func TestVnpayConfigToGatewayConfig(t *testing.T) {
	cfg := VnpayConfig{
		BaseURL:    " https://sandbox.vnpayment.vn/paymentv2/vpcpay.html ",
		TmnCode:    "DEMO0001",
		HashSecret: "secret",
		ReturnURL:  "https://example.com/return",
		CurrCode:   "vnd",
	}
	gateway := cfg.ToGatewayConfig()
	if gateway.BaseURL != "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html" {
		t.Fatalf("base url should be trimmed: %q", gateway.BaseURL)
	}
	if gateway.CurrencyCode != "VND" || gateway.APIVersion != "2.1.0" || gateway.Command != "pay" {
		t.Fatalf("unexpected gateway defaults: %s", gateway)
	}
	if gateway.HashSecret != "secret" {
		t.Fatalf("hash secret should be carried over")
	}
}

func TestVnpayConfigLocation(t *testing.T) {
	loc := VnpayConfig{Timezone: "Not/AZone"}.Location()
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 7*60*60 {
		t.Fatalf("fallback zone offset want +7h got %d", offset)
	}
}

func TestPaymentConfigDurations(t *testing.T) {
	if got := (PaymentConfig{}).ExpireDuration(); got != 15*time.Minute {
		t.Fatalf("default expire duration want 15m got %s", got)
	}
	if got := (PaymentConfig{ExpireMinutes: 5}).ExpireDuration(); got != 5*time.Minute {
		t.Fatalf("expire duration want 5m got %s", got)
	}
	if got := (PaymentConfig{}).CallbackReplayTTL(); got != 24*time.Hour {
		t.Fatalf("default replay ttl want 24h got %s", got)
	}
	if got := (PaymentConfig{CallbackReplayTTLSeconds: 60}).CallbackReplayTTL(); got != time.Minute {
		t.Fatalf("replay ttl want 1m got %s", got)
	}
}

func TestAdminConfigFindAccount(t *testing.T) {
	cfg := AdminConfig{Accounts: []AdminAccount{
		{Username: "owner", Roles: []string{"owner"}},
		{Username: " finance ", Roles: []string{"finance"}},
	}}
	account, ok := cfg.FindAccount("finance")
	if !ok || account.Roles[0] != "finance" {
		t.Fatalf("expected finance account, got %+v ok=%v", account, ok)
	}
	if _, ok := cfg.FindAccount(""); ok {
		t.Fatalf("empty username should not match")
	}
	if _, ok := cfg.FindAccount("nobody"); ok {
		t.Fatalf("unknown username should not match")
	}
}

func TestSecretProblems(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.SecretKey = "replace-with-a-long-random-secret-value"
	if got := cfg.SecretProblems(); len(got) != 3 {
		t.Fatalf("placeholder config want 3 problems got %v", got)
	}

	cfg.JWT.SecretKey = "3c1f0b7e9a5d4c2e8f6a1b0d7c9e5f3a"
	cfg.Vnpay.HashSecret = "SANDBOXHASHSECRET0123456789"
	cfg.Vnpay.TmnCode = "DEMO0001"
	if got := cfg.SecretProblems(); len(got) != 0 {
		t.Fatalf("strong config should pass, got %v", got)
	}

	cfg.Server.Mode = " Release "
	if !cfg.IsRelease() {
		t.Fatalf("release mode should be case-insensitive")
	}
}
