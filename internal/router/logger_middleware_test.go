package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerMiddlewareCallbackFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/payments/vnpay/ipn", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"RspCode": "00"}) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, target := range []string{
		"/health",
		"/api/v1/payments/vnpay/ipn?vnp_TxnRef=100000000000000001&vnp_SecureHash=deadbeef",
		"/boom",
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("health requests should not be logged, got %d entries", len(entries))
	}

	ipn := entries[0]
	if ipn.Message != "http_request" || ipn.Level != zapcore.InfoLevel {
		t.Fatalf("unexpected ipn entry: %+v", ipn)
	}
	fields := ipn.ContextMap()
	if fields["route"] != "/api/v1/payments/vnpay/ipn" || fields["txn_ref"] != "100000000000000001" {
		t.Fatalf("unexpected ipn fields: %v", fields)
	}
	query, _ := fields["query"].(string)
	if strings.Contains(query, "deadbeef") || !strings.Contains(query, "vnp_SecureHash=redacted") {
		t.Fatalf("callback signature should be masked, got %q", query)
	}
	if fields["request_id"] == "" {
		t.Fatalf("request id should be logged")
	}

	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("5xx should be logged at error level, got %s", entries[1].Level)
	}
	if _, ok := entries[1].ContextMap()["txn_ref"]; ok {
		t.Fatalf("non-callback request should not carry txn_ref")
	}
}
