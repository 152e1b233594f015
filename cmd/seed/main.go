package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	var hashPassword string
	flag.StringVar(&hashPassword, "hash-password", "", "输出管理员密码的 bcrypt 哈希（用于 admin.accounts[].password_hash）后退出")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if strings.TrimSpace(hashPassword) != "" {
		if err := service.ValidatePassword(cfg.Security.PasswordPolicy, hashPassword); err != nil {
			stdLog.Fatalf("Password rejected: %v", err)
		}
		hash, err := service.HashPassword(hashPassword)
		if err != nil {
			stdLog.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// 连接数据库
	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	loc := cfg.Vnpay.Location()
	now := time.Now().In(loc).Truncate(time.Second)
	expiredAt := now.Add(cfg.Payment.ExpireDuration())
	paidAt := now.Add(2 * time.Minute)

	// 沙箱演示数据，覆盖各个支付状态
	payments := []models.Payment{
		{
			OrderID:      "DEMO-ORDER-001",
			TxnRef:       "000000000000000001",
			Description:  "Thanh toan don hang:DEMO-ORDER-001",
			PayerName:    "Nguyen Van A",
			Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(150000)),
			Status:       constants.PaymentStatusPending,
			ExpiredAt:    &expiredAt,
			BankCode:     "NCB",
			ClientIP:     "127.0.0.1",
		},
		{
			OrderID:      "DEMO-ORDER-002",
			TxnRef:       "000000000000000002",
			Description:  "Thanh toan don hang:DEMO-ORDER-002",
			PayerName:    "Tran Thi B",
			Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(250000)),
			Status:       constants.PaymentStatusSuccess,
			ResponseCode: "00",
			ProviderRef:  "14226112",
			ProviderPayload: models.JSON{
				"vnp_BankCode":   "NCB",
				"vnp_BankTranNo": "VNP14226112",
				"vnp_PayDate":    paidAt.Format("20060102150405"),
			},
			PaidAt:    &paidAt,
			ExpiredAt: &expiredAt,
			ClientIP:  "127.0.0.1",
		},
		{
			OrderID:      "DEMO-ORDER-003",
			TxnRef:       "000000000000000003",
			Description:  "Thanh toan don hang:DEMO-ORDER-003",
			Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(99000)),
			Status:       constants.PaymentStatusCancelled,
			ResponseCode: "24",
			ExpiredAt:    &expiredAt,
			ClientIP:     "127.0.0.1",
		},
	}

	created := 0
	for i := range payments {
		payment := payments[i]
		payment.ProviderType = constants.PaymentProviderVnpay
		payment.InteractionMode = constants.PaymentInteractionRedirect
		payment.Currency = constants.CurrencyDefault
		payment.CreatedAt = now
		payment.UpdatedAt = now

		var existing models.Payment
		result := models.DB.Where("txn_ref = ?", payment.TxnRef).Limit(1).Find(&existing)
		if result.Error != nil {
			stdLog.Fatalf("Failed to check demo payment %s: %v", payment.TxnRef, result.Error)
		}
		if result.RowsAffected > 0 {
			continue
		}
		if err := models.DB.Create(&payment).Error; err != nil {
			stdLog.Fatalf("Failed to create demo payment %s: %v", payment.TxnRef, err)
		}
		created++
	}

	fmt.Printf("Seed completed: %d demo payments created\n", created)
}
