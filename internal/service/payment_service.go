package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/cache"
	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/logger"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/payment/vnpay"
	"github.com/vnpay-checkout/internal/queue"
	"github.com/vnpay-checkout/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentOptions 支付流程参数
type PaymentOptions struct {
	ExpireAfter       time.Duration  // 支付链接有效期
	CallbackReplayTTL time.Duration  // 回调防重放窗口
	Location          *time.Location // 网关时区（GMT+7）
}

// PaymentService 支付服务
type PaymentService struct {
	paymentRepo     repository.PaymentRepository
	callbackLogRepo repository.PaymentCallbackLogRepository
	queueClient     *queue.Client
	gateway         *vnpay.Config
	options         PaymentOptions
	now             func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(paymentRepo repository.PaymentRepository, callbackLogRepo repository.PaymentCallbackLogRepository, queueClient *queue.Client, gateway *vnpay.Config, options PaymentOptions) *PaymentService {
	if options.ExpireAfter <= 0 {
		options.ExpireAfter = 15 * time.Minute
	}
	if options.CallbackReplayTTL <= 0 {
		options.CallbackReplayTTL = 24 * time.Hour
	}
	if options.Location == nil {
		options.Location = time.FixedZone("GMT+7", 7*60*60)
	}
	if gateway == nil {
		gateway = &vnpay.Config{}
	}
	gateway.Normalize()
	return &PaymentService{
		paymentRepo:     paymentRepo,
		callbackLogRepo: callbackLogRepo,
		queueClient:     queueClient,
		gateway:         gateway,
		options:         options,
		now:             time.Now,
	}
}

// CreatePaymentInput 创建支付请求
type CreatePaymentInput struct {
	OrderID     string
	Amount      models.Money
	Description string
	PayerName   string
	BankCode    string
	Locale      string
	ClientIP    string
	Context     context.Context
}

// CreatePaymentResult 创建支付结果
type CreatePaymentResult struct {
	Payment *models.Payment
	Reused  bool
}

const txnRefTimeLayout = "060102150405"

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

func hasProviderResult(payment *models.Payment) bool {
	if payment == nil {
		return false
	}
	return strings.TrimSpace(payment.PayURL) != ""
}

// CreatePayment 创建 VNPay 支付并生成跳转链接
func (s *PaymentService) CreatePayment(input CreatePaymentInput) (*CreatePaymentResult, error) {
	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	amount := input.Amount.Decimal.Round(2)
	if !amount.IsPositive() || !vnpay.FitsMinorUnits(amount) || vnpay.MinorUnits(amount) <= 0 {
		return nil, ErrPaymentAmountInvalid
	}
	if err := vnpay.ValidateConfig(s.gateway); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}

	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		orderID = uuid.NewString()
	}
	log := paymentLogger("order_id", orderID, "amount", amount.String())

	now := s.now().In(s.options.Location)
	if strings.TrimSpace(input.OrderID) != "" {
		existing, err := s.paymentRepo.GetLatestPendingByOrder(orderID, now)
		if err != nil {
			log.Errorw("payment_create_reuse_lookup_failed", "error", err)
			return nil, ErrPaymentFetchFailed
		}
		if existing != nil && hasProviderResult(existing) && existing.Amount.Decimal.Equal(amount) {
			log.Infow("payment_create_reuse_pending", "payment_id", existing.ID, "txn_ref", existing.TxnRef)
			return &CreatePaymentResult{Payment: existing, Reused: true}, nil
		}
	}

	expireAt := now.Add(s.options.ExpireAfter)
	payment := &models.Payment{
		OrderID:         orderID,
		TxnRef:          generateTxnRef(now),
		ProviderType:    constants.PaymentProviderVnpay,
		InteractionMode: constants.PaymentInteractionRedirect,
		PayerName:       strings.TrimSpace(input.PayerName),
		Description:     strings.TrimSpace(input.Description),
		Amount:          models.NewMoneyFromDecimal(amount),
		Currency:        s.gateway.CurrencyCode,
		Locale:          strings.TrimSpace(input.Locale),
		BankCode:        strings.TrimSpace(input.BankCode),
		ClientIP:        strings.TrimSpace(input.ClientIP),
		Status:          constants.PaymentStatusInitiated,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiredAt:       &expireAt,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		log.Errorw("payment_create_persist_failed", "error", err)
		return nil, ErrPaymentCreateFailed
	}
	log = log.With("payment_id", payment.ID, "txn_ref", payment.TxnRef)

	payURL, err := vnpay.BuildRedirectURL(s.gateway, vnpay.PaymentRequest{
		OrderID:     payment.OrderID,
		PayerName:   payment.PayerName,
		Description: payment.Description,
		Amount:      amount,
		CreatedAt:   now,
		ExpireAt:    expireAt,
		ClientIP:    payment.ClientIP,
		TxnRef:      payment.TxnRef,
		BankCode:    payment.BankCode,
		Locale:      payment.Locale,
	})
	if err != nil {
		log.Warnw("payment_create_build_url_failed", "error", err)
		payment.Status = constants.PaymentStatusFailed
		payment.UpdatedAt = s.now()
		if updateErr := s.paymentRepo.Update(payment); updateErr != nil {
			log.Errorw("payment_create_mark_failed_failed", "error", updateErr)
		}
		if errors.Is(err, vnpay.ErrConfigInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
	}

	payment.PayURL = payURL
	payment.Status = constants.PaymentStatusPending
	payment.UpdatedAt = s.now()
	if err := s.paymentRepo.Update(payment); err != nil {
		log.Errorw("payment_create_update_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueuePaymentTimeoutExpire(queue.PaymentTimeoutExpirePayload{
			PaymentID: payment.ID,
			TxnRef:    payment.TxnRef,
		}, s.options.ExpireAfter); err != nil {
			log.Warnw("payment_enqueue_timeout_expire_failed", "error", err)
		}
	}
	s.cachePaymentStatus(ctx, payment, log)

	log.Infow("payment_created", "expired_at", expireAt)
	return &CreatePaymentResult{Payment: payment}, nil
}

// GetPaymentStatus 查询支付状态（优先读缓存）
func (s *PaymentService) GetPaymentStatus(ctx context.Context, txnRef string) (*cache.PaymentStatusSnapshot, error) {
	txnRef = strings.TrimSpace(txnRef)
	if txnRef == "" {
		return nil, ErrPaymentInvalid
	}
	if ctx == nil {
		ctx = context.Background()
	}
	snapshot, hit, err := cache.GetPaymentStatus(ctx, txnRef)
	if err != nil {
		paymentLogger("txn_ref", txnRef).Warnw("payment_status_cache_read_failed", "error", err)
	}
	if hit && snapshot != nil {
		return snapshot, nil
	}

	payment, err := s.paymentRepo.GetByTxnRef(txnRef)
	if err != nil {
		return nil, ErrPaymentFetchFailed
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	s.cachePaymentStatus(ctx, payment, nil)
	return buildPaymentStatusSnapshot(payment), nil
}

// ExpirePayment 将超时未支付的记录标记为过期
func (s *PaymentService) ExpirePayment(ctx context.Context, paymentID uint) (bool, error) {
	updated, _, err := s.expirePayment(ctx, paymentID, false, "timeout")
	return updated, err
}

// ForceExpirePayment 管理端手动关闭未完成的支付，不校验是否到期
func (s *PaymentService) ForceExpirePayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	updated, payment, err := s.expirePayment(ctx, paymentID, true, "admin")
	if err != nil {
		return nil, err
	}
	if !updated {
		return payment, ErrPaymentAlreadyConfirmed
	}
	return payment, nil
}

func (s *PaymentService) expirePayment(ctx context.Context, paymentID uint, force bool, source string) (bool, *models.Payment, error) {
	if paymentID == 0 {
		return false, nil, ErrPaymentInvalid
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := paymentLogger("payment_id", paymentID, "expire_source", source)
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		log.Errorw("payment_expire_fetch_failed", "error", err)
		return false, nil, ErrPaymentFetchFailed
	}
	if payment == nil {
		return false, nil, ErrPaymentNotFound
	}
	now := s.now()
	if !force && payment.ExpiredAt != nil && payment.ExpiredAt.After(now) {
		log.Debugw("payment_expire_not_due", "expired_at", payment.ExpiredAt)
		return false, payment, nil
	}

	updated, err := s.paymentRepo.UpdateStatusIfCurrent(payment.ID, pendingPaymentStatuses(), map[string]interface{}{
		"status":     constants.PaymentStatusExpired,
		"updated_at": now,
	})
	if err != nil {
		log.Errorw("payment_expire_update_failed", "error", err)
		return false, payment, ErrPaymentUpdateFailed
	}
	if !updated {
		log.Debugw("payment_expire_skipped", "status", payment.Status)
		return false, payment, nil
	}
	payment.Status = constants.PaymentStatusExpired
	payment.UpdatedAt = now
	s.cachePaymentStatus(ctx, payment, log)
	s.enqueueResultNotify(payment, source, log)
	log.Infow("payment_expired", "txn_ref", payment.TxnRef)
	return true, payment, nil
}

// ExpireOverduePayments 批量过期超时记录，兜底队列任务丢失的情况
func (s *PaymentService) ExpireOverduePayments(ctx context.Context, limit int) (int, error) {
	now := s.now()
	payments, err := s.paymentRepo.ListOverduePending(now.In(s.options.Location), limit)
	if err != nil {
		return 0, ErrPaymentFetchFailed
	}
	expired := 0
	for _, payment := range payments {
		ok, err := s.ExpirePayment(ctx, payment.ID)
		if err != nil {
			paymentLogger("payment_id", payment.ID).Warnw("payment_expire_overdue_failed", "error", err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// GetPayment 根据 ID 获取支付记录
func (s *PaymentService) GetPayment(id uint) (*models.Payment, error) {
	if id == 0 {
		return nil, ErrPaymentInvalid
	}
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, ErrPaymentFetchFailed
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// Location 网关时区，管理端按日筛选以此为准
func (s *PaymentService) Location() *time.Location {
	return s.options.Location
}

// ListPayments 管理端支付列表
func (s *PaymentService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}

// ListCallbackLogs 查询交易回调记录
func (s *PaymentService) ListCallbackLogs(txnRef string, limit int) ([]models.PaymentCallbackLog, error) {
	if s.callbackLogRepo == nil {
		return []models.PaymentCallbackLog{}, nil
	}
	return s.callbackLogRepo.ListByTxnRef(txnRef, limit)
}

func pendingPaymentStatuses() []string {
	return []string{constants.PaymentStatusInitiated, constants.PaymentStatusPending}
}

func buildPaymentStatusSnapshot(payment *models.Payment) *cache.PaymentStatusSnapshot {
	return &cache.PaymentStatusSnapshot{
		PaymentID:    payment.ID,
		OrderID:      payment.OrderID,
		TxnRef:       payment.TxnRef,
		Status:       payment.Status,
		ResponseCode: payment.ResponseCode,
		UpdatedAt:    payment.UpdatedAt.Unix(),
	}
}

func (s *PaymentService) cachePaymentStatus(ctx context.Context, payment *models.Payment, log *zap.SugaredLogger) {
	if payment == nil {
		return
	}
	if err := cache.SetPaymentStatus(ctx, buildPaymentStatusSnapshot(payment)); err != nil {
		if log == nil {
			log = paymentLogger("payment_id", payment.ID)
		}
		log.Warnw("payment_status_cache_write_failed", "error", err)
		// 写入失败时删除旧快照，避免轮询读到过期状态
		if delErr := cache.DelPaymentStatus(ctx, payment.TxnRef); delErr != nil {
			log.Warnw("payment_status_cache_delete_failed", "error", delErr)
		}
	}
}

func (s *PaymentService) enqueueResultNotify(payment *models.Payment, source string, log *zap.SugaredLogger) {
	if s.queueClient == nil || payment == nil {
		return
	}
	if err := s.queueClient.EnqueuePaymentResultNotify(queue.PaymentResultNotifyPayload{
		PaymentID:    payment.ID,
		OrderID:      payment.OrderID,
		TxnRef:       payment.TxnRef,
		Status:       payment.Status,
		ResponseCode: payment.ResponseCode,
		AmountMinor:  payment.Amount.MinorUnits(),
		Source:       source,
	}); err != nil {
		log.Warnw("payment_enqueue_result_notify_failed", "status", payment.Status, "error", err)
	}
}

// generateTxnRef 生成 18 位纯数字流水号，网关回调按 int64 解析 vnp_TxnRef
func generateTxnRef(now time.Time) string {
	return now.Format(txnRefTimeLayout) + randNumericCode(6)
}

func randNumericCode(length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(strconv.FormatInt(n.Int64(), 10))
	}
	return b.String()
}
