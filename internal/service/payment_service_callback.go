package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/cache"
	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/payment/vnpay"

	"go.uber.org/zap"
)

// PaymentCallbackInput 网关回调输入（return URL 或 IPN）
type PaymentCallbackInput struct {
	Source   string
	Query    url.Values
	ClientIP string
	Context  context.Context
}

// PaymentCallbackResult 回调处理结果
type PaymentCallbackResult struct {
	Payment   *models.Payment
	Response  *vnpay.PaymentResponse
	Status    string
	Duplicate bool
}

// HandleCallback 验签并将网关结果写入支付记录。
// 重复回调返回当前记录及 ErrCallbackReplayed / ErrPaymentAlreadyConfirmed。
func (s *PaymentService) HandleCallback(input PaymentCallbackInput) (*PaymentCallbackResult, error) {
	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	source := strings.TrimSpace(input.Source)
	raw := vnpay.FlattenQuery(input.Query)
	signature := raw[vnpay.ParamSecureHash]
	txnRef := strings.TrimSpace(raw["vnp_TxnRef"])

	log := paymentLogger(
		"callback_source", source,
		"txn_ref", txnRef,
		"client_ip", input.ClientIP,
		"secure_hash", vnpay.ShortSignature(signature),
	)
	log.Infow("payment_callback_received", "response_code", raw["vnp_ResponseCode"])

	resp, err := vnpay.VerifyAndParse(raw, signature, s.gateway.HashSecret)
	if err != nil {
		result := &PaymentCallbackResult{Response: resp}
		switch {
		case errors.Is(err, vnpay.ErrSignatureInvalid):
			log.Warnw("payment_callback_signature_invalid")
			s.recordCallback(source, txnRef, 0, false, raw, "signature_invalid", input.ClientIP, log)
			return result, ErrCallbackSignatureInvalid
		case errors.Is(err, vnpay.ErrResponseInvalid):
			log.Warnw("payment_callback_payload_invalid", "error", err)
			s.recordCallback(source, txnRef, 0, true, raw, "payload_invalid", input.ClientIP, log)
			return result, fmt.Errorf("%w: %v", ErrCallbackPayloadInvalid, err)
		default:
			log.Errorw("payment_callback_gateway_unavailable", "error", err)
			return result, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
		}
	}

	result := &PaymentCallbackResult{Response: resp, Status: statusFromResponse(resp)}
	if resp.Suspected() {
		log.Warnw("payment_callback_suspected", "transaction_no", resp.TransactionID, "bank_code", resp.BankCode)
	}
	payment, err := s.paymentRepo.GetByTxnRef(resp.OrderID)
	if err != nil {
		log.Errorw("payment_callback_payment_fetch_failed", "error", err)
		return result, ErrPaymentFetchFailed
	}
	if payment == nil {
		log.Warnw("payment_callback_payment_not_found")
		s.recordCallback(source, resp.OrderID, 0, true, raw, "not_found", input.ClientIP, log)
		return result, ErrPaymentNotFound
	}
	result.Payment = payment
	log = log.With("payment_id", payment.ID, "order_id", payment.OrderID)

	if storedMinor := payment.Amount.MinorUnits(); storedMinor != resp.Amount {
		log.Warnw("payment_callback_amount_mismatch",
			"stored_amount_minor", storedMinor,
			"callback_amount_minor", resp.Amount,
		)
		s.recordCallback(source, resp.OrderID, payment.ID, true, raw, "amount_mismatch", input.ClientIP, log)
		return result, ErrPaymentAmountMismatch
	}

	first, err := cache.MarkCallbackSeen(ctx, source, resp.Token, s.options.CallbackReplayTTL)
	if err != nil {
		log.Warnw("payment_callback_replay_guard_failed", "error", err)
		first = true
	}
	if !first {
		log.Infow("payment_callback_replayed", "current_status", payment.Status)
		result.Duplicate = true
		return result, ErrCallbackReplayed
	}

	// 幂等处理：终态不再回退
	if payment.IsFinal() && payment.Status != constants.PaymentStatusExpired {
		log.Infow("payment_callback_idempotent_final", "current_status", payment.Status)
		s.recordCallback(source, resp.OrderID, payment.ID, true, raw, "already_confirmed", input.ClientIP, log)
		result.Duplicate = true
		return result, ErrPaymentAlreadyConfirmed
	}

	previousStatus := payment.Status
	updated, err := s.applyCallbackResult(payment, resp, raw)
	if err != nil {
		if releaseErr := cache.ReleaseCallbackSeen(ctx, source, resp.Token); releaseErr != nil {
			log.Warnw("payment_callback_replay_release_failed", "error", releaseErr)
		}
		log.Errorw("payment_callback_apply_failed", "error", err)
		return result, err
	}
	if !updated {
		reloaded, reloadErr := s.paymentRepo.GetByID(payment.ID)
		if reloadErr == nil && reloaded != nil {
			result.Payment = reloaded
		}
		log.Infow("payment_callback_concurrent_update", "current_status", result.Payment.Status)
		s.recordCallback(source, resp.OrderID, payment.ID, true, raw, "already_confirmed", input.ClientIP, log)
		result.Duplicate = true
		return result, ErrPaymentAlreadyConfirmed
	}

	reloaded, err := s.paymentRepo.GetByID(payment.ID)
	if err != nil || reloaded == nil {
		log.Warnw("payment_callback_reload_failed", "error", err)
	} else {
		result.Payment = reloaded
	}
	s.recordCallback(source, resp.OrderID, payment.ID, true, raw, "applied", input.ClientIP, log)
	s.cachePaymentStatus(ctx, result.Payment, log)
	s.enqueueResultNotify(result.Payment, source, log)

	log.Infow("payment_callback_processed",
		"previous_status", previousStatus,
		"new_status", result.Payment.Status,
		"response_code", resp.ResponseCode,
		"transaction_no", resp.TransactionID,
	)
	return result, nil
}

func (s *PaymentService) applyCallbackResult(payment *models.Payment, resp *vnpay.PaymentResponse, raw map[string]string) (bool, error) {
	now := s.now()
	status := statusFromResponse(resp)
	updates := map[string]interface{}{
		"status":           status,
		"response_code":    resp.ResponseCode,
		"provider_payload": models.JSONFromStrings(raw),
		"callback_at":      now,
		"updated_at":       now,
	}
	if resp.TransactionID != "" {
		updates["provider_ref"] = resp.TransactionID
	}
	if status == constants.PaymentStatusSuccess {
		updates["paid_at"] = s.parsePayDate(resp.PayDate, now)
	}

	current := append(pendingPaymentStatuses(), constants.PaymentStatusExpired)
	updated, err := s.paymentRepo.UpdateStatusIfCurrent(payment.ID, current, updates)
	if err != nil {
		return false, ErrPaymentUpdateFailed
	}
	return updated, nil
}

func (s *PaymentService) parsePayDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseInLocation(vnpay.DateLayout, value, s.options.Location)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *PaymentService) recordCallback(source, txnRef string, paymentID uint, verified bool, raw map[string]string, outcome, clientIP string, log *zap.SugaredLogger) {
	if s.callbackLogRepo == nil {
		return
	}
	entry := &models.PaymentCallbackLog{
		PaymentID:    paymentID,
		TxnRef:       strings.TrimSpace(txnRef),
		Source:       source,
		Verified:     verified,
		ResponseCode: raw["vnp_ResponseCode"],
		Result:       outcome,
		ClientIP:     clientIP,
		Payload:      models.JSONFromStrings(raw),
		CreatedAt:    s.now(),
	}
	if err := s.callbackLogRepo.Create(entry); err != nil {
		log.Warnw("payment_callback_log_write_failed", "error", err)
	}
}

// statusFromResponse 网关响应码映射为支付状态
func statusFromResponse(resp *vnpay.PaymentResponse) string {
	switch {
	case resp.Paid():
		return constants.PaymentStatusSuccess
	case resp.Cancelled():
		return constants.PaymentStatusCancelled
	default:
		return constants.PaymentStatusFailed
	}
}
