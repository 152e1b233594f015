package admin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/repository"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	adminPaymentExportBatchSize = 500
	adminPaymentCallbackLimit   = 50
	adminFilterDateLayout       = "2006-01-02"
)

var paymentCSVHeader = []string{
	"id", "order_id", "txn_ref", "status", "response_code", "amount", "currency",
	"bank_code", "provider_ref", "created_at", "paid_at", "expired_at", "amount_minor",
}

// AdminPaymentDetail 支付详情返回
type AdminPaymentDetail struct {
	Payment   *models.Payment             `json:"payment"`
	Callbacks []models.PaymentCallbackLog `json:"callbacks"`
}

// GetAdminPayments 获取支付记录列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(response.DefaultPageSize)))
	page, pageSize = response.NormalizePage(page, pageSize)

	filter, err := h.paymentFilter(c, page, pageSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	payments, total, err := h.PaymentService.ListPayments(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, payments, response.BuildPagination(page, pageSize, total))
}

// ExportAdminPayments 按筛选条件分批导出 CSV
func (h *Handler) ExportAdminPayments(c *gin.Context) {
	filter, err := h.paymentFilter(c, 1, adminPaymentExportBatchSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	// 首批失败时还能返回 JSON 错误
	batch, _, err := h.PaymentService.ListPayments(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="vnpay_payments_%s.csv"`,
		time.Now().In(h.PaymentService.Location()).Format("20060102_150405")))
	writer := csv.NewWriter(c.Writer)
	log := requestLog(c)
	if err := writer.Write(paymentCSVHeader); err != nil {
		log.Errorw("admin_payment_export_write_failed", "error", err)
		return
	}

	exported := 0
	for {
		for i := range batch {
			if err := writer.Write(paymentCSVRow(&batch[i])); err != nil {
				log.Errorw("admin_payment_export_write_failed", "page", filter.Page, "error", err)
				return
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			log.Errorw("admin_payment_export_write_failed", "page", filter.Page, "error", err)
			return
		}
		exported += len(batch)
		if len(batch) < adminPaymentExportBatchSize {
			break
		}
		filter.Page++
		if batch, _, err = h.PaymentService.ListPayments(filter); err != nil {
			log.Errorw("admin_payment_export_fetch_failed", "page", filter.Page, "error", err)
			return
		}
	}
	log.Infow("admin_payment_exported", "rows", exported)
}

// GetAdminPayment 获取支付记录详情（含回调记录）
func (h *Handler) GetAdminPayment(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}
	payment, err := h.PaymentService.GetPayment(id)
	if err != nil {
		respondPaymentError(c, err, "error.payment_fetch_failed")
		return
	}
	callbacks, err := h.PaymentService.ListCallbackLogs(payment.TxnRef, adminPaymentCallbackLimit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}
	response.Success(c, AdminPaymentDetail{Payment: payment, Callbacks: callbacks})
}

// ExpireAdminPayment 手动关闭未完成的支付，已成功的交易不可关闭
func (h *Handler) ExpireAdminPayment(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}
	payment, err := h.PaymentService.ForceExpirePayment(c.Request.Context(), id)
	if err != nil {
		respondPaymentError(c, err, "error.payment_update_failed")
		return
	}
	requestLog(c).Infow("admin_payment_expired",
		"payment_id", payment.ID,
		"txn_ref", payment.TxnRef,
		"admin", c.GetString(handlershared.AdminUsernameKey),
	)
	response.Success(c, payment)
}

func paymentIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.payment_invalid", nil)
		return 0, false
	}
	return uint(id), true
}

func respondPaymentError(c *gin.Context, err error, fallbackKey string) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
	case errors.Is(err, service.ErrPaymentAlreadyConfirmed):
		respondError(c, response.CodeConflict, "error.payment_already_confirmed", nil)
	default:
		respondError(c, response.CodeInternal, fallbackKey, err)
	}
}

// paymentFilter 解析列表/导出筛选条件；created_from/created_to 接受 RFC3339 或按网关时区解释的日期
func (h *Handler) paymentFilter(c *gin.Context, page, pageSize int) (repository.PaymentListFilter, error) {
	loc := h.PaymentService.Location()
	createdFrom, err := parseFilterTime(c.Query("created_from"), loc, false)
	if err != nil {
		return repository.PaymentListFilter{}, fmt.Errorf("created_from: %w", err)
	}
	createdTo, err := parseFilterTime(c.Query("created_to"), loc, true)
	if err != nil {
		return repository.PaymentListFilter{}, fmt.Errorf("created_to: %w", err)
	}
	if createdFrom != nil && createdTo != nil && createdTo.Before(*createdFrom) {
		return repository.PaymentListFilter{}, errors.New("created_to is before created_from")
	}
	return repository.PaymentListFilter{
		Page:         page,
		PageSize:     pageSize,
		OrderID:      strings.TrimSpace(c.Query("order_id")),
		TxnRef:       strings.TrimSpace(c.Query("txn_ref")),
		Status:       strings.TrimSpace(c.Query("status")),
		ResponseCode: strings.TrimSpace(c.Query("response_code")),
		Keyword:      strings.TrimSpace(c.Query("keyword")),
		BankTranNo:   strings.TrimSpace(c.Query("bank_tran_no")),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	}, nil
}

// parseFilterTime endOfDay 为 true 时日期取当天最后一刻
func parseFilterTime(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if day, err := time.ParseInLocation(adminFilterDateLayout, raw, loc); err == nil {
		if endOfDay {
			day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &day, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func paymentCSVRow(p *models.Payment) []string {
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.OrderID,
		p.TxnRef,
		p.Status,
		p.ResponseCode,
		p.Amount.String(),
		p.Currency,
		p.BankCode,
		p.ProviderRef,
		p.CreatedAt.Format(time.RFC3339),
		optionalTime(p.PaidAt),
		optionalTime(p.ExpiredAt),
		strconv.FormatInt(p.Amount.MinorUnits(), 10),
	}
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
