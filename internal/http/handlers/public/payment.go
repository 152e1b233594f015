package public

import (
	"strings"

	"github.com/vnpay-checkout/internal/constants"
	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/models"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateVnpayPaymentRequest 创建 VNPay 支付请求
type CreateVnpayPaymentRequest struct {
	OrderID        string                              `json:"order_id"`
	Amount         models.Money                        `json:"amount"`
	Description    string                              `json:"description"`
	PayerName      string                              `json:"payer_name"`
	BankCode       string                              `json:"bank_code"`
	Locale         string                              `json:"locale"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// CreateVnpayPayment 创建支付记录并返回网关跳转链接
func (h *Handler) CreateVnpayPayment(c *gin.Context) {
	var req CreateVnpayPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !handlershared.VerifyCaptcha(c, h.CaptchaService, constants.CaptchaSceneCheckout, req.CaptchaPayload) {
		return
	}

	result, err := h.PaymentService.CreatePayment(service.CreatePaymentInput{
		OrderID:     strings.TrimSpace(req.OrderID),
		Amount:      req.Amount,
		Description: req.Description,
		PayerName:   req.PayerName,
		BankCode:    req.BankCode,
		Locale:      req.Locale,
		ClientIP:    c.ClientIP(),
		Context:     c.Request.Context(),
	})
	if err != nil {
		respondWithMappedError(c, err, paymentCreateErrorRules, response.CodeInternal, "error.payment_create_failed")
		return
	}

	payment := result.Payment
	requestLog(c).Infow("vnpay_payment_created",
		"payment_id", payment.ID,
		"order_id", payment.OrderID,
		"txn_ref", payment.TxnRef,
		"reused", result.Reused,
	)
	response.Success(c, gin.H{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"txn_ref":    payment.TxnRef,
		"amount":     payment.Amount,
		"status":     payment.Status,
		"pay_url":    payment.PayURL,
		"expired_at": payment.ExpiredAt,
		"reused":     result.Reused,
	})
}

// GetVnpayPaymentStatus 查询支付状态（供前端轮询）
func (h *Handler) GetVnpayPaymentStatus(c *gin.Context) {
	snapshot, err := h.PaymentService.GetPaymentStatus(c.Request.Context(), c.Param("txn_ref"))
	if err != nil {
		respondWithMappedError(c, err, paymentStatusErrorRules, response.CodeInternal, "error.payment_fetch_failed")
		return
	}
	response.Success(c, snapshot)
}
