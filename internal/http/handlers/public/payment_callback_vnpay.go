package public

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/vnpay-checkout/internal/constants"
	handlershared "github.com/vnpay-checkout/internal/http/handlers/shared"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// VnpayReturn 处理浏览器回跳（vnp_ReturnUrl）
func (h *Handler) VnpayReturn(c *gin.Context) {
	result, err := h.PaymentService.HandleCallback(service.PaymentCallbackInput{
		Source:   constants.CallbackSourceReturn,
		Query:    c.Request.URL.Query(),
		ClientIP: c.ClientIP(),
		Context:  c.Request.Context(),
	})
	if err != nil && !isSettledCallbackError(err) {
		if errors.Is(err, service.ErrCallbackSignatureInvalid) {
			response.ErrorWithData(c, response.CodeUnauthorized, handlershared.Message("error.callback_signature_invalid"), gin.H{"success": false})
			return
		}
		respondWithMappedError(c, err, returnCallbackErrorRules, response.CodeInternal, "error.payment_update_failed")
		return
	}

	status := result.Status
	if result.Payment != nil {
		status = result.Payment.Status
	}
	txnRef := ""
	if result.Response != nil {
		txnRef = result.Response.OrderID
	}

	if front := strings.TrimSpace(h.Config.Vnpay.FrontReturnURL); front != "" {
		target, buildErr := buildFrontReturnURL(front, txnRef, status)
		if buildErr == nil {
			c.Redirect(http.StatusFound, target)
			return
		}
		requestLog(c).Warnw("vnpay_front_return_url_invalid", "error", buildErr)
	}

	response.Success(c, gin.H{
		"success":   true,
		"txn_ref":   txnRef,
		"status":    status,
		"duplicate": result.Duplicate,
		"response":  result.Response,
	})
}

// VnpayIPN 处理 VNPay 服务端通知，应答必须为 {"RspCode","Message"}
func (h *Handler) VnpayIPN(c *gin.Context) {
	_, err := h.PaymentService.HandleCallback(service.PaymentCallbackInput{
		Source:   constants.CallbackSourceIPN,
		Query:    c.Request.URL.Query(),
		ClientIP: c.ClientIP(),
		Context:  c.Request.Context(),
	})
	reply := resolveIPNReply(err)
	if err != nil {
		requestLog(c).Infow("vnpay_ipn_rejected", "rsp_code", reply.RspCode, "error", err)
	}
	c.JSON(http.StatusOK, reply)
}

// isSettledCallbackError 重复回调视为已处理，按当前状态展示
func isSettledCallbackError(err error) bool {
	return errors.Is(err, service.ErrCallbackReplayed) || errors.Is(err, service.ErrPaymentAlreadyConfirmed)
}

func buildFrontReturnURL(base, txnRef, status string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("txn_ref", txnRef)
	query.Set("status", status)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
