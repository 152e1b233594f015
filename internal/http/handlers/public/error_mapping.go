package public

import (
	"errors"

	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/http/response"
	"github.com/vnpay-checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var paymentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentAmountInvalid, code: response.CodeBadRequest, key: "error.payment_amount_invalid"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrPaymentGatewayUnavailable, code: response.CodeUnavailable, key: "error.payment_gateway_unavailable"},
}

var paymentStatusErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
}

var returnCallbackErrorRules = []mappedHandlerError{
	{target: service.ErrCallbackPayloadInvalid, code: response.CodeBadRequest, key: "error.callback_payload_invalid"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeBadRequest, key: "error.payment_amount_mismatch"},
	{target: service.ErrPaymentGatewayUnavailable, code: response.CodeUnavailable, key: "error.payment_gateway_unavailable"},
}

// ipnReply VNPay IPN 约定的应答结构
type ipnReply struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

type mappedIPNReply struct {
	target error
	reply  ipnReply
}

var ipnErrorReplies = []mappedIPNReply{
	{target: service.ErrCallbackSignatureInvalid, reply: ipnReply{RspCode: constants.VnpayIPNCodeInvalidSignature, Message: constants.VnpayIPNMessageInvalidSignature}},
	{target: service.ErrCallbackPayloadInvalid, reply: ipnReply{RspCode: constants.VnpayIPNCodeUnknown, Message: constants.VnpayIPNMessageUnknown}},
	{target: service.ErrPaymentNotFound, reply: ipnReply{RspCode: constants.VnpayIPNCodeOrderNotFound, Message: constants.VnpayIPNMessageOrderNotFound}},
	{target: service.ErrPaymentAmountMismatch, reply: ipnReply{RspCode: constants.VnpayIPNCodeInvalidAmount, Message: constants.VnpayIPNMessageInvalidAmount}},
	{target: service.ErrPaymentAlreadyConfirmed, reply: ipnReply{RspCode: constants.VnpayIPNCodeAlreadyConfirmed, Message: constants.VnpayIPNMessageAlreadyConfirmed}},
	{target: service.ErrCallbackReplayed, reply: ipnReply{RspCode: constants.VnpayIPNCodeAlreadyConfirmed, Message: constants.VnpayIPNMessageAlreadyConfirmed}},
}

// resolveIPNReply 将回调处理结果映射为 IPN 应答码
func resolveIPNReply(err error) ipnReply {
	if err == nil {
		return ipnReply{RspCode: constants.VnpayIPNCodeSuccess, Message: constants.VnpayIPNMessageSuccess}
	}
	for _, rule := range ipnErrorReplies {
		if errors.Is(err, rule.target) {
			return rule.reply
		}
	}
	return ipnReply{RspCode: constants.VnpayIPNCodeUnknown, Message: constants.VnpayIPNMessageUnknown}
}
