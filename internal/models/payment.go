package models

import (
	"time"

	"github.com/vnpay-checkout/internal/constants"

	"gorm.io/gorm"
)

// Payment VNPay 支付记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                        // 主键
	OrderID         string         `gorm:"index;size:64;not null" json:"order_id"`      // 业务订单号
	TxnRef          string         `gorm:"uniqueIndex;size:32;not null" json:"txn_ref"` // vnp_TxnRef
	ProviderType    string         `gorm:"size:32;not null" json:"provider_type"`       // 提供方类型
	InteractionMode string         `gorm:"size:32;not null" json:"interaction_mode"`    // 交互方式
	PayerName       string         `gorm:"size:128" json:"payer_name"`                  // 付款人
	Description     string         `gorm:"size:255" json:"description"`                 // 订单说明
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`   // 支付金额
	Currency        string         `gorm:"size:8;not null" json:"currency"`             // 币种
	Locale          string         `gorm:"size:8" json:"locale"`                        // 网关语言
	BankCode        string         `gorm:"size:32" json:"bank_code"`                    // 银行编码
	ClientIP        string         `gorm:"size:64" json:"client_ip"`                    // 客户端 IP
	Status          string         `gorm:"index;size:16;not null" json:"status"`        // 支付状态
	ResponseCode    string         `gorm:"size:8" json:"response_code"`                 // vnp_ResponseCode
	ProviderRef     string         `gorm:"index;size:64" json:"provider_ref"`           // vnp_TransactionNo
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`           // 网关回调参数
	PayURL          string         `gorm:"type:text" json:"pay_url"`                    // 跳转链接
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                        // 支付时间
	ExpiredAt       *time.Time     `gorm:"index" json:"expired_at"`                     // 过期时间
	CallbackAt      *time.Time     `gorm:"index" json:"callback_at"`                    // 回调时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// IsFinal 是否为终态
func (p *Payment) IsFinal() bool {
	if p == nil {
		return false
	}
	switch p.Status {
	case constants.PaymentStatusSuccess,
		constants.PaymentStatusFailed,
		constants.PaymentStatusCancelled,
		constants.PaymentStatusExpired:
		return true
	}
	return false
}
