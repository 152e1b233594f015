package models

import "time"

// PaymentCallbackLog 网关回调审计记录
type PaymentCallbackLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	PaymentID    uint      `gorm:"index" json:"payment_id"`                // 关联支付（未匹配为 0）
	TxnRef       string    `gorm:"index;size:32" json:"txn_ref"`           // vnp_TxnRef
	Source       string    `gorm:"size:16;not null" json:"source"`         // return / ipn
	Verified     bool      `gorm:"not null;default:false" json:"verified"` // 验签结果
	ResponseCode string    `gorm:"size:8" json:"response_code"`            // vnp_ResponseCode
	Result       string    `gorm:"size:32" json:"result"`                  // 处理结果
	ClientIP     string    `gorm:"size:64" json:"client_ip"`               // 来源 IP
	Payload      JSON      `gorm:"type:json" json:"payload"`               // 原始参数（不含签名）
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PaymentCallbackLog) TableName() string {
	return "payment_callback_logs"
}
