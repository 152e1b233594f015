package repository

import (
	"github.com/vnpay-checkout/internal/models"

	"gorm.io/gorm"
)

// PaymentCallbackLogRepository 回调审计数据访问接口
type PaymentCallbackLogRepository interface {
	Create(log *models.PaymentCallbackLog) error
	ListByTxnRef(txnRef string, limit int) ([]models.PaymentCallbackLog, error)
}

// GormPaymentCallbackLogRepository GORM 实现
type GormPaymentCallbackLogRepository struct {
	db *gorm.DB
}

// NewPaymentCallbackLogRepository 创建回调审计仓库
func NewPaymentCallbackLogRepository(db *gorm.DB) *GormPaymentCallbackLogRepository {
	return &GormPaymentCallbackLogRepository{db: db}
}

// Create 写入回调记录
func (r *GormPaymentCallbackLogRepository) Create(log *models.PaymentCallbackLog) error {
	return r.db.Create(log).Error
}

// ListByTxnRef 交易的回调记录，新的在前
func (r *GormPaymentCallbackLogRepository) ListByTxnRef(txnRef string, limit int) ([]models.PaymentCallbackLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return findAll[models.PaymentCallbackLog](r.db.Where("txn_ref = ?", txnRef).Order("id desc").Limit(limit))
}
