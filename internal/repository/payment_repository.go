package repository

import (
	"strings"
	"time"

	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByTxnRef(txnRef string) (*models.Payment, error)
	ListByOrderID(orderID string) ([]models.Payment, error)
	GetLatestPendingByOrder(orderID string, now time.Time) (*models.Payment, error)
	UpdateStatusIfCurrent(id uint, current []string, updates map[string]interface{}) (bool, error)
	ListOverduePending(now time.Time, limit int) ([]models.Payment, error)
	ListAdmin(filter PaymentListFilter) ([]models.Payment, int64, error)
	Transaction(fn func(tx PaymentRepository) error) error
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormPaymentRepository) Transaction(fn func(tx PaymentRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// 尚可支付或过期的状态
var openStatuses = []string{constants.PaymentStatusInitiated, constants.PaymentStatusPending}

// GetByID 不存在时返回 nil, nil
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	if id == 0 {
		return nil, nil
	}
	return findOne[models.Payment](r.db.Where("id = ?", id))
}

// GetByTxnRef 按 vnp_TxnRef 查询
func (r *GormPaymentRepository) GetByTxnRef(txnRef string) (*models.Payment, error) {
	if txnRef = strings.TrimSpace(txnRef); txnRef == "" {
		return nil, nil
	}
	return findOne[models.Payment](r.db.Where("txn_ref = ?", txnRef))
}

// ListByOrderID 订单下全部支付尝试，新的在前
func (r *GormPaymentRepository) ListByOrderID(orderID string) ([]models.Payment, error) {
	return findAll[models.Payment](r.db.Where("order_id = ?", strings.TrimSpace(orderID)).Order("id desc"))
}

// GetLatestPendingByOrder 订单下仍可复用支付链接的最新记录
func (r *GormPaymentRepository) GetLatestPendingByOrder(orderID string, now time.Time) (*models.Payment, error) {
	return findOne[models.Payment](r.db.
		Where("order_id = ? AND status IN ?", strings.TrimSpace(orderID), openStatuses).
		Where("(expired_at IS NULL OR expired_at > ?)", now).
		Where("pay_url IS NOT NULL AND pay_url <> ''").
		Order("id desc"))
}

// UpdateStatusIfCurrent 仅当状态仍在 current 中时更新，返回是否命中
func (r *GormPaymentRepository) UpdateStatusIfCurrent(id uint, current []string, updates map[string]interface{}) (bool, error) {
	if id == 0 || len(updates) == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Payment{}).Where("id = ? AND status IN ?", id, current).Updates(updates)
	return result.RowsAffected > 0, result.Error
}

// ListOverduePending 已到期仍未终结的记录，旧的在前
func (r *GormPaymentRepository) ListOverduePending(now time.Time, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return findAll[models.Payment](r.db.
		Where("status IN ? AND expired_at IS NOT NULL AND expired_at <= ?", openStatuses, now).
		Order("id asc").
		Limit(limit))
}

// ListAdmin 管理端支付列表，按 ID 倒序
func (r *GormPaymentRepository) ListAdmin(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{}).Scopes(filter.scope(dialectOf(r.db)))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows, err := findAll[models.Payment](query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc"))
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
