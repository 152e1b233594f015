package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 关键字模糊匹配的列
var paymentKeywordColumns = []string{"txn_ref", "order_id", "description", "payer_name"}

// PaymentListFilter 管理端支付列表筛选条件，空值表示不限
type PaymentListFilter struct {
	Page         int
	PageSize     int
	OrderID      string
	TxnRef       string
	Status       string
	ResponseCode string
	Keyword      string
	BankTranNo   string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// scope 把筛选条件转成查询条件，不含分页与排序
func (f PaymentListFilter) scope(d sqlDialect) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for column, value := range map[string]string{
			"order_id":      f.OrderID,
			"txn_ref":       f.TxnRef,
			"status":        f.Status,
			"response_code": f.ResponseCode,
		} {
			if value = strings.TrimSpace(value); value != "" {
				db = db.Where(column+" = ?", value)
			}
		}
		if keyword := strings.TrimSpace(f.Keyword); keyword != "" {
			like := "%" + escapeLike(keyword) + "%"
			args := make([]interface{}, len(paymentKeywordColumns))
			for i := range args {
				args[i] = like
			}
			db = db.Where(d.containsAny(paymentKeywordColumns), args...)
		}
		if bankTranNo := strings.TrimSpace(f.BankTranNo); bankTranNo != "" {
			db = db.Where(d.jsonText("provider_payload", "vnp_BankTranNo")+" = ?", bankTranNo)
		}
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *f.CreatedFrom)
		}
		if f.CreatedTo != nil {
			db = db.Where("created_at <= ?", *f.CreatedTo)
		}
		return db
	}
}

// sqlDialect 仅区分 postgres 与 sqlite 两种方言
type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

func dialectOf(db *gorm.DB) sqlDialect {
	if db == nil || db.Dialector == nil {
		return dialectSQLite
	}
	switch strings.ToLower(db.Dialector.Name()) {
	case "postgres", "postgresql":
		return dialectPostgres
	}
	return dialectSQLite
}

// jsonText 取 JSON 列中键的文本值，sqlite 下键名加引号以兼容特殊字符
func (d sqlDialect) jsonText(column, key string) string {
	if d == dialectPostgres {
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	}
	return fmt.Sprintf(`json_extract(%s, '$."%s"')`, column, key)
}

// containsAny 多列 OR 模糊匹配，postgres 下不区分大小写
func (d sqlDialect) containsAny(columns []string) string {
	operator := "LIKE"
	if d == dialectPostgres {
		operator = "ILIKE"
	}
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf(`%s %s ? ESCAPE '\'`, column, operator)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// escapeLike 转义用户输入中的 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
