package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/vnpay-checkout/internal/constants"
	"github.com/vnpay-checkout/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPaymentRepositoryTest(t *testing.T) (*GormPaymentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}, &models.PaymentCallbackLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPaymentRepository(db), db
}

func newTestPayment(orderID, txnRef, status string, createdAt time.Time) *models.Payment {
	return &models.Payment{
		OrderID:         orderID,
		TxnRef:          txnRef,
		ProviderType:    constants.PaymentProviderVnpay,
		InteractionMode: constants.PaymentInteractionRedirect,
		Description:     "order " + orderID,
		Amount:          models.NewMoneyFromDecimal(decimal.NewFromInt(150000)),
		Currency:        constants.CurrencyDefault,
		Status:          status,
		PayURL:          "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_TxnRef=" + txnRef,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestPaymentRepositoryGetByTxnRef(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	payment := newTestPayment("ORD-1", "20260101120000123", constants.PaymentStatusPending, now)
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	got, err := repo.GetByTxnRef(" 20260101120000123 ")
	if err != nil {
		t.Fatalf("get by txn ref failed: %v", err)
	}
	if got == nil || got.ID != payment.ID {
		t.Fatalf("expected payment %d, got %+v", payment.ID, got)
	}

	missing, err := repo.GetByTxnRef("999")
	if err != nil {
		t.Fatalf("get missing txn ref failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing txn ref, got %+v", missing)
	}

	empty, err := repo.GetByTxnRef("")
	if err != nil || empty != nil {
		t.Fatalf("expected nil for empty txn ref, got %+v err=%v", empty, err)
	}

	byID, err := repo.GetByID(payment.ID)
	if err != nil || byID == nil {
		t.Fatalf("get by id failed: %+v err=%v", byID, err)
	}
	if byID.Amount.MinorUnits() != 15000000 {
		t.Fatalf("amount minor units want 15000000 got %d", byID.Amount.MinorUnits())
	}
}

func TestPaymentRepositoryUpdateStatusIfCurrent(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	payment := newTestPayment("ORD-2", "20260101120000456", constants.PaymentStatusPending, now)
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	pending := []string{constants.PaymentStatusInitiated, constants.PaymentStatusPending}
	updated, err := repo.UpdateStatusIfCurrent(payment.ID, pending, map[string]interface{}{
		"status":     constants.PaymentStatusExpired,
		"updated_at": now,
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if !updated {
		t.Fatalf("expected first update to apply")
	}

	updated, err = repo.UpdateStatusIfCurrent(payment.ID, pending, map[string]interface{}{
		"status": constants.PaymentStatusSuccess,
	})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if updated {
		t.Fatalf("expected second update to be skipped")
	}

	got, err := repo.GetByID(payment.ID)
	if err != nil || got == nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if got.Status != constants.PaymentStatusExpired {
		t.Fatalf("status want expired got %s", got.Status)
	}
}

func TestPaymentRepositoryGetLatestPendingByOrder(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	future := now.Add(15 * time.Minute)
	past := now.Add(-time.Minute)

	stale := newTestPayment("ORD-3", "1001", constants.PaymentStatusPending, now.Add(-time.Hour))
	stale.ExpiredAt = &past
	active := newTestPayment("ORD-3", "1002", constants.PaymentStatusPending, now)
	active.ExpiredAt = &future
	done := newTestPayment("ORD-3", "1003", constants.PaymentStatusSuccess, now)
	for _, item := range []*models.Payment{stale, active, done} {
		if err := repo.Create(item); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	got, err := repo.GetLatestPendingByOrder("ORD-3", now)
	if err != nil {
		t.Fatalf("get latest pending failed: %v", err)
	}
	if got == nil || got.TxnRef != "1002" {
		t.Fatalf("expected active payment 1002, got %+v", got)
	}

	list, err := repo.ListByOrderID("ORD-3")
	if err != nil {
		t.Fatalf("list by order failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list by order want 3 got %d", len(list))
	}
}

func TestPaymentRepositoryListOverduePending(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	overdue := newTestPayment("ORD-4", "1101", constants.PaymentStatusPending, now)
	overdue.ExpiredAt = &past
	fresh := newTestPayment("ORD-4", "1102", constants.PaymentStatusPending, now)
	fresh.ExpiredAt = &future
	paid := newTestPayment("ORD-4", "1103", constants.PaymentStatusSuccess, now)
	paid.ExpiredAt = &past
	for _, item := range []*models.Payment{overdue, fresh, paid} {
		if err := repo.Create(item); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	rows, err := repo.ListOverduePending(now, 10)
	if err != nil {
		t.Fatalf("list overdue failed: %v", err)
	}
	if len(rows) != 1 || rows[0].TxnRef != "1101" {
		t.Fatalf("expected only overdue pending payment, got %+v", rows)
	}
}

func TestPaymentRepositoryListAdmin(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := newTestPayment("ORD-A", "2001", constants.PaymentStatusSuccess, now.Add(-2*time.Hour))
	first.ResponseCode = "00"
	first.ProviderPayload = models.JSON{"vnp_BankTranNo": "VNP14226112"}
	second := newTestPayment("ORD-B", "2002", constants.PaymentStatusPending, now.Add(-time.Hour))
	third := newTestPayment("ORD-C", "2003", constants.PaymentStatusCancelled, now)
	third.ResponseCode = "24"
	third.PayerName = "Nguyen Van A"
	for _, item := range []*models.Payment{first, second, third} {
		if err := repo.Create(item); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	rows, total, err := repo.ListAdmin(PaymentListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("list admin want total=3 len=2 got total=%d len=%d", total, len(rows))
	}
	if rows[0].TxnRef != "2003" {
		t.Fatalf("list admin should order by id desc, got %s", rows[0].TxnRef)
	}
	rows, _, err = repo.ListAdmin(PaymentListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list admin page 2 failed: %v", err)
	}
	if len(rows) != 1 || rows[0].TxnRef != "2001" {
		t.Fatalf("page 2 want [2001] got %+v", rows)
	}

	cases := []struct {
		name   string
		filter PaymentListFilter
		want   string
	}{
		{name: "status", filter: PaymentListFilter{Status: constants.PaymentStatusPending}, want: "2002"},
		{name: "order", filter: PaymentListFilter{OrderID: "ORD-A"}, want: "2001"},
		{name: "response code", filter: PaymentListFilter{ResponseCode: "24"}, want: "2003"},
		{name: "keyword", filter: PaymentListFilter{Keyword: "Nguyen"}, want: "2003"},
		{name: "bank tran no", filter: PaymentListFilter{BankTranNo: "VNP14226112"}, want: "2001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, total, err := repo.ListAdmin(tc.filter)
			if err != nil {
				t.Fatalf("list admin failed: %v", err)
			}
			if total != 1 || len(rows) != 1 || rows[0].TxnRef != tc.want {
				t.Fatalf("want %s got total=%d rows=%+v", tc.want, total, rows)
			}
		})
	}

	for _, keyword := range []string{"ORD_A", "%"} {
		_, total, err = repo.ListAdmin(PaymentListFilter{Keyword: keyword})
		if err != nil {
			t.Fatalf("list admin by keyword failed: %v", err)
		}
		if total != 0 {
			t.Fatalf("keyword %q must match literally, got total=%d", keyword, total)
		}
	}

	from := now.Add(-90 * time.Minute)
	rows, total, err = repo.ListAdmin(PaymentListFilter{CreatedFrom: &from})
	if err != nil {
		t.Fatalf("list admin by date failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("list admin by date want 2 got total=%d len=%d", total, len(rows))
	}
}

func TestPaymentRepositoryTransactionRollback(t *testing.T) {
	repo, _ := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	rollbackErr := fmt.Errorf("rollback")
	err := repo.Transaction(func(tx PaymentRepository) error {
		if err := tx.Create(newTestPayment("ORD-TX", "3001", constants.PaymentStatusInitiated, now)); err != nil {
			return err
		}
		return rollbackErr
	})
	if err != rollbackErr {
		t.Fatalf("expected rollback error, got %v", err)
	}

	got, err := repo.GetByTxnRef("3001")
	if err != nil {
		t.Fatalf("get after rollback failed: %v", err)
	}
	if got != nil {
		t.Fatalf("payment should not persist after rollback")
	}
}

func TestPaymentCallbackLogRepository(t *testing.T) {
	_, db := setupPaymentRepositoryTest(t)
	repo := NewPaymentCallbackLogRepository(db)

	for i, source := range []string{constants.CallbackSourceReturn, constants.CallbackSourceIPN} {
		entry := &models.PaymentCallbackLog{
			TxnRef:       "4001",
			Source:       source,
			Verified:     i == 1,
			ResponseCode: "00",
			Result:       "ok",
			Payload:      models.JSON{"vnp_TxnRef": "4001"},
		}
		if err := repo.Create(entry); err != nil {
			t.Fatalf("create callback log failed: %v", err)
		}
	}

	logs, err := repo.ListByTxnRef("4001", 0)
	if err != nil {
		t.Fatalf("list callback logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("callback logs want 2 got %d", len(logs))
	}
	if logs[0].Source != constants.CallbackSourceIPN || !logs[0].Verified {
		t.Fatalf("latest callback log mismatch: %+v", logs[0])
	}
	if logs[0].Payload["vnp_TxnRef"] != "4001" {
		t.Fatalf("payload not restored: %+v", logs[0].Payload)
	}
}
