package db_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/testutil"
)

func stockOf(t *testing.T, r *db.Repo, bookID string) models.Inventory {
	t.Helper()
	var inv models.Inventory
	if err := r.DB.Where("book_id = ?", bookID).First(&inv).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return inv
}

func TestCreateCompletedSaleDecrementsStock(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	staff := testutil.CreateUser(t, r.DB, "staff1@library.com", models.RoleStaff)
	cust := testutil.CreateUser(t, r.DB, "customer1@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "Beloved", "9781400033416", 16.99, 8, 5)

	tr, err := r.CreateTransaction(ctx, db.Actor{UserID: staff.ID}, db.TransactionInput{
		UserID:          cust.ID,
		TransactionType: models.TxSale,
		Status:          models.StatusCompleted,
		Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 3, Price: 16.99}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tr.TotalAmount != 50.97 {
		t.Errorf("Expected total 50.97, got %v", tr.TotalAmount)
	}
	if tr.User == nil || tr.User.ID != cust.ID {
		t.Errorf("Expected customer preloaded, got %+v", tr.User)
	}
	inv := stockOf(t, r, b.ID)
	if inv.Quantity != 5 || inv.Status != models.InventoryLowStock {
		t.Errorf("Expected 5/low_stock, got %d/%s", inv.Quantity, inv.Status)
	}

	// 库存进入低库存时通知员工
	var notes []models.Notification
	r.DB.Where("user_id = ?", staff.ID).Find(&notes)
	if len(notes) != 1 || notes[0].Title != "Low Stock Alert" {
		t.Errorf("Expected one low stock alert, got %+v", notes)
	}
	var custNotes int64
	r.DB.Model(&models.Notification{}).Where("user_id = ?", cust.ID).Count(&custNotes)
	if custNotes != 0 {
		t.Errorf("Customers should not get stock alerts, got %d", custNotes)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 2, 5)

	_, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
		TransactionType: models.TxLoan,
		Items: []db.TransactionItemInput{
			{BookID: b.ID, Quantity: 2, Price: 0},
			{BookID: b.ID, Quantity: 1, Price: 0},
		},
	})
	if !db.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	want := `Insufficient inventory for "It". Available: 2, Requested: 3`
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	var n int64
	r.DB.Model(&models.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("Expected no transaction rows, got %d", n)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 2, 5)

	cases := map[string]db.TransactionInput{
		"no items":     {TransactionType: models.TxSale},
		"bad type":     {TransactionType: "gift", Items: []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}}},
		"bad status":   {TransactionType: models.TxSale, Status: "done", Items: []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}}},
		"zero qty":     {TransactionType: models.TxSale, Items: []db.TransactionItemInput{{BookID: b.ID, Quantity: 0}}},
		"neg price":    {TransactionType: models.TxSale, Items: []db.TransactionItemInput{{BookID: b.ID, Quantity: 1, Price: -1}}},
		"unknown book": {TransactionType: models.TxPurchase, Items: []db.TransactionItemInput{{BookID: "nope", Quantity: 1}}},
		"unknown user": {UserID: "nope", TransactionType: models.TxPurchase, Items: []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, in); !db.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestLoanDefaultsDueDate(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 10, 5)

	tr, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
		TransactionType: models.TxLoan,
		Status:          models.StatusCompleted,
		Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	want := testutil.Clock.Add(models.LoanPeriod)
	if tr.DueDate == nil || !tr.DueDate.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, tr.DueDate)
	}
	if tr.Status != models.StatusCompleted {
		t.Errorf("Expected completed, got %s", tr.Status)
	}
}

func TestUpdateStatusCrossesCompletedBoundary(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 10, 5)

	tr, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
		TransactionType: models.TxSale,
		Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 4, Price: 22.99}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if q := stockOf(t, r, b.ID).Quantity; q != 10 {
		t.Fatalf("Pending sale must not touch stock, got %d", q)
	}

	steps := []struct {
		status models.TransactionStatus
		want   int
	}{
		{models.StatusCompleted, 6},
		{models.StatusCompleted, 6}, // 同状态不重复扣减
		{models.StatusCancelled, 10},
		{models.StatusPending, 10},
	}
	for _, s := range steps {
		if _, err := r.UpdateTransactionStatus(ctx, db.Actor{UserID: cust.ID}, tr.ID, s.status); err != nil {
			t.Fatalf("UpdateTransactionStatus(%s): %v", s.status, err)
		}
		if q := stockOf(t, r, b.ID).Quantity; q != s.want {
			t.Errorf("After %s expected %d, got %d", s.status, s.want, q)
		}
	}

	logs, err := r.ListAuditLogs(ctx, db.AuditQuery{Action: "update_inventory"})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if logs.Total != 2 {
		t.Fatalf("Expected 2 inventory audits, got %d", logs.Total)
	}
	note, _ := logs.Items[0].Details["note"].(string)
	if !strings.HasPrefix(note, "Inventory updated due to sale transaction #") {
		t.Errorf("Unexpected note %q", note)
	}

	if _, err := r.UpdateTransactionStatus(ctx, db.Actor{}, tr.ID, "bogus"); !db.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if _, err := r.UpdateTransactionStatus(ctx, db.Actor{}, "missing", models.StatusCompleted); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReversalClampsAtZero(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	staff := testutil.CreateUser(t, r.DB, "s@library.com", models.RoleStaff)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 1, 5)

	tr, err := r.CreateTransaction(ctx, db.Actor{UserID: staff.ID}, db.TransactionInput{
		TransactionType: models.TxPurchase,
		Status:          models.StatusCompleted,
		Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 3, Price: 11.5}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if q := stockOf(t, r, b.ID).Quantity; q != 4 {
		t.Fatalf("Expected 4 after purchase, got %d", q)
	}
	if _, err := r.SetInventoryQuantity(ctx, db.Actor{}, stockOf(t, r, b.ID).ID, 1); err != nil {
		t.Fatalf("SetInventoryQuantity: %v", err)
	}
	if _, err := r.UpdateTransactionStatus(ctx, db.Actor{}, tr.ID, models.StatusCancelled); err != nil {
		t.Fatalf("UpdateTransactionStatus: %v", err)
	}
	inv := stockOf(t, r, b.ID)
	if inv.Quantity != 0 || inv.Status != models.InventoryOutOfStock {
		t.Errorf("Expected clamp to 0/out_of_stock, got %d/%s", inv.Quantity, inv.Status)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 22.99, 50, 5)

	for i, typ := range []models.TransactionType{models.TxSale, models.TxLoan, models.TxSale} {
		day := testutil.Clock.AddDate(0, 0, -i)
		r.Now = func() time.Time { return day }
		if _, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
			TransactionType: typ,
			Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 1, Price: 10}},
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	page, err := r.ListTransactions(ctx, db.TransactionQuery{Type: "sale"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 sales, got %d", page.Total)
	}
	// 非法过滤条件被忽略
	page, err = r.ListTransactions(ctx, db.TransactionQuery{Type: "gift", Status: "weird"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("Expected all 3, got %d", page.Total)
	}
	page, err = r.ListTransactions(ctx, db.TransactionQuery{
		StartDate: testutil.Clock.AddDate(0, 0, -1).Format("2006-01-02"),
		EndDate:   testutil.Clock.AddDate(0, 0, -1).Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 1 || page.Items[0].TransactionType != models.TxLoan {
		t.Errorf("Expected the single loan from yesterday, got total=%d", page.Total)
	}
	if _, err := r.ListTransactions(ctx, db.TransactionQuery{StartDate: "03/01/2025"}); !db.IsValidation(err) {
		t.Errorf("Expected validation error for bad date, got %v", err)
	}
}
