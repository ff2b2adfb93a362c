package workers_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/testutil"
	"Gin_postgres_redis_library_dashboard/workers"
)

func TestNotifierCheck(t *testing.T) {
	r := testutil.NewRepo(t)
	rdb, mr := testutil.SetupRedis(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "Beloved", "9781400033416", 16.99, 20, 5)

	dues := []time.Time{
		testutil.Clock.Add(-72 * time.Hour), // 逾期 3 天
		testutil.Clock.Add(6 * time.Hour),   // 即将到期
		testutil.Clock.Add(72 * time.Hour),  // 还早
	}
	for _, d := range dues {
		due := d
		if _, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
			TransactionType: models.TxLoan,
			Status:          models.StatusCompleted,
			DueDate:         &due,
			Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	n := workers.NewNotifier(r, rdb, time.Minute)
	n.Now = func() time.Time { return testutil.Clock }

	sent, err := n.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sent != 2 {
		t.Fatalf("Expected 2 notifications, got %d", sent)
	}
	var notes []models.Notification
	r.DB.Where("user_id = ?", cust.ID).Order("title").Find(&notes)
	if len(notes) != 2 || notes[0].Title != "Loan Due Soon" || notes[1].Title != "Overdue Loan" {
		t.Fatalf("Unexpected notifications %+v", notes)
	}
	if !strings.Contains(notes[1].Message, `"Beloved" is 3 day(s) overdue`) {
		t.Errorf("Unexpected overdue message %q", notes[1].Message)
	}

	// 同一天再次检查不重复发送
	if sent, _ := n.Check(ctx); sent != 0 {
		t.Errorf("Expected dedupe, got %d", sent)
	}
	mr.FastForward(25 * time.Hour)
	n.Now = func() time.Time { return testutil.Clock.Add(25 * time.Hour) }
	// 第二天：两条都已逾期
	if sent, _ := n.Check(ctx); sent != 2 {
		t.Errorf("Expected 2 overdue notices on the next day, got %d", sent)
	}
}

func TestNotifierRetriesAfterFailedInsert(t *testing.T) {
	r := testutil.NewRepo(t)
	rdb, mr := testutil.SetupRedis(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "Beloved", "9781400033416", 16.99, 20, 5)

	due := testutil.Clock.Add(-48 * time.Hour)
	loan, err := r.CreateTransaction(ctx, db.Actor{UserID: cust.ID}, db.TransactionInput{
		TransactionType: models.TxLoan,
		Status:          models.StatusCompleted,
		DueDate:         &due,
		Items:           []db.TransactionItemInput{{BookID: b.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	n := workers.NewNotifier(r, rdb, time.Minute)
	n.Now = func() time.Time { return testutil.Clock }

	// 通知表不可写
	if err := r.DB.Migrator().DropTable(&models.Notification{}); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, err := n.Check(ctx); err == nil {
		t.Fatal("Expected Check to fail without a notifications table")
	}
	key := "notify:loan:" + loan.ID + ":overdue:" + testutil.Clock.Format("2006-01-02")
	if mr.Exists(key) {
		t.Fatalf("Dedupe key %s kept after failed insert", key)
	}

	if err := r.DB.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sent, err := n.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sent != 1 {
		t.Errorf("Expected the overdue notice on retry, got %d", sent)
	}
	if !mr.Exists(key) {
		t.Errorf("Dedupe key %s not set after success", key)
	}
}
