package db_test

import (
	"context"
	"errors"
	"testing"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/testutil"
)

func TestNotificationLifecycle(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, r.DB, "admin@library.com", models.RoleAdmin)
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	a := db.Actor{UserID: admin.ID}

	sent, err := r.SendNotification(ctx, a, "all", "Closed Monday", "The store is closed on Monday.")
	if err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if sent != 2 {
		t.Errorf("Expected broadcast to 2 users, got %d", sent)
	}
	if _, err := r.SendNotification(ctx, a, cust.ID, "Hold ready", "Your book is ready."); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if _, err := r.SendNotification(ctx, a, "nobody", "x", "y"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := r.SendNotification(ctx, a, cust.ID, " ", "y"); !db.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	page, err := r.ListNotifications(ctx, db.NotificationQuery{UserID: cust.ID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Expected 2 unread, got %d", page.Total)
	}
	first := page.Items[0].ID

	// 不能操作别人的通知
	if err := r.MarkNotificationRead(ctx, admin.ID, first); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign notification, got %v", err)
	}
	if err := r.MarkNotificationRead(ctx, cust.ID, first); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if n, _ := r.UnreadCount(ctx, cust.ID); n != 1 {
		t.Errorf("Expected 1 unread, got %d", n)
	}
	if n, err := r.MarkAllNotificationsRead(ctx, cust.ID); err != nil || n != 1 {
		t.Errorf("Expected 1 marked, got %d (%v)", n, err)
	}
	if err := r.DeleteNotification(ctx, cust.ID, first); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if err := r.DeleteNotification(ctx, cust.ID, first); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}

	logs, err := r.ListAuditLogs(ctx, db.AuditQuery{Action: "send_notification"})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if logs.Total != 2 {
		t.Errorf("Expected 2 send audits, got %d", logs.Total)
	}
}
