package db_test

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/testutil"
)

func TestPeriodBounds(t *testing.T) {
	// 2025-03-12 是周三
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		period     string
		start, end time.Time
		label      string
	}{
		{"today", day(2025, 3, 12), day(2025, 3, 13), "Today"},
		{"yesterday", day(2025, 3, 11), day(2025, 3, 12), "Yesterday"},
		{"this_week", day(2025, 3, 10), day(2025, 3, 17), "This Week"},
		{"this_month", day(2025, 3, 1), day(2025, 4, 1), "This Month"},
		{"this_year", day(2025, 1, 1), day(2026, 1, 1), "This Year"},
		{"last_7_days", day(2025, 3, 6), day(2025, 3, 13), "Last 7 Days"},
		{"last_30_days", day(2025, 2, 11), day(2025, 3, 13), "Last 30 Days"},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			p, err := db.PeriodBounds(tt.period, "", "", now)
			if err != nil {
				t.Fatalf("PeriodBounds: %v", err)
			}
			if !p.Start.Equal(tt.start) || !p.End.Equal(tt.end) || p.Label != tt.label || p.All {
				t.Errorf("Got %+v, want [%v, %v) %q", p, tt.start, tt.end, tt.label)
			}
		})
	}

	p, _ := db.PeriodBounds("custom", "2025-02-01", "2025-02-10", now)
	if p.Label != "2025-02-01 to 2025-02-10" || !p.End.Equal(day(2025, 2, 11)) {
		t.Errorf("Unexpected custom period %+v", p)
	}
	prev := p.Previous()
	if !prev.End.Equal(day(2025, 2, 1)) || !prev.Start.Equal(day(2025, 1, 22)) {
		t.Errorf("Unexpected previous period %+v", prev)
	}
	if p, _ := db.PeriodBounds("custom", "", "", now); p.Label != "Custom Period" || !p.All {
		t.Errorf("Unexpected open custom period %+v", p)
	}
	if p, _ := db.PeriodBounds("", "", "", now); p.Label != "All Time" || !p.All {
		t.Errorf("Unexpected default period %+v", p)
	}
	if _, err := db.PeriodBounds("custom", "2025-02-10", "2025-02-01", now); !db.IsValidation(err) {
		t.Errorf("Expected validation error for reversed range, got %v", err)
	}
}

func TestRevenueChange(t *testing.T) {
	if got := db.RevenueChange(150, 100); got != 50 {
		t.Errorf("Expected 50, got %v", got)
	}
	if got := db.RevenueChange(50, 0); got != 0 {
		t.Errorf("Expected 0 when previous is empty, got %v", got)
	}
	if got := db.RevenueChange(75, 100); got != -25 {
		t.Errorf("Expected -25, got %v", got)
	}
}

func seedSale(t *testing.T, r *db.Repo, at time.Time, userID, bookID string, qty int, price float64) {
	t.Helper()
	prev := r.Now
	r.Now = func() time.Time { return at }
	defer func() { r.Now = prev }()
	_, err := r.CreateTransaction(context.Background(), db.Actor{UserID: userID}, db.TransactionInput{
		TransactionType: models.TxSale,
		Status:          models.StatusCompleted,
		Items:           []db.TransactionItemInput{{BookID: bookID, Quantity: qty, Price: price}},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func TestSalesSummaryAndDashboard(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cust := testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 10, 100, 5)

	// 今天 20 + 10，昨天 20
	seedSale(t, r, testutil.Clock, cust.ID, b.ID, 2, 10)
	seedSale(t, r, testutil.Clock.Add(-time.Hour), cust.ID, b.ID, 1, 10)
	seedSale(t, r, testutil.Clock.AddDate(0, 0, -1), cust.ID, b.ID, 2, 10)

	s, err := r.SalesSummary(ctx, "today", "", "")
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if s.TotalRevenue != 30 || s.TotalSales != 2 || s.AverageSale != 15 || s.RevenueChange != 50 || s.Description != "Today" {
		t.Errorf("Unexpected summary %+v", s)
	}
	s, err = r.SalesSummary(ctx, "all", "", "")
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if s.TotalRevenue != 50 || s.RevenueChange != 0 || s.Description != "All Time" {
		t.Errorf("Unexpected all-time summary %+v", s)
	}

	stats, err := r.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalBooks != 1 || stats.TotalUsers != 1 || stats.TotalSales != 50 || stats.LowStockCount != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	months, err := r.SalesByMonth(ctx)
	if err != nil {
		t.Fatalf("SalesByMonth: %v", err)
	}
	if len(months) != 12 || months[11].Month != testutil.Clock.Format("2006-01") {
		t.Fatalf("Unexpected months %+v", months)
	}
	if months[11].Revenue != 50 || months[11].Count != 3 {
		t.Errorf("Expected current month 50/3, got %+v", months[11])
	}

	top, err := r.TopBooks(ctx, 3)
	if err != nil {
		t.Fatalf("TopBooks: %v", err)
	}
	if len(top) != 1 || top[0].Units != 5 || top[0].Revenue != 50 {
		t.Errorf("Unexpected top books %+v", top)
	}
}

func TestInventoryAndUserAnalytics(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	testutil.CreateUser(t, r.DB, "admin@library.com", models.RoleAdmin)
	testutil.CreateUser(t, r.DB, "c@example.com", models.RoleCustomer)
	b := testutil.CreateBook(t, r.DB, "It", "9780450411434", 10, 4, 5) // cost 5
	testutil.CreateBook(t, r.DB, "Beloved", "9781400033416", 20, 10, 5)

	if _, err := r.RestockInventoryItem(ctx, db.Actor{}, b.Inventory.ID, 6); err != nil {
		t.Fatalf("RestockInventoryItem: %v", err)
	}
	inv, err := r.InventoryAnalytics(ctx)
	if err != nil {
		t.Fatalf("InventoryAnalytics: %v", err)
	}
	if inv.ByStatus[models.InventoryAvailable] != 2 || inv.TotalUnits != 20 || inv.ValueAtCost != 150 {
		t.Errorf("Unexpected inventory analytics %+v", inv)
	}
	if inv.RestocksPerMonth[11].Count != 1 {
		t.Errorf("Expected 1 restock this month, got %+v", inv.RestocksPerMonth[11])
	}

	users, err := r.UserAnalytics(ctx)
	if err != nil {
		t.Fatalf("UserAnalytics: %v", err)
	}
	if users.ByRole[models.RoleAdmin] != 1 || users.ByRole[models.RoleStaff] != 0 || users.Growth[11].Count != 2 {
		t.Errorf("Unexpected user analytics %+v", users)
	}
}
