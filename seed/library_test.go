package seed_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/seed"
	"Gin_postgres_redis_library_dashboard/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateLibraryShape(t *testing.T) {
	now := testutil.Clock
	lib := seed.GenerateLibrary(rand.New(rand.NewSource(1)), now, "hash")

	counts := map[string][2]int{
		"authors":       {len(lib.Authors), 8},
		"categories":    {len(lib.Categories), 10},
		"books":         {len(lib.Books), 12},
		"links":         {len(lib.BookLinks), 18},
		"inventory":     {len(lib.Inventory), 12},
		"users":         {len(lib.Users), 8},
		"notifications": {len(lib.Notifications), 4},
	}
	for name, c := range counts {
		if c[0] != c[1] {
			t.Errorf("%s: got %d, want %d", name, c[0], c[1])
		}
	}

	// 2024-11-15 .. 2025-03-15 共 121 天，每天 1-5 笔
	if n := len(lib.Transactions); n < 121 || n > 605 {
		t.Errorf("Unexpected transaction count %d", n)
	}
	if len(lib.AuditLogs) != len(lib.Transactions) {
		t.Errorf("Expected one audit row per transaction, got %d/%d", len(lib.AuditLogs), len(lib.Transactions))
	}

	for _, inv := range lib.Inventory {
		if inv.Quantity < 1 || inv.Quantity > 50 || inv.Threshold < 5 || inv.Threshold > 14 {
			t.Errorf("Inventory out of range: %+v", inv)
		}
		if inv.Status != models.InventoryStatusFor(inv.Quantity, inv.Threshold) {
			t.Errorf("Inventory status %q does not match quantity %d / threshold %d", inv.Status, inv.Quantity, inv.Threshold)
		}
	}

	roles := map[string]string{}
	for _, u := range lib.Users {
		roles[u.ID] = u.Role
	}
	items := map[string][]models.TransactionItem{}
	for _, it := range lib.Items {
		items[it.TransactionID] = append(items[it.TransactionID], it)
	}
	for _, tx := range lib.Transactions {
		if tx.Status != models.StatusCompleted {
			t.Fatalf("Seeded transaction %s is %s", tx.ID, tx.Status)
		}
		isCustomer := roles[tx.UserID] == models.RoleCustomer
		if (tx.TransactionType == models.TxPurchase) == isCustomer {
			t.Errorf("%s transaction owned by a %s", tx.TransactionType, roles[tx.UserID])
		}
		if tx.TransactionType == models.TxLoan {
			if tx.DueDate == nil || !tx.DueDate.Equal(tx.CreatedAt.Add(models.LoanPeriod)) {
				t.Errorf("Loan %s due date %v", tx.ID, tx.DueDate)
			}
		} else if tx.DueDate != nil {
			t.Errorf("Non-loan %s has a due date", tx.ID)
		}
		its := items[tx.ID]
		if len(its) < 1 || len(its) > 3 {
			t.Errorf("Transaction %s has %d items", tx.ID, len(its))
		}
		if tx.TotalAmount != models.ItemsTotal(its) {
			t.Errorf("Transaction %s total %.2f, items sum %.2f", tx.ID, tx.TotalAmount, models.ItemsTotal(its))
		}
		if h := tx.CreatedAt.Hour(); h < 8 || h > 19 {
			t.Errorf("Transaction %s at hour %d", tx.ID, h)
		}
	}
}

func TestSeedLibraryRefusesNonEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	g := testutil.SetupTestDB(t)
	opts := seed.LibraryOptions{Rand: rand.New(rand.NewSource(7)), Now: testutil.Clock, BcryptCost: bcrypt.MinCost}

	lib, err := seed.SeedLibrary(ctx, g, opts)
	if err != nil {
		t.Fatalf("SeedLibrary: %v", err)
	}
	var books, txs int64
	g.Model(&models.Book{}).Count(&books)
	g.Model(&models.Transaction{}).Count(&txs)
	if books != 12 || txs != int64(len(lib.Transactions)) {
		t.Fatalf("Expected 12 books and %d transactions, got %d and %d", len(lib.Transactions), books, txs)
	}

	// 种子账号可以用默认密码登录
	r := db.NewRepo(g)
	u, err := r.FindUserByEmail(ctx, "admin@library.com")
	if err != nil || !db.CheckPassword(u.PasswordHash, seed.DefaultLibraryPassword) {
		t.Fatalf("Seeded admin cannot log in: %v", err)
	}

	if _, err := seed.SeedLibrary(ctx, g, opts); !errors.Is(err, db.ErrAlreadySeeded) {
		t.Fatalf("Expected ErrAlreadySeeded on second run, got %v", err)
	}

	opts.Reset = true
	if _, err := seed.SeedLibrary(ctx, g, opts); err != nil {
		t.Fatalf("SeedLibrary with reset: %v", err)
	}
	g.Model(&models.Book{}).Count(&books)
	var users int64
	g.Model(&models.User{}).Count(&users)
	if books != 12 || users != 8 {
		t.Errorf("After reset expected 12 books and 8 users, got %d and %d", books, users)
	}
}
