package models

import (
	"testing"
	"time"
)

func TestValidISBN(t *testing.T) {
	tests := []struct {
		isbn string
		want bool
	}{
		{"9780747532743", true},
		{"978-0-7475-3274-3", true},
		{"978 0553 103540", true},
		{"0-306-40615-2", true},
		{"080442957X", true},
		{"080442957x", true},
		{"9780747532744", false},
		{"0306406153", false},
		{"97807475327X3", false},
		{"12345", false},
		{"", false},
		{"abcdefghij", false},
	}
	for _, tt := range tests {
		if got := ValidISBN(tt.isbn); got != tt.want {
			t.Errorf("ValidISBN(%q) = %v, want %v", tt.isbn, got, tt.want)
		}
	}
}

func TestNormalizeISBN(t *testing.T) {
	if got := NormalizeISBN(" 0-8044-2957-x "); got != "080442957X" {
		t.Errorf("NormalizeISBN = %q", got)
	}
}

func TestInventoryStatusFor(t *testing.T) {
	tests := []struct {
		qty, threshold int
		want           string
	}{
		{0, 5, InventoryOutOfStock},
		{-3, 5, InventoryOutOfStock},
		{1, 5, InventoryLowStock},
		{5, 5, InventoryLowStock},
		{6, 5, InventoryAvailable},
		{1, 0, InventoryAvailable},
	}
	for _, tt := range tests {
		if got := InventoryStatusFor(tt.qty, tt.threshold); got != tt.want {
			t.Errorf("InventoryStatusFor(%d, %d) = %s, want %s", tt.qty, tt.threshold, got, tt.want)
		}
	}
}

func TestInventoryRefresh(t *testing.T) {
	inv := Inventory{Quantity: 3, Threshold: 5, Status: InventoryAvailable}
	prev := inv.Refresh()
	if prev != InventoryAvailable || inv.Status != InventoryLowStock {
		t.Fatalf("Refresh: prev=%s status=%s", prev, inv.Status)
	}
	if !EnteredShortage(prev, inv.Status) {
		t.Error("available -> low_stock should count as shortage")
	}
	if EnteredShortage(InventoryLowStock, InventoryLowStock) {
		t.Error("unchanged status is not a new shortage")
	}
	if EnteredShortage(InventoryLowStock, InventoryAvailable) {
		t.Error("restock is not a shortage")
	}
}

func TestQuantityDelta(t *testing.T) {
	tests := []struct {
		typ     TransactionType
		reverse bool
		want    int
	}{
		{TxSale, false, -2},
		{TxLoan, false, -2},
		{TxReturn, false, 2},
		{TxPurchase, false, 2},
		{TxSale, true, 2},
		{TxLoan, true, 2},
		{TxReturn, true, -2},
		{TxPurchase, true, -2},
		{TransactionType("gift"), false, 0},
	}
	for _, tt := range tests {
		if got := QuantityDelta(tt.typ, 2, tt.reverse); got != tt.want {
			t.Errorf("QuantityDelta(%s, 2, %v) = %d, want %d", tt.typ, tt.reverse, got, tt.want)
		}
	}
	if !TxSale.Outbound() || TxPurchase.Outbound() {
		t.Error("Outbound mismatch")
	}
}

func TestLoanState(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		tx   Transaction
		want string
	}{
		{Transaction{Status: StatusCompleted, DueDate: &past}, "overdue"},
		{Transaction{Status: StatusCompleted, DueDate: &future}, "active"},
		{Transaction{Status: StatusCompleted}, "active"},
		{Transaction{Status: StatusPending, DueDate: &past}, "pending"},
		{Transaction{Status: StatusCancelled}, "cancelled"},
	}
	for _, tt := range tests {
		if got := tt.tx.LoanState(now); got != tt.want {
			t.Errorf("LoanState = %s, want %s", got, tt.want)
		}
	}
}

func TestItemsTotal(t *testing.T) {
	items := []TransactionItem{
		{Quantity: 3, Price: 19.99},
		{Quantity: 1, Price: 0.1},
		{Quantity: 2, Price: 0.2},
	}
	if got := ItemsTotal(items); got != 60.47 {
		t.Errorf("ItemsTotal = %v, want 60.47", got)
	}
	if got := items[0].Subtotal(); got != 59.97 {
		t.Errorf("Subtotal = %v, want 59.97", got)
	}
}
