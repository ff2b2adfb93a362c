package models

import (
	"math"
	"time"
)

const (
	TransactionTable     = "transactions"
	TransactionItemTable = "transaction_items"
)

type TransactionType string

const (
	TxSale     TransactionType = "sale"
	TxLoan     TransactionType = "loan"
	TxReturn   TransactionType = "return"
	TxPurchase TransactionType = "purchase"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxLoan, TxReturn, TxPurchase:
		return true
	}
	return false
}

// StockSign 出库为 -1，入库为 +1
func (t TransactionType) StockSign() int {
	switch t {
	case TxSale, TxLoan:
		return -1
	case TxReturn, TxPurchase:
		return 1
	}
	return 0
}

// Outbound 出库类交易在创建时需要校验库存
func (t TransactionType) Outbound() bool { return t.StockSign() < 0 }

// QuantityDelta 完成交易时按类型正负号调整库存；撤销时方向相反
func QuantityDelta(t TransactionType, qty int, reverse bool) int {
	d := t.StockSign() * qty
	if reverse {
		return -d
	}
	return d
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LoanPeriod 借阅默认期限
const LoanPeriod = 14 * 24 * time.Hour

type Transaction struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string            `gorm:"type:uuid;index;not null" json:"userId"`
	TransactionType TransactionType   `gorm:"size:20;not null;index;check:chk_transactions_type,transaction_type IN ('sale','loan','return','purchase')" json:"transactionType"`
	Status          TransactionStatus `gorm:"size:20;not null;index;check:chk_transactions_status,status IN ('pending','completed','cancelled')" json:"status"`
	TotalAmount     float64           `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	PaymentMethod   *string           `gorm:"size:50" json:"paymentMethod,omitempty"`
	Notes           *string           `gorm:"type:text" json:"notes,omitempty"`
	DueDate         *time.Time        `gorm:"index" json:"dueDate,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	User  *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Transaction) TableName() string { return TransactionTable }

// LoanState 借阅展示状态：pending / active / overdue / cancelled
func (t Transaction) LoanState(now time.Time) string {
	switch t.Status {
	case StatusCompleted:
		if t.DueDate != nil && t.DueDate.Before(now) {
			return "overdue"
		}
		return "active"
	default:
		return string(t.Status)
	}
}

type TransactionItem struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	TransactionID string    `gorm:"type:uuid;index;not null" json:"transactionId"`
	BookID        string    `gorm:"type:uuid;index;not null" json:"bookId"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	Price         float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (TransactionItem) TableName() string { return TransactionItemTable }

func (i TransactionItem) Subtotal() float64 { return RoundCents(i.Price * float64(i.Quantity)) }

func ItemsTotal(items []TransactionItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return RoundCents(sum)
}

func RoundCents(v float64) float64 { return math.Round(v*100) / 100 }
