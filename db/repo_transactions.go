package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var transactionSortColumns = map[string]bool{"created_at": true, "total_amount": true, "due_date": true}

type TransactionQuery struct {
	UserID    string
	Type      string
	Status    string
	StartDate string // yyyy-mm-dd，包含当天
	EndDate   string
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

func (r *Repo) ListTransactions(ctx context.Context, q TransactionQuery) (Page[models.Transaction], error) {
	page, size := clampPage(q.Page, q.Size, 10)
	tx := r.DB.WithContext(ctx).Model(&models.Transaction{})
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	// 非法的类型/状态过滤直接忽略
	if t := models.TransactionType(q.Type); t.Valid() {
		tx = tx.Where("transaction_type = ?", t)
	}
	if s := models.TransactionStatus(q.Status); s.Valid() {
		tx = tx.Where("status = ?", s)
	}
	if q.StartDate != "" {
		d, err := parseDay(q.StartDate)
		if err != nil {
			return Page[models.Transaction]{}, invalid("Invalid startDate %q", q.StartDate)
		}
		tx = tx.Where("created_at >= ?", d)
	}
	if q.EndDate != "" {
		d, err := parseDay(q.EndDate)
		if err != nil {
			return Page[models.Transaction]{}, invalid("Invalid endDate %q", q.EndDate)
		}
		tx = tx.Where("created_at < ?", d.AddDate(0, 0, 1))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.Transaction]{}, err
	}
	var rows []models.Transaction
	err := paged(tx.Preload("User").Preload("Items.Book").
		Order(orderBy(transactionSortColumns, q.SortBy, "created_at", q.SortOrder, "desc")), page, size, &rows)
	if err != nil {
		return Page[models.Transaction]{}, err
	}
	return Page[models.Transaction]{Total: total, Page: page, Size: size, Items: rows}, nil
}

func (r *Repo) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items.Book.Author").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *Repo) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

type TransactionItemInput struct {
	BookID   string  `json:"bookId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type TransactionInput struct {
	UserID          string                   `json:"userId"`
	TransactionType models.TransactionType   `json:"transactionType"`
	Status          models.TransactionStatus `json:"status"`
	TotalAmount     float64                  `json:"totalAmount"`
	PaymentMethod   *string                  `json:"paymentMethod"`
	Notes           *string                  `json:"notes"`
	DueDate         *time.Time               `json:"dueDate"`
	Items           []TransactionItemInput   `json:"items"`
}

func (r *Repo) CreateTransaction(ctx context.Context, a Actor, in TransactionInput) (*models.Transaction, error) {
	if len(in.Items) == 0 {
		return nil, invalid("Transaction must include at least one item")
	}
	if !in.TransactionType.Valid() {
		return nil, invalid("Invalid transaction type %q", in.TransactionType)
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !in.Status.Valid() {
		return nil, invalid("Invalid transaction status %q", in.Status)
	}
	if in.UserID == "" {
		in.UserID = a.UserID
	}
	for _, it := range in.Items {
		if it.BookID == "" {
			return nil, invalid("Every item needs a book")
		}
		if it.Quantity < 1 {
			return nil, invalid("Item quantity must be at least 1")
		}
		if it.Price < 0 {
			return nil, invalid("Item price cannot be negative")
		}
	}

	now := r.now()
	t := &models.Transaction{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		TransactionType: in.TransactionType,
		Status:          in.Status,
		PaymentMethod:   nonEmpty(in.PaymentMethod),
		Notes:           nonEmpty(in.Notes),
		DueDate:         in.DueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if t.TransactionType == models.TxLoan && t.DueDate == nil {
		due := now.Add(models.LoanPeriod)
		t.DueDate = &due
	}
	items := make([]models.TransactionItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: t.ID,
			BookID:        it.BookID,
			Quantity:      it.Quantity,
			Price:         models.RoundCents(it.Price),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	t.TotalAmount = models.RoundCents(in.TotalAmount)
	if t.TotalAmount <= 0 {
		t.TotalAmount = models.ItemsTotal(items)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", t.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("User not found")
		}
		titles, err := r.lockStock(tx, t.TransactionType, items)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		if t.Status == models.StatusCompleted {
			if err := r.applyTransactionStock(tx, a, t, items, titles, false); err != nil {
				return err
			}
		}
		return r.writeAudit(tx, a, "create_transaction", "transaction", t.ID, map[string]any{
			"transaction_type": t.TransactionType,
			"total_amount":     t.TotalAmount,
			"items_count":      len(items),
		})
	})
	if err != nil {
		return nil, err
	}
	return r.GetTransaction(ctx, t.ID)
}

// lockStock 锁定涉及的库存行；出库类交易逐项校验可用数量
func (r *Repo) lockStock(tx *gorm.DB, typ models.TransactionType, items []models.TransactionItem) (map[string]string, error) {
	need := map[string]int{}
	var order []string
	for _, it := range items {
		if _, ok := need[it.BookID]; !ok {
			order = append(order, it.BookID)
		}
		need[it.BookID] += it.Quantity
	}

	var books []models.Book
	if err := tx.Select("id", "title").Where("id IN ?", order).Find(&books).Error; err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}

	for _, bookID := range order {
		title, ok := titles[bookID]
		if !ok {
			return nil, invalid("Book %s not found", bookID)
		}
		var inv models.Inventory
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("book_id = ?", bookID).First(&inv).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if typ.Outbound() && inv.Quantity < need[bookID] {
			return nil, invalid("Insufficient inventory for %q. Available: %d, Requested: %d", title, inv.Quantity, need[bookID])
		}
	}
	return titles, nil
}

// UpdateTransactionStatus 跨越 completed 边界时才调整库存
func (r *Repo) UpdateTransactionStatus(ctx context.Context, a Actor, id string, status models.TransactionStatus) (*models.Transaction, error) {
	if !status.Valid() {
		return nil, invalid("Invalid transaction status %q", status)
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		previous := t.Status
		if err := tx.Model(&models.Transaction{}).Where("id = ?", id).Updates(map[string]any{
			"status":     status,
			"updated_at": r.now(),
		}).Error; err != nil {
			return err
		}
		entering := previous != models.StatusCompleted && status == models.StatusCompleted
		leaving := previous == models.StatusCompleted && status != models.StatusCompleted
		if entering || leaving {
			var items []models.TransactionItem
			if err := tx.Where("transaction_id = ?", id).Find(&items).Error; err != nil {
				return err
			}
			titles, err := r.lockStock(tx, models.TransactionType(""), items)
			if err != nil {
				return err
			}
			if err := r.applyTransactionStock(tx, a, &t, items, titles, leaving); err != nil {
				return err
			}
		}
		return r.writeAudit(tx, a, "update_transaction_status", "transaction", id, map[string]any{
			"previous_status": previous,
			"new_status":      status,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.GetTransaction(ctx, id)
}

func (r *Repo) applyTransactionStock(tx *gorm.DB, a Actor, t *models.Transaction, items []models.TransactionItem, titles map[string]string, reverse bool) error {
	note := fmt.Sprintf("Inventory updated due to %s transaction #%s", t.TransactionType, t.ID)
	for _, it := range items {
		delta := models.QuantityDelta(t.TransactionType, it.Quantity, reverse)
		if err := r.adjustStock(tx, a, it.BookID, titles[it.BookID], delta, note); err != nil {
			return err
		}
	}
	return nil
}
