package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

var loanSortColumns = map[string]bool{"created_at": true, "due_date": true}

type LoanQuery struct {
	Status    string // active | overdue | pending | cancelled | 空 = 全部
	DueDate   string // yyyy-mm-dd
	Search    string // 借阅人姓名或书名
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

type LoanRow struct {
	models.Transaction
	LoanState string `json:"loanState"`
}

func (r *Repo) ListLoans(ctx context.Context, q LoanQuery) (Page[LoanRow], error) {
	page, size := clampPage(q.Page, q.Size, 10)
	now := r.now()

	tx := r.DB.WithContext(ctx).Model(&models.Transaction{}).Where("transaction_type = ?", models.TxLoan)
	switch q.Status {
	case "active":
		tx = tx.Where("status = ? AND (due_date IS NULL OR due_date >= ?)", models.StatusCompleted, now)
	case "overdue":
		tx = tx.Where("status = ? AND due_date < ?", models.StatusCompleted, now)
	case "pending":
		tx = tx.Where("status = ?", models.StatusPending)
	case "cancelled":
		tx = tx.Where("status = ?", models.StatusCancelled)
	}
	if q.DueDate != "" {
		d, err := parseDay(q.DueDate)
		if err != nil {
			return Page[LoanRow]{}, invalid("Invalid dueDate %q", q.DueDate)
		}
		tx = tx.Where("due_date >= ? AND due_date < ?", d, d.AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pat := likePattern(s)
		users := r.DB.Model(&models.User{}).Select("id").
			Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pat, pat)
		books := r.DB.Table(models.TransactionItemTable+" ti").Select("ti.transaction_id").
			Joins("JOIN "+models.BookTable+" b ON b.id = ti.book_id").
			Where("LOWER(b.title) LIKE ?", pat)
		tx = tx.Where("user_id IN (?) OR id IN (?)", users, books)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[LoanRow]{}, err
	}
	var rows []models.Transaction
	err := paged(tx.Preload("User").Preload("Items.Book").
		Order(orderBy(loanSortColumns, q.SortBy, "created_at", q.SortOrder, "desc")), page, size, &rows)
	if err != nil {
		return Page[LoanRow]{}, err
	}
	out := make([]LoanRow, 0, len(rows))
	for _, t := range rows {
		out = append(out, LoanRow{Transaction: t, LoanState: t.LoanState(now)})
	}
	return Page[LoanRow]{Total: total, Page: page, Size: size, Items: out}, nil
}

// DueCalendar 某月内到期的借阅，month 形如 2025-03
func (r *Repo) DueCalendar(ctx context.Context, month string) ([]LoanRow, error) {
	start, err := time.ParseInLocation("2006-01", strings.TrimSpace(month), time.Local)
	if err != nil {
		return nil, invalid("Invalid month %q, expected YYYY-MM", month)
	}
	var rows []models.Transaction
	err = r.DB.WithContext(ctx).
		Preload("User").Preload("Items.Book").
		Where("transaction_type = ? AND status <> ?", models.TxLoan, models.StatusCancelled).
		Where("due_date >= ? AND due_date < ?", start, start.AddDate(0, 1, 0)).
		Order("due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := make([]LoanRow, 0, len(rows))
	for _, t := range rows {
		out = append(out, LoanRow{Transaction: t, LoanState: t.LoanState(now)})
	}
	return out, nil
}

// LoansDueBefore 已完成且在 until 之前到期的借阅（含已逾期）
func (r *Repo) LoansDueBefore(ctx context.Context, until time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("Items.Book", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Where("transaction_type = ? AND status = ?", models.TxLoan, models.StatusCompleted).
		Where("due_date IS NOT NULL AND due_date < ?", until).
		Order("due_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repo) CountActiveLoans(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_type = ? AND status = ?", models.TxLoan, models.StatusCompleted).
		Where("due_date IS NULL OR due_date >= ?", r.now()).
		Count(&n).Error
	return n, err
}
