package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"fmt"
	"time"
)

type DashboardStats struct {
	TotalBooks    int64   `json:"totalBooks"`
	TotalUsers    int64   `json:"totalUsers"`
	TotalSales    float64 `json:"totalSales"`
	ActiveLoans   int64   `json:"activeLoans"`
	LowStockCount int64   `json:"lowStockCount"`
}

func (r *Repo) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	db := r.DB.WithContext(ctx)
	if err := db.Model(&models.Book{}).Count(&s.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Transaction{}).
		Where("transaction_type = ? AND status = ?", models.TxSale, models.StatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&s.TotalSales).Error; err != nil {
		return nil, err
	}
	s.TotalSales = models.RoundCents(s.TotalSales)
	n, err := r.CountActiveLoans(ctx)
	if err != nil {
		return nil, err
	}
	s.ActiveLoans = n
	if err := db.Model(&models.Inventory{}).
		Where("status IN ?", []string{models.InventoryLowStock, models.InventoryOutOfStock}).
		Count(&s.LowStockCount).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Period 统计区间 [Start, End)；All 表示不限时间
type Period struct {
	Start, End time.Time
	All        bool
	Label      string
}

// PeriodBounds 按 period 计算区间，周从周一开始
func PeriodBounds(period, startDate, endDate string, now time.Time) (Period, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "today":
		return Period{Start: day, End: day.AddDate(0, 0, 1), Label: "Today"}, nil
	case "yesterday":
		return Period{Start: day.AddDate(0, 0, -1), End: day, Label: "Yesterday"}, nil
	case "this_week":
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Period{Start: start, End: start.AddDate(0, 0, 7), Label: "This Week"}, nil
	case "this_month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Period{Start: start, End: start.AddDate(0, 1, 0), Label: "This Month"}, nil
	case "this_year":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return Period{Start: start, End: start.AddDate(1, 0, 0), Label: "This Year"}, nil
	case "last_7_days":
		return Period{Start: day.AddDate(0, 0, -6), End: day.AddDate(0, 0, 1), Label: "Last 7 Days"}, nil
	case "last_30_days":
		return Period{Start: day.AddDate(0, 0, -29), End: day.AddDate(0, 0, 1), Label: "Last 30 Days"}, nil
	case "custom":
		if startDate == "" || endDate == "" {
			return Period{All: true, Label: "Custom Period"}, nil
		}
		s, err := time.ParseInLocation("2006-01-02", startDate, now.Location())
		if err != nil {
			return Period{}, invalid("Invalid startDate %q", startDate)
		}
		e, err := time.ParseInLocation("2006-01-02", endDate, now.Location())
		if err != nil {
			return Period{}, invalid("Invalid endDate %q", endDate)
		}
		if e.Before(s) {
			return Period{}, invalid("endDate must not be before startDate")
		}
		return Period{Start: s, End: e.AddDate(0, 0, 1), Label: fmt.Sprintf("%s to %s", startDate, endDate)}, nil
	default:
		return Period{All: true, Label: "All Time"}, nil
	}
}

// Previous 紧邻的等长区间
func (p Period) Previous() Period {
	d := p.End.Sub(p.Start)
	return Period{Start: p.Start.Add(-d), End: p.Start}
}

type SalesSummary struct {
	Period        string  `json:"period"`
	Description   string  `json:"description"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalSales    int64   `json:"totalSales"`
	AverageSale   float64 `json:"averageSale"`
	RevenueChange float64 `json:"revenueChange"`
}

func (r *Repo) SalesSummary(ctx context.Context, period, startDate, endDate string) (*SalesSummary, error) {
	p, err := PeriodBounds(period, startDate, endDate, r.now())
	if err != nil {
		return nil, err
	}
	revenue, count, err := r.completedSales(ctx, p)
	if err != nil {
		return nil, err
	}
	out := &SalesSummary{
		Period:       period,
		Description:  p.Label,
		TotalRevenue: models.RoundCents(revenue),
		TotalSales:   count,
	}
	if count > 0 {
		out.AverageSale = models.RoundCents(revenue / float64(count))
	}
	if !p.All {
		prev, _, err := r.completedSales(ctx, p.Previous())
		if err != nil {
			return nil, err
		}
		out.RevenueChange = RevenueChange(revenue, prev)
	}
	return out, nil
}

// RevenueChange 上一区间为 0 时返回 0
func RevenueChange(cur, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return models.RoundCents((cur - prev) / prev * 100)
}

func (r *Repo) completedSales(ctx context.Context, p Period) (float64, int64, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_type = ? AND status = ?", models.TxSale, models.StatusCompleted)
	if !p.All {
		tx = tx.Where("created_at >= ? AND created_at < ?", p.Start, p.End)
	}
	var row struct {
		Revenue float64
		N       int64
	}
	if err := tx.Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS n").Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Revenue, row.N, nil
}

// Analytics

type MonthPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Count   int64   `json:"count"`
}

// monthBuckets 以 now 所在月为最后一个桶，共 n 个
func monthBuckets(now time.Time, n int) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(n - 1), 0)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = first.AddDate(0, i, 0)
	}
	return out
}

func bucketIndex(buckets []time.Time, t time.Time) int {
	for i := len(buckets) - 1; i >= 0; i-- {
		if !t.Before(buckets[i]) {
			if i == len(buckets)-1 || t.Before(buckets[i+1]) {
				return i
			}
			return -1
		}
	}
	return -1
}

// SalesByMonth 近 12 个月已完成销售；按月分桶在 Go 里做，避免方言差异
func (r *Repo) SalesByMonth(ctx context.Context) ([]MonthPoint, error) {
	buckets := monthBuckets(r.now(), 12)
	var rows []struct {
		TotalAmount float64
		CreatedAt   time.Time
	}
	err := r.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("total_amount, created_at").
		Where("transaction_type = ? AND status = ?", models.TxSale, models.StatusCompleted).
		Where("created_at >= ?", buckets[0]).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]MonthPoint, len(buckets))
	for i, b := range buckets {
		out[i].Month = b.Format("2006-01")
	}
	for _, row := range rows {
		if i := bucketIndex(buckets, row.CreatedAt.In(buckets[0].Location())); i >= 0 {
			out[i].Revenue += row.TotalAmount
			out[i].Count++
		}
	}
	for i := range out {
		out[i].Revenue = models.RoundCents(out[i].Revenue)
	}
	return out, nil
}

type TopBook struct {
	BookID  string  `json:"bookId"`
	Title   string  `json:"title"`
	Units   int64   `json:"units"`
	Revenue float64 `json:"revenue"`
}

func (r *Repo) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []TopBook
	err := r.DB.WithContext(ctx).Table(models.TransactionItemTable+" ti").
		Select("b.id AS book_id, b.title, SUM(ti.quantity) AS units, SUM(ti.quantity * ti.price) AS revenue").
		Joins("JOIN "+models.TransactionTable+" t ON t.id = ti.transaction_id").
		Joins("JOIN "+models.BookTable+" b ON b.id = ti.book_id").
		Where("t.transaction_type = ? AND t.status = ?", models.TxSale, models.StatusCompleted).
		Group("b.id, b.title").
		Order("units DESC, b.title ASC").
		Limit(limit).
		Scan(&rows).Error
	for i := range rows {
		rows[i].Revenue = models.RoundCents(rows[i].Revenue)
	}
	return rows, err
}

type TopCategory struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Units      int64  `json:"units"`
}

func (r *Repo) TopCategories(ctx context.Context, limit int) ([]TopCategory, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []TopCategory
	err := r.DB.WithContext(ctx).Table(models.TransactionItemTable+" ti").
		Select("c.id AS category_id, c.name, SUM(ti.quantity) AS units").
		Joins("JOIN "+models.TransactionTable+" t ON t.id = ti.transaction_id").
		Joins("JOIN "+models.BookCategoryTable+" bc ON bc.book_id = ti.book_id").
		Joins("JOIN "+models.CategoryTable+" c ON c.id = bc.category_id").
		Where("t.transaction_type = ? AND t.status = ?", models.TxSale, models.StatusCompleted).
		Group("c.id, c.name").
		Order("units DESC, c.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type InventoryAnalytics struct {
	ByStatus         map[string]int64 `json:"byStatus"`
	TotalUnits       int64            `json:"totalUnits"`
	ValueAtCost      float64          `json:"valueAtCost"`
	RestocksPerMonth []MonthPoint     `json:"restocksPerMonth"`
}

func (r *Repo) InventoryAnalytics(ctx context.Context) (*InventoryAnalytics, error) {
	db := r.DB.WithContext(ctx)
	out := &InventoryAnalytics{ByStatus: map[string]int64{
		models.InventoryAvailable:  0,
		models.InventoryLowStock:   0,
		models.InventoryOutOfStock: 0,
	}}
	var byStatus []struct {
		Status string
		N      int64
	}
	if err := db.Model(&models.Inventory{}).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		out.ByStatus[s.Status] = s.N
	}
	var totals struct {
		Units int64
		Value float64
	}
	err := db.Table(models.InventoryTable+" i").
		Select("COALESCE(SUM(i.quantity), 0) AS units, COALESCE(SUM(i.quantity * b.cost_price), 0) AS value").
		Joins("JOIN "+models.BookTable+" b ON b.id = i.book_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	out.TotalUnits = totals.Units
	out.ValueAtCost = models.RoundCents(totals.Value)

	// 补货次数按审计日志统计
	buckets := monthBuckets(r.now(), 12)
	var restocks []time.Time
	if err := db.Model(&models.AuditLog{}).
		Where("action = ? AND created_at >= ?", "restock_inventory", buckets[0]).
		Pluck("created_at", &restocks).Error; err != nil {
		return nil, err
	}
	out.RestocksPerMonth = make([]MonthPoint, len(buckets))
	for i, b := range buckets {
		out.RestocksPerMonth[i].Month = b.Format("2006-01")
	}
	for _, t := range restocks {
		if i := bucketIndex(buckets, t.In(buckets[0].Location())); i >= 0 {
			out.RestocksPerMonth[i].Count++
		}
	}
	return out, nil
}

type UserAnalytics struct {
	ByRole map[string]int64 `json:"byRole"`
	Growth []MonthPoint     `json:"growth"` // Count 为当月末累计用户数
}

func (r *Repo) UserAnalytics(ctx context.Context) (*UserAnalytics, error) {
	db := r.DB.WithContext(ctx)
	out := &UserAnalytics{ByRole: map[string]int64{
		models.RoleAdmin: 0, models.RoleStaff: 0, models.RoleCustomer: 0,
	}}
	var byRole []struct {
		Role string
		N    int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS n").Group("role").Scan(&byRole).Error; err != nil {
		return nil, err
	}
	for _, x := range byRole {
		out.ByRole[x.Role] = x.N
	}

	buckets := monthBuckets(r.now(), 12)
	var before int64
	if err := db.Model(&models.User{}).Where("created_at < ?", buckets[0]).Count(&before).Error; err != nil {
		return nil, err
	}
	var created []time.Time
	if err := db.Model(&models.User{}).Where("created_at >= ?", buckets[0]).Pluck("created_at", &created).Error; err != nil {
		return nil, err
	}
	perMonth := make([]int64, len(buckets))
	for _, t := range created {
		if i := bucketIndex(buckets, t.In(buckets[0].Location())); i >= 0 {
			perMonth[i]++
		}
	}
	running := before
	out.Growth = make([]MonthPoint, len(buckets))
	for i, b := range buckets {
		running += perMonth[i]
		out.Growth[i] = MonthPoint{Month: b.Format("2006-01"), Count: running}
	}
	return out, nil
}
