package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Page[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Items []T   `json:"items"`
}

func clampPage(page, size, def int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = def
	}
	return page, size
}

// orderBy 只允许白名单内的列，其余回退到 def
func orderBy(allowed map[string]bool, sortBy, def, order, defOrder string) clause.OrderByColumn {
	col := def
	if allowed[sortBy] {
		col = sortBy
	}
	desc := strings.EqualFold(defOrder, "desc")
	switch strings.ToLower(order) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}
}

func likePattern(q string) string { return "%" + strings.ToLower(strings.TrimSpace(q)) + "%" }

// Actor 操作者（写审计日志用）
type Actor struct {
	UserID string
	IP     string
}

func (a Actor) userPtr() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

func (a Actor) ip() string {
	if a.IP == "" {
		return "unknown"
	}
	return a.IP
}

// day 解析 yyyy-mm-dd
func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
}

func paged[T any](tx *gorm.DB, page, size int, dest *[]T) error {
	return tx.Offset((page - 1) * size).Limit(size).Find(dest).Error
}
