package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Clock 固定的测试时间
var Clock = time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local)

// SetupTestDB 每个测试一个独立的内存 SQLite，已迁移
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(db.Options{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8]),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// 单连接，避免 SQLite 写锁冲突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return gdb
}

// NewRepo 使用固定时钟
func NewRepo(t *testing.T) *db.Repo {
	t.Helper()
	r := db.NewRepo(SetupTestDB(t))
	r.Now = func() time.Time { return Clock }
	return r
}

func SetupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

// CreateUser 直接插入用户
func CreateUser(t *testing.T, g *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: "Test",
		LastName:  strings.SplitN(email, "@", 2)[0],
		Role:      role,
		CreatedAt: Clock,
		UpdatedAt: Clock,
	}
	if err := g.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

// CreateBook 插入图书和库存
func CreateBook(t *testing.T, g *gorm.DB, title, isbn string, price float64, qty, threshold int) *models.Book {
	t.Helper()
	b := &models.Book{
		ID:        uuid.NewString(),
		Title:     title,
		ISBN:      isbn,
		Price:     price,
		CostPrice: price / 2,
		Language:  "English",
	}
	if err := g.Create(b).Error; err != nil {
		t.Fatalf("Failed to create book: %v", err)
	}
	inv := &models.Inventory{
		ID:        uuid.NewString(),
		BookID:    b.ID,
		Quantity:  qty,
		Location:  "Main Shelf",
		Threshold: threshold,
	}
	inv.Refresh()
	if err := g.Create(inv).Error; err != nil {
		t.Fatalf("Failed to create inventory: %v", err)
	}
	b.Inventory = inv
	return b
}
