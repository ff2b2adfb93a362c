package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

type Options struct {
	Driver     string // postgres | sqlite
	DSN        string
	SQLitePath string
	LogSQL     bool
}

func OptionsFromEnv() Options {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" && os.Getenv("DB_HOST") != "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)
	}
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "postgres"
		if dsn == "" {
			driver = "sqlite"
		}
	}
	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "library.db"
	}
	return Options{
		Driver:     driver,
		DSN:        dsn,
		SQLitePath: path,
		LogSQL:     os.Getenv("DB_LOG_SQL") == "true",
	}
}

func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if !opts.LogSQL {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}
	switch opts.Driver {
	case "postgres":
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires DATABASE_URL or DB_HOST")
		}
		return gorm.Open(postgres.Open(opts.DSN), cfg)
	case "sqlite":
		// 外键仅在显式开启时生效
		sep := "?"
		if strings.Contains(opts.SQLitePath, "?") {
			sep = "&"
		}
		return gorm.Open(sqlite.Open(opts.SQLitePath+sep+"_pragma=foreign_keys(1)"), cfg)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", opts.Driver)
	}
}

func ConnectDB() *gorm.DB {
	opts := OptionsFromEnv()
	var err error
	DB, err = Open(opts)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err = Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Printf("Database connected (%s)", opts.Driver)
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Book{}, "Categories", &models.BookCategory{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Credential{}, &models.Invite{},
		&models.Author{}, &models.Category{}, &models.Book{}, &models.BookCategory{},
		&models.Inventory{},
		&models.Transaction{}, &models.TransactionItem{},
		&models.AuditLog{}, &models.Notification{},
	); err != nil {
		return err
	}

	// 借阅到期查询（日历 / 逾期提醒）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_completed_loans_due
	  ON %s (due_date)
	  WHERE transaction_type = 'loan' AND status = 'completed';
	`, models.TransactionTable, models.TransactionTable)).Error; err != nil {
		return err
	}

	// 未读通知计数
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_unread_by_user
	  ON %s (user_id)
	  WHERE is_read = FALSE;
	`, models.NotificationTable, models.NotificationTable)).Error; err != nil {
		return err
	}

	return nil
}
