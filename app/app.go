package app

import (
	"Gin_postgres_redis_library_dashboard/blob"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/session"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	WA      *webauthn.WebAuthn
	Blob    blob.Store
	Metrics *Metrics
	Config  Config

	appSess *session.AppSessionStore
	cache   *session.Cache
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	AppName  string
}

// Config 从环境变量读取
type Config struct {
	RedisAddr        string
	RedisPwd         string
	WebOrigin        string
	RPID             string
	RPOrigins        []string
	SessionTTL       time.Duration // WebAuthn 仪式状态
	AppSessionTTL    time.Duration // 登录会话
	AdminEmails      []string
	BootstrapEmail   string
	Port             string
	Blob             blob.Config
	NotifierInterval time.Duration
	StatsCacheTTL    time.Duration
	SMTP             SMTPConfig
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }
func (a *App) Cache() *session.Cache                 { return a.cache }

func MustNew() *App {
	cfg := LoadConfig()

	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	st, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		log.Fatalf("blob: %v", err)
	}

	a, err := New(cfg, dbConn, rdb, st)
	if err != nil {
		log.Fatalf("app: %v", err)
	}
	return a
}

// New 组装 App，测试里直接传入 sqlite / miniredis
func New(cfg Config, dbConn *gorm.DB, rdb *redis.Client, st blob.Store) (*App, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Library Dashboard",
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("webauthn: %w", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	useCORS(r, cfg)
	m := NewMetrics()
	r.Use(m.Middleware())

	return &App{
		Router: r, DB: dbConn, RDB: rdb, WA: wa, Blob: st, Metrics: m, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.AppSessionTTL),
		cache:   session.NewCache(rdb, "lib:cache:"),
	}, nil
}

func (a *App) Close() { _ = a.RDB.Close() }

func LoadConfig() Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def time.Duration) time.Duration {
		if d, err := time.ParseDuration(get(k, "") + "s"); err == nil && d > 0 {
			return d
		}
		return def
	}
	duration := func(k string, def time.Duration) time.Duration {
		if d, err := time.ParseDuration(get(k, "")); err == nil && d > 0 {
			return d
		}
		return def
	}
	csv := func(s string, lower bool) []string {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if t := strings.TrimSpace(p); t != "" {
				if lower {
					t = strings.ToLower(t)
				}
				out = append(out, t)
			}
		}
		return out
	}

	origin := get("WEB_ORIGIN", "http://localhost:3000")
	return Config{
		RedisAddr:        get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:         os.Getenv("REDIS_PASSWORD"),
		WebOrigin:        origin,
		RPID:             get("RP_ID", "localhost"),
		RPOrigins:        csv(get("RP_ORIGINS", origin), false),
		SessionTTL:       seconds("WEBAUTHN_TTL_SECONDS", 5*time.Minute),
		AppSessionTTL:    seconds("SESSION_TTL_SECONDS", 24*time.Hour),
		AdminEmails:      csv(os.Getenv("ADMIN_EMAILS"), true), // 例如: "admin@ex.com,ops@ex.com"
		BootstrapEmail:   strings.ToLower(get("BOOTSTRAP_EMAIL", "")),
		Port:             get("PORT", "3001"),
		NotifierInterval: duration("NOTIFIER_INTERVAL", time.Hour),
		StatsCacheTTL:    seconds("STATS_CACHE_SECONDS", time.Minute),
		Blob: blob.Config{
			Driver:    get("BLOB_DRIVER", "memory"),
			Bucket:    os.Getenv("BLOB_S3_BUCKET"),
			Region:    os.Getenv("BLOB_S3_REGION"),
			Endpoint:  os.Getenv("BLOB_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("BLOB_S3_PATH_STYLE"), "true"),
		},
		SMTP: SMTPConfig{
			Host:     get("SMTP_HOST", ""),
			Port:     get("SMTP_PORT", "587"),
			Username: get("SMTP_USERNAME", ""),
			Password: get("SMTP_PASSWORD", ""),
			From:     get("SMTP_FROM", ""),
			AppName:  get("APP_NAME", "Library Dashboard"),
		},
	}
}

// IsConfiguredAdmin ADMIN_EMAILS 里的邮箱始终按 admin 处理
func (c Config) IsConfiguredAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}
