// app/bootstrap.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
)

// BootstrapFirstAdmin 没有管理员且设置了 BOOTSTRAP_EMAIL 时生成一次性邀请，返回链接
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) string {
	if cfg.BootstrapEmail == "" {
		return ""
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("[BOOTSTRAP] count admins: %v", err)
		return ""
	}
	if n > 0 {
		return "" // 已经有管理员，跳过
	}

	token, err := NewToken()
	if err != nil {
		log.Printf("[BOOTSTRAP] token: %v", err)
		return ""
	}
	if _, err := repo.CreateInvite(ctx, db.Actor{IP: "bootstrap"}, cfg.BootstrapEmail, models.RoleAdmin,
		token, time.Now().Add(24*time.Hour), "bootstrap"); err != nil {
		log.Printf("[BOOTSTRAP] invite failed: %v", err)
		return ""
	}

	link := fmt.Sprintf("%s/login?inviteToken=%s", cfg.WebOrigin, token)
	log.Printf("[BOOTSTRAP] No admin found, created an admin invite for %s", cfg.BootstrapEmail)
	log.Printf("[BOOTSTRAP] Open this URL to register the first admin: %s", link)
	return link
}

// NewToken 32 位十六进制随机串
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
