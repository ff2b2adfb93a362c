package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// writeAudit 必须传入当前事务的 tx，和业务写入一起提交
func (r *Repo) writeAudit(tx *gorm.DB, a Actor, action, entityType, entityID string, details map[string]any) error {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     a.userPtr(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  a.ip(),
		CreatedAt:  r.now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *Repo) CreateAuditLog(ctx context.Context, a Actor, action, entityType, entityID string, details map[string]any) error {
	return r.writeAudit(r.DB.WithContext(ctx), a, action, entityType, entityID, details)
}

type AuditQuery struct {
	UserID     string
	EntityType string
	EntityID   string
	Action     string
	Page       int
	Size       int
}

func (r *Repo) ListAuditLogs(ctx context.Context, q AuditQuery) (Page[models.AuditLog], error) {
	page, size := clampPage(q.Page, q.Size, 50)
	tx := r.DB.WithContext(ctx).Model(&models.AuditLog{})
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.EntityType != "" {
		tx = tx.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != "" {
		tx = tx.Where("entity_id = ?", q.EntityID)
	}
	if a := strings.TrimSpace(q.Action); a != "" {
		tx = tx.Where("action = ?", a)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.AuditLog]{}, err
	}
	var rows []models.AuditLog
	if err := paged(tx.Preload("User").Order("created_at DESC"), page, size, &rows); err != nil {
		return Page[models.AuditLog]{}, err
	}
	return Page[models.AuditLog]{Total: total, Page: page, Size: size, Items: rows}, nil
}
