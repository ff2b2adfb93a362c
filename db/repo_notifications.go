package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationQuery struct {
	UserID     string
	UnreadOnly bool
	Page       int
	Size       int
}

func (r *Repo) ListNotifications(ctx context.Context, q NotificationQuery) (Page[models.Notification], error) {
	page, size := clampPage(q.Page, q.Size, 20)
	tx := r.DB.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", q.UserID)
	if q.UnreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.Notification]{}, err
	}
	var rows []models.Notification
	if err := paged(tx.Order("created_at DESC"), page, size, &rows); err != nil {
		return Page[models.Notification]{}, err
	}
	return Page[models.Notification]{Total: total, Page: page, Size: size, Items: rows}, nil
}

func (r *Repo) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *Repo) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *Repo) DeleteNotification(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SendNotification userID 为 "all" 时发给所有用户
func (r *Repo) SendNotification(ctx context.Context, a Actor, userID, title, message string) (int, error) {
	title, message = strings.TrimSpace(title), strings.TrimSpace(message)
	if title == "" || message == "" {
		return 0, invalid("Title and message are required")
	}
	var sent int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if userID == "all" {
			if err := tx.Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
				return err
			}
		} else {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			ids = []string{userID}
		}
		if err := r.notify(tx, ids, title, message); err != nil {
			return err
		}
		sent = len(ids)
		return r.writeAudit(tx, a, "send_notification", "notification", userID, map[string]any{
			"title":      title,
			"recipients": sent,
		})
	})
	return sent, err
}

func (r *Repo) notify(tx *gorm.DB, userIDs []string, title, message string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := r.now()
	rows := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, models.Notification{
			ID: uuid.NewString(), UserID: uid, Title: title, Message: message, CreatedAt: now,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// notifyStaff 通知所有 admin / staff
func (r *Repo) notifyStaff(tx *gorm.DB, title, message string) error {
	var ids []string
	if err := tx.Model(&models.User{}).
		Where("role IN ?", []string{models.RoleAdmin, models.RoleStaff}).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	return r.notify(tx, ids, title, message)
}

// NotifyUser 供后台任务使用
func (r *Repo) NotifyUser(ctx context.Context, userID, title, message string) error {
	return r.notify(r.DB.WithContext(ctx), []string{userID}, title, message)
}
