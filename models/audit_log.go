package models

import "time"

const (
	AuditLogTable     = "audit_logs"
	NotificationTable = "notifications"
)

// AuditLog 记录一次写操作；UserID 为空表示系统操作
type AuditLog struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     *string        `gorm:"type:uuid;index" json:"userId,omitempty"`
	Action     string         `gorm:"size:100;not null;index" json:"action"`
	EntityType string         `gorm:"size:50;not null;index:idx_audit_entity" json:"entityType"`
	EntityID   string         `gorm:"size:64;index:idx_audit_entity" json:"entityId"`
	Details    map[string]any `gorm:"serializer:json;type:jsonb" json:"details,omitempty"`
	IPAddress  string         `gorm:"size:64" json:"ipAddress"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

func (AuditLog) TableName() string { return AuditLogTable }

type Notification struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string { return NotificationTable }
