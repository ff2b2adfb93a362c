package models

import (
	"strings"
	"time"
)

const UserTable = "users"

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// User 使用 UUID 字节作为 WebAuthn userHandle（存字符串即可，用时转 []byte）
type User struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string  `gorm:"size:100;not null" json:"firstName"`
	LastName  string  `gorm:"size:100;not null" json:"lastName"`
	Role      string  `gorm:"size:20;not null;index;check:chk_users_role,role IN ('admin','staff','customer')" json:"role"`
	Phone     *string `gorm:"size:50" json:"phone,omitempty"`
	Address   *string `gorm:"type:text" json:"address,omitempty"`

	// 没有密码的用户只能用 passkey 登录
	PasswordHash string `gorm:"size:255" json:"-"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Credentials []Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return UserTable }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsStaff() bool { return u.Role == RoleAdmin || u.Role == RoleStaff }

// Credential 为每个注册的 Passkey 存档
// CredentialID / PublicKey / AAGUID 为二进制
type Credential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"type:uuid;index" json:"userId"`
	CredentialID    []byte    `gorm:"uniqueIndex" json:"credentialId"`
	PublicKey       []byte    `json:"publicKey"`
	AttestationType string    `gorm:"size:64" json:"attestationType"`
	AAGUID          []byte    `json:"aaguid"`
	SignCount       uint32    `json:"signCount"`
	CloneWarning    bool      `json:"cloneWarning"`
	BackupEligible  bool      `json:"backupEligible"`
	BackupState     bool      `json:"backupState"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	LastUsedAt *time.Time `gorm:"index" json:"lastUsedAt,omitempty"`
}
