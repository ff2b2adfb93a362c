package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_redis_library_dashboard/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) CreateInvite(ctx context.Context, a Actor, email, role, token string, expiresAt time.Time, createdBy string) (*models.Invite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("A valid email is required")
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, invalid("Invites are only for staff or admin")
	}
	inv := &models.Invite{Email: email, Role: role, Token: token, ExpiresAt: expiresAt, CreatedBy: createdBy}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEmailFree(tx, email, ""); err != nil {
			return err
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "create_invite", "invite", email, map[string]any{"role": role})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *Repo) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	var inv models.Invite
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// AcceptInvite 兑换邀请：创建用户并标记邀请已用，同一事务
func (r *Repo) AcceptInvite(ctx context.Context, a Actor, token string, in UserInput) (*models.User, error) {
	var created *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invite
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteUsed
			}
			return err
		}
		if !inv.Usable(r.now()) {
			return ErrInviteUsed
		}
		in.Email = inv.Email
		in.Role = inv.Role
		repo := &Repo{DB: tx, Now: r.Now}
		u, err := repo.CreateUser(ctx, a, in)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND used_at IS NULL", inv.ID).
			Update("used_at", r.now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInviteUsed
		}
		created = u
		return nil
	})
	return created, err
}

func (r *Repo) ListInvites(ctx context.Context) ([]models.Invite, error) {
	var rows []models.Invite
	err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(100).Find(&rows).Error
	return rows, err
}
