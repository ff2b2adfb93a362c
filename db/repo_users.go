package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userSortColumns = map[string]bool{"created_at": true, "last_name": true, "email": true}

type UserQuery struct {
	Search    string
	Role      string
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

func (r *Repo) ListUsers(ctx context.Context, q UserQuery) (Page[models.User], error) {
	page, size := clampPage(q.Page, q.Size, 10)
	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if s := strings.TrimSpace(q.Search); s != "" {
		pat := likePattern(s)
		tx = tx.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pat, pat, pat)
	}
	if models.ValidRole(q.Role) {
		tx = tx.Where("role = ?", q.Role)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.User]{}, err
	}
	var rows []models.User
	err := paged(tx.Order(orderBy(userSortColumns, q.SortBy, "created_at", q.SortOrder, "desc")), page, size, &rows)
	if err != nil {
		return Page[models.User]{}, err
	}
	return Page[models.User]{Total: total, Page: page, Size: size, Items: rows}, nil
}

type UserInput struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Password  string  `json:"password"`
}

// HashPassword bcrypt 默认强度
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (r *Repo) CreateUser(ctx context.Context, a Actor, in UserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("A valid email is required")
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, invalid("First and last name are required")
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !models.ValidRole(in.Role) {
		return nil, invalid("Invalid role %q", in.Role)
	}
	now := r.now()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      in.Role,
		Phone:     nonEmpty(in.Phone),
		Address:   nonEmpty(in.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			return nil, invalid("Password must be at least 8 characters")
		}
		h, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = h
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEmailFree(tx, email, ""); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "create", "user", u.ID, map[string]any{"email": email, "role": u.Role})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

type UserPatch struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Password  *string `json:"password"`
}

func (r *Repo) UpdateUser(ctx context.Context, a Actor, id string, p UserPatch) (*models.User, error) {
	updates := map[string]any{}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, invalid("A valid email is required")
		}
		updates["email"] = email
	}
	if p.FirstName != nil {
		if strings.TrimSpace(*p.FirstName) == "" {
			return nil, invalid("First name cannot be empty")
		}
		updates["first_name"] = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		if strings.TrimSpace(*p.LastName) == "" {
			return nil, invalid("Last name cannot be empty")
		}
		updates["last_name"] = strings.TrimSpace(*p.LastName)
	}
	if p.Role != nil {
		if !models.ValidRole(*p.Role) {
			return nil, invalid("Invalid role %q", *p.Role)
		}
		updates["role"] = *p.Role
	}
	if p.Phone != nil {
		updates["phone"] = nonEmpty(p.Phone)
	}
	if p.Address != nil {
		updates["address"] = nonEmpty(p.Address)
	}
	if p.Password != nil {
		if len(*p.Password) < 8 {
			return nil, invalid("Password must be at least 8 characters")
		}
		h, err := HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = h
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if email, ok := updates["email"].(string); ok && email != u.Email {
			if err := checkEmailFree(tx, email, id); err != nil {
				return err
			}
		}
		// 至少保留一个管理员
		if role, ok := updates["role"].(string); ok && u.Role == models.RoleAdmin && role != models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return invalid("Cannot remove the last admin")
			}
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = r.now()
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		fields := make([]string, 0, len(updates))
		for k := range updates {
			if k != "updated_at" && k != "password_hash" {
				fields = append(fields, k)
			}
		}
		return r.writeAudit(tx, a, "update", "user", id, map[string]any{
			"fields":           fields,
			"password_changed": p.Password != nil,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.FindUserByID(ctx, id)
}

// DeleteUser 有交易记录的用户不能删除
func (r *Repo) DeleteUser(ctx context.Context, a Actor, id string) error {
	if id == a.UserID {
		return invalid("You cannot delete your own account")
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		var n int64
		if err := tx.Model(&models.Transaction{}).Where("user_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUserReferenced
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Credential{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.User{}, "id = ?", id).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "delete", "user", id, map[string]any{"email": u.Email})
	})
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&n).Error
	return n, err
}

func checkEmailFree(tx *gorm.DB, email, exceptID string) error {
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateEmail
	}
	return nil
}
