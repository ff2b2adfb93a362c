package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authors

func (r *Repo) ListAuthors(ctx context.Context, q string, page, size int) (Page[models.Author], error) {
	page, size = clampPage(page, size, 50)
	tx := r.DB.WithContext(ctx).Model(&models.Author{})
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", likePattern(q))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.Author]{}, err
	}
	var rows []models.Author
	if err := paged(tx.Order("name ASC"), page, size, &rows); err != nil {
		return Page[models.Author]{}, err
	}
	return Page[models.Author]{Total: total, Page: page, Size: size, Items: rows}, nil
}

func (r *Repo) GetAuthor(ctx context.Context, id string) (*models.Author, error) {
	var a models.Author
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

type AuthorInput struct {
	Name      string  `json:"name"`
	Biography string  `json:"biography"`
	PhotoURL  *string `json:"photoUrl"`
}

func (r *Repo) CreateAuthor(ctx context.Context, a Actor, in AuthorInput) (*models.Author, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Author name is required")
	}
	au := &models.Author{ID: uuid.NewString(), Name: name, Biography: in.Biography, PhotoURL: in.PhotoURL}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(au).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "create", "author", au.ID, map[string]any{"name": au.Name})
	})
	if err != nil {
		return nil, err
	}
	return au, nil
}

// Categories

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	var counts []struct {
		CategoryID string
		N          int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.BookCategory{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.N
	}
	for i := range cats {
		cats[i].BookCount = byID[cats[i].ID]
	}
	return cats, nil
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *Repo) CreateCategory(ctx context.Context, a Actor, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Category name is required")
	}
	cat := &models.Category{ID: uuid.NewString(), Name: name, Description: in.Description}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return invalid("A category named %q already exists", name)
		}
		if err := tx.Create(cat).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "create", "category", cat.ID, map[string]any{"name": cat.Name})
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func (r *Repo) DeleteCategory(ctx context.Context, a Actor, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.BookCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "delete", "category", id, map[string]any{"name": cat.Name})
	})
}

// checkCategories 所有分类 ID 必须存在
func checkCategories(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	uniq := dedupe(ids)
	var n int64
	if err := tx.Model(&models.Category{}).Where("id IN ?", uniq).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(uniq) {
		return invalid("Unknown category")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
