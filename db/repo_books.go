package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var bookSortColumns = map[string]bool{"title": true, "publication_date": true, "price": true}

type BookQuery struct {
	Search     string
	CategoryID string
	AuthorID   string
	SortBy     string
	SortOrder  string
	Page       int
	Size       int
}

func (r *Repo) ListBooks(ctx context.Context, q BookQuery) (Page[models.Book], error) {
	page, size := clampPage(q.Page, q.Size, 10)
	base := func() *gorm.DB {
		tx := r.DB.WithContext(ctx).Model(&models.Book{})
		if s := strings.TrimSpace(q.Search); s != "" {
			pat := likePattern(s)
			tx = tx.Where("LOWER(title) LIKE ? OR LOWER(isbn) LIKE ?", pat, pat)
		}
		if q.AuthorID != "" {
			tx = tx.Where("author_id = ?", q.AuthorID)
		}
		if q.CategoryID != "" {
			tx = tx.Where("id IN (?)", r.DB.Model(&models.BookCategory{}).
				Select("book_id").Where("category_id = ?", q.CategoryID))
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return Page[models.Book]{}, err
	}
	var books []models.Book
	err := paged(base().
		Preload("Author").Preload("Categories").Preload("Inventory").
		Order(orderBy(bookSortColumns, q.SortBy, "title", q.SortOrder, "asc")), page, size, &books)
	if err != nil {
		return Page[models.Book]{}, err
	}
	return Page[models.Book]{Total: total, Page: page, Size: size, Items: books}, nil
}

func (r *Repo) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	err := r.DB.WithContext(ctx).
		Preload("Author").Preload("Categories").Preload("Inventory").
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

type InventoryInput struct {
	Quantity  *int    `json:"quantity"`
	Location  *string `json:"location"`
	Threshold *int    `json:"threshold"`
}

type BookInput struct {
	Title           string          `json:"title"`
	ISBN            string          `json:"isbn"`
	AuthorID        *string         `json:"authorId"`
	Publisher       string          `json:"publisher"`
	PublicationDate string          `json:"publicationDate"`
	Description     string          `json:"description"`
	CoverImageURL   *string         `json:"coverImageUrl"`
	Price           float64         `json:"price"`
	CostPrice       float64         `json:"costPrice"`
	PageCount       *int            `json:"pageCount"`
	Language        string          `json:"language"`
	CategoryIDs     []string        `json:"categories"`
	Inventory       *InventoryInput `json:"inventory"`
}

func (r *Repo) CreateBook(ctx context.Context, a Actor, in BookInput) (*models.Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Title is required")
	}
	if !models.ValidISBN(in.ISBN) {
		return nil, ErrInvalidISBN
	}
	if in.Price < 0 || in.CostPrice < 0 {
		return nil, invalid("Price cannot be negative")
	}
	pub, err := optionalDay(in.PublicationDate)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		ID:              uuid.NewString(),
		Title:           title,
		ISBN:            models.NormalizeISBN(in.ISBN),
		AuthorID:        nonEmpty(in.AuthorID),
		Publisher:       in.Publisher,
		PublicationDate: pub,
		Description:     in.Description,
		CoverImageURL:   in.CoverImageURL,
		Price:           models.RoundCents(in.Price),
		CostPrice:       models.RoundCents(in.CostPrice),
		PageCount:       in.PageCount,
		Language:        in.Language,
	}
	inv := &models.Inventory{ID: uuid.NewString(), BookID: book.ID, Threshold: models.DefaultThreshold}
	if in.Inventory != nil {
		if err := applyInventoryInput(inv, *in.Inventory); err != nil {
			return nil, err
		}
	}
	now := r.now()
	inv.LastRestockDate = &now
	inv.Refresh()

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkISBNFree(tx, book.ISBN, ""); err != nil {
			return err
		}
		if err := checkAuthor(tx, book.AuthorID); err != nil {
			return err
		}
		cats := dedupe(in.CategoryIDs)
		if err := checkCategories(tx, cats); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return err
		}
		if err := linkCategories(tx, book.ID, cats); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			return err
		}
		if models.EnteredShortage(models.InventoryAvailable, inv.Status) {
			if err := r.stockAlert(tx, book.Title, inv); err != nil {
				return err
			}
		}
		return r.writeAudit(tx, a, "create", "book", book.ID, map[string]any{
			"title": book.Title,
			"isbn":  book.ISBN,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.GetBook(ctx, book.ID)
}

type BookPatch struct {
	Title           *string         `json:"title"`
	ISBN            *string         `json:"isbn"`
	AuthorID        *string         `json:"authorId"`
	Publisher       *string         `json:"publisher"`
	PublicationDate *string         `json:"publicationDate"`
	Description     *string         `json:"description"`
	CoverImageURL   *string         `json:"coverImageUrl"`
	Price           *float64        `json:"price"`
	CostPrice       *float64        `json:"costPrice"`
	PageCount       *int            `json:"pageCount"`
	Language        *string         `json:"language"`
	CategoryIDs     *[]string       `json:"categories"`
	Inventory       *InventoryInput `json:"inventory"`
}

func (r *Repo) UpdateBook(ctx context.Context, a Actor, id string, p BookPatch) (*models.Book, error) {
	updates := map[string]any{}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, invalid("Title is required")
		}
		updates["title"] = t
	}
	if p.ISBN != nil {
		if !models.ValidISBN(*p.ISBN) {
			return nil, ErrInvalidISBN
		}
		updates["isbn"] = models.NormalizeISBN(*p.ISBN)
	}
	if p.AuthorID != nil {
		updates["author_id"] = nonEmpty(p.AuthorID)
	}
	if p.Publisher != nil {
		updates["publisher"] = *p.Publisher
	}
	if p.PublicationDate != nil {
		d, err := optionalDay(*p.PublicationDate)
		if err != nil {
			return nil, err
		}
		updates["publication_date"] = d
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.CoverImageURL != nil {
		updates["cover_image_url"] = nonEmpty(p.CoverImageURL)
	}
	if p.Price != nil {
		if *p.Price < 0 {
			return nil, invalid("Price cannot be negative")
		}
		updates["price"] = models.RoundCents(*p.Price)
	}
	if p.CostPrice != nil {
		if *p.CostPrice < 0 {
			return nil, invalid("Price cannot be negative")
		}
		updates["cost_price"] = models.RoundCents(*p.CostPrice)
	}
	if p.PageCount != nil {
		updates["page_count"] = *p.PageCount
	}
	if p.Language != nil {
		updates["language"] = *p.Language
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if isbn, ok := updates["isbn"].(string); ok {
			if err := checkISBNFree(tx, isbn, id); err != nil {
				return err
			}
		}
		if aid, ok := updates["author_id"].(*string); ok {
			if err := checkAuthor(tx, aid); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			updates["updated_at"] = r.now()
			if err := tx.Model(&models.Book{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if p.CategoryIDs != nil {
			cats := dedupe(*p.CategoryIDs)
			if err := checkCategories(tx, cats); err != nil {
				return err
			}
			if err := tx.Where("book_id = ?", id).Delete(&models.BookCategory{}).Error; err != nil {
				return err
			}
			if err := linkCategories(tx, id, cats); err != nil {
				return err
			}
		}
		if p.Inventory != nil {
			title := book.Title
			if t, ok := updates["title"].(string); ok {
				title = t
			}
			if err := r.patchBookInventory(tx, id, title, *p.Inventory); err != nil {
				return err
			}
		}
		details := map[string]any{"title": book.Title}
		for k := range updates {
			if k != "updated_at" {
				details[k] = updates[k]
			}
		}
		return r.writeAudit(tx, a, "update", "book", id, details)
	})
	if err != nil {
		return nil, err
	}
	return r.GetBook(ctx, id)
}

// patchBookInventory 更新图书库存；给出数量时刷新补货时间
func (r *Repo) patchBookInventory(tx *gorm.DB, bookID, title string, in InventoryInput) error {
	var inv models.Inventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("book_id = ?", bookID).First(&inv).Error
	created := false
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		inv = models.Inventory{ID: uuid.NewString(), BookID: bookID, Threshold: models.DefaultThreshold, Status: models.InventoryOutOfStock}
		created = true
	default:
		return err
	}
	if err := applyInventoryInput(&inv, in); err != nil {
		return err
	}
	if in.Quantity != nil {
		now := r.now()
		inv.LastRestockDate = &now
	}
	prev := inv.Refresh()
	if created {
		err = tx.Omit(clause.Associations).Create(&inv).Error
	} else {
		err = tx.Omit(clause.Associations).Save(&inv).Error
	}
	if err != nil {
		return err
	}
	if models.EnteredShortage(prev, inv.Status) || (created && inv.Status != models.InventoryAvailable) {
		return r.stockAlert(tx, title, &inv)
	}
	return nil
}

func (r *Repo) DeleteBook(ctx context.Context, a Actor, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		var refs int64
		if err := tx.Model(&models.TransactionItem{}).Where("book_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrBookReferenced
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.Inventory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.BookCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Book{}, "id = ?", id).Error; err != nil {
			return err
		}
		return r.writeAudit(tx, a, "delete", "book", id, map[string]any{
			"title": book.Title,
			"isbn":  book.ISBN,
		})
	})
}

// BookTransactions 最近涉及该书的交易，Items 只含该书的明细
func (r *Repo) BookTransactions(ctx context.Context, bookID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var txs []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items", "book_id = ?", bookID).
		Where("id IN (?)", r.DB.Model(&models.TransactionItem{}).Select("transaction_id").Where("book_id = ?", bookID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// SetBookCover 上传封面后回写 URL
func (r *Repo) SetBookCover(ctx context.Context, a Actor, id, url string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Book{}).Where("id = ?", id).Updates(map[string]any{
			"cover_image_url": url,
			"updated_at":      r.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return r.writeAudit(tx, a, "update_cover", "book", id, map[string]any{"cover_image_url": url})
	})
}

func applyInventoryInput(inv *models.Inventory, in InventoryInput) error {
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return invalid("Quantity cannot be negative")
		}
		inv.Quantity = *in.Quantity
	}
	if in.Threshold != nil {
		if *in.Threshold < 0 {
			return invalid("Threshold cannot be negative")
		}
		inv.Threshold = *in.Threshold
	}
	if in.Location != nil {
		inv.Location = strings.TrimSpace(*in.Location)
	}
	return nil
}

func checkISBNFree(tx *gorm.DB, isbn, exceptID string) error {
	q := tx.Model(&models.Book{}).Where("isbn = ?", isbn)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateISBN
	}
	return nil
}

func checkAuthor(tx *gorm.DB, id *string) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Author{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return invalid("Author not found")
	}
	return nil
}

func linkCategories(tx *gorm.DB, bookID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.BookCategory, 0, len(ids))
	for _, cid := range ids {
		links = append(links, models.BookCategory{BookID: bookID, CategoryID: cid})
	}
	return tx.Create(&links).Error
}

func optionalDay(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDay(s)
	if err != nil {
		return nil, invalid("Invalid date %q, expected YYYY-MM-DD", s)
	}
	return &d, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
