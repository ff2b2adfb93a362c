package db

import (
	"Gin_postgres_redis_library_dashboard/models"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var inventorySortColumns = map[string]bool{"quantity": true, "updated_at": true, "last_restock_date": true}

type InventoryQuery struct {
	Search    string
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

func (r *Repo) ListInventory(ctx context.Context, q InventoryQuery) (Page[models.Inventory], error) {
	page, size := clampPage(q.Page, q.Size, 10)
	tx := r.DB.WithContext(ctx).Model(&models.Inventory{})
	if models.ValidInventoryStatus(q.Status) {
		tx = tx.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pat := likePattern(s)
		tx = tx.Where("book_id IN (?)", r.DB.Model(&models.Book{}).
			Select("id").Where("LOWER(title) LIKE ? OR LOWER(isbn) LIKE ?", pat, pat))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[models.Inventory]{}, err
	}
	var rows []models.Inventory
	err := paged(tx.Preload("Book").Preload("Book.Author").
		Order(orderBy(inventorySortColumns, q.SortBy, "updated_at", q.SortOrder, "desc")), page, size, &rows)
	if err != nil {
		return Page[models.Inventory]{}, err
	}
	return Page[models.Inventory]{Total: total, Page: page, Size: size, Items: rows}, nil
}

func (r *Repo) GetInventoryItem(ctx context.Context, id string) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.DB.WithContext(ctx).Preload("Book").Preload("Book.Author").First(&inv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *Repo) LowStockItems(ctx context.Context, limit int) ([]models.Inventory, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.Inventory
	err := r.DB.WithContext(ctx).
		Preload("Book").
		Where("status = ?", models.InventoryLowStock).
		Order("quantity ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UpdateInventoryItem 覆盖数量/位置/阈值并重新计算状态
func (r *Repo) UpdateInventoryItem(ctx context.Context, a Actor, id string, in InventoryInput) (*models.Inventory, error) {
	err := r.mutateInventory(ctx, a, id, "update_inventory", func(inv *models.Inventory) error {
		return applyInventoryInput(inv, in)
	})
	if err != nil {
		return nil, err
	}
	return r.GetInventoryItem(ctx, id)
}

// RestockInventoryItem 数量增加 delta，并记录补货时间
func (r *Repo) RestockInventoryItem(ctx context.Context, a Actor, id string, delta int) (*models.Inventory, error) {
	if delta <= 0 {
		return nil, invalid("Restock quantity must be positive")
	}
	err := r.mutateInventory(ctx, a, id, "restock_inventory", func(inv *models.Inventory) error {
		inv.Quantity += delta
		now := r.now()
		inv.LastRestockDate = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetInventoryItem(ctx, id)
}

// SetInventoryQuantity 直接设置数量，阈值不变
func (r *Repo) SetInventoryQuantity(ctx context.Context, a Actor, id string, quantity int) (*models.Inventory, error) {
	if quantity < 0 {
		return nil, invalid("Quantity cannot be negative")
	}
	err := r.mutateInventory(ctx, a, id, "update_inventory_quantity", func(inv *models.Inventory) error {
		inv.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetInventoryItem(ctx, id)
}

func (r *Repo) mutateInventory(ctx context.Context, a Actor, id, action string, fn func(*models.Inventory) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		before := inv.Quantity
		if err := fn(&inv); err != nil {
			return err
		}
		prev := inv.Refresh()
		if err := tx.Omit(clause.Associations).Save(&inv).Error; err != nil {
			return err
		}
		if models.EnteredShortage(prev, inv.Status) {
			var book models.Book
			if err := tx.Select("title").First(&book, "id = ?", inv.BookID).Error; err != nil {
				return err
			}
			if err := r.stockAlert(tx, book.Title, &inv); err != nil {
				return err
			}
		}
		return r.writeAudit(tx, a, action, "inventory", inv.ID, map[string]any{
			"book_id":           inv.BookID,
			"previous_quantity": before,
			"quantity":          inv.Quantity,
			"threshold":         inv.Threshold,
			"status":            inv.Status,
		})
	})
}

// adjustStock 交易完成/撤销时调整库存；数量不低于 0
func (r *Repo) adjustStock(tx *gorm.DB, a Actor, bookID, title string, delta int, note string) error {
	var inv models.Inventory
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("book_id = ?", bookID).First(&inv).Error; err != nil {
		return fmt.Errorf("inventory for book %s: %w", bookID, notFound(err))
	}
	before := inv.Quantity
	inv.Quantity += delta
	if inv.Quantity < 0 {
		inv.Quantity = 0
	}
	prev := inv.Refresh()
	if err := tx.Omit(clause.Associations).Save(&inv).Error; err != nil {
		return err
	}
	if models.EnteredShortage(prev, inv.Status) {
		if err := r.stockAlert(tx, title, &inv); err != nil {
			return err
		}
	}
	return r.writeAudit(tx, a, "update_inventory", "inventory", inv.ID, map[string]any{
		"book_id":           bookID,
		"previous_quantity": before,
		"quantity":          inv.Quantity,
		"note":              note,
	})
}

func (r *Repo) stockAlert(tx *gorm.DB, title string, inv *models.Inventory) error {
	switch inv.Status {
	case models.InventoryOutOfStock:
		return r.notifyStaff(tx, "Out of Stock", fmt.Sprintf("%q is out of stock.", title))
	case models.InventoryLowStock:
		return r.notifyStaff(tx, "Low Stock Alert",
			fmt.Sprintf("%q is running low: %d left (threshold %d).", title, inv.Quantity, inv.Threshold))
	}
	return nil
}
