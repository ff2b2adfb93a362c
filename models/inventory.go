package models

import "time"

const InventoryTable = "inventory"

const (
	InventoryAvailable  = "available"
	InventoryLowStock   = "low_stock"
	InventoryOutOfStock = "out_of_stock"
)

const DefaultThreshold = 5

// InventoryStatusFor 库存状态完全由数量与阈值推导
func InventoryStatusFor(quantity, threshold int) string {
	switch {
	case quantity <= 0:
		return InventoryOutOfStock
	case quantity <= threshold:
		return InventoryLowStock
	default:
		return InventoryAvailable
	}
}

func ValidInventoryStatus(s string) bool {
	switch s {
	case InventoryAvailable, InventoryLowStock, InventoryOutOfStock:
		return true
	}
	return false
}

type Inventory struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	BookID          string     `gorm:"type:uuid;uniqueIndex;not null" json:"bookId"`
	Quantity        int        `gorm:"not null" json:"quantity"`
	Location        string     `gorm:"size:100" json:"location"`
	Status          string     `gorm:"size:20;not null;index;check:chk_inventory_status,status IN ('available','low_stock','out_of_stock')" json:"status"`
	Threshold       int        `gorm:"not null" json:"threshold"`
	LastRestockDate *time.Time `json:"lastRestockDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"index" json:"updatedAt"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
}

func (Inventory) TableName() string { return InventoryTable }

// Refresh 重新计算 Status，返回旧值
func (i *Inventory) Refresh() (previous string) {
	previous = i.Status
	i.Status = InventoryStatusFor(i.Quantity, i.Threshold)
	return previous
}

// EnteredShortage 状态刚变为 low_stock 或 out_of_stock 时为 true
func EnteredShortage(previous, current string) bool {
	if previous == current {
		return false
	}
	return current == InventoryLowStock || current == InventoryOutOfStock
}
