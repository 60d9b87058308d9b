package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the available count per product.
type InventoryItem struct {
	ProductoID   uuid.UUID `gorm:"column:producto_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
