package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/valecoop/combos-backend/pkg/db/models"
)

// Repository exposes inventory persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Upsert writes the available quantity for a product, inserting on first use.
func (r *Repository) Upsert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "producto_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available_qty", "updated_at"}),
		}).
		Create(item).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindByProductoID loads the inventory row for a product.
func (r *Repository) FindByProductoID(ctx context.Context, productoID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "producto_id = ?", productoID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns all inventory rows.
func (r *Repository) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("producto_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
