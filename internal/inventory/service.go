package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
)

// ConsumeItem names a product and the quantity to deduct from stock.
type ConsumeItem struct {
	ProductoID uuid.UUID
	Cantidad   int
}

// Service coordinates stock reads and the floored deduction applied when a
// payment is approved.
type Service struct {
	repo *Repository
}

// NewService builds an inventory service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Service{repo: repo}, nil
}

// Set writes the available quantity for a product.
func (s *Service) Set(ctx context.Context, productoID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if qty < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}
	return s.repo.Upsert(ctx, &models.InventoryItem{ProductoID: productoID, AvailableQty: qty})
}

// Get loads the inventory row for a product.
func (s *Service) Get(ctx context.Context, productoID uuid.UUID) (*models.InventoryItem, error) {
	return s.repo.FindByProductoID(ctx, productoID)
}

// List returns all inventory rows.
func (s *Service) List(ctx context.Context) ([]models.InventoryItem, error) {
	return s.repo.List(ctx)
}

// Available returns the stock on hand for a product, zero when untracked.
func (s *Service) Available(ctx context.Context, productoID uuid.UUID) (int, error) {
	item, err := s.repo.FindByProductoID(ctx, productoID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return item.AvailableQty, nil
}

// Consume deducts the given quantities inside the caller's transaction.
// Stock never goes below zero; shortfalls deplete the row to zero instead.
func Consume(ctx context.Context, tx *gorm.DB, items []ConsumeItem) error {
	for _, item := range items {
		if item.Cantidad <= 0 {
			continue
		}
		err := tx.WithContext(ctx).Exec(`
UPDATE inventory_items
SET available_qty = CASE
      WHEN available_qty >= ? THEN available_qty - ?
      ELSE 0
    END
WHERE producto_id = ?`, item.Cantidad, item.Cantidad, item.ProductoID).Error
		if err != nil {
			return fmt.Errorf("consume inventory for product %s: %w", item.ProductoID, err)
		}
	}
	return nil
}
