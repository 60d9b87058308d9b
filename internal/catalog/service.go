package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
)

// ReasonComboDisabled marks an admission rejection for a disabled combo.
const ReasonComboDisabled = "combo_disabled"

// ReasonInsufficientStock marks an admission rejection for missing stock.
const ReasonInsufficientStock = "insufficient_stock"

type stockReader interface {
	Available(ctx context.Context, productoID uuid.UUID) (int, error)
}

// CreateProductoInput carries the fields needed to register a product.
type CreateProductoInput struct {
	Nombre      string
	Descripcion *string
	Unidad      string
}

// ComboItemInput names a product and quantity inside a combo definition.
type ComboItemInput struct {
	ProductoID uuid.UUID
	Cantidad   int
}

// CreateComboInput carries the fields needed to publish a combo.
type CreateComboInput struct {
	Nombre      string
	Descripcion *string
	Precio      decimal.Decimal
	Items       []ComboItemInput
}

// Service exposes catalog reads plus the admission gate used by purchases.
type Service struct {
	repo  Repository
	stock stockReader
}

// NewService builds a catalog service.
func NewService(repo Repository, stock stockReader) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &Service{repo: repo, stock: stock}, nil
}

// ListCombos returns the catalog, restricted to available combos for members.
func (s *Service) ListCombos(ctx context.Context, includeUnavailable bool) ([]models.Combo, error) {
	return s.repo.ListCombos(ctx, !includeUnavailable)
}

// GetCombo loads a combo with its product lines.
func (s *Service) GetCombo(ctx context.Context, id uuid.UUID) (*models.Combo, error) {
	combo, err := s.repo.FindComboByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "combo not found")
		}
		return nil, err
	}
	return combo, nil
}

// CreateProducto registers a catalog product.
func (s *Service) CreateProducto(ctx context.Context, input CreateProductoInput) (*models.Producto, error) {
	if input.Nombre == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre required")
	}
	producto := &models.Producto{
		ID:          uuid.New(),
		Nombre:      input.Nombre,
		Descripcion: input.Descripcion,
		IsActive:    true,
	}
	if input.Unidad != "" {
		producto.Unidad = input.Unidad
	} else {
		producto.Unidad = "unidad"
	}
	return s.repo.CreateProducto(ctx, producto)
}

// ListProductos returns all catalog products.
func (s *Service) ListProductos(ctx context.Context) ([]models.Producto, error) {
	return s.repo.ListProductos(ctx)
}

// CreateCombo publishes a combo after validating its product lines.
func (s *Service) CreateCombo(ctx context.Context, input CreateComboInput) (*models.Combo, error) {
	if input.Nombre == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre required")
	}
	if input.Precio.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "precio cannot be negative")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo requires at least one product")
	}

	combo := &models.Combo{
		ID:          uuid.New(),
		Nombre:      input.Nombre,
		Descripcion: input.Descripcion,
		Precio:      input.Precio,
		Disponible:  true,
	}
	for _, item := range input.Items {
		if item.Cantidad <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cantidad must be positive")
		}
		if _, err := s.repo.FindProductoByID(ctx, item.ProductoID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown producto").
					WithDetails(map[string]any{"producto_id": item.ProductoID})
			}
			return nil, err
		}
		combo.Productos = append(combo.Productos, models.ComboProducto{
			ID:         uuid.New(),
			ComboID:    combo.ID,
			ProductoID: item.ProductoID,
			Cantidad:   item.Cantidad,
		})
	}

	return s.repo.CreateCombo(ctx, combo)
}

// SetAvailability toggles whether a combo can be purchased.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, disponible bool) error {
	if err := s.repo.SetDisponible(ctx, id, disponible); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "combo not found")
		}
		return err
	}
	return nil
}

// Admission loads the combo and checks it can be purchased right now. The
// stock check is advisory: stock is only deducted once a payment is approved.
func (s *Service) Admission(ctx context.Context, comboID uuid.UUID) (*models.Combo, error) {
	combo, err := s.GetCombo(ctx, comboID)
	if err != nil {
		return nil, err
	}
	if !combo.Disponible {
		return nil, pkgerrors.New(pkgerrors.CodeComboUnavailable, "combo is disabled").
			WithDetails(map[string]any{"reason": ReasonComboDisabled})
	}
	for _, item := range combo.Productos {
		available, err := s.stock.Available(ctx, item.ProductoID)
		if err != nil {
			return nil, err
		}
		if available < item.Cantidad {
			return nil, pkgerrors.New(pkgerrors.CodeComboUnavailable, "insufficient stock for combo").
				WithDetails(map[string]any{
					"reason":      ReasonInsufficientStock,
					"producto_id": item.ProductoID,
					"available":   available,
					"required":    item.Cantidad,
				})
		}
	}
	return combo, nil
}
