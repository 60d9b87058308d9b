package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
)

// Repository defines persistence operations for the combo catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProducto(ctx context.Context, producto *models.Producto) (*models.Producto, error)
	FindProductoByID(ctx context.Context, id uuid.UUID) (*models.Producto, error)
	ListProductos(ctx context.Context) ([]models.Producto, error)
	CreateCombo(ctx context.Context, combo *models.Combo) (*models.Combo, error)
	FindComboByID(ctx context.Context, id uuid.UUID) (*models.Combo, error)
	ListCombos(ctx context.Context, onlyAvailable bool) ([]models.Combo, error)
	SetDisponible(ctx context.Context, id uuid.UUID, disponible bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProducto(ctx context.Context, producto *models.Producto) (*models.Producto, error) {
	if err := r.db.WithContext(ctx).Create(producto).Error; err != nil {
		return nil, err
	}
	return producto, nil
}

func (r *repository) FindProductoByID(ctx context.Context, id uuid.UUID) (*models.Producto, error) {
	var producto models.Producto
	if err := r.db.WithContext(ctx).First(&producto, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &producto, nil
}

func (r *repository) ListProductos(ctx context.Context) ([]models.Producto, error) {
	var productos []models.Producto
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&productos).Error; err != nil {
		return nil, err
	}
	return productos, nil
}

func (r *repository) CreateCombo(ctx context.Context, combo *models.Combo) (*models.Combo, error) {
	if err := r.db.WithContext(ctx).Create(combo).Error; err != nil {
		return nil, err
	}
	return combo, nil
}

func (r *repository) FindComboByID(ctx context.Context, id uuid.UUID) (*models.Combo, error) {
	var combo models.Combo
	err := r.db.WithContext(ctx).
		Preload("Productos").
		Preload("Productos.Producto").
		First(&combo, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &combo, nil
}

func (r *repository) ListCombos(ctx context.Context, onlyAvailable bool) ([]models.Combo, error) {
	query := r.db.WithContext(ctx).
		Preload("Productos").
		Preload("Productos.Producto").
		Order("created_at DESC")
	if onlyAvailable {
		query = query.Where("disponible = ?", true)
	}
	var combos []models.Combo
	if err := query.Find(&combos).Error; err != nil {
		return nil, err
	}
	return combos, nil
}

func (r *repository) SetDisponible(ctx context.Context, id uuid.UUID, disponible bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Combo{}).
		Where("id = ?", id).
		Update("disponible", disponible)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
