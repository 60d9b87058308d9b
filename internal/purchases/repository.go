package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

// PurchaseList is a cursor-paginated page of purchases.
type PurchaseList struct {
	Items      []models.Compra
	NextCursor *string
}

// Repository defines persistence operations for purchases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, compra *models.Compra) (*models.Compra, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Compra, error)
	FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Compra, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error)
	List(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*PurchaseList, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, lockVersion int, updates map[string]any) (bool, error)
	CancelStalePending(ctx context.Context, cutoff time.Time, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, compra *models.Compra) (*models.Compra, error) {
	if err := r.db.WithContext(ctx).Create(compra).Error; err != nil {
		return nil, err
	}
	return compra, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Compra, error) {
	var compra models.Compra
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Pagos").
		Preload("Retiro").
		First(&compra, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &compra, nil
}

func (r *repository) FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Compra, error) {
	var compra models.Compra
	err := r.db.WithContext(ctx).
		Where("comprador_id = ? AND status IN ?", buyerID, []enums.PurchaseStatus{
			enums.PurchaseStatusPendientePago,
			enums.PurchaseStatusPagoVerificando,
		}).
		Order("created_at DESC").
		First(&compra).Error
	if err != nil {
		return nil, err
	}
	return &compra, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error) {
	var compras []models.Compra
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Pagos").
		Preload("Retiro").
		Where("comprador_id = ?", buyerID).
		Order("created_at DESC").
		Find(&compras).Error
	if err != nil {
		return nil, err
	}
	return compras, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*PurchaseList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Pagos").
		Preload("Retiro").
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var compras []models.Compra
	if err := query.Find(&compras).Error; err != nil {
		return nil, err
	}

	list := &PurchaseList{}
	if len(compras) > limit {
		compras = compras[:limit]
		last := compras[len(compras)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	list.Items = compras
	return list, nil
}

func (r *repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, lockVersion int, updates map[string]any) (bool, error) {
	merged := map[string]any{"lock_version": lockVersion + 1}
	for k, v := range updates {
		merged[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Compra{}).
		Where("id = ? AND lock_version = ?", id, lockVersion).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelStalePending bulk-cancels purchases that sat in pendiente_pago past
// the cutoff. The version bump keeps concurrent CAS writers honest.
func (r *repository) CancelStalePending(ctx context.Context, cutoff time.Time, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Compra{}).
		Where("status = ? AND created_at < ?", enums.PurchaseStatusPendientePago, cutoff).
		Updates(map[string]any{
			"status":       enums.PurchaseStatusCancelada,
			"canceled_at":  at,
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
