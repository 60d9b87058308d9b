package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

// PaymentList is a cursor-paginated page of reported payments.
type PaymentList struct {
	Items      []models.Pago
	NextCursor *string
}

// Repository defines persistence operations for reported payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pago *models.Pago) (*models.Pago, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pago, error)
	ListByCompra(ctx context.Context, compraID uuid.UUID) ([]models.Pago, error)
	ListPending(ctx context.Context, params pagination.Params) (*PaymentList, error)
	UpdateDecision(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pago *models.Pago) (*models.Pago, error) {
	if err := r.db.WithContext(ctx).Create(pago).Error; err != nil {
		return nil, err
	}
	return pago, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pago, error) {
	var pago models.Pago
	if err := r.db.WithContext(ctx).First(&pago, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pago, nil
}

func (r *repository) ListByCompra(ctx context.Context, compraID uuid.UUID) ([]models.Pago, error) {
	var pagos []models.Pago
	err := r.db.WithContext(ctx).
		Where("compra_id = ?", compraID).
		Order("created_at DESC").
		Find(&pagos).Error
	if err != nil {
		return nil, err
	}
	return pagos, nil
}

func (r *repository) ListPending(ctx context.Context, params pagination.Params) (*PaymentList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	// oldest reports first so the queue is worked in arrival order
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.PaymentStatusPendiente).
		Order("created_at ASC, id ASC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at > ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var pagos []models.Pago
	if err := query.Find(&pagos).Error; err != nil {
		return nil, err
	}

	list := &PaymentList{}
	if len(pagos) > limit {
		pagos = pagos[:limit]
		last := pagos[len(pagos)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	list.Items = pagos
	return list, nil
}

// UpdateDecision records the staff decision, guarding on the payment still
// being pendiente so two verifiers cannot both settle it.
func (r *repository) UpdateDecision(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pago{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPendiente).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
