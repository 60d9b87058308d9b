package pickups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
)

// Repository defines persistence operations for pickup tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, retiro *models.Retiro) (*models.Retiro, error)
	FindByCompra(ctx context.Context, compraID uuid.UUID) (*models.Retiro, error)
	FindByNumero(ctx context.Context, numero string) (*models.Retiro, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, extra map[string]any) (bool, error)
	ClaimQueueNumber(ctx context.Context, fecha string) (int, error)
	MarkNoShows(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pickups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, retiro *models.Retiro) (*models.Retiro, error) {
	if err := r.db.WithContext(ctx).Create(retiro).Error; err != nil {
		return nil, err
	}
	return retiro, nil
}

func (r *repository) FindByCompra(ctx context.Context, compraID uuid.UUID) (*models.Retiro, error) {
	var retiro models.Retiro
	err := r.db.WithContext(ctx).First(&retiro, "compra_id = ?", compraID).Error
	if err != nil {
		return nil, err
	}
	return &retiro, nil
}

func (r *repository) FindByNumero(ctx context.Context, numero string) (*models.Retiro, error) {
	var retiro models.Retiro
	err := r.db.WithContext(ctx).First(&retiro, "numero_retiro = ?", numero).Error
	if err != nil {
		return nil, err
	}
	return &retiro, nil
}

// UpdateStatus flips a ticket between states, guarding on the expected current
// state so concurrent desks cannot double-apply a transition.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Retiro{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimQueueNumber atomically increments and returns the per-day counter for
// the given pickup date. Numbers start at 1 and are contiguous within a day.
func (r *repository) ClaimQueueNumber(ctx context.Context, fecha string) (int, error) {
	var siguiente int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO pickup_queue_counters (fecha, siguiente, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT (fecha) DO UPDATE
		SET siguiente = pickup_queue_counters.siguiente + 1, updated_at = excluded.updated_at
		RETURNING siguiente`,
		fecha, time.Now().UTC(),
	).Scan(&siguiente).Error
	if err != nil {
		return 0, err
	}
	return siguiente, nil
}

func (r *repository) MarkNoShows(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retiro{}).
		Where("status = ? AND fecha_retiro < ?", enums.PickupStatusProgramado, cutoff).
		Update("status", enums.PickupStatusNoPresentado)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
