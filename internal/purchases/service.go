package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/metrics"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type admissionGate interface {
	Admission(ctx context.Context, comboID uuid.UUID) (*models.Combo, error)
}

// CreateInput carries the data needed to open a purchase.
type CreateInput struct {
	CompradorID uuid.UUID
	ComboID     uuid.UUID
}

// CancelInput identifies the purchase to cancel and who asked for it.
type CancelInput struct {
	CompraID    uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// Service drives the purchase lifecycle.
type Service struct {
	repo    Repository
	tx      txRunner
	gate    admissionGate
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService builds a purchases service with the required dependencies.
func NewService(repo Repository, tx txRunner, gate admissionGate, workflow *metrics.WorkflowMetrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gate == nil {
		return nil, fmt.Errorf("admission gate required")
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		gate:    gate,
		metrics: workflow,
		now:     time.Now,
	}, nil
}

// Create opens a purchase for a combo, snapshotting the combo contents.
// A buyer can only hold one purchase that is still awaiting payment.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Compra, error) {
	if input.CompradorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ComboID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo id required")
	}

	combo, err := s.gate.Admission(ctx, input.ComboID)
	if err != nil {
		return nil, err
	}

	if open, err := s.repo.FindOpenByBuyer(ctx, input.CompradorID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "buyer already has an open purchase").
			WithDetails(map[string]any{"compra_id": open.ID})
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	compra := &models.Compra{
		ID:          uuid.New(),
		CompradorID: input.CompradorID,
		ComboID:     combo.ID,
		Status:      enums.PurchaseStatusPendientePago,
		Total:       combo.Precio,
	}
	for _, line := range combo.Productos {
		nombre := ""
		if line.Producto != nil {
			nombre = line.Producto.Nombre
		}
		compra.Items = append(compra.Items, models.CompraItem{
			ID:         uuid.New(),
			CompraID:   compra.ID,
			ProductoID: line.ProductoID,
			Nombre:     nombre,
			Cantidad:   line.Cantidad,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, compra)
		return err
	})
	if err != nil {
		return nil, err
	}
	return compra, nil
}

// Get loads a purchase, restricting buyers to their own records.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actorID uuid.UUID, role enums.UserRole) (*models.Compra, error) {
	compra, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, err
	}
	if compra.CompradorID != actorID && !role.CanVerifyPayments() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase belongs to another member")
	}
	return compra, nil
}

// ListMine returns the buyer's purchase history.
func (s *Service) ListMine(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// List returns purchases for staff, optionally filtered by status.
func (s *Service) List(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*PurchaseList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.repo.List(ctx, params, status)
}

// Cancel moves an open purchase to cancelada. Buyers can cancel their own
// purchases; admins can cancel anyone's.
func (s *Service) Cancel(ctx context.Context, input CancelInput) (*models.Compra, error) {
	for attempt := 0; ; attempt++ {
		compra, err := s.repo.FindByID(ctx, input.CompraID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return nil, err
		}
		if compra.CompradorID != input.ActorUserID && input.ActorRole != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase belongs to another member")
		}
		if !CanTransition(compra.Status, enums.PurchaseStatusCancelada) {
			return nil, invalidTransition(compra.Status, enums.PurchaseStatusCancelada)
		}

		now := s.now().UTC()
		var swapped bool
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.repo.WithTx(tx).UpdateStatusCAS(ctx, compra.ID, compra.LockVersion, map[string]any{
				"status":      enums.PurchaseStatusCancelada,
				"canceled_at": now,
			})
			if err != nil {
				return err
			}
			swapped = ok
			return nil
		})
		if err != nil {
			return nil, err
		}
		if swapped {
			s.metrics.IncTransition(compra.Status.String(), enums.PurchaseStatusCancelada.String())
			return s.repo.FindByID(ctx, compra.ID)
		}
		if attempt >= 1 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "purchase was modified concurrently, retry")
		}
	}
}

// ExpireStalePending cancels purchases left unpaid for longer than olderThan.
// Intended for the cron worker.
func (s *Service) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.now().UTC()
	return s.repo.CancelStalePending(ctx, now.Add(-olderThan), now)
}

// TransitionTx applies a status change inside the caller's transaction using
// the purchase's lock version. Callers own retry policy.
func (s *Service) TransitionTx(ctx context.Context, tx *gorm.DB, compra *models.Compra, to enums.PurchaseStatus, extra map[string]any) error {
	if !CanTransition(compra.Status, to) {
		return invalidTransition(compra.Status, to)
	}
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	ok, err := s.repo.WithTx(tx).UpdateStatusCAS(ctx, compra.ID, compra.LockVersion, updates)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "purchase was modified concurrently, retry")
	}
	s.metrics.IncTransition(compra.Status.String(), to.String())
	return nil
}
