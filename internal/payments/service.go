package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/internal/inventory"
	"github.com/valecoop/combos-backend/internal/notifications"
	"github.com/valecoop/combos-backend/internal/pickups"
	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/metrics"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type kindLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RegisterInput is the buyer's report of a manual payment.
type RegisterInput struct {
	CompraID         uuid.UUID
	ActorUserID      uuid.UUID
	Metodo           enums.PaymentMethod
	NumeroReferencia string
	Monto            decimal.Decimal
	BancoOrigen      string
	TelefonoPago     string
}

// VerifyInput is the staff decision on a reported payment.
type VerifyInput struct {
	PagoID     uuid.UUID
	VerifierID uuid.UUID
	Role       enums.UserRole
	Approve    bool
	Reason     string
}

// VerifyResult carries the settled payment and, on approval, the issued ticket.
type VerifyResult struct {
	Pago   *models.Pago
	Retiro *models.Retiro
}

// Service handles payment reporting and staff verification.
type Service struct {
	repo      Repository
	tx        txRunner
	purchases *purchases.Service
	pickups   *pickups.Service
	users     kindLookup
	notifier  notifications.Service
	logg      *logger.Logger
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewService builds a payments service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	purchaseSvc *purchases.Service,
	pickupSvc *pickups.Service,
	users kindLookup,
	notifier notifications.Service,
	logg *logger.Logger,
	workflow *metrics.WorkflowMetrics,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if purchaseSvc == nil {
		return nil, fmt.Errorf("purchases service required")
	}
	if pickupSvc == nil {
		return nil, fmt.Errorf("pickups service required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		purchases: purchaseSvc,
		pickups:   pickupSvc,
		users:     users,
		notifier:  notifier,
		logg:      logg,
		metrics:   workflow,
		now:       time.Now,
	}, nil
}

// Register records a buyer-reported payment and moves the purchase into
// verification. Only the buyer can report a payment, and only while the
// purchase is still awaiting one.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.Pago, error) {
	if !input.Metodo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if strings.TrimSpace(input.NumeroReferencia) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference number required")
	}
	if !input.Monto.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	for attempt := 0; ; attempt++ {
		compra, err := s.purchases.Get(ctx, input.CompraID, input.ActorUserID, enums.UserRoleCliente)
		if err != nil {
			return nil, err
		}
		if compra.CompradorID != input.ActorUserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can report a payment")
		}
		if compra.Status != enums.PurchaseStatusPendientePago {
			return nil, pkgerrors.New(pkgerrors.CodePurchaseNotPayable, "purchase is not awaiting payment").
				WithDetails(map[string]any{"status": compra.Status})
		}
		if !input.Monto.Equal(compra.Total) {
			return nil, pkgerrors.New(pkgerrors.CodeAmountMismatch, "reported amount does not match the purchase total").
				WithDetails(map[string]any{"expected": compra.Total, "got": input.Monto})
		}

		pago := &models.Pago{
			ID:               uuid.New(),
			CompraID:         compra.ID,
			Metodo:           input.Metodo,
			NumeroReferencia: strings.TrimSpace(input.NumeroReferencia),
			Monto:            input.Monto,
			BancoOrigen:      optionalString(input.BancoOrigen),
			TelefonoPago:     optionalString(input.TelefonoPago),
			Status:           enums.PaymentStatusPendiente,
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.repo.WithTx(tx).Create(ctx, pago); err != nil {
				return err
			}
			return s.purchases.TransitionTx(ctx, tx, compra, enums.PurchaseStatusPagoVerificando, nil)
		})
		if err == nil {
			return pago, nil
		}
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) && attempt < 1 {
			continue
		}
		return nil, err
	}
}

// Verify settles a pending payment. Approval marks the purchase paid,
// decrements inventory and issues the pickup ticket in one transaction.
// Rejection sends the purchase back to pendiente_pago so the buyer can
// report again.
func (s *Service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if !input.Role.CanVerifyPayments() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment verification requires staff role")
	}
	if !input.Approve && strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	for attempt := 0; ; attempt++ {
		pago, err := s.repo.FindByID(ctx, input.PagoID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return nil, err
		}
		if pago.Status != enums.PaymentStatusPendiente {
			return nil, pkgerrors.New(pkgerrors.CodeNotPending, "payment was already settled").
				WithDetails(map[string]any{"status": pago.Status})
		}

		compra, err := s.purchases.Get(ctx, pago.CompraID, input.VerifierID, input.Role)
		if err != nil {
			return nil, err
		}

		var result *VerifyResult
		if input.Approve {
			result, err = s.approve(ctx, pago, compra, input.VerifierID)
		} else {
			result, err = s.reject(ctx, pago, compra, input.VerifierID, strings.TrimSpace(input.Reason))
		}
		if err == nil {
			return result, nil
		}
		// one fresh read on purchase contention, mirroring Register
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) && attempt < 1 {
			continue
		}
		return nil, err
	}
}

func (s *Service) approve(ctx context.Context, pago *models.Pago, compra *models.Compra, verifierID uuid.UUID) (*VerifyResult, error) {
	buyer, err := s.users.FindByID(ctx, compra.CompradorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var retiro *models.Retiro
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).UpdateDecision(ctx, pago.ID, map[string]any{
			"status":      enums.PaymentStatusAprobado,
			"verified_by": verifierID,
			"verified_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotPending, "payment was already settled")
		}

		if err := s.purchases.TransitionTx(ctx, tx, compra, enums.PurchaseStatusPagada, nil); err != nil {
			return err
		}

		items := make([]inventory.ConsumeItem, 0, len(compra.Items))
		for _, item := range compra.Items {
			items = append(items, inventory.ConsumeItem{ProductoID: item.ProductoID, Cantidad: item.Cantidad})
		}
		if err := inventory.Consume(ctx, tx, items); err != nil {
			return err
		}

		retiro, err = s.pickups.ScheduleTx(ctx, tx, compra, buyer.Kind)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision(enums.PaymentStatusAprobado.String())
	s.notify(ctx, notifications.NotifyInput{
		UserID:  compra.CompradorID,
		Type:    enums.NotificationTypeRetiroListo,
		Title:   "Pago verificado",
		Message: fmt.Sprintf("Tu pago fue aprobado. Retira tu combo con el número %s.", retiro.NumeroRetiro),
		Link:    fmt.Sprintf("/compras/%s/retiro", compra.ID),
	})

	settled, err := s.repo.FindByID(ctx, pago.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Pago: settled, Retiro: retiro}, nil
}

func (s *Service) reject(ctx context.Context, pago *models.Pago, compra *models.Compra, verifierID uuid.UUID, reason string) (*VerifyResult, error) {
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).UpdateDecision(ctx, pago.ID, map[string]any{
			"status":        enums.PaymentStatusRechazado,
			"verified_by":   verifierID,
			"verified_at":   now,
			"reject_reason": reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotPending, "payment was already settled")
		}
		return s.purchases.TransitionTx(ctx, tx, compra, enums.PurchaseStatusPendientePago, nil)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision(enums.PaymentStatusRechazado.String())
	s.notify(ctx, notifications.NotifyInput{
		UserID:  compra.CompradorID,
		Type:    enums.NotificationTypePagoRechazado,
		Title:   "Pago rechazado",
		Message: fmt.Sprintf("Tu pago fue rechazado: %s. Puedes reportarlo de nuevo.", reason),
		Link:    fmt.Sprintf("/compras/%s", compra.ID),
	})

	settled, err := s.repo.FindByID(ctx, pago.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Pago: settled}, nil
}

// notify is best effort. A lost notification must not undo a settled payment.
func (s *Service) notify(ctx context.Context, input notifications.NotifyInput) {
	if err := s.notifier.Notify(ctx, input); err != nil {
		s.logg.Error(ctx, "failed to notify buyer", err)
	}
}

// ListPending returns the verification queue for staff.
func (s *Service) ListPending(ctx context.Context, params pagination.Params, role enums.UserRole) (*PaymentList, error) {
	if !role.CanVerifyPayments() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment verification requires staff role")
	}
	return s.repo.ListPending(ctx, params)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
