package pickups

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/config"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/metrics"
	"github.com/valecoop/combos-backend/pkg/security"
)

// codeAttempts bounds how many times we reroll a pickup code on collision.
const codeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service issues and settles pickup tickets.
type Service struct {
	repo      Repository
	tx        txRunner
	purchases *purchases.Service
	cfg       config.PickupConfig
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewService builds a pickups service with the required dependencies.
func NewService(repo Repository, tx txRunner, purchaseSvc *purchases.Service, cfg config.PickupConfig, workflow *metrics.WorkflowMetrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if purchaseSvc == nil {
		return nil, fmt.Errorf("purchases service required")
	}
	if cfg.LeadDays <= 0 {
		cfg.LeadDays = 1
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 8
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		purchases: purchaseSvc,
		cfg:       cfg,
		metrics:   workflow,
		now:       time.Now,
	}, nil
}

// ScheduleTx issues the pickup ticket for a paid purchase inside the caller's
// transaction. The buyer's kind decides which collection line the ticket
// joins. A purchase can only ever hold one ticket.
func (s *Service) ScheduleTx(ctx context.Context, tx *gorm.DB, compra *models.Compra, kind enums.UserKind) (*models.Retiro, error) {
	repo := s.repo.WithTx(tx)

	if existing, err := repo.FindByCompra(ctx, compra.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyScheduled, "purchase already has a pickup ticket").
			WithDetails(map[string]any{"numero_retiro": existing.NumeroRetiro})
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fechaRetiro := s.now().UTC().AddDate(0, 0, s.cfg.LeadDays)
	fecha := fechaRetiro.Format("2006-01-02")

	numeroCola, err := repo.ClaimQueueNumber(ctx, fecha)
	if err != nil {
		return nil, err
	}

	numero, err := s.uniqueCode(ctx, repo)
	if err != nil {
		return nil, err
	}

	retiro := &models.Retiro{
		ID:           uuid.New(),
		CompraID:     compra.ID,
		NumeroRetiro: numero,
		NumeroCola:   numeroCola,
		TipoCola:     kind.QueueType(),
		FechaRetiro:  fechaRetiro,
		Status:       enums.PickupStatusProgramado,
	}
	if _, err := repo.Create(ctx, retiro); err != nil {
		return nil, err
	}
	s.metrics.IncTicketIssued(retiro.TipoCola.String())
	return retiro, nil
}

// uniqueCode rerolls until the generated code is not already taken. With an
// 8-character alphanumeric space collisions are essentially theoretical, but
// the ticket number is shown at the collection desk so we check anyway.
func (s *Service) uniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := security.GenerateCode(s.cfg.CodeLength)
		if err != nil {
			return "", err
		}
		_, err = repo.FindByNumero(ctx, code)
		if err == gorm.ErrRecordNotFound {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a pickup code")
}

// GetByCompra returns the ticket for a purchase the caller may already see.
// Ownership of the purchase is checked by the purchases service.
func (s *Service) GetByCompra(ctx context.Context, compraID uuid.UUID, actorID uuid.UUID, role enums.UserRole) (*models.Retiro, error) {
	if _, err := s.purchases.Get(ctx, compraID, actorID, role); err != nil {
		return nil, err
	}
	retiro, err := s.repo.FindByCompra(ctx, compraID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase has no pickup ticket")
		}
		return nil, err
	}
	return retiro, nil
}

// GetByNumero looks a ticket up by its code, for the collection desk.
func (s *Service) GetByNumero(ctx context.Context, numero string) (*models.Retiro, error) {
	retiro, err := s.repo.FindByNumero(ctx, numero)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup ticket not found")
		}
		return nil, err
	}
	return retiro, nil
}

// MarkCollected settles a ticket when the member collects the combo. The
// purchase completes in the same transaction.
func (s *Service) MarkCollected(ctx context.Context, numero string, actorID uuid.UUID, role enums.UserRole) (*models.Retiro, error) {
	retiro, err := s.GetByNumero(ctx, numero)
	if err != nil {
		return nil, err
	}
	if retiro.Status != enums.PickupStatusProgramado {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "pickup ticket is not pending collection").
			WithDetails(map[string]any{"from": retiro.Status, "to": enums.PickupStatusRetirado})
	}

	compra, err := s.purchases.Get(ctx, retiro.CompraID, actorID, role)
	if err != nil {
		return nil, err
	}

	collectedAt := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).UpdateStatus(ctx, retiro.ID, enums.PickupStatusProgramado, enums.PickupStatusRetirado, map[string]any{
			"collected_at": collectedAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "pickup ticket was settled concurrently")
		}
		return s.purchases.TransitionTx(ctx, tx, compra, enums.PurchaseStatusCompletada, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByNumero(ctx, numero)
}

// ExpireNoShows flags tickets whose pickup date has passed without collection.
// Only tickets dated before the current day are affected, so a member keeps
// the whole pickup day to show up. Intended for the cron worker.
func (s *Service) ExpireNoShows(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.MarkNoShows(ctx, cutoff)
}
