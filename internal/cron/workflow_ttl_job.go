package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/valecoop/combos-backend/pkg/logger"
)

const defaultStalePurchaseDays = 7

// WorkflowTTLJobParams configure the purchase workflow sweeper.
type WorkflowTTLJobParams struct {
	Logger    *logger.Logger
	Purchases stalePurchaseCanceler
	Pickups   noShowFlagger
	StaleDays int
}

type stalePurchaseCanceler interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type noShowFlagger interface {
	ExpireNoShows(ctx context.Context) (int64, error)
}

// NewWorkflowTTLJob builds the cron job that cancels abandoned purchases and
// flags uncollected pickup tickets.
func NewWorkflowTTLJob(params WorkflowTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchases service required")
	}
	if params.Pickups == nil {
		return nil, fmt.Errorf("pickups service required")
	}
	staleDays := params.StaleDays
	if staleDays <= 0 {
		staleDays = defaultStalePurchaseDays
	}
	return &workflowTTLJob{
		logg:      params.Logger,
		purchases: params.Purchases,
		pickups:   params.Pickups,
		staleDays: staleDays,
	}, nil
}

type workflowTTLJob struct {
	logg      *logger.Logger
	purchases stalePurchaseCanceler
	pickups   noShowFlagger
	staleDays int
}

func (j *workflowTTLJob) Name() string { return "workflow-ttl" }

func (j *workflowTTLJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.cancelStalePurchases(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.flagNoShows(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *workflowTTLJob) cancelStalePurchases(ctx context.Context) error {
	canceled, err := j.purchases.ExpireStalePending(ctx, time.Duration(j.staleDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("cancel stale purchases: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_days": j.staleDays,
		"canceled":   canceled,
	})
	j.logg.Info(logCtx, "stale purchase sweep complete")
	return nil
}

func (j *workflowTTLJob) flagNoShows(ctx context.Context) error {
	flagged, err := j.pickups.ExpireNoShows(ctx)
	if err != nil {
		return fmt.Errorf("flag no-show pickups: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"flagged": flagged})
	j.logg.Info(logCtx, "pickup no-show sweep complete")
	return nil
}
