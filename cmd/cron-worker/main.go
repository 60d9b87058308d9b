package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/valecoop/combos-backend/internal/catalog"
	"github.com/valecoop/combos-backend/internal/cron"
	"github.com/valecoop/combos-backend/internal/inventory"
	"github.com/valecoop/combos-backend/internal/notifications"
	"github.com/valecoop/combos-backend/internal/pickups"
	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/config"
	"github.com/valecoop/combos-backend/pkg/db"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/metrics"
	"github.com/valecoop/combos-backend/pkg/migrate"
	"github.com/valecoop/combos-backend/pkg/redis"
)

const lockKeyFormat = "cc:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), inventorySvc)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	purchaseSvc, err := purchases.NewService(purchases.NewRepository(dbClient.DB()), dbClient, catalogSvc, workflowMetrics)
	if err != nil {
		return nil, fmt.Errorf("purchases service: %w", err)
	}

	pickupSvc, err := pickups.NewService(pickups.NewRepository(dbClient.DB()), dbClient, purchaseSvc, cfg.Pickup, workflowMetrics)
	if err != nil {
		return nil, fmt.Errorf("pickups service: %w", err)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	workflowJob, err := cron.NewWorkflowTTLJob(cron.WorkflowTTLJobParams{
		Logger:    logg,
		Purchases: purchaseSvc,
		Pickups:   pickupSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow ttl job: %w", err)
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationsService,
	})
	if err != nil {
		return nil, fmt.Errorf("notification cleanup job: %w", err)
	}

	return []cron.Job{workflowJob, cleanupJob}, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
