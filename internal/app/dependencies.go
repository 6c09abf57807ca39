package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/breaktime/internal/health"
	"github.com/vladislavdragonenkov/breaktime/internal/storage/memory"
	"github.com/vladislavdragonenkov/breaktime/internal/storage/postgres"
)

const storagePingTimeout = 2 * time.Second

// runtimeDependencies содержит хранилища, выбранные по конфигурации.
type runtimeDependencies struct {
	repo           domain.OrderRepository
	outboxRepo     domain.OutboxRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies создаёт репозитории для выбранного драйвера хранилища.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return runtimeDependencies{
			repo:       memory.NewOrderRepository(),
			outboxRepo: memory.NewOutboxRepository(),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres storage requires %s", EnvPostgresDSN)
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		logger.Info("using postgres storage")
		return runtimeDependencies{
			repo:           postgres.NewOrderRepository(store),
			outboxRepo:     postgres.NewOutboxRepository(store),
			storageChecker: healthcheck.NewPingChecker("postgres", store.Ping, storagePingTimeout),
			closeFn:        store.Close,
		}, nil
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
