package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/origamishop/orders/internal/domain"
	healthcheck "github.com/origamishop/orders/internal/health"
	"github.com/origamishop/orders/internal/storage/memory"
	"github.com/origamishop/orders/internal/storage/postgres"
)

// runtimeDependencies содержит хранилища, собранные под выбранный драйвер.
type runtimeDependencies struct {
	orders         domain.OrderRepository
	products       domain.ProductRepository
	outboxRepo     domain.OutboxRepository
	timelineRepo   domain.TimelineRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies инициализирует хранилища по cfg.StorageDriver.
// Для postgres подключение проверяется сразу, миграции применяются
// при включённом PostgresAutoMigrate.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case "", StorageDriverMemory:
		catalog := memory.NewProductRepository()
		logger.Info("используем in-memory хранилище")
		return runtimeDependencies{
			orders:       memory.NewOrderRepository(catalog),
			products:     catalog,
			outboxRepo:   memory.NewOutboxRepository(),
			timelineRepo: memory.NewTimelineRepository(),
		}, nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return runtimeDependencies{}, errors.New("postgres dsn is required for postgres storage driver")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("open postgres store: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("миграции postgres применены")
		}

		checker := healthcheck.NewSimpleChecker("storage", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		})

		logger.Info("используем postgres хранилище")
		return runtimeDependencies{
			orders:         postgres.NewOrderRepository(store),
			products:       postgres.NewProductRepository(store),
			outboxRepo:     postgres.NewOutboxRepository(store),
			timelineRepo:   postgres.NewTimelineRepository(store),
			storageChecker: checker,
			closeFn:        store.Close,
		}, nil

	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}
