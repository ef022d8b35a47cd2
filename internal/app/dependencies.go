package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/storage/memory"
	"github.com/AndresRojas2002/library-manager/internal/storage/postgres"
	"github.com/AndresRojas2002/library-manager/internal/storage/sqlite"
)

// Dependencies содержит подключённое хранилище приложения.
type Dependencies struct {
	Books    domain.BookRepository
	Users    domain.UserRepository
	Loans    domain.LoanRepository
	Store    domain.AtomicStore
	Outbox   domain.OutboxRepository
	Timeline domain.TimelineRepository
	Logger   *log.Entry

	// Ping проверяет доступность хранилища; nil для in-memory.
	Ping func(ctx context.Context) error

	closeFn func() error
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// NewDependencies подключает хранилище согласно конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		store := memory.NewStore()
		logger.Info("using in-memory storage")
		return &Dependencies{
			Books:    store.Books(),
			Users:    store.Users(),
			Loans:    store.Loans(),
			Store:    store,
			Outbox:   memory.NewOutboxRepository(),
			Timeline: memory.NewTimelineRepository(),
			Logger:   logger,
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return &Dependencies{
			Books:    postgres.NewBookRepository(store),
			Users:    postgres.NewUserRepository(store),
			Loans:    postgres.NewLoanRepository(store),
			Store:    store,
			Outbox:   postgres.NewOutboxRepository(store),
			Timeline: postgres.NewTimelineRepository(store),
			Logger:   logger,
			Ping:     store.Ping,
			closeFn:  store.Close,
		}, nil

	case StorageDriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		logger.WithField("path", cfg.SQLitePath).Info("using sqlite storage")
		return &Dependencies{
			Books:    sqlite.NewBookRepository(store),
			Users:    sqlite.NewUserRepository(store),
			Loans:    sqlite.NewLoanRepository(store),
			Store:    store,
			Outbox:   sqlite.NewOutboxRepository(store),
			Timeline: sqlite.NewTimelineRepository(store),
			Logger:   logger,
			Ping:     store.Ping,
			closeFn:  store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}
