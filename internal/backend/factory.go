package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbook/internal/store/memory"
	"budgetbook/internal/store/postgres"
	"budgetbook/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryStore()
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryStore() (*Result, error) {
	st := memory.New()

	f.logger.Info("Initialized memory store")

	return &Result{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*Result, error) {
	st, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (*Result, error) {
	st, err := postgres.New(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres store")

	return &Result{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}
