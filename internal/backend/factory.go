package backend

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/amqp"
	"dompet/internal/ledger"
	"dompet/internal/ledger/memory"
	"dompet/internal/log"
	"dompet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(ctx context.Context, url, exchange, queue string, logger *log.Logger) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens the configured ledger store and, when AMQPURL is set,
// a publisher for change events. A broker that cannot be reached is logged
// and skipped; the ledger still works without it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   ledger.Store
		cleanup []func() error
	)
	switch config.Type {
	case MemoryBackend:
		mem, err := f.createMemoryStore(config)
		if err != nil {
			return nil, err
		}
		store = mem
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		store, cleanup = repo, append(cleanup, repo.Close)
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend")
		store, cleanup = repo, append(cleanup, repo.Close)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &Result{Store: store}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			// assigned only when non-nil so a missing broker leaves Publisher a nil interface
			result.Publisher = client
			cleanup = append(cleanup, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP publisher",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanup) - 1; i >= 0; i-- {
			errs = append(errs, cleanup[i]())
		}
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*memory.Store, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized empty memory backend")
		return memory.New(nil), nil
	}
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile, log.FieldCount, store.Len())
	return store, nil
}
