package backend

import (
	"context"
	"fmt"
	"io"

	"goals/internal/amqp"
	"goals/internal/log"
	"goals/internal/services"
	"goals/internal/storage"
	"goals/internal/store"
	"goals/internal/store/memory"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	closers := []io.Closer{repo}
	opts := []services.Option{services.WithLogger(f.logger)}
	if client := f.dialAMQP(ctx, config); client != nil {
		opts = append(opts, services.WithPublisher(client))
		closers = append(closers, client)
	}
	svc := services.NewGoalService(repo, append(opts, services.WithClosers(closers...))...)

	version, _, err := storage.SchemaVersion(config.SQLiteDBPath)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", version,
		"events_enabled", len(closers) > 1)

	return &BackendResult{
		Repository: svc,
		Ready:      sqliteReady(repo, config.SQLiteDBPath),
		Cleanup:    svc.Close,
	}, nil
}

// sqliteReady fails while the database is unreachable or a migration was
// left half applied.
func sqliteReady(repo *storage.SQLiteRepository, dbPath string) ReadyFunc {
	return func(ctx context.Context) error {
		if err := repo.Ping(ctx); err != nil {
			return err
		}
		version, dirty, err := storage.SchemaVersion(dbPath)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty", version)
		}
		return nil
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var st *memory.Store
	if config.SeedFile != "" {
		var err error
		if st, err = memory.NewFromFile(config.SeedFile); err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
	} else {
		st = memory.New()
	}

	opts := []services.Option{services.WithLogger(f.logger)}
	if client := f.dialAMQP(ctx, config); client != nil {
		opts = append(opts, services.WithPublisher(client), services.WithClosers(client))
	}
	svc := services.NewGoalService(st, opts...)

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_file", config.SeedFile,
		log.FieldCount, st.Len())

	return &BackendResult{
		Repository: svc,
		Ready:      func(context.Context) error { return nil },
		Cleanup:    svc.Close,
	}, nil
}

// dialAMQP returns nil when events are disabled or the broker is
// unreachable; goals are still saved without events.
func (f *DefaultFactory) dialAMQP(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

var _ store.Repository = (*services.GoalService)(nil)
