package backend

import (
	"context"
	"fmt"

	"conti/internal/amqp"
	"conti/internal/log"
	"conti/internal/ports"
	"conti/internal/services"
	"conti/internal/storage"
	"conti/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	dial   PublisherDialer
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	f := &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
	f.dial = func(url, exchange, queue string) (ports.EventPublisher, error) {
		return amqp.NewClient(url, exchange, queue, f.logger)
	}
	return f
}

// WithDialer replaces how the event publisher is opened.
func (f *DefaultFactory) WithDialer(dial PublisherDialer) *DefaultFactory {
	f.dial = dial
	return f
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo    ports.TransactionsRepository
		cleanup CleanupFunc
	)
	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repo, cleanup = sqliteRepo, sqliteRepo.Close
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store, err := memory.NewFromFiles(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		repo, cleanup = store, store.Close
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.AMQPURL == "" {
		return &BackendResult{Repository: repo, Cleanup: cleanup}, nil
	}

	publisher, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return &BackendResult{Repository: repo, Cleanup: cleanup}, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	svc := services.NewTransactionService(repo, publisher, f.logger)
	return &BackendResult{Repository: svc, Publishing: true, Cleanup: svc.Close}, nil
}
