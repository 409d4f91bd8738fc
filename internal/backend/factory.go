package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/taneryldrm/bugless-crm-sub000/internal/amqp"
	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
	"github.com/taneryldrm/bugless-crm-sub000/internal/events/kafka"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/storage"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, closeStore, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	publisher := f.createPublisher(ctx, config)

	return &BackendResult{
		Store:     st,
		Publisher: publisher,
		Fees:      config.Fees,
		Cleanup: func() error {
			var errs []error
			if err := publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("publisher: %w", err))
			}
			if closeStore != nil {
				if err := closeStore(); err != nil {
					errs = append(errs, fmt.Errorf("store: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (store.Store, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.PostgresDSN, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, repo.Close, nil

	case MemoryBackend:
		st := memory.NewFromFiles(config.DataDirectory)
		f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
		return st, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher never fails: an unreachable broker degrades to dropping
// events, since delivery is not part of any command's success.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) events.Publisher {
	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			return events.Nop{}
		}
		f.logger.InfoContext(ctx, "Initialized AMQP publisher", "exchange", config.AMQPExchange)
		return client

	case KafkaEvents:
		f.logger.InfoContext(ctx, "Initialized Kafka publisher",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic)
		return kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)

	default:
		return events.Nop{}
	}
}
