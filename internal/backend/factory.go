package backend

import (
	"context"
	"fmt"
	"time"

	"financy/internal/amqp"
	"financy/internal/events"
	"financy/internal/financeapi"
	"financy/internal/kafka"
	"financy/internal/log"
	"financy/internal/memory"
	"financy/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger     *log.Logger
	apiTimeout time.Duration
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger, apiTimeout time.Duration) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:     logger.WithComponent(log.ComponentBackend),
		apiTimeout: apiTimeout,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config), nil
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// NewAPIClient builds the REST client for config, whatever the store type.
// The worker uses it as the sync source.
func (f *DefaultFactory) NewAPIClient(config Config) *financeapi.Client {
	opts := []financeapi.Option{financeapi.WithLogger(f.logger)}
	if config.APIToken != "" {
		opts = append(opts, financeapi.WithToken(config.APIToken))
	}
	if f.apiTimeout > 0 {
		opts = append(opts, financeapi.WithTimeout(f.apiTimeout))
	}
	return financeapi.New(config.APIBaseURL, opts...)
}

func (f *DefaultFactory) createAPIBackend(config Config) *BackendResult {
	client := f.NewAPIClient(config)

	f.logger.Info("Initialized API backend",
		log.FieldEndpoint, client.BaseURL(),
		"authenticated", config.APIToken != "")

	return &BackendResult{Store: client}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	switch last, err := repo.LastSync(ctx); {
	case err != nil:
		f.logger.Warn("SQLite snapshot has never been synced", "db_path", config.SQLiteDBPath)
	case !last.OK():
		f.logger.Warn("Last snapshot sync failed, serving older data",
			"db_path", config.SQLiteDBPath,
			"last_sync", last.FinishedAt.Format(time.RFC3339),
			log.FieldError, last.Error)
	default:
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"last_sync", last.FinishedAt.Format(time.RFC3339))
	}

	return &BackendResult{
		Store:    repo,
		Snapshot: repo,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{Store: store, Snapshot: store}, nil
}

// CreatePublisher implements Factory.CreatePublisher. The none type yields events.Nop.
func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config) (events.Publisher, error) {
	switch config.Events {
	case NoEvents, "":
		return events.Nop{}, nil
	case AMQPEvents:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Info("Initialized AMQP publisher",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return client, nil
	case KafkaEvents:
		f.logger.Info("Initialized Kafka publisher",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic)
		return kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", config.Events)
	}
}
