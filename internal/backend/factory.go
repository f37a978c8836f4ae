package backend

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"eixo/internal/amqp"
	applog "eixo/internal/log"
	"eixo/internal/sheets"
	gsheet "eixo/internal/sheets/google"
	sheetsmem "eixo/internal/sheets/memory"
	"eixo/internal/storage"
	"eixo/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the repository, then the optional broker and the
// spreadsheet exporter. On error everything opened so far is closed.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := f.createRepository(ctx, config)
	if err != nil {
		return nil, err
	}
	result := &BackendResult{Repository: repo}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		switch {
		case err != nil && config.RequireAMQP:
			repo.Close()
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		case err != nil:
			f.logger.Warn("Failed to initialize AMQP client, exports will run inline", "error", err)
		default:
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.AMQP = client
		}
	}

	exporter, err := f.createExporter(ctx, config)
	if err != nil {
		closeAll(result)
		return nil, err
	}
	result.Exporter = exporter
	result.Cleanup = func() error { return closeAll(result) }

	f.logger.Info("Backend ready",
		"type", config.Type.String(),
		"amqp_enabled", result.AMQP != nil)
	return result, nil
}

func (f *DefaultFactory) createRepository(ctx context.Context, config Config) (storage.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createExporter(ctx context.Context, config Config) (sheets.TransactionExporter, error) {
	if !config.sheetsEnabled() {
		f.logger.Warn("Google Sheets export not configured, using in-memory exporter")
		return sheetsmem.New(), nil
	}
	exporter, err := gsheet.New(ctx, config.GoogleExportSpreadsheetID, gsheet.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}
	f.logger.Info("Initialized Google Sheets exporter")
	return exporter, nil
}

func closeAll(r *BackendResult) error {
	var result *multierror.Error
	if r.AMQP != nil {
		if err := r.AMQP.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("amqp: %w", err))
		}
	}
	if r.Repository != nil {
		if err := r.Repository.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage: %w", err))
		}
	}
	return result.ErrorOrNil()
}
