package backend

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/ledger"
	"expensetracker/internal/ledger/csvfile"
	"expensetracker/internal/ledger/memory"
	"expensetracker/internal/ledger/sheets"
	"expensetracker/internal/ledger/sqlite"
	applog "expensetracker/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the configured store, makes sure it exists and
// attaches the publisher when AMQP is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   ledger.Store
		closers []func() error
		err     error
	)

	switch config.Type {
	case CSVBackend:
		store = csvfile.New(config.LedgerPath)
		f.logger.Info("Initialized CSV backend", "path", config.LedgerPath)
	case SQLiteBackend:
		var repo *sqlite.Repository
		repo, err = sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		closers = append(closers, repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case SheetsBackend:
		store, err = sheets.New(ctx, sheets.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleServiceAccountFile,
			CredentialsJSON: config.GoogleServiceAccountJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store = memory.NewFromFiles(dataDir)
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	cleanup := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if err := store.EnsureExists(ctx); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}

	result := &BackendResult{Store: store}
	if config.AMQPURL != "" {
		client := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		result.Publisher = client
		closers = append(closers, client.Close)
		f.logger.Info("AMQP publishing enabled",
			"exchange", config.AMQPExchange,
			"routing_key", config.AMQPRoutingKey)
	}
	result.Cleanup = cleanup

	return result, nil
}
