package cli

import (
	"context"
	"fmt"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/receipt"
	"expensetracker/internal/receipt/tesseract"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
)

// App holds the wired service and the function releasing its backend.
type App struct {
	Service *services.ExpenseService
	Cleanup backend.CleanupFunc
}

// BuildApp opens the configured backend and assembles the expense service
// with OCR and optional event publishing.
func BuildApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	policy, err := report.ParseMonthPolicy(cfg.CurrentMonthPolicy)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithExtractor(receipt.NewExtractor(tesseract.New(cfg.OCRLanguage), cfg.MaxUploadBytes)),
		services.WithMonthPolicy(policy),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}

	return &App{
		Service: services.NewExpenseService(res.Store, opts...),
		Cleanup: res.Cleanup,
	}, nil
}
