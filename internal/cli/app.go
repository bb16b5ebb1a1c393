package cli

import (
	"context"
	"errors"
	"fmt"

	"financy/internal/backend"
	"financy/internal/cache"
	"financy/internal/config"
	"financy/internal/events"
	"financy/internal/financeapi"
	"financy/internal/log"
	"financy/internal/services"
	"financy/internal/sheets"
	sheetgoogle "financy/internal/sheets/google"
	sheetmem "financy/internal/sheets/memory"
)

// App holds what every command builds from the configuration: the data
// backend, the event publisher and the report services on top of them.
type App struct {
	Config        *config.Config
	Logger        *log.Logger
	Factory       *backend.DefaultFactory
	BackendConfig backend.Config
	Backend       *backend.BackendResult
	Publisher     events.Publisher
	Caches        *cache.Manager
	Rates         *services.RateService
	Reports       *services.ReportService
}

// NewApp creates the backend and publisher named by cfg and wires the rate and
// report services to them. Close releases everything it opened.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(logger, cfg.APITimeout)
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	publisher, err := factory.CreatePublisher(ctx, bcfg)
	if err != nil {
		_ = res.Close()
		return nil, err
	}

	rates := services.NewRateService(res.Store, cfg.RatesCacheTTL, logger)
	caches := cache.NewManager(logger)
	caches.Register("rates", rates.Cache())

	reports := services.NewReportService(res.Store, rates, services.ReportDefaults{
		Currency:  cfg.DisplayCurrency,
		Frequency: cfg.PeriodFrequency(),
		StartDay:  cfg.StartDay,
	}, logger)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Factory:       factory,
		BackendConfig: bcfg,
		Backend:       res,
		Publisher:     publisher,
		Caches:        caches,
		Rates:         rates,
		Reports:       reports,
	}, nil
}

// NewEditor returns a budget editor saving to the configured store.
func (a *App) NewEditor() *services.BudgetEditor {
	return services.NewBudgetEditor(a.Backend.Store, services.BudgetEditorConfig{
		SaveDelay: a.Config.BudgetSaveDelay,
		Publisher: a.Publisher,
		Logger:    a.Logger,
		OnError: func(budgetID int64, err error) {
			a.Logger.Error("Budget save failed", log.FieldBudgetID, budgetID, log.FieldError, err)
		},
	})
}

// NewExporter writes to Google Sheets when a spreadsheet is configured and to
// an in-process store otherwise.
func (a *App) NewExporter(ctx context.Context) (*services.ExportService, error) {
	var writer sheets.ReportWriter
	if a.Config.GoogleSpreadsheetID != "" {
		client, err := sheetgoogle.New(ctx, sheetgoogle.Config{
			SpreadsheetID:   a.Config.GoogleSpreadsheetID,
			CredentialsJSON: a.Config.GoogleServiceAccountJSON,
			CredentialsFile: a.Config.GoogleServiceAccountFile,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		writer = client
	} else {
		a.Logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		writer = sheetmem.New()
	}
	return services.NewExportService(a.Reports, writer, a.Publisher,
		a.Config.GoogleSpreadsheetID, a.Config.GoogleReportSheet, a.Logger), nil
}

// NewSyncService copies from the REST backend into the local snapshot. The
// api backend has no snapshot to fill.
func (a *App) NewSyncService() (*services.SyncService, error) {
	if a.Backend.Snapshot == nil {
		return nil, fmt.Errorf("data backend %q keeps no local snapshot; use sqlite or memory", a.BackendConfig.Type)
	}
	var recorder services.SyncRecorder
	if r, ok := a.Backend.Snapshot.(services.SyncRecorder); ok {
		recorder = r
	}
	return services.NewSyncService(a.Factory.NewAPIClient(a.BackendConfig), a.Backend.Snapshot, services.SyncConfig{
		Lookback:  a.Config.SyncLookback,
		RateBases: []string{a.Config.DisplayCurrency},
		Recorder:  recorder,
		Publisher: a.Publisher,
		Logger:    a.Logger,
	}), nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyChecks probes the data backend: a ping for sqlite, the currency list
// for the REST API. The memory store is always ready.
func (a *App) ReadyChecks() map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error)
	switch store := a.Backend.Store.(type) {
	case *financeapi.Client:
		checks["finance_api"] = func(ctx context.Context) error {
			_, err := store.Currencies(ctx)
			return err
		}
	case pinger:
		checks[string(a.BackendConfig.Type)] = store.Ping
	}
	return checks
}

// Close stops cache cleanup and releases the publisher and the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	return errors.Join(a.Publisher.Close(), a.Backend.Close())
}
