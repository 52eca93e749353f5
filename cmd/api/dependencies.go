package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/docintel"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/handler"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/service"
	"github.com/FACorreiaa/statement-converter/pkg/config"
	"github.com/FACorreiaa/statement-converter/pkg/cron"
	"github.com/FACorreiaa/statement-converter/pkg/metrics"
	"github.com/FACorreiaa/statement-converter/pkg/pdftext"
	"github.com/FACorreiaa/statement-converter/pkg/storage"
)

// The structured path relies on the extractor to apply the page limit.
var _ service.PageCounter = (*pdftext.Extractor)(nil)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Services
	Extractor *pdftext.Extractor
	Service   *service.Service
	Store     storage.Storage // nil when archiving is disabled
	Scheduler *cron.Scheduler

	// Handlers
	ConvertHandler *handler.ConvertHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initStorage sets up the output archive and its retention sweeper
func (d *Dependencies) initStorage() error {
	if !d.Config.Archive.Enabled() {
		d.Logger.Info("output archive disabled")
		return nil
	}

	store, err := storage.NewLocalStorage(d.Config.Archive.Dir)
	if err != nil {
		return err
	}
	d.Store = store

	d.Scheduler = cron.NewScheduler(store, d.Config.Archive.SweepSchedule, d.Config.Archive.Retention, d.Logger)
	if err := d.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start archive sweeper: %w", err)
	}

	d.Logger.Info("output archive enabled", slog.String("dir", d.Config.Archive.Dir))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	d.Extractor = pdftext.NewExtractor(d.Config.Extraction.MaxPages, d.Logger)

	if d.Config.OCR.Enabled {
		ocr := pdftext.NewTesseractOCR(d.Config.OCR.Language)
		if err := ocr.Available(); err != nil {
			d.Logger.Warn("OCR requested but unavailable, scanned pages will be skipped", slog.Any("error", err))
		} else {
			d.Extractor.WithOCR(ocr)
			d.Logger.Info("OCR enabled", slog.String("language", d.Config.OCR.Language))
		}
	}

	d.Service = service.NewService(d.Extractor, service.Options{
		MaxPages:      d.Config.Extraction.MaxPages,
		Currency:      d.Config.Extraction.Currency,
		NoiseKeywords: d.Config.Extraction.NoiseKeywords,
	}, d.Logger).WithRecorder(d.Metrics)

	// Structured extraction is tried first when a model is configured
	if d.Config.Gemini.StructuredEnabled() {
		source, err := docintel.NewGeminiSource(ctx, d.Config.Gemini.APIKey, d.Config.Gemini.Model, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to init structured extraction: %w", err)
		}
		d.Service.WithItemSource(source)
		d.Logger.Info("structured extraction enabled")
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ConvertHandler = handler.NewConvertHandler(d.Service, d.Config.Server.MaxUploadBytes(), d.Logger).
		WithRecorder(d.Metrics)
	if d.Store != nil {
		d.ConvertHandler.WithStore(d.Store)
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		select {
		case <-d.Scheduler.Stop().Done():
		case <-time.After(10 * time.Second):
			d.Logger.Warn("archive sweeper did not stop in time")
		}
	}
	d.Logger.Info("cleanup completed")
}
