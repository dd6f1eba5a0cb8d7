// Package app builds the automation runtime from configuration. Both
// entry points construct exactly one App per process and Close it on exit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/hrnotify/internal/automation"
	"github.com/timmy/hrnotify/internal/config"
	"github.com/timmy/hrnotify/internal/dispatch"
	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/mail"
	"github.com/timmy/hrnotify/internal/mirror"
	"github.com/timmy/hrnotify/internal/notify"
	"github.com/timmy/hrnotify/internal/repository"
	"github.com/timmy/hrnotify/internal/rules"
	"github.com/timmy/hrnotify/internal/sheet"
	"github.com/timmy/hrnotify/internal/source"
	"github.com/timmy/hrnotify/internal/source/csvfile"
	"github.com/timmy/hrnotify/internal/source/objectstore"
	"github.com/timmy/hrnotify/internal/source/worksheet"
	"github.com/timmy/hrnotify/internal/storage"
	"gorm.io/gorm"
)

// App holds the constructed services.
type App struct {
	Config     *config.Config
	Renderer   *notify.TemplateRenderer
	Controller *automation.Controller
	Batches    *automation.BatchRunner

	db *gorm.DB
}

// New wires every collaborator named in cfg. Only the backends the
// configuration selects are initialized.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "app")
	a := &App{Config: cfg}

	var objects *storage.S3Storage
	if cfg.Dataset.Type == "s3" || cfg.Sheet.Type == "s3" {
		s, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		objects = s
	}

	if cfg.Sheet.Type == "" || cfg.Sheet.Type == "database" {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.db = db
	}

	var objectStorage storage.ObjectStorage
	if objects != nil {
		objectStorage = objects
	}
	store, err := sheet.NewStore(&cfg.Sheet, a.db, objectStorage)
	if err != nil {
		return nil, err
	}

	loader, err := newLoader(&cfg.Dataset, cfg.Sheet.SpreadsheetID, objectStorage, store)
	if err != nil {
		return nil, err
	}

	transport, err := mail.NewTransport(&cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("init mail transport: %w", err)
	}

	renderer, err := notify.NewEmbeddedRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	a.Renderer = renderer

	a.Controller = automation.NewController(automation.Deps{
		Loader:    loader,
		Evaluator: rules.NewEvaluator(cfg.Rules.HoursLimit),
		Builder:   notify.NewBuilder(renderer, cfg.Dispatch.TestRecipient),
		Engine:    dispatch.NewEngine(transport),
		Mirror:    mirror.New(store),
	}, automation.Settings{
		MaxParallel:      cfg.Dispatch.MaxParallelWorkers,
		TestLimit:        cfg.TestLimit(),
		SpreadsheetID:    cfg.Sheet.SpreadsheetID,
		DashboardURL:     cfg.DashboardURL(),
		OutcomeWorksheet: cfg.Sheet.OutcomeWorksheet,
		ReferenceDate:    cfg.ReferenceDate,
	})

	a.Batches, err = automation.NewBatchRunner(a.Controller, automation.DefaultBatches())
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"dataset":   loader.GetSourceID(),
		"sheet":     cfg.Sheet.Type,
		"transport": cfg.Mail.Transport,
		"workers":   cfg.Dispatch.MaxParallelWorkers,
	}).Info("Application initialized")
	if cfg.Dispatch.TestRecipient != "" {
		log.Warnf("Test recipient override active, all emails go to %s", cfg.Dispatch.TestRecipient)
	}
	return a, nil
}

// Previews renders every template with sample data.
func (a *App) Previews(ctx context.Context, now time.Time) (map[string]string, error) {
	return RenderPreviews(ctx, a.Renderer, a.Config, now)
}

// RenderPreviews renders every template that has a sample context, keyed
// by template ID.
func RenderPreviews(ctx context.Context, renderer *notify.TemplateRenderer, cfg *config.Config, now time.Time) (map[string]string, error) {
	contexts := automation.PreviewContexts(cfg.ReferenceDate(now), cfg.Rules.HoursLimit, cfg.DashboardURL())
	out := make(map[string]string, len(contexts))
	for _, id := range renderer.TemplateIDs() {
		data, ok := contexts[id]
		if !ok {
			continue
		}
		html, err := renderer.Render(ctx, id, data)
		if err != nil {
			return nil, err
		}
		out[id] = html
	}
	return out, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newLoader(cfg *config.DatasetConfig, spreadsheetID string, objects storage.ObjectStorage, store sheet.Store) (source.Loader, error) {
	switch cfg.Type {
	case "", "csv":
		return csvfile.NewAdapter(cfg.Path), nil
	case "s3":
		return objectstore.NewAdapter(objects, cfg.Key), nil
	case "sheet":
		return worksheet.NewAdapter(store, spreadsheetID, cfg.Worksheet), nil
	default:
		return nil, fmt.Errorf("unknown dataset type %q", cfg.Type)
	}
}
