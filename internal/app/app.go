// Package app initializes and holds long-lived pipeline services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalogue-pipeline/internal/clock"
	"github.com/JakeFAU/catalogue-pipeline/internal/collector"
	"github.com/JakeFAU/catalogue-pipeline/internal/config"
	"github.com/JakeFAU/catalogue-pipeline/internal/digest"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/logging"
	"github.com/JakeFAU/catalogue-pipeline/internal/metrics"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
	"github.com/JakeFAU/catalogue-pipeline/internal/publisher/pubsub"
	"github.com/JakeFAU/catalogue-pipeline/internal/runid"
	"github.com/JakeFAU/catalogue-pipeline/internal/storage/gcs"
	"github.com/JakeFAU/catalogue-pipeline/internal/storage/local"
	"github.com/JakeFAU/catalogue-pipeline/internal/storage/postgres"
)

// App holds the shared services for one process.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *jobs.Registry
	runner   *pipeline.Runner

	loggers []*zap.Logger
	closers []func() error
}

// New builds every service cfg enables. Optional side channels are only
// dialed when configured; a failure to reach one is fatal at startup.
func New(ctx context.Context, cfg config.Config) (a *App, err error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	a = &App{cfg: cfg, logger: logger, loggers: []*zap.Logger{logger}}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	metrics.Init()

	collectorLogger, err := logging.NewComponent(cfg.Logging.Development, "collector", cfg.Logging.CollectorPath)
	if err != nil {
		return a, err
	}
	normalizerLogger, err := logging.NewComponent(cfg.Logging.Development, "normalizer", cfg.Logging.NormalizerPath)
	if err != nil {
		return a, err
	}
	a.loggers = append(a.loggers, collectorLogger, normalizerLogger)

	scraper, err := collector.New(cfg.CollectorSettings(), collectorLogger)
	if err != nil {
		return a, fmt.Errorf("init collector: %w", err)
	}
	processor, err := normalizer.New(cfg.NormalizerSettings(), normalizerLogger)
	if err != nil {
		return a, fmt.Errorf("init normalizer: %w", err)
	}
	a.registry = jobs.NewRegistry(cfg.JobSettings())

	deps := pipeline.Deps{
		Resolver:       a.registry,
		Scraper:        scraper,
		Processor:      processor,
		IDs:            runid.New(),
		Clock:          clock.System{},
		Hasher:         digest.New(),
		ArtifactPrefix: cfg.Storage.Prefix,
		Topic:          cfg.PubSub.TopicName,
		Logger:         logger,
	}
	if deps.Artifacts, err = a.artifactStore(ctx); err != nil {
		return a, err
	}
	if cfg.DB.DSN != "" {
		store, err := postgres.New(ctx, postgres.Config{DSN: cfg.DB.DSN, Table: cfg.DB.Table, MaxConns: cfg.DB.MaxConns})
		if err != nil {
			return a, fmt.Errorf("init run store: %w", err)
		}
		a.closers = append(a.closers, func() error { store.Close(); return nil })
		if err := store.EnsureSchema(ctx); err != nil {
			return a, fmt.Errorf("init run store: %w", err)
		}
		deps.Runs = store
		logger.Info("Recording runs in Postgres", zap.String("table", cfg.DB.Table))
	}
	if cfg.PubSub.TopicName != "" {
		pub, err := pubsub.Dial(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return a, fmt.Errorf("init publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		deps.Publisher = pub
		logger.Info("Publishing completion events", zap.String("topic", cfg.PubSub.TopicName))
	}

	if a.runner, err = pipeline.NewRunner(deps); err != nil {
		return a, err
	}
	logger.Info("Application services initialized")
	return a, nil
}

func (a *App) artifactStore(ctx context.Context) (pipeline.ArtifactStore, error) {
	switch {
	case a.cfg.Storage.GCSBucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, err
		}
		a.logger.Info("Mirroring artifacts to GCS", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return store, nil
	case a.cfg.Storage.ArchiveDir != "":
		archive, err := local.New(local.Config{BaseDir: a.cfg.Storage.ArchiveDir})
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		a.logger.Info("Archiving artifacts locally", zap.String("dir", a.cfg.Storage.ArchiveDir))
		return archive, nil
	default:
		return nil, nil
	}
}

// Logger returns the process logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Runner returns the pipeline runner.
func (a *App) Runner() *pipeline.Runner {
	return a.runner
}

// Ready reports whether both job registries are readable.
func (a *App) Ready(_ context.Context) error {
	return a.registry.Check()
}

// Close releases clients in reverse order and flushes loggers.
func (a *App) Close() {
	if a == nil {
		return
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Error closing services", zap.Error(err))
	}
	for _, l := range a.loggers {
		_ = l.Sync()
	}
}
