// Package app wires the journal, remote client, sync and reporting layers
// from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"winrec/internal/analysis"
	"winrec/internal/classify"
	"winrec/internal/config"
	"winrec/internal/database"
	"winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/journal"
	"winrec/internal/platform"
	"winrec/internal/remote"
	"winrec/internal/repository"
	"winrec/internal/services"
	"winrec/internal/syncer"
)

const (
	// healthCheckTimeout bounds the startup database health check
	healthCheckTimeout = 5 * time.Second
	// closeTimeout bounds closing the database during shutdown
	closeTimeout = 10 * time.Second
)

// App holds the wired components of one agent process
type App struct {
	config    *config.Config
	logger    logging.Logger
	dbService database.Service
	journal   *repository.SQLiteJournal
	client    *remote.Client
	notifier  platform.Notifier

	orchestrator *syncer.Orchestrator
	scheduler    *syncer.Scheduler
	tiered       *journal.Tiered
	reporter     *journal.Reporter
	classifier   *classify.Table
}

// Options overrides process-level collaborators, mainly for tests
type Options struct {
	LogOutput io.Writer
	Notifier  platform.Notifier
}

// New opens the local journal and wires every component. The journal's
// additive migrations and local_date backfill run before it returns.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := logging.With(logging.NewLogger(out, logging.ParseLevel(cfg.Log.Level)), "source", cfg.Source)

	classifier, err := classify.New(cfg.Rules())
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	dbConfig := database.DefaultConfig()
	dbConfig.Path = cfg.Database.Path
	if err := dbConfig.LoadFromEnvironment("WINREC_DB"); err != nil {
		return nil, err
	}
	dbService, err := database.Open(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: logger, dbService: dbService, classifier: classifier}
	if err := a.initializeDatabase(ctx); err != nil {
		_ = dbService.Close()
		return nil, err
	}

	a.journal, err = repository.NewSQLiteJournal(ctx, dbService, cfg.Location(), logger)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	backfilled, err := a.journal.BackfillLocalDates(ctx, cfg.Location())
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	if backfilled > 0 {
		logger.Info("Backfilled local dates", "rows", backfilled, "timezone", cfg.Location().String())
	}

	a.client, err = remote.NewClient(remote.Config{
		BaseURL:        cfg.Remote.BaseURL,
		APIKey:         cfg.Remote.APIKey,
		RequestTimeout: cfg.Remote.RequestTimeout,
		PullTimeout:    cfg.Remote.PullTimeout,
	}, logger)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	a.notifier = opts.Notifier
	if a.notifier == nil {
		a.notifier = platform.NewLogNotifier(logger, platform.NewNotifier())
	}

	a.orchestrator = syncer.NewOrchestrator(
		syncer.NewProber(a.client, logger),
		syncer.NewPusher(a.journal, a.client, syncer.PushOptions{Timeout: cfg.Sync.PushTimeout, Rate: cfg.Sync.PushRate}, logger),
		syncer.NewPuller(a.journal, a.client, cfg.Remote.PageLimit, logger),
		a.notifier,
		syncer.PassOptions{ProbeAttempts: cfg.Sync.ProbeAttempts, ProbeDelay: cfg.Sync.ProbeDelay},
		logger,
	)
	a.scheduler = syncer.NewScheduler(a.orchestrator, cfg.Sync.Interval, logger)

	policy, err := journal.ParsePolicy(cfg.Report.Fallback)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	a.tiered = journal.NewTiered(a.journal, a.client, journal.Options{
		Policy:    policy,
		Location:  cfg.Location(),
		PageLimit: cfg.Remote.PageLimit,
	}, logger)
	a.reporter = journal.NewReporter(
		a.tiered,
		analysis.NewResolver(analysis.NewPriorityTable(cfg.Priorities...), cfg.Location()),
		analysis.NewDayCache(cfg.Report.CacheTTL, a.journal),
	)

	logger.Debug("Application wired",
		"database", cfg.Database.Path,
		"remote", a.client.BaseURL(),
		"credential", a.client.HasCredential(),
		"fallback", string(policy),
	)
	return a, nil
}

// initializeDatabase checks the database is usable before anything reads it
func (a *App) initializeDatabase(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := a.dbService.Health(healthCtx); err != nil {
		return errors.NewRepositoryErrorWithContext("startup",
			err,
			errors.ClassifyError(err),
			map[string]string{
				"operation": "health_check",
				"db_path":   a.config.Database.Path,
			})
	}
	return nil
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config { return a.config }

// Logger returns the application's structured logger
func (a *App) Logger() logging.Logger { return a.logger }

// Database returns the local database service
func (a *App) Database() database.Service { return a.dbService }

// Journal returns the local activity journal
func (a *App) Journal() *repository.SQLiteJournal { return a.journal }

// Client returns the remote service client
func (a *App) Client() *remote.Client { return a.client }

// Orchestrator returns the sync pass runner
func (a *App) Orchestrator() *syncer.Orchestrator { return a.orchestrator }

// Scheduler returns the periodic sync scheduler
func (a *App) Scheduler() *syncer.Scheduler { return a.scheduler }

// Tiered returns the remote-first journal used for reports and single writes
func (a *App) Tiered() *journal.Tiered { return a.tiered }

// Reporter returns the day report builder
func (a *App) Reporter() *journal.Reporter { return a.reporter }

// Classifier returns the configured category table
func (a *App) Classifier() *classify.Table { return a.classifier }

// TrackerConfig converts the capture section into tracker rules
func (a *App) TrackerConfig() services.TrackerConfig {
	c := a.config.Capture
	return services.TrackerConfig{
		Source:           a.config.Source,
		PollInterval:     c.PollInterval,
		IdleThreshold:    c.IdleThreshold,
		MinActive:        c.MinActive,
		MaxIdleRecord:    c.MaxIdleRecord,
		WastedCategory:   c.WastedCategory,
		WastedAlertAfter: c.WastedAlertAfter,
		NotifyCooldown:   c.NotifyCooldown,
	}
}

// NewTracker builds the capture loop over windowAPI
func (a *App) NewTracker(windowAPI platform.WindowAPI) (*services.ActivityTracker, error) {
	trackerConfig := a.TrackerConfig()
	if err := trackerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return services.NewActivityTracker(a.journal, windowAPI, a.classifier, a.notifier, trackerConfig, a.logger), nil
}

// SyncOnce runs a single sync pass
func (a *App) SyncOnce(ctx context.Context) (syncer.PassReport, error) {
	var state syncer.State
	return a.orchestrator.RunPass(ctx, &state)
}

// Close closes the database, waiting at most closeTimeout
func (a *App) Close(ctx context.Context) error {
	if a.dbService == nil {
		return nil
	}

	closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewRepositoryErrorWithContext("shutdown",
				err,
				errors.ClassifyError(err),
				map[string]string{
					"operation": "close_connection",
				})
		}
		a.logger.Debug("Database connection closed")
		return nil
	case <-closeCtx.Done():
		return errors.NewRepositoryError("shutdown", closeCtx.Err(), errors.ErrCodeTimeout)
	}
}
