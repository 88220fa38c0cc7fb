// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/tally, cmd/tally-server and cmd/tally-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/fetch"
	"tally/internal/log"
	"tally/internal/services"
)

// SetupLogger initializes structured logging at the given level ("debug",
// "info", "warn" or "error") and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// App bundles the long-lived dependencies shared by the commands.
type App struct {
	Service *services.ProfileService
	Events  *amqp.Client // nil without AMQP_URL

	closers []func() error
}

// SourceAccess says who names the sources a process imports.
type SourceAccess int

const (
	// OperatorSources trusts the caller with any local path or URL.
	OperatorSources SourceAccess = iota
	// RemoteSources serves sources named over the network: local paths only
	// under the import root and, unless allowed, only public HTTP hosts.
	RemoteSources
)

// FetchOptions configures NewFetcher.
type FetchOptions struct {
	Timeout      time.Duration
	Access       SourceAccess
	Root         string // local source root for RemoteSources, empty disables local sources
	AllowPrivate bool   // lets RemoteSources reach private and loopback hosts
}

// FetchOptionsFor derives fetch options from the configuration.
func FetchOptionsFor(cfg *config.Config, access SourceAccess) FetchOptions {
	return FetchOptions{
		Timeout:      cfg.FetchTimeout,
		Access:       access,
		Root:         cfg.ImportRoot,
		AllowPrivate: cfg.FetchAllowPrivate,
	}
}

// NewFetcher builds a router for every source kind the access level permits.
// Cloud Storage and Sheets are only wired when their clients can be created;
// their absence is logged and turns those sources into ErrUnsupportedSource.
func NewFetcher(ctx context.Context, logger *log.Logger, opts FetchOptions) (*fetch.Router, []func() error) {
	router := &fetch.Router{}
	if opts.Access == OperatorSources {
		router.HTTP = fetch.NewHTTPFetcher(nil, opts.Timeout)
		router.XLSX = fetch.XLSXFetcher{}
		router.File = fetch.FileFetcher{}
	} else {
		if opts.AllowPrivate {
			router.HTTP = fetch.NewHTTPFetcher(nil, opts.Timeout)
		} else {
			router.HTTP = fetch.NewPublicHTTPFetcher(opts.Timeout)
		}
		if opts.Root != "" {
			router.XLSX = fetch.XLSXFetcher{Root: opts.Root}
			router.File = fetch.FileFetcher{Root: opts.Root}
		} else {
			logger.Info("Local file sources disabled, set IMPORT_ROOT to allow them")
		}
	}
	var closers []func() error

	if gcs, err := fetch.NewGCSFetcher(ctx); err != nil {
		logger.Debug("Cloud Storage sources disabled", log.FieldError, err)
	} else {
		router.GCS = gcs
		closers = append(closers, gcs.Close)
	}

	if sheets, err := fetch.NewSheetsFetcherFromEnv(ctx); err != nil {
		logger.Debug("Google Sheets sources disabled", log.FieldError, err)
	} else {
		router.Sheets = sheets
	}
	return router, closers
}

// NewApp opens the configured backend, the fetchers allowed by access and,
// when AMQP_URL is set, the broker client, and wires them into a
// ProfileService.
func NewApp(ctx context.Context, logger *log.Logger, cfg *config.Config, access SourceAccess) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	app := &App{}
	if result.Cleanup != nil {
		app.closers = append(app.closers, result.Cleanup)
	}

	router, closers := NewFetcher(ctx, logger.WithComponent(log.ComponentFetch), FetchOptionsFor(cfg, access))
	app.closers = append(app.closers, closers...)

	opts := services.Options{
		Fetcher:      router,
		CacheSize:    cfg.SummaryCacheSize,
		CacheTTL:     cfg.SummaryCacheTTL,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	}
	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPEventsRoutingKey)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("connect AMQP: %w", err)
		}
		app.Events = events
		app.closers = append(app.closers, events.Close)
		opts.Events = events
	}
	app.Service = services.NewProfileService(result.Backend, opts)

	logger.Info("Application initialized",
		"backend", backendCfg.Type,
		"amqp", app.Events != nil)
	return app, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
