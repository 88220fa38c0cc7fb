// Package http serves the profile API: summaries, filtered transactions,
// exports, imports and custom summary definitions as JSON and CSV.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/ingest"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
	"tally/internal/summary"
)

// ProfileAPI is the service surface the handlers use. services.ProfileService
// implements it.
type ProfileAPI interface {
	Profiles(ctx context.Context) ([]core.Profile, error)
	Snapshot(ctx context.Context, profileID string) (summary.Snapshot, error)
	Transactions(ctx context.Context, profileID string, q summary.Query) ([]core.Transaction, error)
	Export(ctx context.Context, profileID string, q summary.Query) (string, error)
	CheckSource(source string) error
	Import(ctx context.Context, profileID, source string) (ingest.Result, error)
	ImportText(ctx context.Context, profileID, text string) (ingest.Result, error)
	ListDefinitions(ctx context.Context, profileID string) ([]core.CustomSummaryDefinition, error)
	AddDefinition(ctx context.Context, profileID string, def core.CustomSummaryDefinition) (core.CustomSummaryDefinition, error)
	UpdateDefinition(ctx context.Context, profileID string, def core.CustomSummaryDefinition) error
	DeleteDefinition(ctx context.Context, profileID, definitionID string) error
	EvaluateDefinitions(ctx context.Context, profileID string) ([]summary.CustomResult, error)
	LegacyHours(ctx context.Context, profileID, entity, reason string) (services.Hours, error)
	CacheStats() cache.Stats
}

// ImportQueue hands import requests to the worker. amqp.Client implements it.
type ImportQueue interface {
	PublishImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error
}

// Options configures optional server collaborators.
type Options struct {
	// Queue enables asynchronous imports (?async=true). Nil disables them.
	Queue ImportQueue
	// ImportRequestsPerMinute limits POST requests per client.
	ImportRequestsPerMinute int
}

type Server struct {
	http.Server
	api    ProfileAPI
	queue  ImportQueue
	logger *log.Logger
	events *log.StructuredLogger

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	started time.Time

	shutdownOnce sync.Once
}

// NewServer registers the routes and wraps them in request-id, logging,
// security header and rate limit middleware.
func NewServer(addr string, api ProfileAPI, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	ips := security.NewClientIPResolver()
	structured := log.NewStructuredLogger(logger)

	s := &Server{
		api:     api,
		queue:   opts.Queue,
		logger:  logger,
		events:  structured,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ImportRequestsPerMinute}),
		tracer:  trace.NewMiddleware(structured, ips.ClientIP),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /profiles", s.handleListProfiles)
	mux.HandleFunc("GET /profiles/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /profiles/{id}/transactions", s.handleTransactions)
	mux.HandleFunc("GET /profiles/{id}/export", s.handleExport)
	mux.HandleFunc("POST /profiles/{id}/import", s.handleImport)
	mux.HandleFunc("GET /profiles/{id}/summaries", s.handleListDefinitions)
	mux.HandleFunc("POST /profiles/{id}/summaries", s.handleCreateDefinition)
	mux.HandleFunc("GET /profiles/{id}/summaries/results", s.handleDefinitionResults)
	mux.HandleFunc("PUT /profiles/{id}/summaries/{sid}", s.handleUpdateDefinition)
	mux.HandleFunc("DELETE /profiles/{id}/summaries/{sid}", s.handleDeleteDefinition)
	mux.HandleFunc("GET /profiles/{id}/hours", s.handleHours)

	var h http.Handler = mux
	h = s.limiter.Middleware(ips.ClientIP, http.MethodPost)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.RequestIDMiddleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        h,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
