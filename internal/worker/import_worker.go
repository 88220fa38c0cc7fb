package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/ingest"
	"tally/internal/services"
)

// Importer is the part of services.ProfileService the worker drives.
type Importer interface {
	Import(ctx context.Context, profileID, source string) (ingest.Result, error)
	ImportMany(ctx context.Context, jobs []services.ImportJob) ([]services.ImportOutcome, error)
}

// ImportWorker runs import requests received over AMQP and the configured
// scheduled imports.
type ImportWorker struct {
	importer Importer
	sources  []config.ImportSource
}

func NewImportWorker(importer Importer, sources []config.ImportSource) *ImportWorker {
	return &ImportWorker{importer: importer, sources: sources}
}

// HandleImportRequest processes a single import request message from AMQP.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error {
	slog.InfoContext(ctx, "Processing import request",
		"profile_id", msg.ProfileID,
		"source", msg.Source,
		"request_id", msg.RequestID)

	res, err := w.importer.Import(ctx, msg.ProfileID, msg.Source)
	if err != nil {
		return fmt.Errorf("import %s: %w", msg.Source, err)
	}

	slog.InfoContext(ctx, "Import request completed",
		"profile_id", msg.ProfileID,
		"mode", res.Mode,
		"added", res.Added,
		"request_id", msg.RequestID)
	return nil
}

// ImportConfigured imports every configured source once. Individual failures
// are logged; the error reports whether any job failed.
func (w *ImportWorker) ImportConfigured(ctx context.Context) error {
	if len(w.sources) == 0 {
		slog.InfoContext(ctx, "No import sources configured")
		return nil
	}

	jobs := make([]services.ImportJob, len(w.sources))
	for i, s := range w.sources {
		jobs[i] = services.ImportJob{ProfileID: s.Profile, Source: s.Source}
	}

	start := time.Now()
	outcomes, err := w.importer.ImportMany(ctx, jobs)

	succeeded, added := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			slog.ErrorContext(ctx, "Scheduled import failed",
				"profile_id", o.Job.ProfileID,
				"source", o.Job.Source,
				"error", o.Err)
			continue
		}
		succeeded++
		added += o.Result.Added
	}

	slog.InfoContext(ctx, "Scheduled imports completed",
		"total", len(jobs),
		"succeeded", succeeded,
		"added", added,
		"duration", time.Since(start).Round(time.Millisecond))
	return err
}

// Scheduler runs ImportConfigured on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	worker *ImportWorker
	ctx    context.Context
}

// NewScheduler parses spec as a standard five-field cron expression evaluated
// in loc. ctx bounds every scheduled run.
func NewScheduler(ctx context.Context, w *ImportWorker, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		worker: w,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parse import schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if s.ctx.Err() != nil {
		return
	}
	if err := s.worker.ImportConfigured(s.ctx); err != nil {
		slog.WarnContext(s.ctx, "Scheduled import run finished with errors", "error", err)
	}
}

// Next returns the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running import to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
