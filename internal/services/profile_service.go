package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/banking"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/fetch"
	"tally/internal/ingest"
	"tally/internal/log"
	"tally/internal/profiles"
	"tally/internal/summary"
)

var (
	ErrEmptyProfileID = errors.New("empty profile id")
	ErrNoFetcher      = errors.New("no fetcher configured")
	ErrFetchFailed    = errors.New("fetch failed")
)

// maxConcurrentFetches bounds ImportMany.
const maxConcurrentFetches = 4

// EventPublisher announces profile changes. amqp.Client implements it.
type EventPublisher interface {
	PublishProfileUpdated(ctx context.Context, msg *amqp.ProfileUpdatedMessage) error
}

// Options configures a ProfileService. Zero values pick defaults; a nil
// Fetcher disables source imports and a nil Events disables notifications.
type Options struct {
	Fetcher      fetch.Fetcher
	Events       EventPublisher
	CacheSize    int
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Logger       *log.Logger
}

// ProfileService runs imports, summaries and definition changes for profiles
// kept in a profiles.Store.
type ProfileService struct {
	store        profiles.Store
	fetcher      fetch.Fetcher
	events       EventPublisher
	snapshots    *cache.LRUCache[summary.Snapshot]
	fetchTimeout time.Duration
	logger       *log.Logger
	structured   *log.StructuredLogger

	// mu serializes read-modify-write cycles on stored text and definitions.
	mu sync.Mutex
}

func NewProfileService(store profiles.Store, opts Options) *ProfileService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	return &ProfileService{
		store:        store,
		fetcher:      opts.Fetcher,
		events:       opts.Events,
		snapshots:    cache.NewLRUCache[summary.Snapshot](opts.CacheSize, opts.CacheTTL),
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger.WithComponent(log.ComponentIngest),
		structured:   log.NewStructuredLogger(opts.Logger),
	}
}

// SnapshotCache exposes the snapshot cache for periodic cleanup.
func (s *ProfileService) SnapshotCache() *cache.LRUCache[summary.Snapshot] {
	return s.snapshots
}

func (s *ProfileService) CacheStats() cache.Stats {
	return s.snapshots.Stats()
}

func checkProfileID(profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return ErrEmptyProfileID
	}
	return nil
}

// Import fetches source and merges it into the profile.
func (s *ProfileService) Import(ctx context.Context, profileID, source string) (ingest.Result, error) {
	if err := checkProfileID(profileID); err != nil {
		return ingest.Result{}, err
	}
	text, err := s.fetch(ctx, source)
	if err != nil {
		return ingest.Result{}, err
	}
	return s.merge(ctx, profileID, source, text)
}

// ImportText merges text into the profile.
func (s *ProfileService) ImportText(ctx context.Context, profileID, text string) (ingest.Result, error) {
	if err := checkProfileID(profileID); err != nil {
		return ingest.Result{}, err
	}
	return s.merge(ctx, profileID, "", text)
}

// CheckSource reports whether source may be imported, without fetching it.
// Fetchers that cannot check ahead accept every source here.
func (s *ProfileService) CheckSource(source string) error {
	if s.fetcher == nil {
		return ErrNoFetcher
	}
	if c, ok := s.fetcher.(fetch.Checker); ok {
		return c.Check(source)
	}
	return nil
}

func (s *ProfileService) fetch(ctx context.Context, source string) (string, error) {
	if s.fetcher == nil {
		return "", ErrNoFetcher
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	text, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	s.logger.DebugContext(ctx, "Source fetched", log.FieldSource, source, log.FieldBytes, len(text))
	return text, nil
}

func (s *ProfileService) merge(ctx context.Context, profileID, source, text string) (ingest.Result, error) {
	s.mu.Lock()
	existing, _, err := s.store.GetText(ctx, profileID)
	if err != nil {
		s.mu.Unlock()
		return ingest.Result{}, fmt.Errorf("load profile text: %w", err)
	}

	res := ingest.MergeOrReplace(existing, text)
	if res.Text != existing {
		if err := s.store.SetText(ctx, profileID, res.Text); err != nil {
			s.mu.Unlock()
			return ingest.Result{}, fmt.Errorf("store profile text: %w", err)
		}
	}
	s.mu.Unlock()

	s.structured.LogImport(ctx, profileID, source, string(res.Mode), res.Added, len(res.Text))

	if res.Text != existing {
		s.publishUpdated(ctx, profileID, source, res)
	}
	return res, nil
}

func (s *ProfileService) publishUpdated(ctx context.Context, profileID, source string, res ingest.Result) {
	if s.events == nil {
		return
	}
	msg := amqp.NewProfileUpdatedMessage(profileID, source, string(res.Mode), res.Added)
	if err := s.events.PublishProfileUpdated(ctx, msg); err != nil {
		// the text is already stored
		s.logger.WarnContext(ctx, "Failed to publish profile updated event",
			log.FieldProfileID, profileID, log.FieldError, err)
	}
}

// ImportJob names one source to import into one profile.
type ImportJob struct {
	ProfileID string
	Source    string
}

// ImportOutcome is the result of one ImportJob. Err is set when the job failed.
type ImportOutcome struct {
	Job    ImportJob
	Result ingest.Result
	Err    error
}

// ImportMany fetches every source concurrently and then merges them one by one
// in job order, so several jobs for one profile apply deterministically. A
// failed job does not stop the others; the returned error joins every failure.
func (s *ProfileService) ImportMany(ctx context.Context, jobs []ImportJob) ([]ImportOutcome, error) {
	outcomes := make([]ImportOutcome, len(jobs))
	texts := make([]string, len(jobs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, job := range jobs {
		outcomes[i].Job = job
		if err := checkProfileID(job.ProfileID); err != nil {
			outcomes[i].Err = err
			continue
		}
		g.Go(func() error {
			text, err := s.fetch(ctx, job.Source)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i := range outcomes {
		if outcomes[i].Err == nil {
			outcomes[i].Result, outcomes[i].Err = s.merge(ctx, jobs[i].ProfileID, jobs[i].Source, texts[i])
		}
		if outcomes[i].Err != nil {
			errs = append(errs, fmt.Errorf("import %s into %s: %w", jobs[i].Source, jobs[i].ProfileID, outcomes[i].Err))
		}
	}
	return outcomes, errors.Join(errs...)
}

// Snapshot returns the summary of the profile's stored text. A known profile
// without text yet yields the zero snapshot; ErrProfileNotFound is reserved
// for profiles the store has no record of. Snapshots are cached by content,
// so a changed text is never served stale.
func (s *ProfileService) Snapshot(ctx context.Context, profileID string) (summary.Snapshot, error) {
	if err := checkProfileID(profileID); err != nil {
		return summary.Snapshot{}, err
	}
	text, ok, err := s.store.GetText(ctx, profileID)
	if err != nil {
		return summary.Snapshot{}, fmt.Errorf("load profile text: %w", err)
	}
	if !ok {
		return summary.Snapshot{}, fmt.Errorf("%w: %s", profiles.ErrProfileNotFound, profileID)
	}

	key := cache.ContentKey(text)
	if snap, hit := s.snapshots.Get(key); hit {
		return snap, nil
	}
	snap := summary.Build(text)
	s.snapshots.Set(key, snap)
	return snap, nil
}

// Transactions returns the profile's transactions filtered and sorted by q.
func (s *ProfileService) Transactions(ctx context.Context, profileID string, q summary.Query) ([]core.Transaction, error) {
	snap, err := s.Snapshot(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return q.Apply(snap.Table.Transactions), nil
}

// Export re-exports the source rows of the transactions matching q under the
// stored headers.
func (s *ProfileService) Export(ctx context.Context, profileID string, q summary.Query) (string, error) {
	snap, err := s.Snapshot(ctx, profileID)
	if err != nil {
		return "", err
	}
	return banking.Export(snap.Headers, q.Apply(snap.Table.Transactions)), nil
}

// Profiles lists every stored profile.
func (s *ProfileService) Profiles(ctx context.Context) ([]core.Profile, error) {
	list, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return list, nil
}
