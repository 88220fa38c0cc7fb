package memory

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/profiles"
)

var _ profiles.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items map[string]*core.Profile
	now   func() time.Time
}

func New() *Store {
	return &Store{items: map[string]*core.Profile{}, now: time.Now}
}

// NewFromFiles seeds one profile per <base>/*.csv file; the file name without
// its extension is the profile id. Unreadable files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	matches, _ := filepath.Glob(filepath.Join(base, "*.csv"))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		_ = s.SetText(context.Background(), id, string(data))
	}
	return s
}

func (s *Store) profile(id string) *core.Profile {
	p, ok := s.items[id]
	if !ok {
		p = &core.Profile{ID: id, Name: id}
		s.items[id] = p
	}
	return p
}

// GetText returns the stored text of a profile.
func (s *Store) GetText(_ context.Context, profileID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[profileID]
	if !ok {
		return "", false, nil
	}
	return p.CSVData, true, nil
}

// SetText stores text, creating the profile on first use.
func (s *Store) SetText(_ context.Context, profileID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(profileID)
	p.CSVData = text
	p.UpdatedAt = s.now()
	return nil
}

func (s *Store) ListDefinitions(_ context.Context, profileID string) ([]core.CustomSummaryDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[profileID]
	if !ok {
		return []core.CustomSummaryDefinition{}, nil
	}
	return append([]core.CustomSummaryDefinition{}, p.CustomSummaries...), nil
}

func (s *Store) SaveDefinitions(_ context.Context, profileID string, defs []core.CustomSummaryDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(profileID)
	p.CustomSummaries = append([]core.CustomSummaryDefinition(nil), defs...)
	p.UpdatedAt = s.now()
	return nil
}

// ListProfiles returns every profile ordered by id.
func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Profile, 0, len(s.items))
	for _, p := range s.items {
		cp := *p
		cp.CustomSummaries = append([]core.CustomSummaryDefinition(nil), p.CustomSummaries...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
