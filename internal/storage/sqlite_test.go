package storage

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "tally.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryText(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.GetText(ctx, "main"); ok || err != nil {
		t.Fatalf("expected missing profile, got ok=%v err=%v", ok, err)
	}
	if err := repo.SetText(ctx, "main", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetText(ctx, "main", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	text, ok, err := repo.GetText(ctx, "main")
	if err != nil || !ok || text != "second" {
		t.Fatalf("unexpected text=%q ok=%v err=%v", text, ok, err)
	}
}

func TestSQLiteRepositoryDefinitionsKeepText(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.SetText(ctx, "main", "csv"); err != nil {
		t.Fatalf("set: %v", err)
	}
	defs := []core.CustomSummaryDefinition{{
		ID:            "d1",
		Name:          "Coffee",
		ReasonMatches: []string{"latte", "espresso"},
		DateStart:     "2025-01-01",
		TrackTime:     true,
	}}
	if err := repo.SaveDefinitions(ctx, "main", defs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.ListDefinitions(ctx, "main")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Coffee" || len(got[0].ReasonMatches) != 2 || !got[0].TrackTime {
		t.Fatalf("unexpected definitions: %+v", got)
	}
	if text, _, _ := repo.GetText(ctx, "main"); text != "csv" {
		t.Fatalf("saving definitions must not touch text, got %q", text)
	}

	missing, err := repo.ListDefinitions(ctx, "nobody")
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", missing, err)
	}
}

func TestSQLiteRepositoryListProfiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, id := range []string{"savings", "checking"} {
		if err := repo.SetText(ctx, id, id+" data"); err != nil {
			t.Fatalf("set %s: %v", id, err)
		}
	}
	list, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "checking" || list[1].CSVData != "savings data" {
		t.Fatalf("unexpected profiles: %+v", list)
	}
	if list[0].UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to round trip")
	}
}

func TestPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@host/db":   "pgx5://u:p@host/db",
		"postgresql://host/db":     "pgx5://host/db",
		"pgx5://already/converted": "pgx5://already/converted",
	}
	for in, want := range tests {
		if got := pgx5URL(in); got != want {
			t.Errorf("pgx5URL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSQLiteRepositoryProfileWithOnlyDefinitions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.SaveDefinitions(ctx, "p", []core.CustomSummaryDefinition{{ID: "d1", Name: "rent"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	text, ok, err := repo.GetText(ctx, "p")
	if err != nil || !ok || text != "" {
		t.Fatalf("known profile without text: text=%q ok=%v err=%v", text, ok, err)
	}
}
