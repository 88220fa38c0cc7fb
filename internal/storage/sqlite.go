package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"
	"tally/internal/profiles"

	_ "modernc.org/sqlite"
)

var _ profiles.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetText implements profiles.TextStore
func (r *SQLiteRepository) GetText(ctx context.Context, profileID string) (string, bool, error) {
	var text string
	err := r.db.QueryRowContext(ctx, `SELECT csv_data FROM profiles WHERE id = ?`, profileID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get profile text: %w", err)
	}
	return text, true, nil
}

// SetText implements profiles.TextStore
func (r *SQLiteRepository) SetText(ctx context.Context, profileID, text string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, csv_data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET csv_data = excluded.csv_data, updated_at = excluded.updated_at`,
		profileID, profileID, text, now())
	if err != nil {
		return fmt.Errorf("set profile text: %w", err)
	}

	slog.InfoContext(ctx, "Profile text saved to SQLite",
		"profile_id", profileID,
		"bytes", len(text))
	return nil
}

// ListDefinitions implements profiles.DefinitionStore
func (r *SQLiteRepository) ListDefinitions(ctx context.Context, profileID string) ([]core.CustomSummaryDefinition, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT definitions FROM profiles WHERE id = ?`, profileID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.CustomSummaryDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get definitions: %w", err)
	}
	return decodeDefinitions([]byte(raw))
}

// SaveDefinitions implements profiles.DefinitionStore
func (r *SQLiteRepository) SaveDefinitions(ctx context.Context, profileID string, defs []core.CustomSummaryDefinition) error {
	raw, err := encodeDefinitions(defs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, definitions, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET definitions = excluded.definitions, updated_at = excluded.updated_at`,
		profileID, profileID, raw, now())
	if err != nil {
		return fmt.Errorf("save definitions: %w", err)
	}
	return nil
}

// ListProfiles implements profiles.ProfileLister
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, csv_data, definitions, updated_at FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []core.Profile{}
	for rows.Next() {
		var (
			p         core.Profile
			raw       string
			updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.CSVData, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if p.CustomSummaries, err = decodeDefinitions([]byte(raw)); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
