package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
	"tally/internal/profiles"
)

var _ profiles.Store = (*PostgresRepository)(nil)

// PostgresRepository stores profiles in Postgres through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository migrates the database at databaseURL and opens a pool.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *PostgresRepository) GetText(ctx context.Context, profileID string) (string, bool, error) {
	var text string
	err := r.pool.QueryRow(ctx, `SELECT csv_data FROM profiles WHERE id = $1`, profileID).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get profile text: %w", err)
	}
	return text, true, nil
}

func (r *PostgresRepository) SetText(ctx context.Context, profileID, text string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, csv_data, updated_at) VALUES ($1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET csv_data = EXCLUDED.csv_data, updated_at = now()`,
		profileID, text)
	if err != nil {
		return fmt.Errorf("set profile text: %w", err)
	}

	slog.InfoContext(ctx, "Profile text saved to Postgres",
		"profile_id", profileID,
		"bytes", len(text))
	return nil
}

func (r *PostgresRepository) ListDefinitions(ctx context.Context, profileID string) ([]core.CustomSummaryDefinition, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT definitions::text FROM profiles WHERE id = $1`, profileID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []core.CustomSummaryDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get definitions: %w", err)
	}
	return decodeDefinitions(raw)
}

func (r *PostgresRepository) SaveDefinitions(ctx context.Context, profileID string, defs []core.CustomSummaryDefinition) error {
	raw, err := encodeDefinitions(defs)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, definitions, updated_at) VALUES ($1, $1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET definitions = EXCLUDED.definitions, updated_at = now()`,
		profileID, raw)
	if err != nil {
		return fmt.Errorf("save definitions: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, csv_data, definitions::text, updated_at FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []core.Profile{}
	for rows.Next() {
		var (
			p   core.Profile
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.CSVData, &raw, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if p.CustomSummaries, err = decodeDefinitions(raw); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}
