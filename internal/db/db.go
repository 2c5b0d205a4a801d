// Package db provides PostgreSQL persistence for finalized sessions and
// their results. Persistence is optional: the engine runs fully in memory
// when no database URL is configured.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/persona-engine/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the session and result tables when they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS diagnosis_sessions (
			id UUID PRIMARY KEY,
			seed_keyword TEXT NOT NULL,
			axes JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS diagnosis_results (
			session_id UUID PRIMARY KEY REFERENCES diagnosis_sessions(id),
			algorithm_version TEXT NOT NULL,
			payload JSONB NOT NULL,
			generation_meta JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveSession records a bootstrapped session's immutable metadata.
func (db *DB) SaveSession(ctx context.Context, id uuid.UUID, seedKeyword string, axes []types.Axis) error {
	axesJSON, err := json.Marshal(axes)
	if err != nil {
		return fmt.Errorf("failed to marshal axes: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO diagnosis_sessions (id, seed_keyword, axes)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, seedKeyword, axesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveResult stores a finalized result payload and its generation meta.
func (db *DB) SaveResult(ctx context.Context, sessionID uuid.UUID, result *types.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	meta, err := json.Marshal(result.GenerationMeta)
	if err != nil {
		return fmt.Errorf("failed to marshal generation meta: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO diagnosis_results (session_id, algorithm_version, payload, generation_meta)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, result.AlgorithmVersion, payload, meta,
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult loads a stored result payload by session id. Returns nil when no
// result has been stored.
func (db *DB) GetResult(ctx context.Context, sessionID uuid.UUID) (*types.Result, error) {
	var payload []byte
	err := db.pool.QueryRow(ctx,
		`SELECT payload FROM diagnosis_results WHERE session_id = $1`,
		sessionID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	var result types.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}
