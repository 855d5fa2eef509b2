package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close also failed: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// schema is applied idempotently at startup. Tournament structure lives in
// JSONB documents; match results are relational because they are written by
// the match-reporting side and only read here.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		phases JSONB NOT NULL DEFAULT '[]',
		participating_teams JSONB NOT NULL DEFAULT '[]',
		prize_distribution JSONB NOT NULL DEFAULT '[]',
		final_standings JSONB,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		phase_name TEXT NOT NULL,
		match_number INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tournament_id, phase_name, match_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_tournament_phase_status
		ON matches (tournament_id, phase_name, status)`,
	`CREATE TABLE IF NOT EXISTS match_team_results (
		match_id INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		team_id INTEGER NOT NULL,
		position INTEGER,
		kills INTEGER NOT NULL DEFAULT 0,
		damage INTEGER,
		survival_seconds INTEGER,
		PRIMARY KEY (match_id, team_id)
	)`,
}

// EnsureSchema creates the tables the engine reads and writes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
