// Package postgres opens the database/sql pool over the pgx driver and owns the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables used by the branch, member, concept and outbox stores.
// Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS branches (
		path       TEXT PRIMARY KEY,
		metadata   JSONB NOT NULL DEFAULT '{}',
		head       TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refset_members (
		internal_id             UUID PRIMARY KEY,
		member_id               TEXT NOT NULL,
		refset_id               TEXT NOT NULL,
		referenced_component_id TEXT NOT NULL,
		module_id               TEXT NOT NULL,
		active                  BOOLEAN NOT NULL,
		released                BOOLEAN NOT NULL DEFAULT FALSE,
		effective_time          TEXT NOT NULL DEFAULT '',
		released_effective_time TEXT NOT NULL DEFAULT '',
		release_hash            TEXT NOT NULL DEFAULT '',
		additional_fields       JSONB NOT NULL DEFAULT '{}',
		path                    TEXT NOT NULL,
		start_time              TIMESTAMPTZ NOT NULL,
		end_time                TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS refset_members_version_idx
		ON refset_members (path, member_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS refset_members_refset_idx
		ON refset_members (path, refset_id, active)`,
	`CREATE TABLE IF NOT EXISTS concept_terms (
		path       TEXT NOT NULL,
		concept_id TEXT NOT NULL,
		fsn        TEXT NOT NULL DEFAULT '',
		pt         TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (path, concept_id)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id             UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		payload        JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		published_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_unpublished_idx
		ON outbox (created_at) WHERE published_at IS NULL`,
}
