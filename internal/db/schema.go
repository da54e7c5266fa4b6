package db

import (
	"context"
	"fmt"
)

// schemaStatements create the StreetPlan tables. Every statement is
// idempotent so EnsureSchema can run on each start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                        TEXT PRIMARY KEY,
		name                      TEXT NOT NULL,
		area_name                 TEXT NOT NULL,
		baseline_parking_pressure DOUBLE PRECISION NOT NULL CHECK (baseline_parking_pressure BETWEEN 0 AND 200),
		baseline_parking_spots    INTEGER NOT NULL CHECK (baseline_parking_spots >= 0),
		layout_json               TEXT NOT NULL,
		notes                     TEXT,
		created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS intersections (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		x          DOUBLE PRECISION NOT NULL,
		y          DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		type          TEXT NOT NULL CHECK (type IN ('PARKING', 'GREEN', 'OTHER')),
		geometry_json TEXT NOT NULL,
		capacity      INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS cost_configs (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		key        TEXT NOT NULL,
		unit_cost  DOUBLE PRECISION NOT NULL,
		unit_opex  DOUBLE PRECISION NOT NULL,
		UNIQUE (project_id, key)
	)`,
	`CREATE TABLE IF NOT EXISTS designs (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		respondent_type TEXT NOT NULL,
		postal_code4    TEXT,
		age_group       TEXT NOT NULL,
		sliders         JSONB NOT NULL,
		metrics         JSONB NOT NULL,
		client_hash     TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS designs_project_created_idx ON designs (project_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS intersections_project_idx ON intersections (project_id, position)`,
	`CREATE INDEX IF NOT EXISTS zones_project_idx ON zones (project_id, position)`,
}

// EnsureSchema creates any missing tables and indexes. It stops at the first
// failing statement.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
