// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite provides a SQLite plan store for hosts that prefer a single
// database file over one document per task.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// Compile-time interface assertion.
var _ progress.Store = (*Backend)(nil)

// Backend is a SQLite plan store. Each row holds the whole plan document,
// replaced wholesale on every save.
type Backend struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent readers.
	WAL bool
}

// New opens (and migrates) the database at cfg.Path.
func New(cfg Config) (*Backend, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store: database path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so only 1 connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	b := &Backend{db: db}

	if err := b.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}

	if err := b.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return b, nil
}

func (b *Backend) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := b.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (b *Backend) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			task_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_updated_at ON plans(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := b.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the plan for taskID, or (nil, nil) when there is no row.
func (b *Backend) Load(ctx context.Context, taskID string) (*progress.TaskPlan, error) {
	var document string
	err := b.db.QueryRowContext(ctx,
		`SELECT document FROM plans WHERE task_id = ?`, taskID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}

	var plan progress.TaskPlan
	if err := json.Unmarshal([]byte(document), &plan); err != nil {
		return nil, fmt.Errorf("%w: row %s: %v", progress.ErrCorruptPlan, taskID, err)
	}
	return &plan, nil
}

// Save upserts the plan row.
func (b *Backend) Save(ctx context.Context, plan *progress.TaskPlan) error {
	document, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("%w: %v", progress.ErrUnencodablePlan, err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO plans (task_id, title, status, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			document = excluded.document,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		plan.TaskID,
		plan.Title,
		string(plan.Status),
		string(document),
		plan.CreatedAt.Format(time.RFC3339Nano),
		plan.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// List returns all task ids ordered by id.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT task_id FROM plans ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}
