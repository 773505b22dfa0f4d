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

// Package file provides the default plan store: one human-readable document
// per task in a single directory.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/progress"
)

// Compile-time interface assertion.
var _ progress.Store = (*Store)(nil)

// Store keeps each plan in <dir>/<task_id>.<ext>.
type Store struct {
	dir    string
	codec  codec
	logger *slog.Logger
}

// Config contains file store configuration.
type Config struct {
	// Dir is the storage root. It is created if missing.
	Dir string

	// Format selects the document encoding (json or yaml). Default: json.
	Format Format

	// Logger receives storage warnings. Default: discard.
	Logger *slog.Logger
}

// New creates a file store rooted at cfg.Dir.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	c, err := codecFor(cfg.Format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Store{
		dir:    cfg.Dir,
		codec:  c,
		logger: log.WithComponent(logger, "file-store"),
	}, nil
}

// Dir returns the storage root.
func (s *Store) Dir() string {
	return s.dir
}

// Ext returns the file extension including the dot.
func (s *Store) Ext() string {
	return s.codec.ext()
}

// Path returns the document path for taskID.
func (s *Store) Path(taskID string) string {
	return filepath.Join(s.dir, taskID+s.codec.ext())
}

// TaskIDFromPath returns the task id for a document name, or false when the
// name does not carry this store's extension. Temp files never match.
func (s *Store) TaskIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, s.codec.ext()) {
		return "", false
	}
	id := strings.TrimSuffix(name, s.codec.ext())
	return id, id != ""
}

// Load reads the plan for taskID. A missing file is reported as (nil, nil).
func (s *Store) Load(ctx context.Context, taskID string) (*progress.TaskPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(taskID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	plan, err := s.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", progress.ErrCorruptPlan, path, err)
	}
	return plan, nil
}

// Save replaces the plan document. The new content is written to a temp
// file first and renamed over the old one, so a crash mid-write leaves the
// previous version intact.
func (s *Store) Save(ctx context.Context, plan *progress.TaskPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.encode(plan)
	if err != nil {
		return fmt.Errorf("%w: %v", progress.ErrUnencodablePlan, err)
	}

	path := s.Path(plan.TaskID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace plan: %w", err)
	}
	return nil
}

// List returns the ids of all plan documents in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, s.codec.ext()) {
			ids = append(ids, strings.TrimSuffix(name, s.codec.ext()))
		}
	}
	return ids, nil
}
