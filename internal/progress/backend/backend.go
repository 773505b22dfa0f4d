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

// Package backend opens the plan store selected by configuration.
package backend

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mcp-adapters/tracker/internal/config"
	"github.com/mcp-adapters/tracker/internal/progress"
	"github.com/mcp-adapters/tracker/internal/progress/backend/file"
	"github.com/mcp-adapters/tracker/internal/progress/backend/memory"
	"github.com/mcp-adapters/tracker/internal/progress/backend/sqlite"
)

// Opened is a store together with what was resolved while opening it.
type Opened struct {
	Store progress.Store

	// Dir is the resolved storage root. Empty for the memory backend.
	Dir string

	// Files is set for the file backend; the watcher needs its naming rules.
	Files *file.Store

	closer io.Closer
}

// Close releases the store's resources, if it holds any.
func (o *Opened) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// Open creates the store described by cfg. The storage root is resolved with
// file.ResolveDir, so an unwritable home directory degrades to ./mcp_progress.
func Open(cfg config.StateConfig, logger *slog.Logger) (*Opened, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return &Opened{Store: memory.New()}, nil

	case config.BackendSQLite:
		dir := file.ResolveDir(cfg.Dir, logger)
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(dir, "progress.db")
		}
		db, err := sqlite.New(sqlite.Config{Path: path, WAL: true})
		if err != nil {
			return nil, err
		}
		return &Opened{Store: db, Dir: dir, closer: db}, nil

	case config.BackendFile, "":
		dir := file.ResolveDir(cfg.Dir, logger)
		fs, err := file.New(file.Config{
			Dir:    dir,
			Format: file.Format(cfg.Format),
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return &Opened{Store: fs, Dir: dir, Files: fs}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
