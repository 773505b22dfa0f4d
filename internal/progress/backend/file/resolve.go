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

package file

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mcp-adapters/tracker/internal/log"
)

const (
	// EnvMemoryPath names the base memory directory shared by the MCP servers.
	// Plans live in its "progress" subdirectory.
	EnvMemoryPath = "MCP_MEMORY_PATH"

	// FallbackDir is used, relative to the working directory, when the
	// preferred storage root cannot be created.
	FallbackDir = "mcp_progress"
)

// DefaultDir returns the preferred storage root: $MCP_MEMORY_PATH/progress,
// or ~/.claude-memory/progress. It returns "" when neither can be determined.
func DefaultDir() string {
	if base := os.Getenv(EnvMemoryPath); base != "" {
		return filepath.Join(base, "progress")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude-memory", "progress")
}

// ResolveDir picks and creates the storage root. Priority: explicit, then
// DefaultDir. If the chosen directory cannot be created the failure is logged
// and ./mcp_progress is used instead; ResolveDir never fails.
func ResolveDir(explicit string, logger *slog.Logger) string {
	if logger == nil {
		logger = log.Discard()
	}

	dir := explicit
	if dir == "" {
		dir = DefaultDir()
	}

	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err == nil {
			return dir
		}
		logger.Warn("cannot create state directory, using local directory",
			slog.String("dir", dir),
			slog.String("fallback", FallbackDir),
			log.Error(err))
	} else {
		logger.Warn("cannot determine home directory, using local directory",
			slog.String("fallback", FallbackDir))
	}

	fallback := "." + string(filepath.Separator) + FallbackDir
	if err := os.MkdirAll(fallback, 0700); err != nil {
		logger.Error("cannot create fallback state directory",
			slog.String("dir", fallback), log.Error(err))
	}
	return fallback
}
