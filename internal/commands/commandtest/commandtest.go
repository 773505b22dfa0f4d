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

// Package commandtest runs tracker subcommands under a fresh root command
// against a temporary plan directory.
package commandtest

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/cli"
)

// Env isolates a test from the user's configuration and terminal and
// returns a fresh plan directory.
func Env(t *testing.T) string {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MCP_MEMORY_PATH", "")
	return t.TempDir()
}

// Result is the captured output of one invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Execute runs sub with args under a new root command using stateDir as the
// plan directory. Creating the root resets the global flags.
func Execute(t *testing.T, stateDir string, sub *cobra.Command, args ...string) (Result, error) {
	t.Helper()

	root := cli.NewRootCommand()
	root.AddCommand(sub)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--state-dir", stateDir))

	err := root.Execute()
	return Result{Stdout: stdout.String(), Stderr: stderr.String()}, err
}
