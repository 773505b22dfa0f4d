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

package main

import (
	"github.com/mcp-adapters/tracker/internal/cli"
	"github.com/mcp-adapters/tracker/internal/commands/checkpoint"
	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/config"
	"github.com/mcp-adapters/tracker/internal/commands/mcpconfig"
	"github.com/mcp-adapters/tracker/internal/commands/mcpserver"
	"github.com/mcp-adapters/tracker/internal/commands/plan"
	"github.com/mcp-adapters/tracker/internal/commands/resume"
	"github.com/mcp-adapters/tracker/internal/commands/status"
	"github.com/mcp-adapters/tracker/internal/commands/step"
	versioncmd "github.com/mcp-adapters/tracker/internal/commands/version"
	"github.com/mcp-adapters/tracker/internal/commands/watch"
)

// Version information, set via ldflags during build
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Plan and step commands
	rootCmd.AddCommand(plan.NewCommand())
	rootCmd.AddCommand(step.NewCommand())
	rootCmd.AddCommand(status.NewCommand())

	// Recovery commands
	rootCmd.AddCommand(checkpoint.NewCommand())
	rootCmd.AddCommand(resume.NewCommand())
	rootCmd.AddCommand(watch.NewCommand())

	// MCP commands
	rootCmd.AddCommand(mcpserver.NewCommand())
	rootCmd.AddCommand(mcpconfig.NewCommand())

	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if cmd, err := rootCmd.ExecuteC(); err != nil {
		cli.HandleExitError(cmd, err)
	}
}
