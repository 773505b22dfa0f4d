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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for the tracker
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Crash-recoverable progress tracking for long-running tasks",
		Long: `tracker records multi-step task plans on disk so that an automation
(an AI agent, a script, a human) can stop at any point and pick up where it
left off.

Plans are stored one document per task under $MCP_MEMORY_PATH/progress or
~/.claude-memory/progress. Run 'tracker mcp-server' to expose the tracker to
an MCP client, or use the plan, step and status commands directly.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	flags := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(flags.Quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(flags.Config, "config", "", "Path to config file (default: ~/.config/tracker/config.yaml)")
	cmd.PersistentFlags().StringVar(flags.StateDir, "state-dir", "", "Directory holding plan documents (overrides config and MCP_MEMORY_PATH)")
	cmd.PersistentFlags().StringVar(flags.Backend, "backend", "", "Plan store backend: file, sqlite or memory")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteBackends)

	cmd.SetHelpCommand(NewHelpCommand(cmd))
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return shared.NewInvalidInputError(err.Error(), nil)
	})

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(cmd *cobra.Command, err error) {
	name := "tracker"
	if cmd != nil {
		name = cmd.Name()
	}
	shared.HandleExitError(name, err)
}
