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

// Package resume implements the resume command.
package resume

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/mcp/server"
)

// NewCommand creates the resume command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <task-id>",
		Short: "Show everything needed to continue an interrupted task",
		Long: `Show the plan, the next pending step, the last checkpoint data and the
progress summary, read from a single snapshot of the stored plan.

The text form is the same brief the MCP server's resume_task prompt produces.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			state, err := rt.Tracker.Resume(cmd.Context(), args[0])
			if err != nil {
				return shared.TrackerError("failed to load plan", err)
			}
			if state == nil {
				return shared.NewNotFoundError(fmt.Sprintf("plan %s not found", args[0]), nil)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, state)
			}
			fmt.Fprint(out, server.ResumeBrief(state))
			return nil
		},
	}
}
