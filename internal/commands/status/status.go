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

// Package status implements the status command.
package status

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/jq"
	"github.com/mcp-adapters/tracker/internal/progress"
)

// NewCommand creates the status command.
func NewCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the progress summary of a plan",
		Long: `Show the progress summary of a plan: completed/total, percentage, the
current step and every step's status.

--query applies a jq expression to the JSON summary and prints the result.`,
		Example: `  tracker status deploy
  tracker status deploy --query '.percentage'
  tracker status deploy --query '[.steps[] | select(.status == "failed") | .description]'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			executor := jq.NewExecutor(0, 0)
			if err := executor.Validate(query); err != nil {
				return shared.NewInvalidInputError("invalid --query", err)
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			sum, err := rt.Tracker.Summary(cmd.Context(), args[0])
			if err != nil {
				return shared.TrackerError("failed to summarise plan", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case query != "":
				result, err := executor.Execute(cmd.Context(), query, sum)
				if err != nil {
					return shared.NewInvalidInputError("query failed", err)
				}
				if err := shared.EmitJSON(out, result); err != nil {
					return err
				}
			case shared.GetJSON():
				if err := shared.EmitJSON(out, sum); err != nil {
					return err
				}
			case sum.Found():
				Print(out, sum)
			}

			if !sum.Found() {
				return shared.NewNotFoundError(fmt.Sprintf("plan %s not found", args[0]), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "jq expression applied to the summary")

	return cmd
}

// Print writes the human-readable form of sum.
func Print(w io.Writer, sum progress.Summary) {
	fmt.Fprintf(w, "%s  %s\n", shared.RenderHeader(sum.Title), shared.RenderLabel(sum.TaskID))
	fmt.Fprintf(w, "%s (%s)  %s\n", shared.ProgressBar(sum.Percentage, 20), sum.Progress, shared.RenderPlanStatus(sum.Status))
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Current:"), sum.CurrentStep)
	for i, step := range sum.Steps {
		fmt.Fprintf(w, "  %2d  %s  %s\n", i, shared.RenderStepStatus(step.Status), step.Description)
	}
}
