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

// Package step implements the step command group: next and update.
package step

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/progress"
)

// NewCommand creates the step command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Report step transitions and find the next step",
	}

	cmd.AddCommand(newNextCommand())
	cmd.AddCommand(newUpdateCommand())

	return cmd
}

func newNextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next <task-id>",
		Short: "Show the first pending step",
		Long: `Show the first pending step in plan order.

Exits with code 3 when the plan does not exist. When no step is pending the
command succeeds and prints nothing (null with --json).`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			plan, err := rt.Tracker.LoadPlan(cmd.Context(), taskID)
			if err != nil {
				return shared.TrackerError("failed to load plan", err)
			}
			if plan == nil {
				return shared.NewNotFoundError(fmt.Sprintf("plan %s not found", taskID), nil)
			}

			next, err := rt.Tracker.NextStep(cmd.Context(), taskID)
			if err != nil {
				return shared.TrackerError("failed to find next step", err)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, next)
			}
			if next == nil {
				if !shared.GetQuiet() {
					fmt.Fprintln(out, shared.RenderLabel("No pending steps"))
				}
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", next.ID, next.Description)
			return nil
		},
	}
}

func newUpdateCommand() *cobra.Command {
	var (
		status     shared.StatusValue
		outputJSON string
		outputKV   map[string]string
		errMsg     string
	)

	cmd := &cobra.Command{
		Use:   "update <task-id> <step-index>",
		Short: "Record a step transition",
		Long: `Record a step transition.

--status in_progress marks the step started and makes it the current step.
--status completed records it finished (repeating this is harmless).
--status failed records the failure; pass the reason with --error.`,
		Example: `  tracker step update deploy 0 --status in_progress
  tracker step update deploy 0 --status completed --output artifact=build.tgz
  tracker step update deploy 1 --status failed --error "tests timed out"`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return shared.NewInvalidInputError(fmt.Sprintf("step index %q is not a number", args[1]), nil)
			}
			if status.Status() == "" {
				return shared.NewInvalidInputError("--status is required", nil)
			}

			output, err := shared.ParseObject(outputJSON)
			if err != nil {
				return shared.NewInvalidInputError("invalid --output-json", err)
			}
			output = shared.MergePairs(output, outputKV)

			update, err := progress.UpdateFromStatus(status.Status(), output, errMsg)
			if err != nil {
				return shared.NewInvalidInputError("invalid update", err)
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			plan, err := rt.Tracker.UpdateStep(cmd.Context(), taskID, index, update)
			if err != nil {
				return shared.TrackerError("failed to update step", err)
			}

			sum := progress.Summarize(plan)
			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, sum)
			}
			if !shared.GetQuiet() {
				fmt.Fprintf(out, "%s %s  %s\n",
					shared.RenderStepStatus(plan.Steps[index].Status),
					plan.Steps[index].Description,
					shared.RenderLabel(sum.Progress))
			}
			return nil
		},
	}

	cmd.Flags().Var(&status, "status", "New status: in_progress, completed or failed")
	_ = cmd.RegisterFlagCompletionFunc("status", completion.CompleteStepStatus)
	cmd.Flags().StringVar(&outputJSON, "output-json", "", "Step output as a JSON object, or @file")
	cmd.Flags().StringToStringVar(&outputKV, "output", nil, "Step output key=value pairs")
	cmd.Flags().StringVar(&errMsg, "error", "", "Failure message (with --status failed)")

	return cmd
}
