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

// Package plan implements the plan command group: create, show and list.
package plan

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/progress"
	"github.com/mcp-adapters/tracker/internal/selector"
)

// NewCommand creates the plan command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create, show and list task plans",
	}

	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newListCommand())

	return cmd
}

func newCreateCommand() *cobra.Command {
	var (
		title     string
		steps     []string
		stepsFile string
		meta      map[string]string
		metaJSON  string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "create [task-id]",
		Short: "Create a plan with one pending step per description",
		Long: `Create a task plan. Every step starts pending; the plan is written to the
store immediately so it survives a crash before the first step runs.

When no task id is given one is generated. An existing plan with the same id
is only replaced with --overwrite.`,
		Example: `  tracker plan create deploy --title "Deploy v2" --step build --step test --step ship
  tracker plan create --title "Migrate" --steps-file steps.txt --meta owner=ops`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stepsFile != "" {
				fromFile, err := readSteps(stepsFile)
				if err != nil {
					return shared.NewInvalidInputError("failed to read steps file", err)
				}
				steps = append(steps, fromFile...)
			}

			metadata, err := shared.ParseObject(metaJSON)
			if err != nil {
				return shared.NewInvalidInputError("invalid --meta-json", err)
			}
			metadata = shared.MergePairs(metadata, meta)

			taskID := "task-" + uuid.NewString()
			if len(args) == 1 {
				taskID = args[0]
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			plan, err := rt.Tracker.CreatePlan(cmd.Context(), progress.CreateRequest{
				TaskID:    taskID,
				Title:     title,
				Steps:     steps,
				Metadata:  metadata,
				Overwrite: overwrite,
			})
			if err != nil {
				return shared.TrackerError("failed to create plan", err)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, plan)
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Created plan %s with %d steps", plan.TaskID, plan.TotalSteps)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Plan title")
	cmd.Flags().StringArrayVarP(&steps, "step", "s", nil, "Step description (repeatable, in order)")
	cmd.Flags().StringVar(&stepsFile, "steps-file", "", "File with one step description per line")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Metadata key=value pairs")
	cmd.Flags().StringVar(&metaJSON, "meta-json", "", "Metadata as a JSON object, or @file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing plan with the same id")

	return cmd
}

// readSteps returns the non-blank lines of path. Lines starting with # are skipped.
func readSteps(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var steps []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		steps = append(steps, line)
	}
	return steps, nil
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a stored plan",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			plan, err := rt.Tracker.LoadPlan(cmd.Context(), args[0])
			if err != nil {
				return shared.TrackerError("failed to load plan", err)
			}
			if plan == nil {
				return shared.NewNotFoundError(fmt.Sprintf("plan %s not found", args[0]), nil)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), plan)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func printPlan(w io.Writer, plan *progress.TaskPlan) {
	sum := progress.Summarize(plan)

	fmt.Fprintln(w, shared.RenderHeader(plan.Title))
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Task:    "), plan.TaskID)
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Status:  "), shared.RenderPlanStatus(sum.Status))
	fmt.Fprintf(w, "%s %s (%s)\n", shared.RenderLabel("Progress:"), shared.ProgressBar(sum.Percentage, 20), sum.Progress)
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Updated: "), plan.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)

	for i, step := range plan.Steps {
		fmt.Fprintf(w, "  %2d  %-16s %s\n", i, shared.RenderStepStatus(step.Status), step.Description)
		if step.Error != "" {
			fmt.Fprintf(w, "      %s\n", shared.RenderError(step.Error))
		}
	}

	if cp, ok := plan.LastCheckpoint(); ok {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Checkpoint:"), cp.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
}

func newListCommand() *cobra.Command {
	var match, where string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		Long: `List stored plans with their progress.

--match filters task ids with a glob; --where filters with an expression over
task_id, title, status, percentage, completed, failed, pending, total and
metadata.`,
		Example: `  tracker plan list --match 'deploy-*'
  tracker plan list --where 'status == "in_progress" && failed > 0'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selector.New(match, where)
			if err != nil {
				return shared.NewInvalidInputError("invalid filter", err)
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			matches, err := selector.Select(cmd.Context(), rt.Tracker, sel)
			if err != nil {
				return shared.TrackerError("failed to list plans", err)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, selector.Entries(matches))
			}

			if len(matches) == 0 {
				if !shared.GetQuiet() {
					fmt.Fprintln(out, "No plans found")
				}
				return nil
			}
			for _, m := range matches {
				if m.Err != nil {
					fmt.Fprintf(out, "%-32s %s\n", m.TaskID, shared.RenderError(m.Err.Error()))
					continue
				}
				sum := progress.Summarize(m.Plan)
				fmt.Fprintf(out, "%-32s %-8s %s  %s\n", m.TaskID, sum.Progress, shared.ProgressBar(sum.Percentage, 10), sum.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "Glob over task ids")
	cmd.Flags().StringVar(&where, "where", "", "Boolean filter expression")

	return cmd
}
