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

// Package checkpoint implements the checkpoint command group: save and restore.
package checkpoint

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
)

// NewCommand creates the checkpoint command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Save and restore recovery data",
		Long: `A checkpoint is an opaque JSON object stored with the plan. Only the most
recent checkpoint is kept; saving replaces it.`,
	}

	cmd.AddCommand(newSaveCommand())
	cmd.AddCommand(newRestoreCommand())

	return cmd
}

func newSaveCommand() *cobra.Command {
	var (
		data  string
		pairs map[string]string
	)

	cmd := &cobra.Command{
		Use:   "save <task-id>",
		Short: "Store recovery data on a plan",
		Example: `  tracker checkpoint save migrate --data '{"last_row": 41000}'
  tracker checkpoint save migrate --data @state.json
  tracker checkpoint save migrate --set cursor=abc --set page=4`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := shared.ParseObject(data)
			if err != nil {
				return shared.NewInvalidInputError("invalid --data", err)
			}
			payload = shared.MergePairs(payload, pairs)
			if payload == nil {
				return shared.NewInvalidInputError("checkpoint data is required (--data or --set)", nil)
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			if err := rt.Tracker.Checkpoint(cmd.Context(), args[0], payload); err != nil {
				return shared.TrackerError("failed to save checkpoint", err)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, map[string]any{"task_id": args[0], "saved": true})
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(out, shared.RenderOK("Checkpoint saved for "+args[0]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Checkpoint data as a JSON object, or @file")
	cmd.Flags().StringToStringVar(&pairs, "set", nil, "Checkpoint key=value pairs")

	return cmd
}

func newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <task-id>",
		Short: "Print the most recent checkpoint data",
		Long: `Print the most recent checkpoint data as JSON.

Exits with code 3 when the plan or its checkpoint does not exist.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			data, err := rt.Tracker.RestoreCheckpoint(cmd.Context(), args[0])
			if err != nil {
				return shared.TrackerError("failed to restore checkpoint", err)
			}
			if data == nil {
				return shared.NewNotFoundError(fmt.Sprintf("no checkpoint for %s", args[0]), nil)
			}
			return shared.EmitJSON(cmd.OutOrStdout(), data)
		},
	}
}
