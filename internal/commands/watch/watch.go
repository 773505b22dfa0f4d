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

// Package watch implements the watch command.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	statuscmd "github.com/mcp-adapters/tracker/internal/commands/status"
	"github.com/mcp-adapters/tracker/internal/progress"
	"github.com/mcp-adapters/tracker/internal/selector"
	"github.com/mcp-adapters/tracker/internal/watch"
)

// NewCommand creates the watch command.
func NewCommand() *cobra.Command {
	var (
		match    string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [task-id]",
		Short: "Follow plans as other processes update them",
		Long: `Print a plan's summary every time its document changes on disk, e.g. while
an agent works through the steps. Without a task id every plan matching
--match (default: all) is followed.

Only the file backend can be watched. Stop with Ctrl-C.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completion.CompleteTaskIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				match = args[0]
			}
			sel, err := selector.New(match, "")
			if err != nil {
				return shared.NewInvalidInputError("invalid match pattern", err)
			}

			rt, err := shared.OpenRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			if rt.Backend.Files == nil {
				return shared.NewInvalidInputError(fmt.Sprintf("watch requires the file backend, not %q", rt.Config.State.Backend), nil)
			}

			w, err := watch.New(rt.Backend.Files, watch.Options{Window: debounce, Logger: rt.Logger})
			if err != nil {
				return shared.NewFailureError("failed to start watcher", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Follow(ctx, cmd.OutOrStdout(), rt.Tracker, w, sel)
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "Glob over task ids to follow")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultWindow, "Quiet period before reporting a change")

	return cmd
}

// Follow prints the summary of every selected plan once, then again after
// each change, until ctx is cancelled.
func Follow(ctx context.Context, out io.Writer, t *progress.Tracker, w *watch.Watcher, sel *selector.Selector) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	initial, err := selector.Select(ctx, t, sel)
	if err != nil {
		return shared.TrackerError("failed to list plans", err)
	}
	for _, m := range initial {
		if m.Plan != nil {
			report(out, progress.Summarize(m.Plan))
		}
	}

	for change := range w.Changes() {
		if !sel.MatchID(change.TaskID) {
			continue
		}
		if change.Event == watch.EventRemoved {
			// Atomic saves show up as a rename; only report a real removal.
			if plan, err := t.LoadPlan(ctx, change.TaskID); err == nil && plan != nil {
				report(out, progress.Summarize(plan))
			} else if err == nil {
				fmt.Fprintln(out, shared.RenderWarn(change.TaskID+" removed"))
			}
			continue
		}

		sum, err := t.Summary(ctx, change.TaskID)
		if err != nil {
			fmt.Fprintln(out, shared.RenderError(err.Error()))
			continue
		}
		if sum.Found() {
			report(out, sum)
		}
	}

	if err := <-errCh; err != nil {
		return shared.NewFailureError("watch failed", err)
	}
	return nil
}

func report(out io.Writer, sum progress.Summary) {
	if shared.GetJSON() {
		shared.EmitJSON(out, sum)
		return
	}
	fmt.Fprintln(out, shared.RenderLabel(time.Now().Format("15:04:05")))
	statuscmd.Print(out, sum)
	fmt.Fprintln(out)
}
