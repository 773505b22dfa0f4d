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

package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/progress"
)

const (
	taskCacheTTL = 2 * time.Second
	storeTimeout = 500 * time.Millisecond
)

type taskCacheEntry struct {
	tasks     []taskInfo
	expiresAt time.Time
}

type taskInfo struct {
	id          string
	description string
}

var (
	taskCache   *taskCacheEntry
	taskCacheMu sync.RWMutex
)

// lister returns the stored task IDs with descriptions. Tests replace it.
var lister = listTasksFromStore

// CompleteTaskIDs completes the first positional argument with stored task
// IDs. Descriptions carry the plan title and percentage.
func CompleteTaskIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := getTaskCompletions()
		if err != nil || len(tasks) == 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		completions := make([]string, 0, len(tasks))
		for _, t := range tasks {
			if t.description == "" {
				completions = append(completions, t.id)
				continue
			}
			completions = append(completions, t.id+"\t"+t.description)
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})
}

func getTaskCompletions() ([]taskInfo, error) {
	taskCacheMu.RLock()
	if taskCache != nil && time.Now().Before(taskCache.expiresAt) {
		cached := taskCache.tasks
		taskCacheMu.RUnlock()
		return cached, nil
	}
	taskCacheMu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	tasks, err := lister(ctx)
	if err != nil {
		return nil, err
	}

	taskCacheMu.Lock()
	taskCache = &taskCacheEntry{tasks: tasks, expiresAt: time.Now().Add(taskCacheTTL)}
	taskCacheMu.Unlock()

	return tasks, nil
}

func listTasksFromStore(ctx context.Context) ([]taskInfo, error) {
	rt, err := shared.OpenRuntime(ctx)
	if err != nil {
		return nil, err
	}
	defer rt.Close(ctx)

	ids, err := rt.Tracker.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]taskInfo, 0, len(ids))
	for _, id := range ids {
		info := taskInfo{id: id}
		if plan, err := rt.Tracker.LoadPlan(ctx, id); err == nil && plan != nil {
			pct := progress.Percentage(plan.CompletedSteps, plan.TotalSteps)
			info.description = fmt.Sprintf("%s (%.1f%%)", plan.Title, pct)
		}
		tasks = append(tasks, info)
	}
	return tasks, nil
}

func resetCache() {
	taskCacheMu.Lock()
	taskCache = nil
	taskCacheMu.Unlock()
}
