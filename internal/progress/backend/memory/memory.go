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

// Package memory provides an in-memory plan store for tests and ephemeral
// sessions. Nothing survives the process.
package memory

import (
	"context"
	"sync"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// Compile-time interface assertion.
var _ progress.Store = (*Backend)(nil)

// Backend is an in-memory plan store. Plans are deep-copied on the way in
// and out so callers cannot mutate stored state.
type Backend struct {
	mu    sync.RWMutex
	plans map[string]*progress.TaskPlan
}

// New creates an empty in-memory store.
func New() *Backend {
	return &Backend{
		plans: make(map[string]*progress.TaskPlan),
	}
}

// Load returns a copy of the stored plan, or (nil, nil).
func (b *Backend) Load(ctx context.Context, taskID string) (*progress.TaskPlan, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	plan, ok := b.plans[taskID]
	if !ok {
		return nil, nil
	}
	return plan.Clone(), nil
}

// Save stores a copy of plan.
func (b *Backend) Save(ctx context.Context, plan *progress.TaskPlan) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.plans[plan.TaskID] = plan.Clone()
	return nil
}

// List returns the ids of all stored plans.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.plans))
	for id := range b.plans {
		ids = append(ids, id)
	}
	return ids, nil
}
