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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-adapters/tracker/internal/progress"
)

func TestBackend_CopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b := New()

	p := &progress.TaskPlan{TaskID: "m", Title: "orig", Metadata: map[string]any{"k": "v"}}
	require.NoError(t, b.Save(ctx, p))
	p.Title = "mutated"
	p.Metadata["k"] = "changed"

	got, err := b.Load(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Title)
	assert.Equal(t, "v", got.Metadata["k"])

	got.Title = "again"
	stored, _ := b.Load(ctx, "m")
	assert.Equal(t, "orig", stored.Title)
}

func TestBackend_Missing(t *testing.T) {
	got, err := New().Load(context.Background(), "none")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
