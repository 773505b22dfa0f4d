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

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-adapters/tracker/internal/progress"
	"github.com/mcp-adapters/tracker/internal/progress/backend/file"
)

func newFileStore(t *testing.T) *file.Store {
	t.Helper()
	s, err := file.New(file.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func nextChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "changes channel closed")
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered within 5s")
		return Change{}
	}
}

func TestNew_RequiresFileStore(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	files := newFileStore(t)
	w, err := New(files, Options{})
	require.NoError(t, err)
	defer w.fsw.Close()

	doc := files.Path("deploy")
	tests := []struct {
		name   string
		event  fsnotify.Event
		want   Event
		wantOK bool
	}{
		{"create", fsnotify.Event{Name: doc, Op: fsnotify.Create}, EventUpdated, true},
		{"write", fsnotify.Event{Name: doc, Op: fsnotify.Write}, EventUpdated, true},
		{"remove", fsnotify.Event{Name: doc, Op: fsnotify.Remove}, EventRemoved, true},
		{"rename away", fsnotify.Event{Name: doc, Op: fsnotify.Rename}, EventRemoved, true},
		{"chmod only", fsnotify.Event{Name: doc, Op: fsnotify.Chmod}, "", false},
		{"temp file", fsnotify.Event{Name: doc + ".tmp", Op: fsnotify.Write}, "", false},
		{"foreign file", fsnotify.Event{Name: filepath.Join(files.Dir(), "notes.txt"), Op: fsnotify.Write}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := w.translate(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, "deploy", c.TaskID)
			assert.Equal(t, tt.want, c.Event)
			assert.Equal(t, doc, c.Path)
		})
	}
}

func TestWatcher_DeliversSaves(t *testing.T) {
	files := newFileStore(t)
	w, err := New(files, Options{Window: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	tr := progress.New(files)
	_, err = tr.CreatePlan(ctx, progress.CreateRequest{TaskID: "watched", Steps: []string{"a"}})
	require.NoError(t, err)

	c := nextChange(t, w.Changes())
	assert.Equal(t, "watched", c.TaskID)
	assert.Equal(t, EventUpdated, c.Event)
	assert.False(t, c.Time.IsZero())

	require.NoError(t, os.Remove(files.Path("watched")))
	c = nextChange(t, w.Changes())
	assert.Equal(t, EventRemoved, c.Event)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The channel is closed once Run returns.
	for range w.Changes() {
	}
}
