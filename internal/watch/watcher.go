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

// Package watch reports plan changes made by other processes sharing the
// file store, e.g. an agent updating steps while a human follows along.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/progress/backend/file"
)

// DefaultWindow is the quiet period before a change is delivered.
const DefaultWindow = 100 * time.Millisecond

// Event classifies a change.
type Event string

const (
	// EventUpdated means the plan document was created or replaced.
	EventUpdated Event = "updated"

	// EventRemoved means the plan document disappeared.
	EventRemoved Event = "removed"
)

// Change is one debounced plan change.
type Change struct {
	TaskID string
	Path   string
	Event  Event
	Time   time.Time
}

// Options configures a Watcher.
type Options struct {
	// Window is the debounce window. Default: DefaultWindow. Negative disables debouncing.
	Window time.Duration

	// Logger receives watcher diagnostics. Default: discard.
	Logger *slog.Logger
}

// Watcher follows a file store's directory.
type Watcher struct {
	files   *file.Store
	fsw     *fsnotify.Watcher
	changes chan Change
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// New starts watching the directory of files. Run must be called to
// deliver changes.
func New(files *file.Store, opts Options) (*Watcher, error) {
	if files == nil {
		return nil, errors.New("watch requires the file backend")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(files.Dir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", files.Dir(), err)
	}

	window := opts.Window
	if window == 0 {
		window = DefaultWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Watcher{
		files:   files,
		fsw:     fsw,
		changes: make(chan Change, 64),
		window:  window,
		logger:  log.WithComponent(logger, "watch").With(slog.String("dir", files.Dir())),
		now:     time.Now,
	}, nil
}

// Changes returns the delivery channel. It is closed when Run returns.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run processes filesystem events until ctx is cancelled or the underlying
// watcher fails. Pending debounced changes are dropped on exit.
func (w *Watcher) Run(ctx context.Context) error {
	done := make(chan struct{})
	deb := newDebouncer(w.window, func(c Change) {
		select {
		case w.changes <- c:
		case <-ctx.Done():
		case <-done:
		}
	})
	defer close(w.changes)
	defer w.fsw.Close()
	defer func() {
		close(done)
		if n := deb.stop(); n > 0 {
			w.logger.Debug("dropped pending changes", slog.Int("count", n))
		}
	}()

	w.logger.Info("watching plans")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			if c, ok := w.translate(event); ok {
				deb.add(c)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			w.logger.Error("watch error", slog.Any("error", err))
		}
	}
}

// translate maps an fsnotify event on a plan document to a Change. Temp
// files, foreign files and chmod-only events are ignored.
func (w *Watcher) translate(event fsnotify.Event) (Change, bool) {
	taskID, ok := w.files.TaskIDFromPath(event.Name)
	if !ok {
		return Change{}, false
	}

	var kind Event
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		kind = EventUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = EventRemoved
	default:
		return Change{}, false
	}

	w.logger.Debug("plan event", slog.String(log.TaskIDKey, taskID), slog.String("op", event.Op.String()))
	return Change{
		TaskID: taskID,
		Path:   event.Name,
		Event:  kind,
		Time:   w.now(),
	}, true
}
