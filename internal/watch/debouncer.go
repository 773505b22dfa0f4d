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
	"sync"
	"time"
)

// debouncer coalesces bursts of changes per task. An atomic save produces
// several filesystem events (temp write, rename); only the last change for a
// task is delivered once the window has been quiet.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*pendingChange
	onFlush func(Change)
	stopped bool

	// inflight counts flushes running outside the lock.
	inflight sync.WaitGroup
}

type pendingChange struct {
	timer  *time.Timer
	change Change
}

func newDebouncer(window time.Duration, onFlush func(Change)) *debouncer {
	return &debouncer{
		window:  window,
		timers:  make(map[string]*pendingChange),
		onFlush: onFlush,
	}
}

// add records c, replacing any pending change for the same task and
// restarting its timer.
func (d *debouncer) add(c Change) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.window <= 0 {
		d.mu.Unlock()
		d.onFlush(c)
		return
	}
	defer d.mu.Unlock()

	p, ok := d.timers[c.TaskID]
	if ok {
		p.timer.Stop()
		p.change = c
	} else {
		p = &pendingChange{change: c}
		d.timers[c.TaskID] = p
	}

	taskID := c.TaskID
	p.timer = time.AfterFunc(d.window, func() {
		d.flush(taskID)
	})
}

func (d *debouncer) flush(taskID string) {
	d.mu.Lock()
	p, ok := d.timers[taskID]
	if !ok || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, taskID)
	d.inflight.Add(1)
	d.mu.Unlock()

	// Outside the lock: onFlush may block on the consumer.
	defer d.inflight.Done()
	d.onFlush(p.change)
}

// stop cancels pending timers and drops their changes, then waits for
// flushes already in progress. It reports how many changes were dropped.
func (d *debouncer) stop() int {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return 0
	}
	d.stopped = true

	n := len(d.timers)
	for id, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, id)
	}
	d.mu.Unlock()

	d.inflight.Wait()
	return n
}

func (d *debouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
