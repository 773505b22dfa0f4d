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

// Package progress provides durable, step-level bookkeeping for long-running
// multi-step automations.
//
// A TaskPlan is created once from an ordered list of step descriptions and is
// then only mutated through step updates and checkpoint writes. Every mutation
// re-persists the whole plan through a Store, so a fresh Tracker pointed at the
// same storage can resume where the previous process stopped.
package progress

import (
	"fmt"
	"maps"
	"time"
)

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	// StatusPending means the step has not been started.
	StatusPending StepStatus = "pending"
	// StatusInProgress means the step has been started but not finished.
	StatusInProgress StepStatus = "in_progress"
	// StatusCompleted is terminal: the step finished successfully.
	StatusCompleted StepStatus = "completed"
	// StatusFailed is terminal: the step finished with an error.
	StatusFailed StepStatus = "failed"
)

// Terminal reports whether no further transition is defined out of s.
func (s StepStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s StepStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ParseStepStatus converts a wire string into a StepStatus.
func ParseStepStatus(s string) (StepStatus, error) {
	status := StepStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown step status %q (must be pending, in_progress, completed or failed)", s)
	}
	return status, nil
}

// PlanStatus is the plan-level status derived from the step counters.
type PlanStatus string

const (
	PlanInProgress PlanStatus = "in_progress"
	PlanComplete   PlanStatus = "complete"
)

// CheckpointKey is the metadata key holding the most recent checkpoint.
const CheckpointKey = "last_checkpoint"

// TaskStep is one unit of work within a plan.
type TaskStep struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description" yaml:"description"`
	Status      StepStatus     `json:"status" yaml:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"` // set on completed and failed
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
	Output      map[string]any `json:"output,omitempty" yaml:"output,omitempty"`
}

// TaskPlan is the durable record of an ordered set of steps.
type TaskPlan struct {
	TaskID           string         `json:"task_id" yaml:"task_id"`
	Title            string         `json:"title" yaml:"title"`
	Steps            []TaskStep     `json:"steps" yaml:"steps"`
	CreatedAt        time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" yaml:"updated_at"`
	TotalSteps       int            `json:"total_steps" yaml:"total_steps"`
	CompletedSteps   int            `json:"completed_steps" yaml:"completed_steps"`
	CurrentStepIndex int            `json:"current_step_index" yaml:"current_step_index"`
	Status           PlanStatus     `json:"status,omitempty" yaml:"status,omitempty"`
	Metadata         map[string]any `json:"metadata" yaml:"metadata"`
}

// Checkpoint is the opaque recovery payload attached to a plan.
type Checkpoint struct {
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Data      map[string]any `json:"data" yaml:"data"`
}

// StepID returns the identifier of the step at index in the plan taskID.
func StepID(taskID string, index int) string {
	return fmt.Sprintf("%s_step_%d", taskID, index)
}

// Finished reports whether every step has completed.
func (p *TaskPlan) Finished() bool {
	return p.CompletedSteps == p.TotalSteps
}

// refreshStatus recomputes the plan-level status from the counters.
func (p *TaskPlan) refreshStatus() {
	if p.Finished() {
		p.Status = PlanComplete
	} else {
		p.Status = PlanInProgress
	}
}

// Validate checks the structural invariants of a plan.
func (p *TaskPlan) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("missing task_id")
	}
	if p.TotalSteps != len(p.Steps) {
		return fmt.Errorf("total_steps is %d but plan has %d steps", p.TotalSteps, len(p.Steps))
	}

	completed := 0
	seen := make(map[string]struct{}, len(p.Steps))
	for i, step := range p.Steps {
		if !step.Status.Valid() {
			return fmt.Errorf("step %d has unknown status %q", i, step.Status)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		seen[step.ID] = struct{}{}
		if step.Status == StatusCompleted {
			completed++
		}
	}
	if completed != p.CompletedSteps {
		return fmt.Errorf("completed_steps is %d but %d steps are completed", p.CompletedSteps, completed)
	}
	return nil
}

// LastCheckpoint returns the most recent checkpoint, if any.
//
// Plans decoded from disk hold the checkpoint as a generic map, so both the
// typed and the decoded representations are accepted.
func (p *TaskPlan) LastCheckpoint() (*Checkpoint, bool) {
	raw, ok := p.Metadata[CheckpointKey]
	if !ok || raw == nil {
		return nil, false
	}

	switch cp := raw.(type) {
	case Checkpoint:
		return &cp, true
	case *Checkpoint:
		return cp, cp != nil
	case map[string]any:
		out := &Checkpoint{}
		if data, ok := cp["data"].(map[string]any); ok {
			out.Data = data
		}
		switch ts := cp["timestamp"].(type) {
		case string:
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				out.Timestamp = t
			}
		case time.Time:
			out.Timestamp = ts
		}
		return out, true
	}
	return nil, false
}

// Clone returns a deep copy of the plan so callers cannot mutate stored state.
func (p *TaskPlan) Clone() *TaskPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Steps = make([]TaskStep, len(p.Steps))
	for i, step := range p.Steps {
		out.Steps[i] = step.clone()
	}
	out.Metadata = cloneMap(p.Metadata)
	return &out
}

func (s TaskStep) clone() TaskStep {
	out := s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	out.Output = cloneMap(s.Output)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case Checkpoint:
		return Checkpoint{Timestamp: val.Timestamp, Data: cloneMap(val.Data)}
	case map[string]string:
		return maps.Clone(val)
	default:
		return val
	}
}
