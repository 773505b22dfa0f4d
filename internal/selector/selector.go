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

// Package selector picks plans by task-id glob and a boolean expression
// evaluated against each plan's progress.
package selector

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// Env is what a where-expression can reference, e.g.
//
//	status == "in_progress" && percentage < 50
//	failed > 0 || metadata.priority == "high"
type Env struct {
	TaskID     string         `expr:"task_id"`
	Title      string         `expr:"title"`
	Status     string         `expr:"status"`
	Percentage float64        `expr:"percentage"`
	Completed  int            `expr:"completed"`
	Failed     int            `expr:"failed"`
	Pending    int            `expr:"pending"`
	Total      int            `expr:"total"`
	Metadata   map[string]any `expr:"metadata"`
}

// EnvFor builds the expression environment for plan.
func EnvFor(plan *progress.TaskPlan) Env {
	env := Env{
		TaskID:     plan.TaskID,
		Title:      plan.Title,
		Status:     string(progress.PlanInProgress),
		Percentage: progress.Percentage(plan.CompletedSteps, plan.TotalSteps),
		Completed:  plan.CompletedSteps,
		Total:      plan.TotalSteps,
		Metadata:   plan.Metadata,
	}
	if plan.Finished() {
		env.Status = string(progress.PlanComplete)
	}
	for _, step := range plan.Steps {
		switch step.Status {
		case progress.StatusFailed:
			env.Failed++
		case progress.StatusPending:
			env.Pending++
		}
	}
	return env
}

// Selector filters plans. The zero value matches everything.
type Selector struct {
	match   string
	where   string
	program *vm.Program
}

// New compiles a selector. match is a doublestar glob over task ids and
// where a boolean expr-lang expression over Env; either may be empty.
func New(match, where string) (*Selector, error) {
	s := &Selector{match: match, where: where}

	if match != "" && !doublestar.ValidatePattern(match) {
		return nil, fmt.Errorf("invalid match pattern %q", match)
	}

	if where != "" {
		program, err := expr.Compile(where, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile where expression: %w", err)
		}
		s.program = program
	}
	return s, nil
}

// MatchID reports whether taskID passes the glob.
func (s *Selector) MatchID(taskID string) bool {
	if s == nil || s.match == "" {
		return true
	}
	ok, err := doublestar.Match(s.match, taskID)
	return err == nil && ok
}

// HasWhere reports whether an expression was given.
func (s *Selector) HasWhere() bool {
	return s != nil && s.program != nil
}

// Matches evaluates the where-expression against plan.
func (s *Selector) Matches(plan *progress.TaskPlan) (bool, error) {
	if !s.HasWhere() {
		return true, nil
	}
	out, err := expr.Run(s.program, EnvFor(plan))
	if err != nil {
		return false, fmt.Errorf("where expression failed for %s: %w", plan.TaskID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Match is one selected plan. Err is set when the plan could not be loaded;
// such entries are only reported when no where-expression is in use.
type Match struct {
	TaskID string
	Plan   *progress.TaskPlan
	Err    error
}

// Select lists the tracker's plans and returns those passing s.
func Select(ctx context.Context, t *progress.Tracker, s *Selector) ([]Match, error) {
	ids, err := t.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	var out []Match
	for _, id := range ids {
		if !s.MatchID(id) {
			continue
		}

		plan, err := t.LoadPlan(ctx, id)
		if err != nil {
			if !s.HasWhere() {
				out = append(out, Match{TaskID: id, Err: err})
			}
			continue
		}
		if plan == nil {
			// Removed between list and load.
			continue
		}

		ok, err := s.Matches(plan)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Match{TaskID: id, Plan: plan})
		}
	}
	return out, nil
}

// Entry is the listing form of a Match.
type Entry struct {
	TaskID     string              `json:"task_id"`
	Title      string              `json:"title,omitempty"`
	Progress   string              `json:"progress,omitempty"`
	Percentage float64             `json:"percentage"`
	Status     progress.PlanStatus `json:"status,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Entries summarises matches for listings.
func Entries(matches []Match) []Entry {
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		if m.Err != nil {
			entries = append(entries, Entry{TaskID: m.TaskID, Error: m.Err.Error()})
			continue
		}
		sum := progress.Summarize(m.Plan)
		entries = append(entries, Entry{
			TaskID:     sum.TaskID,
			Title:      sum.Title,
			Progress:   sum.Progress,
			Percentage: sum.Percentage,
			Status:     sum.Status,
		})
	}
	return entries
}
