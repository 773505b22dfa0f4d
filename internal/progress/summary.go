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

package progress

import (
	"encoding/json"
	"fmt"
	"math"
)

// CurrentStepComplete is reported as the current step when the current
// index points past the last step.
const CurrentStepComplete = "Complete"

// NotFoundMessage is the error record returned by Summary for missing plans.
const NotFoundMessage = "Task not found"

// StepSummary is the per-step part of a Summary.
type StepSummary struct {
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// Summary is the human-readable progress report for a plan. When the plan
// does not exist only Error is set.
type Summary struct {
	TaskID      string        `json:"task_id,omitempty"`
	Title       string        `json:"title,omitempty"`
	Progress    string        `json:"progress,omitempty"`
	Percentage  float64       `json:"percentage"`
	CurrentStep string        `json:"current_step,omitempty"`
	Status      PlanStatus    `json:"status,omitempty"`
	Steps       []StepSummary `json:"steps,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Found reports whether the summary describes an existing plan.
func (s Summary) Found() bool {
	return s.Error == ""
}

// MarshalJSON encodes a missing-plan summary as the bare error record.
func (s Summary) MarshalJSON() ([]byte, error) {
	if !s.Found() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{s.Error})
	}
	type summary Summary
	return json.Marshal(summary(s))
}

// NotFoundSummary returns the error record for a missing plan.
func NotFoundSummary() Summary {
	return Summary{Error: NotFoundMessage}
}

// Summarize builds the summary of plan. Completion is detected by
// completed_steps == total_steps.
func Summarize(plan *TaskPlan) Summary {
	s := Summary{
		TaskID:     plan.TaskID,
		Title:      plan.Title,
		Progress:   fmt.Sprintf("%d/%d", plan.CompletedSteps, plan.TotalSteps),
		Percentage: Percentage(plan.CompletedSteps, plan.TotalSteps),
		Status:     PlanInProgress,
		Steps:      make([]StepSummary, len(plan.Steps)),
	}

	if plan.CurrentStepIndex >= 0 && plan.CurrentStepIndex < len(plan.Steps) {
		s.CurrentStep = plan.Steps[plan.CurrentStepIndex].Description
	} else {
		s.CurrentStep = CurrentStepComplete
	}

	if plan.CompletedSteps == plan.TotalSteps {
		s.Status = PlanComplete
	}

	for i, step := range plan.Steps {
		s.Steps[i] = StepSummary{Description: step.Description, Status: step.Status}
	}
	return s
}

// Percentage returns completed/total as a percentage rounded to one decimal.
// An empty plan counts as fully complete.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 100.0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
