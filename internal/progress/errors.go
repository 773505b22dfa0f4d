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
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when an operation references a task with no persisted plan.
	ErrTaskNotFound = errors.New("task not found")

	// ErrStepOutOfRange is returned when a step index is outside [0, total_steps).
	ErrStepOutOfRange = errors.New("step index out of range")

	// ErrCorruptPlan is returned when a stored plan cannot be decoded or violates its invariants.
	ErrCorruptPlan = errors.New("corrupt plan")

	// ErrTaskExists is returned by CreatePlan when a plan exists and overwrite was not requested.
	ErrTaskExists = errors.New("task already exists")

	// ErrInvalidTransition is returned when an update leaves a terminal step.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrInvalidTaskID is returned for empty task ids or ids that are not usable as a file stem.
	ErrInvalidTaskID = errors.New("invalid task id")

	// ErrNoSteps is returned when a plan is created without any steps.
	ErrNoSteps = errors.New("plan has no steps")

	// ErrUnencodablePlan is returned by stores when plan data has no JSON or YAML
	// representation, such as a NaN output value.
	ErrUnencodablePlan = errors.New("plan data cannot be encoded")
)

// OpError records the failed tracker operation and the task it targeted.
type OpError struct {
	// Op is the tracker operation, e.g. "update_step".
	Op string

	// TaskID is the task the operation targeted.
	TaskID string

	// StepIndex is the step targeted by the operation, or -1.
	StepIndex int

	// Err is the underlying cause; one of the package sentinels is always in its chain
	// unless the failure came from the store.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.StepIndex >= 0 {
		return fmt.Sprintf("%s %s step %d: %v", e.Op, e.TaskID, e.StepIndex, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *OpError) Unwrap() error {
	return e.Err
}

// ErrorType classifies the error for callers that branch on categories.
func (e *OpError) ErrorType() string {
	switch {
	case errors.Is(e.Err, ErrTaskNotFound):
		return "not_found"
	case errors.Is(e.Err, ErrStepOutOfRange), errors.Is(e.Err, ErrInvalidTaskID),
		errors.Is(e.Err, ErrNoSteps), errors.Is(e.Err, ErrInvalidTransition),
		errors.Is(e.Err, ErrUnencodablePlan):
		return "validation"
	case errors.Is(e.Err, ErrTaskExists):
		return "conflict"
	case errors.Is(e.Err, ErrCorruptPlan):
		return "corrupt"
	default:
		return "storage"
	}
}

// IsRetryable reports whether repeating the same call could succeed.
// Only storage failures qualify; every other category is deterministic.
func (e *OpError) IsRetryable() bool {
	return e.ErrorType() == "storage"
}

// Suggestion returns a short remediation hint for the operator.
func (e *OpError) Suggestion() string {
	switch e.ErrorType() {
	case "not_found":
		return "Create the plan first or check the task id with 'tracker plan list'"
	case "conflict":
		return "Pass --overwrite to replace the existing plan"
	case "corrupt":
		return "Inspect or restore the stored plan document; it no longer decodes into a valid plan"
	case "validation":
		if errors.Is(e.Err, ErrUnencodablePlan) {
			return "Outputs, metadata and checkpoint data must be plain JSON values"
		}
		return "Check the step index and status against 'tracker plan show'"
	default:
		return ""
	}
}

func opError(op, taskID string, stepIndex int, err error) error {
	return &OpError{Op: op, TaskID: taskID, StepIndex: stepIndex, Err: err}
}
