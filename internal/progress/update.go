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
	"fmt"
)

// StepUpdate describes a single step transition. Construct one with Started,
// Completed or Failed; the zero value is not a valid update.
type StepUpdate struct {
	status StepStatus
	output map[string]any
	errMsg string
}

// Started moves a pending step to in_progress.
func Started() StepUpdate {
	return StepUpdate{status: StatusInProgress}
}

// Completed finishes a step successfully. A nil output leaves any previous
// output in place.
func Completed(output map[string]any) StepUpdate {
	return StepUpdate{status: StatusCompleted, output: output}
}

// Failed finishes a step with an error message.
func Failed(errMsg string, output map[string]any) StepUpdate {
	return StepUpdate{status: StatusFailed, output: output, errMsg: errMsg}
}

// Status returns the status the update transitions to.
func (u StepUpdate) Status() StepStatus {
	return u.status
}

// Output returns the payload attached to the update.
func (u StepUpdate) Output() map[string]any {
	return u.output
}

// Err returns the failure message; empty unless the update is Failed.
func (u StepUpdate) Err() string {
	return u.errMsg
}

// UpdateFromStatus converts free-form input (tool arguments, CLI flags) into
// a StepUpdate. Pending is rejected because no transition back to pending is
// defined, and an error message is only accepted together with failed.
func UpdateFromStatus(status StepStatus, output map[string]any, errMsg string) (StepUpdate, error) {
	switch status {
	case StatusInProgress:
		if errMsg != "" {
			return StepUpdate{}, fmt.Errorf("error message is only allowed with status %q", StatusFailed)
		}
		u := Started()
		u.output = output
		return u, nil
	case StatusCompleted:
		if errMsg != "" {
			return StepUpdate{}, fmt.Errorf("error message is only allowed with status %q", StatusFailed)
		}
		return Completed(output), nil
	case StatusFailed:
		return Failed(errMsg, output), nil
	case StatusPending:
		return StepUpdate{}, fmt.Errorf("cannot transition a step back to %q", StatusPending)
	default:
		return StepUpdate{}, fmt.Errorf("unknown step status %q", status)
	}
}
