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

package shared

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mcp-adapters/tracker/internal/progress"
)

var _ pflag.Value = (*StatusValue)(nil)

// StatusValue is a flag accepting the step statuses a caller may set:
// in_progress, completed or failed.
type StatusValue struct {
	status progress.StepStatus
}

// String implements pflag.Value.
func (v *StatusValue) String() string {
	return string(v.status)
}

// Set implements pflag.Value.
func (v *StatusValue) Set(s string) error {
	status, err := progress.ParseStepStatus(s)
	if err != nil {
		return err
	}
	if status == progress.StatusPending {
		return fmt.Errorf("status %q cannot be set explicitly", s)
	}
	v.status = status
	return nil
}

// Type implements pflag.Value.
func (v *StatusValue) Type() string {
	return "status"
}

// Status returns the parsed status, empty when the flag was not given.
func (v *StatusValue) Status() progress.StepStatus {
	return v.status
}
