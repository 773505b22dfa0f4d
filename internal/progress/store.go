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
	"context"
	"fmt"
	"strings"
)

// Store persists whole plans. Implementations replace the stored document
// wholesale on every Save; there is no partial or delta persistence.
type Store interface {
	// Load returns the plan for taskID, or (nil, nil) when none is stored.
	// Documents that cannot be decoded yield an error wrapping ErrCorruptPlan.
	Load(ctx context.Context, taskID string) (*TaskPlan, error)

	// Save writes the entire plan, replacing any previous version.
	Save(ctx context.Context, plan *TaskPlan) error

	// List returns the ids of all stored plans.
	List(ctx context.Context) ([]string, error)
}

const maxTaskIDLength = 200

// ValidateTaskID reports whether id can be used as a task id. Ids double as
// file stems, so path separators and relative path elements are rejected.
func ValidateTaskID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidTaskID)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidTaskID, id)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidTaskID, id)
	case strings.ContainsAny(id, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidTaskID, id)
	case len(id) > maxTaskIDLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidTaskID, maxTaskIDLength)
	}
	return nil
}
