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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mcp-adapters/tracker/internal/progress"
)

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewFailureError("failed to save", cause)

	if err.Error() != "failed to save: disk full" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}

	bare := NewInvalidInputError("bad flag", nil)
	if bare.Error() != "bad flag" {
		t.Errorf("unexpected message without cause: %q", bare.Error())
	}
}

func TestTrackerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &progress.OpError{Op: "summary", TaskID: "t", StepIndex: -1, Err: progress.ErrTaskNotFound}, ExitNotFound},
		{"out of range", &progress.OpError{Op: "update_step", TaskID: "t", StepIndex: 9, Err: progress.ErrStepOutOfRange}, ExitInvalidInput},
		{"invalid transition", &progress.OpError{Op: "update_step", TaskID: "t", StepIndex: 0, Err: progress.ErrInvalidTransition}, ExitInvalidInput},
		{"conflict", &progress.OpError{Op: "create_plan", TaskID: "t", StepIndex: -1, Err: progress.ErrTaskExists}, ExitInvalidInput},
		{"corrupt", &progress.OpError{Op: "load_plan", TaskID: "t", StepIndex: -1, Err: progress.ErrCorruptPlan}, ExitFailure},
		{"storage", &progress.OpError{Op: "load_plan", TaskID: "t", StepIndex: -1, Err: errors.New("permission denied")}, ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
		{"wrapped op error", fmt.Errorf("outer: %w", &progress.OpError{Op: "resume", TaskID: "t", StepIndex: -1, Err: progress.ErrTaskNotFound}), ExitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrackerError("failed", tt.err)
			if got.Code != tt.want {
				t.Errorf("code = %d, want %d", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("expected original error in chain")
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != ExitSuccess {
		t.Errorf("ExitCode(nil) = %d", got)
	}
	if got := ExitCode(errors.New("x")); got != ExitFailure {
		t.Errorf("ExitCode(plain) = %d", got)
	}
	wrapped := fmt.Errorf("cmd: %w", NewNotFoundError("missing", nil))
	if got := ExitCode(wrapped); got != ExitNotFound {
		t.Errorf("ExitCode(wrapped not found) = %d", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := map[string]error{
		"":              nil,
		"not_found":     NewNotFoundError("x", nil),
		"invalid_input": NewInvalidInputError("x", nil),
		"failure":       errors.New("x"),
	}
	for want, err := range tests {
		if got := ErrorCode(err); got != want {
			t.Errorf("ErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestPrintError(t *testing.T) {
	t.Run("with suggestion", func(t *testing.T) {
		err := TrackerError("failed to load plan", &progress.OpError{
			Op: "load_plan", TaskID: "deploy", StepIndex: -1, Err: progress.ErrTaskNotFound,
		})

		var buf bytes.Buffer
		PrintError(&buf, err)

		out := buf.String()
		if !strings.HasPrefix(out, "Error: failed to load plan: load_plan deploy: task not found") {
			t.Errorf("unexpected error line: %q", out)
		}
		if !strings.Contains(out, "Suggestion: Create the plan first") {
			t.Errorf("expected suggestion, got %q", out)
		}
	})

	t.Run("without suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		PrintError(&buf, errors.New("boom"))
		if buf.String() != "Error: boom\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
}

func TestReportError(t *testing.T) {
	err := TrackerError("failed to update step", &progress.OpError{
		Op: "update_step", TaskID: "deploy", StepIndex: 7, Err: progress.ErrStepOutOfRange,
	})

	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		ReportError(&stdout, &stderr, "update", err)
		if stdout.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", stdout.String())
		}
		if !strings.Contains(stderr.String(), "step index out of range") {
			t.Errorf("unexpected stderr: %q", stderr.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		jsonFlag = true
		defer func() { jsonFlag = false }()

		var stdout, stderr bytes.Buffer
		ReportError(&stdout, &stderr, "update", err)
		if stderr.Len() != 0 {
			t.Errorf("expected nothing on stderr, got %q", stderr.String())
		}

		var got struct {
			Version string      `json:"@version"`
			Command string      `json:"command"`
			Success bool        `json:"success"`
			Errors  []JSONError `json:"errors"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
		}
		if got.Version != "1.0" || got.Command != "update" || got.Success {
			t.Errorf("unexpected envelope: %+v", got)
		}
		if len(got.Errors) != 1 {
			t.Fatalf("expected one error, got %d", len(got.Errors))
		}
		if got.Errors[0].Code != "invalid_input" {
			t.Errorf("code = %q", got.Errors[0].Code)
		}
		if got.Errors[0].Suggestion == "" {
			t.Error("expected suggestion in envelope")
		}
	})
}
