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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// Exit codes for tracker commands
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitNotFound     = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewFailureError creates an error for operational failures (storage, I/O).
func NewFailureError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitFailure,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an error for bad arguments or rejected transitions.
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidInput,
		Message: msg,
		Cause:   cause,
	}
}

// NewNotFoundError creates an error for a missing plan or checkpoint.
func NewNotFoundError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitNotFound,
		Message: msg,
		Cause:   cause,
	}
}

// TrackerError wraps a tracker failure with the exit code for its category.
func TrackerError(msg string, err error) *ExitError {
	var opErr *progress.OpError
	if !errors.As(err, &opErr) {
		return NewFailureError(msg, err)
	}
	switch opErr.ErrorType() {
	case "not_found":
		return NewNotFoundError(msg, err)
	case "validation", "conflict":
		return NewInvalidInputError(msg, err)
	default:
		return NewFailureError(msg, err)
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// HandleExitError reports err for command and exits with its code.
func HandleExitError(command string, err error) {
	if err == nil {
		return
	}
	ReportError(os.Stdout, os.Stderr, command, err)
	os.Exit(ExitCode(err))
}

// ReportError writes err as a JSON envelope to stdout when --json is set,
// otherwise as text to stderr.
func ReportError(stdout, stderr io.Writer, command string, err error) {
	if GetJSON() {
		EmitJSONError(stdout, command, []JSONError{{
			Code:       ErrorCode(err),
			Message:    err.Error(),
			Suggestion: suggestion(err),
		}})
		return
	}
	PrintError(stderr, err)
}

// ErrorCode names the category of err for machine-readable output.
func ErrorCode(err error) string {
	switch ExitCode(err) {
	case ExitSuccess:
		return ""
	case ExitNotFound:
		return "not_found"
	case ExitInvalidInput:
		return "invalid_input"
	default:
		return "failure"
	}
}

// PrintError writes err and, when an error in its chain offers one, a suggestion.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err.Error())
	if s := suggestion(err); s != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", s)
	}
}

// suggestion walks the error chain for the first non-empty remediation hint.
func suggestion(err error) string {
	for err != nil {
		if s, ok := err.(interface{ Suggestion() string }); ok {
			if hint := s.Suggestion(); hint != "" {
				return hint
			}
		}
		err = errors.Unwrap(err)
	}
	return ""
}
