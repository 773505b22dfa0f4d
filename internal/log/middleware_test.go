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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestToolMiddleware_Success(t *testing.T) {
	var buf bytes.Buffer
	m := NewToolMiddleware(New(&Config{Level: "debug", Format: FormatJSON, Output: &buf}))

	req := &ToolRequest{Tool: "progress_update_step", TaskID: "deploy", StepIndex: 2}
	outcome, err := m.Handle(req, func() (string, error) { return "", nil })
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if outcome != OutcomeOK {
		t.Errorf("expected outcome ok, got %q", outcome)
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected request and response lines, got %d", len(entries))
	}
	resp := entries[1]
	if resp["msg"] != "tool call completed" || resp["result"] != OutcomeOK {
		t.Errorf("unexpected response entry: %v", resp)
	}
	if resp[ToolKey] != "progress_update_step" || resp[TaskIDKey] != "deploy" {
		t.Errorf("missing request fields: %v", resp)
	}
	if resp[StepIndexKey] != float64(2) {
		t.Errorf("expected step_index 2, got %v", resp[StepIndexKey])
	}
	if _, ok := resp[DurationKey]; !ok {
		t.Errorf("missing duration: %v", resp)
	}
}

func TestToolMiddleware_ToolError(t *testing.T) {
	var buf bytes.Buffer
	m := NewToolMiddleware(New(&Config{Level: "warn", Format: FormatJSON, Output: &buf}))

	req := &ToolRequest{Tool: "progress_get_plan", TaskID: "ghost", StepIndex: -1}
	outcome, err := m.Handle(req, func() (string, error) { return "task not found", nil })
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if outcome != OutcomeError {
		t.Errorf("expected outcome error, got %q", outcome)
	}

	// Only the failure is visible at warn.
	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected one line at warn level, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["msg"] != "tool call failed" || entries[0]["error"] != "task not found" {
		t.Errorf("unexpected entry: %v", entries[0])
	}
	if _, ok := entries[0][StepIndexKey]; ok {
		t.Errorf("step_index logged for a call without one: %v", entries[0])
	}
}

func TestToolMiddleware_ProtocolError(t *testing.T) {
	var buf bytes.Buffer
	m := NewToolMiddleware(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}))

	cause := errors.New("bad request")
	outcome, err := m.Handle(&ToolRequest{Tool: "x", StepIndex: -1}, func() (string, error) { return "", cause })
	if !errors.Is(err, cause) {
		t.Errorf("expected error to pass through, got %v", err)
	}
	if outcome != OutcomeError {
		t.Errorf("expected outcome error, got %q", outcome)
	}
	if !strings.Contains(buf.String(), "bad request") {
		t.Errorf("error not logged: %s", buf.String())
	}
}

func TestLogToolRequest_ArgumentsAtTrace(t *testing.T) {
	req := &ToolRequest{Tool: "progress_checkpoint", StepIndex: -1, Arguments: map[string]any{"data": "secretish"}}

	var debugBuf bytes.Buffer
	LogToolRequest(New(&Config{Level: "debug", Output: &debugBuf}), req)
	if strings.Contains(debugBuf.String(), "secretish") {
		t.Errorf("arguments logged below trace: %s", debugBuf.String())
	}

	var traceBuf bytes.Buffer
	LogToolRequest(New(&Config{Level: "trace", Output: &traceBuf}), req)
	if !strings.Contains(traceBuf.String(), "secretish") {
		t.Errorf("arguments missing at trace: %s", traceBuf.String())
	}
}

func TestLogToolResponse_RateLimited(t *testing.T) {
	var buf bytes.Buffer
	LogToolResponse(New(&Config{Level: "warn", Output: &buf}),
		&ToolRequest{Tool: "progress_summary", StepIndex: -1},
		&ToolResponse{Outcome: OutcomeRateLimited})

	if !strings.Contains(buf.String(), "rate limited") {
		t.Errorf("rate limit not logged at warn: %s", buf.String())
	}
}
