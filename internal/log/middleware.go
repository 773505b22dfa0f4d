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
	"context"
	"log/slog"
	"time"
)

// Tool call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
)

// ToolRequest describes an incoming MCP tool call for logging purposes.
type ToolRequest struct {
	// Tool is the MCP tool name, e.g. "progress_update_step".
	Tool string

	// TaskID is the task the call targets, if any.
	TaskID string

	// StepIndex is the targeted step, or -1.
	StepIndex int

	// Arguments are logged at trace level only.
	Arguments map[string]any
}

// ToolResponse describes the outcome of a tool call.
type ToolResponse struct {
	// Outcome is ok, error or rate_limited.
	Outcome string

	// Error is the tool-level error text when Outcome is error.
	Error string

	// DurationMs is the duration of the call in milliseconds.
	DurationMs int64
}

func (r *ToolRequest) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String(ToolKey, r.Tool)}
	if r.TaskID != "" {
		attrs = append(attrs, slog.String(TaskIDKey, r.TaskID))
	}
	if r.StepIndex >= 0 {
		attrs = append(attrs, slog.Int(StepIndexKey, r.StepIndex))
	}
	return attrs
}

// LogToolRequest logs an incoming tool call. Arguments are only included at
// trace level since they may carry whole checkpoint payloads.
func LogToolRequest(logger *slog.Logger, req *ToolRequest) {
	attrs := append(req.attrs(), slog.String("event", "tool_request"))
	if logger.Enabled(context.Background(), LevelTrace) && len(req.Arguments) > 0 {
		attrs = append(attrs, slog.Any("arguments", req.Arguments))
		logger.LogAttrs(context.Background(), LevelTrace, "tool call received", attrs...)
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "tool call received", attrs...)
}

// LogToolResponse logs the outcome of a tool call. Failures are logged at
// warn so they show up at the default level.
func LogToolResponse(logger *slog.Logger, req *ToolRequest, resp *ToolResponse) {
	attrs := append(req.attrs(),
		slog.String("event", "tool_response"),
		slog.String("result", resp.Outcome),
		slog.Int64(DurationKey, resp.DurationMs),
	)
	if resp.Error != "" {
		attrs = append(attrs, slog.String("error", resp.Error))
	}

	level := slog.LevelDebug
	message := "tool call completed"
	switch resp.Outcome {
	case OutcomeError:
		level = slog.LevelWarn
		message = "tool call failed"
	case OutcomeRateLimited:
		level = slog.LevelWarn
		message = "tool call rate limited"
	}

	logger.LogAttrs(context.Background(), level, message, attrs...)
}

// ToolMiddleware wraps MCP tool handlers with request and response logging.
type ToolMiddleware struct {
	logger *slog.Logger
}

// NewToolMiddleware creates a new tool logging middleware.
func NewToolMiddleware(logger *slog.Logger) *ToolMiddleware {
	return &ToolMiddleware{
		logger: logger,
	}
}

// Handle logs req, runs handler and logs its outcome. The handler returns
// the tool-level error text, which is empty on success, and any protocol
// error; both count as failures.
func (m *ToolMiddleware) Handle(req *ToolRequest, handler func() (string, error)) (string, error) {
	start := time.Now()

	LogToolRequest(m.logger, req)

	toolErr, err := handler()

	resp := &ToolResponse{
		Outcome:    OutcomeOK,
		Error:      toolErr,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if resp.Error != "" {
		resp.Outcome = OutcomeError
	}

	LogToolResponse(m.logger, req, resp)

	return resp.Outcome, err
}
