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

// Package server implements an MCP server that exposes the progress tracker as tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcp-adapters/tracker/internal/jq"
	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/metrics"
	"github.com/mcp-adapters/tracker/internal/progress"
)

const (
	// DefaultName is the server name announced to clients.
	DefaultName = "progress-tracker"

	// DefaultCallsPerMinute bounds tool calls when the config leaves it unset.
	DefaultCallsPerMinute = 120

	rateLimitMessage = "Rate limit exceeded. Please try again later."
)

// Server wraps the MCP server and provides the progress tools.
type Server struct {
	mcpServer   *server.MCPServer
	tracker     *progress.Tracker
	name        string
	version     string
	rateLimiter *RateLimiter
	jq          *jq.Executor
	logger      *slog.Logger
	calls       *log.ToolMiddleware
	newTaskID   func() string

	// mu serialises tracker access. mcp-go may dispatch calls concurrently
	// and each call is a load-modify-save cycle.
	mu sync.Mutex
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "progress-tracker").
	Name string

	// Version is the tracker version.
	Version string

	// Tracker serves every tool call. Required.
	Tracker *progress.Tracker

	// CallsPerMinute limits tool calls. Zero selects DefaultCallsPerMinute;
	// negative disables the limit.
	CallsPerMinute int

	// Logger receives server diagnostics. It must not write to stdout when
	// the stdio transport is used.
	Logger *slog.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Tracker == nil {
		return nil, errors.New("tracker is required")
	}
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.CallsPerMinute == 0 {
		config.CallsPerMinute = DefaultCallsPerMinute
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Discard()
	}

	mcpServer := server.NewMCPServer(config.Name, config.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	logger = log.WithComponent(logger, "mcp")
	s := &Server{
		mcpServer:   mcpServer,
		tracker:     config.Tracker,
		name:        config.Name,
		version:     config.Version,
		rateLimiter: NewRateLimiter(config.CallsPerMinute),
		jq:          jq.NewExecutor(0, 0),
		logger:      logger,
		calls:       log.NewToolMiddleware(logger),
		newTaskID:   func() string { return "task-" + uuid.NewString() },
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

func taskIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Task identifier; also the storage file name",
	}
}

// registerTools registers all progress tools with the MCP server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_create_plan",
		Description: "Create a task plan with one pending step per description. Returns the stored plan. A task id is generated when omitted.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task_id": taskIDProperty(),
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable plan title",
				},
				"steps": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Ordered step descriptions",
				},
				"metadata": map[string]interface{}{
					"type":        "object",
					"description": "Free-form plan metadata",
				},
				"overwrite": map[string]interface{}{
					"type":        "boolean",
					"description": "Replace an existing plan with the same id (default: false)",
					"default":     false,
				},
			},
			Required: []string{"title", "steps"},
		},
	}, s.guard("progress_create_plan", s.handleCreatePlan))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_get_plan",
		Description: "Return the full stored plan for a task.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"task_id": taskIDProperty()},
			Required:   []string{"task_id"},
		},
	}, s.guard("progress_get_plan", s.handleGetPlan))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_update_step",
		Description: "Record a step transition: in_progress, completed (with optional output) or failed (with error). Completing an already completed step does not double count.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task_id": taskIDProperty(),
				"step_index": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based step position",
					"minimum":     0,
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(progress.StatusInProgress), string(progress.StatusCompleted), string(progress.StatusFailed)},
					"description": "New step status",
				},
				"output": map[string]interface{}{
					"type":        "object",
					"description": "Step result data (completed or failed)",
				},
				"error": map[string]interface{}{
					"type":        "string",
					"description": "Failure message (failed only)",
				},
			},
			Required: []string{"task_id", "step_index", "status"},
		},
	}, s.guard("progress_update_step", s.handleUpdateStep))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_next_step",
		Description: "Return the first pending step in plan order, or null when none is pending.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"task_id": taskIDProperty()},
			Required:   []string{"task_id"},
		},
	}, s.guard("progress_next_step", s.handleNextStep))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_summary",
		Description: "Return a progress summary (progress, percentage, current step, per-step status). An optional jq query is applied to the summary.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task_id": taskIDProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "jq expression applied to the summary, e.g. '.percentage'",
				},
			},
			Required: []string{"task_id"},
		},
	}, s.guard("progress_summary", s.handleSummary))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_checkpoint",
		Description: "Store recovery data on the plan, replacing the previous checkpoint.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task_id": taskIDProperty(),
				"data": map[string]interface{}{
					"type":        "object",
					"description": "Opaque recovery payload",
				},
			},
			Required: []string{"task_id", "data"},
		},
	}, s.guard("progress_checkpoint", s.handleCheckpoint))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_restore_checkpoint",
		Description: "Return the data of the most recent checkpoint, or null when none exists.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"task_id": taskIDProperty()},
			Required:   []string{"task_id"},
		},
	}, s.guard("progress_restore_checkpoint", s.handleRestoreCheckpoint))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_resume",
		Description: "Return everything needed to resume a task after a restart: plan, next step, checkpoint data and summary.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"task_id": taskIDProperty()},
			Required:   []string{"task_id"},
		},
	}, s.guard("progress_resume", s.handleResume))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "progress_list_plans",
		Description: "List stored plans with their progress. Optionally filter by task id glob and a boolean expression such as 'status == \"in_progress\" && percentage < 50'.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match": map[string]interface{}{
					"type":        "string",
					"description": "Glob over task ids, e.g. 'deploy-*'",
				},
				"where": map[string]interface{}{
					"type":        "string",
					"description": "Expression over task_id, title, status, percentage, completed, failed, pending, total, metadata",
				},
			},
		},
	}, s.guard("progress_list_plans", s.handleListPlans))
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin/stdout until ctx is cancelled or the
// client closes the stream.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"), slog.String("version", s.version))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// ServeSSE serves MCP over HTTP server-sent events on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	s.logger.Info("starting MCP server", slog.String("transport", "sse"), slog.String("addr", addr), slog.String("version", s.version))

	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down MCP server")
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("MCP server shutdown: %w", err)
	}
	return nil
}

// guard applies the rate limit, serialises tracker access and records the call.
func (s *Server) guard(tool string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := &log.ToolRequest{
			Tool:      tool,
			TaskID:    request.GetString("task_id", ""),
			StepIndex: -1,
			Arguments: request.GetArguments(),
		}
		if idx, err := request.RequireInt("step_index"); err == nil {
			req.StepIndex = idx
		}

		if !s.rateLimiter.AllowCall() {
			metrics.RecordToolCall(tool, log.OutcomeRateLimited)
			log.LogToolResponse(s.logger, req, &log.ToolResponse{Outcome: log.OutcomeRateLimited})
			return errorResponse(rateLimitMessage), nil
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		var result *mcp.CallToolResult
		outcome, err := s.calls.Handle(req, func() (string, error) {
			var err error
			result, err = h(ctx, request)
			if result != nil && result.IsError {
				return resultText(result), err
			}
			return "", err
		})
		metrics.RecordToolCall(tool, outcome)
		return result, err
	}
}

// resultText returns the first text block of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return "tool error"
}

// Helper function to create error response
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// Helper function to create success response
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// trackerError converts a tracker failure into a tool error carrying its category.
func trackerError(err error) *mcp.CallToolResult {
	var opErr *progress.OpError
	if errors.As(err, &opErr) {
		return errorResponse(fmt.Sprintf("%v (error_type: %s)", err, opErr.ErrorType()))
	}
	return errorResponse(err.Error())
}
