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

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleCheckpoint implements the progress_checkpoint tool
func (s *Server) handleCheckpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return errorResponse("Missing or invalid 'task_id' argument"), nil
	}
	data, err := objectArg(request, "data")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	if data == nil {
		return errorResponse("Missing or invalid 'data' argument"), nil
	}

	if err := s.tracker.Checkpoint(ctx, taskID, data); err != nil {
		return trackerError(err), nil
	}
	return jsonResponse(map[string]any{"task_id": taskID, "saved": true}), nil
}

// handleRestoreCheckpoint implements the progress_restore_checkpoint tool
func (s *Server) handleRestoreCheckpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return errorResponse("Missing or invalid 'task_id' argument"), nil
	}

	data, err := s.tracker.RestoreCheckpoint(ctx, taskID)
	if err != nil {
		return trackerError(err), nil
	}
	return jsonResponse(data), nil
}
