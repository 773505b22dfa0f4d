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

	"github.com/mcp-adapters/tracker/internal/progress"
)

// handleUpdateStep implements the progress_update_step tool
func (s *Server) handleUpdateStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return errorResponse("Missing or invalid 'task_id' argument"), nil
	}
	index, err := request.RequireInt("step_index")
	if err != nil {
		return errorResponse("Missing or invalid 'step_index' argument"), nil
	}
	rawStatus, err := request.RequireString("status")
	if err != nil {
		return errorResponse("Missing or invalid 'status' argument"), nil
	}
	status, err := progress.ParseStepStatus(rawStatus)
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	output, err := objectArg(request, "output")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	update, err := progress.UpdateFromStatus(status, output, request.GetString("error", ""))
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	plan, err := s.tracker.UpdateStep(ctx, taskID, index, update)
	if err != nil {
		return trackerError(err), nil
	}
	return jsonResponse(progress.Summarize(plan)), nil
}
