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
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// handleGetPlan implements the progress_get_plan tool
func (s *Server) handleGetPlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return errorResponse("Missing or invalid 'task_id' argument"), nil
	}

	plan, err := s.tracker.LoadPlan(ctx, taskID)
	if err != nil {
		return trackerError(err), nil
	}
	if plan == nil {
		return errorResponse(fmt.Sprintf("%s: %s", progress.NotFoundMessage, taskID)), nil
	}
	return jsonResponse(plan), nil
}
