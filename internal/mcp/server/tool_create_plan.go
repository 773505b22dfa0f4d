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

// handleCreatePlan implements the progress_create_plan tool
func (s *Server) handleCreatePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return errorResponse("Missing or invalid 'title' argument"), nil
	}
	steps, err := stringList(request, "steps")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	metadata, err := objectArg(request, "metadata")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	taskID := request.GetString("task_id", "")
	if taskID == "" {
		taskID = s.newTaskID()
	}

	plan, err := s.tracker.CreatePlan(ctx, progress.CreateRequest{
		TaskID:    taskID,
		Title:     title,
		Steps:     steps,
		Metadata:  metadata,
		Overwrite: request.GetBool("overwrite", false),
	})
	if err != nil {
		return trackerError(err), nil
	}
	return jsonResponse(plan), nil
}
