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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// PlanURIPrefix prefixes plan resource URIs: progress://plans/{task_id}.
const PlanURIPrefix = "progress://plans/"

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			PlanURIPrefix+"{task_id}",
			"Task plan",
			mcp.WithTemplateDescription("The stored plan document for a task"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePlanResource,
	)
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(
		mcp.NewPrompt("resume_task",
			mcp.WithPromptDescription("Brief for picking up an interrupted task where it left off"),
			mcp.WithArgument("task_id",
				mcp.ArgumentDescription("Task to resume"),
				mcp.RequiredArgument(),
			),
		),
		s.handleResumePrompt,
	)
}

func (s *Server) handlePlanResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	taskID := strings.TrimPrefix(uri, PlanURIPrefix)
	if taskID == uri || taskID == "" {
		return nil, fmt.Errorf("invalid plan URI %q", uri)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.tracker.LoadPlan(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%s: %s", progress.NotFoundMessage, taskID)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleResumePrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	taskID := request.Params.Arguments["task_id"]
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	s.mu.Lock()
	state, err := s.tracker.Resume(ctx, taskID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%s: %s", progress.NotFoundMessage, taskID)
	}

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Resume %s", taskID),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(ResumeBrief(state))),
		},
	), nil
}

// ResumeBrief renders the resumption instructions for state.
func ResumeBrief(state *progress.ResumeState) string {
	var b strings.Builder
	plan := state.Plan

	fmt.Fprintf(&b, "You are resuming the task %q (%s).\n", plan.Title, plan.TaskID)
	fmt.Fprintf(&b, "Progress: %s steps complete (%.1f%%).\n\n", state.Summary.Progress, state.Summary.Percentage)

	b.WriteString("Steps:\n")
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "  %d. [%s] %s", i, step.Status, step.Description)
		if step.Error != "" {
			fmt.Fprintf(&b, " (error: %s)", step.Error)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if state.NextStep == nil {
		b.WriteString("No step is pending. Review failed or in-progress steps before declaring the task done.\n")
	} else {
		fmt.Fprintf(&b, "Next step: %s (%s).\n", state.NextStep.Description, state.NextStep.ID)
	}

	if state.CheckpointData != nil {
		data, err := json.MarshalIndent(state.CheckpointData, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "\nLast checkpoint data:\n%s\n", data)
		}
	}

	b.WriteString("\nReport each step with progress_update_step as you go and checkpoint intermediate state with progress_checkpoint.\n")
	return b.String()
}
