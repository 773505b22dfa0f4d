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

	"github.com/mcp-adapters/tracker/internal/selector"
)

// handleListPlans implements the progress_list_plans tool
func (s *Server) handleListPlans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel, err := selector.New(request.GetString("match", ""), request.GetString("where", ""))
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	matches, err := selector.Select(ctx, s.tracker, sel)
	if err != nil {
		return trackerError(err), nil
	}

	return jsonResponse(selector.Entries(matches)), nil
}
