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
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// stringList reads an array of strings argument.
func stringList(request mcp.CallToolRequest, key string) ([]string, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("'%s[%d]' must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' must be an array of strings", key)
	}
}

// objectArg reads an optional object argument. A JSON-encoded string is
// accepted as well; some clients flatten nested arguments.
func objectArg(request mcp.CallToolRequest, key string) (map[string]any, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("'%s' must be an object: %w", key, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' must be an object", key)
	}
}

// jsonResponse renders v as indented JSON text content.
func jsonResponse(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return textResponse(string(data))
}
