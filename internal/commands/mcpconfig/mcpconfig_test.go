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

package mcpconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-adapters/tracker/internal/commands/commandtest"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantKey string
		want    ServerEntry
	}{
		{
			name:    "claude desktop",
			opts:    Options{Client: ClientClaudeDesktop, Name: "progress-tracker", Command: "/usr/local/bin/tracker"},
			wantKey: "mcpServers",
			want:    ServerEntry{Command: "/usr/local/bin/tracker", Args: []string{"mcp-server"}},
		},
		{
			name:    "cursor with memory path",
			opts:    Options{Client: ClientCursor, Name: "tracker", Command: "tracker", MemoryPath: "/data/mem"},
			wantKey: "mcpServers",
			want: ServerEntry{
				Command: "tracker",
				Args:    []string{"mcp-server"},
				Env:     map[string]string{"MCP_MEMORY_PATH": "/data/mem"},
			},
		},
		{
			name:    "vscode",
			opts:    Options{Client: ClientVSCode, Name: "tracker"},
			wantKey: "servers",
			want:    ServerEntry{Type: "stdio", Command: "tracker", Args: []string{"mcp-server"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Build(tt.opts)
			require.NoError(t, err)
			require.Contains(t, doc, tt.wantKey)

			servers := doc[tt.wantKey].(map[string]ServerEntry)
			assert.Equal(t, tt.want, servers[tt.opts.Name])
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Options{Client: ClientCursor})
	assert.ErrorContains(t, err, "server name")

	_, err = Build(Options{Client: "emacs", Name: "x"})
	assert.ErrorContains(t, err, "unknown client")
}

func TestCommand(t *testing.T) {
	dir := commandtest.Env(t)

	res, err := commandtest.Execute(t, dir, NewCommand(), "mcp-config", "--client", "vscode", "--command", "/opt/tracker", "--name", "progress")
	require.NoError(t, err)
	assert.JSONEq(t, `{"servers": {"progress": {"type": "stdio", "command": "/opt/tracker", "args": ["mcp-server"]}}}`, res.Stdout)

	var doc map[string]any
	res, err = commandtest.Execute(t, dir, NewCommand(), "mcp-config")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &doc))
	assert.Contains(t, doc, "mcpServers")

	_, err = commandtest.Execute(t, dir, NewCommand(), "mcp-config", "--client", "emacs")
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}
