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

// Package mcpconfig implements the mcp-config command, which prints the
// client-side configuration for running the tracker as an MCP server.
package mcpconfig

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/progress/backend/file"
)

// Client names accepted by --client.
const (
	ClientClaudeDesktop = "claude-desktop"
	ClientCursor        = "cursor"
	ClientVSCode        = "vscode"
)

// ServerEntry is one MCP server definition as clients expect it.
type ServerEntry struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls the generated entry.
type Options struct {
	Client     string
	Name       string
	Command    string
	MemoryPath string
}

// NewCommand creates the mcp-config command.
func NewCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "mcp-config",
		Short: "Print MCP client configuration for the tracker server",
		Long: `Print the JSON snippet that registers 'tracker mcp-server' with an MCP client.

Clients:
  claude-desktop  {"mcpServers": {...}} for claude_desktop_config.json
  cursor          {"mcpServers": {...}} for .cursor/mcp.json
  vscode          {"servers": {...}} for .vscode/mcp.json`,
		Example: `  tracker mcp-config --client cursor > .cursor/mcp.json
  tracker mcp-config --client vscode --memory-path ~/.agent-memory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Command == "" {
				opts.Command = executable()
			}
			doc, err := Build(opts)
			if err != nil {
				return shared.NewInvalidInputError("cannot build configuration", err)
			}
			return shared.EmitJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().StringVar(&opts.Client, "client", ClientClaudeDesktop, "Target client: "+strings.Join(clients(), ", "))
	cmd.Flags().StringVar(&opts.Name, "name", "progress-tracker", "Server name in the client configuration")
	cmd.Flags().StringVar(&opts.Command, "command", "", "Tracker binary (default: this executable)")
	cmd.Flags().StringVar(&opts.MemoryPath, "memory-path", "", "Set "+file.EnvMemoryPath+" for the server")
	_ = cmd.RegisterFlagCompletionFunc("client", completion.CompleteClients)

	return cmd
}

// Build returns the configuration document for opts.
func Build(opts Options) (map[string]any, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if opts.Command == "" {
		opts.Command = "tracker"
	}

	entry := ServerEntry{
		Command: opts.Command,
		Args:    []string{"mcp-server"},
	}
	if opts.MemoryPath != "" {
		entry.Env = map[string]string{file.EnvMemoryPath: opts.MemoryPath}
	}

	switch opts.Client {
	case ClientClaudeDesktop, ClientCursor:
		return map[string]any{"mcpServers": map[string]ServerEntry{opts.Name: entry}}, nil
	case ClientVSCode:
		entry.Type = "stdio"
		return map[string]any{"servers": map[string]ServerEntry{opts.Name: entry}}, nil
	default:
		return nil, fmt.Errorf("unknown client %q (must be one of %s)", opts.Client, strings.Join(clients(), ", "))
	}
}

func clients() []string {
	c := []string{ClientClaudeDesktop, ClientCursor, ClientVSCode}
	sort.Strings(c)
	return c
}

// executable returns the running binary path, falling back to "tracker".
func executable() string {
	path, err := os.Executable()
	if err != nil {
		return "tracker"
	}
	return path
}
