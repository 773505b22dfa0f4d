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

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-adapters/tracker/internal/commands/commandtest"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	internalConfig "github.com/mcp-adapters/tracker/internal/config"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(*internalConfig.Config)
		exists         bool
		wantValid      bool
		wantErrorCount int
		wantWarnCount  int
	}{
		{
			name:      "defaults from file",
			modify:    func(*internalConfig.Config) {},
			exists:    true,
			wantValid: true,
		},
		{
			name:          "no file",
			modify:        func(*internalConfig.Config) {},
			wantValid:     true,
			wantWarnCount: 1,
		},
		{
			name: "invalid values",
			modify: func(c *internalConfig.Config) {
				c.State.Format = "toml"
				c.MCP.Transport = "grpc"
			},
			exists:         true,
			wantErrorCount: 2,
		},
		{
			name: "warnings only",
			modify: func(c *internalConfig.Config) {
				c.State.Backend = internalConfig.BackendMemory
				c.MCP.CallsPerMinute = 0
			},
			exists:        true,
			wantValid:     true,
			wantWarnCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := internalConfig.Default()
			tt.modify(cfg)

			result := validateConfig(cfg, ValidationResult{Exists: tt.exists})
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Len(t, result.Errors, tt.wantErrorCount, "errors: %v", result.Errors)
			assert.Len(t, result.Warnings, tt.wantWarnCount, "warnings: %v", result.Warnings)
		})
	}
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "valid",
			content:  "log:\n  level: warn\n",
			wantCode: shared.ExitSuccess,
			wantOut:  "No issues found.",
		},
		{
			name:     "invalid",
			content:  "state:\n  backend: s3\n",
			wantCode: shared.ExitInvalidInput,
			wantOut:  "state.backend",
		},
		{
			name:     "malformed yaml",
			content:  "state: [\n",
			wantCode: shared.ExitInvalidInput,
			wantOut:  "YAML parsing error",
		},
		{
			name:     "warning",
			content:  "state:\n  backend: memory\n",
			wantCode: shared.ExitSuccess,
			wantOut:  "plans are lost",
		},
		{
			name:     "warning strict",
			content:  "state:\n  backend: memory\n",
			args:     []string{"--strict"},
			wantCode: shared.ExitInvalidInput,
			wantOut:  "plans are lost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := commandtest.Env(t)
			path := writeConfig(t, tt.content)

			args := append([]string{"config", "validate", "--config", path}, tt.args...)
			res, err := commandtest.Execute(t, dir, NewConfigCommand(), args...)
			assert.Equal(t, tt.wantCode, shared.ExitCode(err), "error: %v", err)
			assert.Contains(t, res.Stdout, tt.wantOut)
		})
	}
}

func TestValidateCommand_JSON(t *testing.T) {
	dir := commandtest.Env(t)
	path := writeConfig(t, "mcp:\n  transport: sse\n  addr: nope\n")

	res, err := commandtest.Execute(t, dir, NewConfigCommand(), "config", "validate", "--config", path, "--json")
	require.Error(t, err)

	var result ValidationResult
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &result))
	assert.False(t, result.Valid)
	assert.True(t, result.Exists)
	assert.Equal(t, path, result.Path)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "mcp.addr")
}
