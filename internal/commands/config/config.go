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
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/config"
	"github.com/mcp-adapters/tracker/internal/progress/backend/file"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View configuration",
		Long: `View the tracker configuration.

Subcommands:
  show     - Display the effective configuration
  path     - Show config file location
  validate - Check the configuration for errors`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(NewValidateCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = runConfigShow

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after defaults, the config file, TRACKER_*
environment variables and command-line overrides have been applied.

The resolved plan directory is shown under state.dir.`,
		RunE: runConfigShow,
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	effective := *cfg
	if effective.State.Backend != config.BackendMemory && effective.State.Dir == "" {
		effective.State.Dir = file.DefaultDir()
	}

	data, err := yaml.Marshal(&effective)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		// Round-trip through YAML so the JSON keys match the file format.
		var generic map[string]any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return shared.EmitJSON(out, generic)
	}

	_, err = out.Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfgPath := shared.GetConfigPath()
	if cfgPath == "" {
		var err error
		cfgPath, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
	return nil
}
