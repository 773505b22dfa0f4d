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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/config"
)

// ValidationResult represents the result of config validation.
type ValidationResult struct {
	Path     string   `json:"path"`
	Exists   bool     `json:"exists"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the 'config validate' subcommand.
func NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the configuration file together with the TRACKER_* environment.

Checks performed:
  - YAML syntax and structure
  - Backend, format, log and transport values
  - Listen addresses are host:port
  - Settings that have no effect with the chosen backend or transport

With --strict, warnings are treated as errors.`,
		Example: `  # Validate configuration
  tracker config validate

  # Validate with warnings as errors
  tracker config validate --strict

  # Get validation result as JSON
  tracker config validate --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

// runValidate performs configuration validation.
func runValidate(out io.Writer, strict bool) error {
	path := shared.GetConfigPath()
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	result := validatePath(path)
	return outputValidationResult(out, result, strict)
}

// validatePath loads path, applying defaults and the environment, and
// collects every problem rather than stopping at the first.
func validatePath(path string) ValidationResult {
	result := ValidationResult{Path: path}

	if _, err := os.Stat(path); err == nil {
		result.Exists = true
	} else if !errors.Is(err, os.ErrNotExist) {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read config file: %v", err))
		return result
	}

	cfg, err := config.Parse(path)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Cause != nil {
			err = cfgErr.Cause
		}
		result.Errors = append(result.Errors, fmt.Sprintf("YAML parsing error: %v", err))
		return result
	}

	return validateConfig(cfg, result)
}

// validateConfig performs comprehensive validation on the loaded config.
func validateConfig(cfg *config.Config, result ValidationResult) ValidationResult {
	result.Errors = append(result.Errors, cfg.Problems()...)
	result.Warnings = cfg.Warnings()
	if !result.Exists {
		result.Warnings = append(result.Warnings, "No config file found; built-in defaults are used")
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// outputValidationResult outputs the validation result and returns an
// error carrying the exit code.
func outputValidationResult(out io.Writer, result ValidationResult, strict bool) error {
	if shared.GetJSON() {
		if err := shared.EmitJSON(out, result); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	} else {
		if result.Valid {
			fmt.Fprintln(out, shared.RenderOK("Configuration is valid"))
		} else {
			fmt.Fprintln(out, shared.RenderError("Configuration validation failed"))
		}
		fmt.Fprintf(out, "%s %s\n\n", shared.RenderLabel("File:"), result.Path)

		if len(result.Errors) > 0 {
			fmt.Fprintln(out, shared.RenderHeader("Errors:"))
			for _, err := range result.Errors {
				fmt.Fprintf(out, "  %s\n", shared.RenderError(err))
			}
			fmt.Fprintln(out)
		}

		if len(result.Warnings) > 0 {
			fmt.Fprintln(out, shared.RenderHeader("Warnings:"))
			for _, warn := range result.Warnings {
				fmt.Fprintf(out, "  %s\n", shared.RenderWarn(warn))
			}
			fmt.Fprintln(out)
		}

		if result.Valid && len(result.Warnings) == 0 {
			fmt.Fprintln(out, "No issues found.")
		}
	}

	if !result.Valid {
		return shared.NewInvalidInputError("configuration is invalid", nil)
	}

	// In strict mode, warnings become errors
	if strict && len(result.Warnings) > 0 {
		return shared.NewInvalidInputError("validation failed (strict mode: warnings treated as errors)", nil)
	}

	return nil
}
