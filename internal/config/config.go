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

// Package config loads tracker configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcp-adapters/tracker/internal/log"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Transport names for the MCP server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// OTLP protocols for span export.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Config represents the complete tracker configuration.
type Config struct {
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
	MCP     MCPConfig     `yaml:"mcp"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// StateConfig selects where and how plans are persisted.
type StateConfig struct {
	// Dir is an explicit storage root. When empty the root is resolved from
	// MCP_MEMORY_PATH or the home directory.
	// Environment: TRACKER_STATE_DIR
	Dir string `yaml:"dir,omitempty"`

	// Backend is file, sqlite or memory.
	// Environment: TRACKER_BACKEND
	// Default: file
	Backend string `yaml:"backend"`

	// Format is the file backend document encoding: json or yaml.
	// Default: json
	Format string `yaml:"format"`

	// SQLitePath is the database path for the sqlite backend.
	// Default: <storage root>/progress.db
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is trace, debug, info, warn or error.
	// Environment: TRACKER_LOG_LEVEL
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// Name is the server name advertised to clients.
	Name string `yaml:"name"`

	// Transport is stdio or sse.
	Transport string `yaml:"transport"`

	// Addr is the listen address for the sse transport.
	Addr string `yaml:"addr"`

	// CallsPerMinute limits tool calls. Zero disables limiting.
	CallsPerMinute int `yaml:"calls_per_minute"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr serves /metrics when set.
	// Environment: TRACKER_METRICS_ADDR
	Addr string `yaml:"addr,omitempty"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Output is the file spans are written to when no endpoint is set.
	// Empty means stderr.
	Output string `yaml:"output,omitempty"`

	// Endpoint is an OTLP collector host:port. When set, spans are sent
	// there instead of Output.
	// Environment: TRACKER_TRACING_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	// Protocol is grpc or http.
	// Environment: TRACKER_TRACING_PROTOCOL
	// Default: grpc
	Protocol string `yaml:"protocol,omitempty"`

	// Insecure disables TLS to the collector.
	// Environment: TRACKER_TRACING_INSECURE
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are sent with every export request, e.g. a vendor API key.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		State: StateConfig{
			Backend: BackendFile,
			Format:  "json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MCP: MCPConfig{
			Name:           "progress-tracker",
			Transport:      TransportStdio,
			Addr:           "127.0.0.1:8765",
			CallsPerMinute: 120,
		},
		Tracing: TracingConfig{
			Protocol: ProtocolGRPC,
		},
	}
}

// Load reads configuration from configPath (if non-empty and present), then
// applies environment overrides and validates the result. A missing file is
// not an error.
func Load(configPath string) (*Config, error) {
	cfg, err := Parse(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// Parse is Load without validation.
func Parse(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyDefaults fills zero values left by a minimal config file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.State.Backend == "" {
		c.State.Backend = def.State.Backend
	}
	if c.State.Format == "" {
		c.State.Format = def.State.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.MCP.Name == "" {
		c.MCP.Name = def.MCP.Name
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = def.MCP.Transport
	}
	if c.MCP.Addr == "" {
		c.MCP.Addr = def.MCP.Addr
	}
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = def.Tracing.Protocol
	}
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("TRACKER_STATE_DIR"); v != "" {
		c.State.Dir = v
	}
	if v := os.Getenv("TRACKER_BACKEND"); v != "" {
		c.State.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("TRACKER_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TRACKER_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("TRACKER_MCP_CALLS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MCP.CallsPerMinute = n
		}
	}
	if v := os.Getenv("TRACKER_TRACING"); v == "1" || v == "true" {
		c.Tracing.Enabled = true
	}
	if v := os.Getenv("TRACKER_TRACING_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv("TRACKER_TRACING_PROTOCOL"); v != "" {
		c.Tracing.Protocol = strings.ToLower(v)
	}
	if v := os.Getenv("TRACKER_TRACING_INSECURE"); v == "1" || v == "true" {
		c.Tracing.Insecure = true
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if errs := c.Problems(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// Problems lists every invalid value in c.
func (c *Config) Problems() []string {
	var errs []string

	switch c.State.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("state.backend %q must be file, sqlite or memory", c.State.Backend))
	}

	switch c.State.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Sprintf("state.format %q must be json or yaml", c.State.Format))
	}

	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level %q must be trace, debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	switch c.MCP.Transport {
	case TransportStdio:
	case TransportSSE:
		if _, _, err := net.SplitHostPort(c.MCP.Addr); err != nil {
			errs = append(errs, fmt.Sprintf("mcp.addr %q is not host:port", c.MCP.Addr))
		}
	default:
		errs = append(errs, fmt.Sprintf("mcp.transport %q must be stdio or sse", c.MCP.Transport))
	}
	if c.MCP.CallsPerMinute < 0 {
		errs = append(errs, "mcp.calls_per_minute must not be negative")
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Sprintf("metrics.addr %q is not host:port", c.Metrics.Addr))
		}
	}

	switch c.Tracing.Protocol {
	case "", ProtocolGRPC, ProtocolHTTP:
	default:
		errs = append(errs, fmt.Sprintf("tracing.protocol %q must be grpc or http", c.Tracing.Protocol))
	}
	if c.Tracing.Endpoint != "" {
		if _, _, err := net.SplitHostPort(c.Tracing.Endpoint); err != nil {
			errs = append(errs, fmt.Sprintf("tracing.endpoint %q is not host:port (omit the URL scheme)", c.Tracing.Endpoint))
		}
	}

	return errs
}

// Warnings lists settings that are valid but probably not what was meant.
func (c *Config) Warnings() []string {
	var warns []string
	if c.State.SQLitePath != "" && c.State.Backend != BackendSQLite {
		warns = append(warns, fmt.Sprintf("state.sqlite_path is ignored with the %s backend", c.State.Backend))
	}
	if c.State.Backend == BackendMemory {
		warns = append(warns, "state.backend is memory: plans are lost when the process exits")
	}
	if c.MCP.Transport == TransportSSE {
		if host, _, err := net.SplitHostPort(c.MCP.Addr); err == nil && !isLoopback(host) {
			warns = append(warns, fmt.Sprintf("mcp.addr %q accepts connections from other hosts", c.MCP.Addr))
		}
	}
	if c.MCP.CallsPerMinute == 0 {
		warns = append(warns, "mcp.calls_per_minute is 0: tool calls are not rate limited")
	}
	if c.Tracing.Output != "" && !c.Tracing.Enabled {
		warns = append(warns, "tracing.output is set but tracing is disabled")
	}
	if c.Tracing.Endpoint != "" {
		switch {
		case !c.Tracing.Enabled:
			warns = append(warns, "tracing.endpoint is set but tracing is disabled")
		case c.Tracing.Output != "":
			warns = append(warns, "tracing.output is ignored when tracing.endpoint is set")
		}
		if host, _, err := net.SplitHostPort(c.Tracing.Endpoint); err == nil && c.Tracing.Insecure && !isLoopback(host) {
			warns = append(warns, fmt.Sprintf("tracing.insecure sends spans to %q without TLS", c.Tracing.Endpoint))
		}
	}
	return warns
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// LoggerConfig returns the logger configuration for c. TRACKER_DEBUG and
// LOG_FORMAT still win over the file.
func (c *Config) LoggerConfig() *log.Config {
	lc := log.FromEnv()
	if os.Getenv("TRACKER_DEBUG") == "" {
		lc.Level = c.Log.Level
	}
	if os.Getenv("LOG_FORMAT") == "" {
		lc.Format = log.Format(c.Log.Format)
	}
	return lc
}

// ConfigError represents configuration problems.
type ConfigError struct {
	// Key is the configuration key that has the problem.
	Key string

	// Reason explains what's wrong with the configuration.
	Reason string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s", e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Suggestion returns a remediation hint.
func (e *ConfigError) Suggestion() string {
	return "Fix the configuration file (see 'tracker --help' for the config path) or the TRACKER_* environment variables"
}
