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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRACKER_STATE_DIR", "TRACKER_BACKEND", "TRACKER_LOG_LEVEL",
		"TRACKER_METRICS_ADDR", "TRACKER_MCP_CALLS_PER_MINUTE", "TRACKER_TRACING",
		"TRACKER_TRACING_ENDPOINT", "TRACKER_TRACING_PROTOCOL", "TRACKER_TRACING_INSECURE",
		"TRACKER_DEBUG", "LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.State.Backend != BackendFile {
		t.Errorf("expected backend 'file', got %q", cfg.State.Backend)
	}
	if cfg.State.Format != "json" {
		t.Errorf("expected format 'json', got %q", cfg.State.Format)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.MCP.Name != "progress-tracker" {
		t.Errorf("expected server name 'progress-tracker', got %q", cfg.MCP.Name)
	}
	if cfg.MCP.Transport != TransportStdio {
		t.Errorf("expected transport 'stdio', got %q", cfg.MCP.Transport)
	}
	if cfg.MCP.CallsPerMinute != 120 {
		t.Errorf("expected 120 calls per minute, got %d", cfg.MCP.CallsPerMinute)
	}
	if cfg.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errText string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.State.Backend = "redis" },
			wantErr: true,
			errText: "state.backend",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.State.Format = "toml" },
			wantErr: true,
			errText: "state.format",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: true,
			errText: "log.level",
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errText: "log.format",
		},
		{
			name:    "unknown transport",
			modify:  func(c *Config) { c.MCP.Transport = "grpc" },
			wantErr: true,
			errText: "mcp.transport",
		},
		{
			name: "sse with bad address",
			modify: func(c *Config) {
				c.MCP.Transport = TransportSSE
				c.MCP.Addr = "8765"
			},
			wantErr: true,
			errText: "mcp.addr",
		},
		{
			name: "sse with good address",
			modify: func(c *Config) {
				c.MCP.Transport = TransportSSE
				c.MCP.Addr = ":8765"
			},
		},
		{
			name:    "negative rate",
			modify:  func(c *Config) { c.MCP.CallsPerMinute = -1 },
			wantErr: true,
			errText: "calls_per_minute",
		},
		{
			name:    "bad metrics address",
			modify:  func(c *Config) { c.Metrics.Addr = "metrics" },
			wantErr: true,
			errText: "metrics.addr",
		},
		{
			name:    "unknown tracing protocol",
			modify:  func(c *Config) { c.Tracing.Protocol = "thrift" },
			wantErr: true,
			errText: "tracing.protocol",
		},
		{
			name:    "tracing endpoint with scheme",
			modify:  func(c *Config) { c.Tracing.Endpoint = "https://collector.example.com" },
			wantErr: true,
			errText: "tracing.endpoint",
		},
		{
			name: "otlp over http",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = "collector.example.com:4318"
				c.Tracing.Protocol = ProtocolHTTP
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("expected error containing %q, got %q", tt.errText, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.State.Backend != BackendFile {
		t.Errorf("expected defaults, got backend %q", cfg.State.Backend)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `state:
  backend: sqlite
  dir: /var/lib/tracker
log:
  level: debug
mcp:
  calls_per_minute: 30
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.State.Backend != BackendSQLite {
		t.Errorf("expected backend 'sqlite', got %q", cfg.State.Backend)
	}
	if cfg.State.Dir != "/var/lib/tracker" {
		t.Errorf("expected dir from file, got %q", cfg.State.Dir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.Log.Level)
	}
	if cfg.MCP.CallsPerMinute != 30 {
		t.Errorf("expected 30 calls per minute, got %d", cfg.MCP.CallsPerMinute)
	}
	// Unset keys keep their defaults.
	if cfg.State.Format != "json" || cfg.MCP.Transport != TransportStdio {
		t.Errorf("defaults not applied: format=%q transport=%q", cfg.State.Format, cfg.MCP.Transport)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("state:\n  backend: sqlite\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRACKER_BACKEND", "MEMORY")
	t.Setenv("TRACKER_STATE_DIR", "/tmp/plans")
	t.Setenv("TRACKER_LOG_LEVEL", "WARN")
	t.Setenv("TRACKER_METRICS_ADDR", "127.0.0.1:9090")
	t.Setenv("TRACKER_MCP_CALLS_PER_MINUTE", "0")
	t.Setenv("TRACKER_TRACING", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.State.Backend != BackendMemory {
		t.Errorf("expected env backend 'memory', got %q", cfg.State.Backend)
	}
	if cfg.State.Dir != "/tmp/plans" {
		t.Errorf("expected env dir, got %q", cfg.State.Dir)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env log level 'warn', got %q", cfg.Log.Level)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9090" {
		t.Errorf("expected env metrics addr, got %q", cfg.Metrics.Addr)
	}
	if cfg.MCP.CallsPerMinute != 0 {
		t.Errorf("expected rate limiting disabled, got %d", cfg.MCP.CallsPerMinute)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing enabled from env")
	}
}

func TestLoad_TracingExport(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `tracing:
  enabled: true
  endpoint: collector.internal:4317
  headers:
    x-api-key: secret
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracing.Protocol != ProtocolGRPC {
		t.Errorf("expected default protocol grpc, got %q", cfg.Tracing.Protocol)
	}
	if cfg.Tracing.Headers["x-api-key"] != "secret" {
		t.Errorf("expected headers from file, got %v", cfg.Tracing.Headers)
	}

	t.Setenv("TRACKER_TRACING_ENDPOINT", "localhost:4318")
	t.Setenv("TRACKER_TRACING_PROTOCOL", "HTTP")
	t.Setenv("TRACKER_TRACING_INSECURE", "1")

	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.Protocol != ProtocolHTTP || !cfg.Tracing.Insecure {
		t.Errorf("env overrides not applied: %+v", cfg.Tracing)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"malformed yaml", "state: [", "config_file"},
		{"invalid value", "state:\n  backend: redis\n", "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, cfgErr.Key)
			}
			if cfgErr.Suggestion() == "" {
				t.Error("expected a suggestion")
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/xdg", "tracker") {
		t.Errorf("ConfigDir() = %q", dir)
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/xdg", "tracker", "config.yaml") {
		t.Errorf("ConfigPath() = %q", path)
	}
}

func TestLoggerConfig(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	lc := cfg.LoggerConfig()
	if lc.Level != "warn" {
		t.Errorf("expected level from config, got %q", lc.Level)
	}
	if string(lc.Format) != "json" {
		t.Errorf("expected format from config, got %q", lc.Format)
	}

	t.Setenv("LOG_FORMAT", "text")
	if lc := cfg.LoggerConfig(); string(lc.Format) != "text" {
		t.Errorf("expected LOG_FORMAT to win, got %q", lc.Format)
	}
}

func TestProblems_ReportsEveryInvalidValue(t *testing.T) {
	cfg := Default()
	cfg.State.Backend = "s3"
	cfg.Log.Format = "xml"

	problems := cfg.Problems()
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(problems), problems)
	}
	if !strings.Contains(problems[0], "state.backend") || !strings.Contains(problems[1], "log.format") {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"default", func(c *Config) {}, ""},
		{"sqlite path unused", func(c *Config) { c.State.SQLitePath = "/tmp/p.db" }, "state.sqlite_path"},
		{"memory backend", func(c *Config) { c.State.Backend = BackendMemory }, "lost"},
		{"public sse", func(c *Config) { c.MCP.Transport = TransportSSE; c.MCP.Addr = "0.0.0.0:8765" }, "other hosts"},
		{"loopback sse", func(c *Config) { c.MCP.Transport = TransportSSE; c.MCP.Addr = "localhost:8765" }, ""},
		{"unlimited calls", func(c *Config) { c.MCP.CallsPerMinute = 0 }, "not rate limited"},
		{"tracing output unused", func(c *Config) { c.Tracing.Output = "spans.json" }, "tracing.output"},
		{"tracing endpoint unused", func(c *Config) { c.Tracing.Endpoint = "localhost:4317" }, "tracing.endpoint"},
		{"endpoint overrides output", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = "localhost:4317"
			c.Tracing.Output = "spans.json"
		}, "tracing.output is ignored"},
		{"insecure remote collector", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = "collector.example.com:4317"
			c.Tracing.Insecure = true
		}, "without TLS"},
		{"insecure local collector", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = "127.0.0.1:4317"
			c.Tracing.Insecure = true
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			warns := cfg.Warnings()
			if tt.want == "" {
				if len(warns) != 0 {
					t.Errorf("expected no warnings, got %v", warns)
				}
				return
			}
			if len(warns) != 1 || !strings.Contains(warns[0], tt.want) {
				t.Errorf("expected one warning containing %q, got %v", tt.want, warns)
			}
		})
	}
}
