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

package shared

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mcp-adapters/tracker/internal/config"
	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/progress"
	"github.com/mcp-adapters/tracker/internal/progress/backend"
	"github.com/mcp-adapters/tracker/internal/tracing"
)

// Runtime is everything a command needs to talk to the plan store.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Backend *backend.Opened
	Tracker *progress.Tracker

	shutdownTracing tracing.ShutdownFunc
	traceOut        io.Closer
}

// LoadConfig loads the configuration named by --config, or the default
// path, and applies the --state-dir and --backend overrides.
func LoadConfig() (*config.Config, error) {
	path := GetConfigPath()
	if path == "" {
		if p, err := config.ConfigPath(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, NewInvalidInputError("failed to load configuration", err)
	}

	if dir := GetStateDir(); dir != "" {
		cfg.State.Dir = dir
	}
	if b := GetBackend(); b != "" {
		cfg.State.Backend = strings.ToLower(b)
		if err := cfg.Validate(); err != nil {
			return nil, NewInvalidInputError("invalid --backend", err)
		}
	}
	return cfg, nil
}

// NewLogger builds the command logger. --verbose raises the level to debug.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.LoggerConfig()
	if GetVerbose() {
		lc.Level = "debug"
	}
	return log.New(lc)
}

// OpenRuntime loads configuration and opens the configured store.
func OpenRuntime(ctx context.Context) (*Runtime, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return OpenRuntimeWith(ctx, cfg)
}

// OpenRuntimeWith opens the store described by cfg.
func OpenRuntimeWith(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	logger := NewLogger(cfg)
	rt := &Runtime{Config: cfg, Logger: logger}

	if err := rt.setupTracing(ctx); err != nil {
		return nil, NewFailureError("failed to set up tracing", err)
	}

	opened, err := backend.Open(cfg.State, logger)
	if err != nil {
		rt.Close(ctx)
		return nil, NewFailureError("failed to open plan store", err)
	}
	rt.Backend = opened
	rt.Tracker = progress.New(opened.Store, progress.WithLogger(logger))
	return rt, nil
}

func (rt *Runtime) setupTracing(ctx context.Context) error {
	tcfg := rt.Config.Tracing
	tc := tracing.Config{
		Enabled: tcfg.Enabled,
		OTLP: tracing.OTLPConfig{
			Endpoint: tcfg.Endpoint,
			Protocol: tcfg.Protocol,
			Insecure: tcfg.Insecure,
			Headers:  tcfg.Headers,
		},
	}
	v, _, _ := GetVersion()
	tc.ServiceVersion = v

	if tc.Enabled && tcfg.Endpoint == "" && tcfg.Output != "" {
		f, err := os.OpenFile(tcfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		rt.traceOut = f
		tc.Writer = f
	}

	shutdown, err := tracing.Setup(ctx, tc)
	if err != nil {
		return err
	}
	rt.shutdownTracing = shutdown
	return nil
}

// Close flushes spans and releases the store.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.Backend != nil {
		if err := rt.Backend.Close(); err != nil {
			rt.Logger.Warn("failed to close plan store", log.Error(err))
		}
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			rt.Logger.Warn("failed to flush spans", log.Error(err))
		}
	}
	if rt.traceOut != nil {
		rt.traceOut.Close()
	}
}
