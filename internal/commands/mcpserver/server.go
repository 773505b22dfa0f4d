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

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-adapters/tracker/internal/commands/completion"
	"github.com/mcp-adapters/tracker/internal/commands/shared"
	"github.com/mcp-adapters/tracker/internal/config"
	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/mcp/server"
	"github.com/mcp-adapters/tracker/internal/metrics"
)

// Options are the mcp-server flag values.
type Options struct {
	Transport   string
	Addr        string
	MetricsAddr string
	LogLevel    string
	Ephemeral   bool
}

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start the progress tracker MCP server",
		Long: `Start the progress tracker MCP (Model Context Protocol) server.

The server exposes the tracker as tools that AI assistants use to record
multi-step plans and resume them after a crash or restart:

  - progress_create_plan: Create a plan with pending steps
  - progress_get_plan: Return the stored plan
  - progress_update_step: Record in_progress, completed or failed
  - progress_next_step: First pending step
  - progress_summary: Progress summary, optionally filtered with jq
  - progress_checkpoint / progress_restore_checkpoint: Recovery data
  - progress_resume: Plan, next step, checkpoint and summary in one call
  - progress_list_plans: Stored plans, filtered by glob and expression

Plans are also readable as resources at progress://plans/{task_id}, and the
resume_task prompt produces a resumption brief.

The server runs in stdio mode by default. Use 'tracker mcp-config' to print
the client configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServer(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Transport, "transport", "", "Transport: stdio or sse (default from config: stdio)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address for the sse transport")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Logging verbosity (trace, debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.Ephemeral, "ephemeral", false, "Keep plans in memory only for this session")
	_ = cmd.RegisterFlagCompletionFunc("transport", completion.CompleteTransports)

	return cmd
}

// apply merges flag values into cfg and revalidates it.
func (o Options) apply(cfg *config.Config) error {
	if o.Transport != "" {
		cfg.MCP.Transport = o.Transport
	}
	if o.Addr != "" {
		cfg.MCP.Addr = o.Addr
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.Ephemeral {
		cfg.State.Backend = config.BackendMemory
	}
	return cfg.Validate()
}

func runMCPServer(cmd *cobra.Command, opts Options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return shared.NewInvalidInputError("invalid server options", err)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := shared.OpenRuntimeWith(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	versionStr, _, _ := shared.GetVersion()
	srv, err := server.NewServer(server.ServerConfig{
		Name:           cfg.MCP.Name,
		Version:        versionStr,
		Tracker:        rt.Tracker,
		CallsPerMinute: callsPerMinute(cfg.MCP.CallsPerMinute),
		Logger:         rt.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, rt.Logger)
		defer stopMetrics()
	}

	rt.Logger.Info("plan store ready",
		slog.String("backend", cfg.State.Backend),
		slog.String("dir", rt.Backend.Dir))

	switch cfg.MCP.Transport {
	case config.TransportSSE:
		err = srv.ServeSSE(ctx, cfg.MCP.Addr)
	default:
		err = srv.ServeStdio(ctx)
	}
	if err != nil {
		return shared.NewFailureError("MCP server stopped", err)
	}
	return nil
}

// callsPerMinute maps the config value, where zero means unlimited, onto
// the server option, where zero means the default.
func callsPerMinute(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// serveMetrics exposes /metrics on addr and returns a func that stops it.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
