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

// Package tracing installs the OpenTelemetry tracer provider used by the
// tracker's operation spans.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures span export.
type Config struct {
	// Enabled installs an SDK provider. When false the global no-op provider stays.
	Enabled bool

	// Writer receives exported spans. Default: os.Stderr (stdout belongs to
	// the MCP stdio transport).
	Writer io.Writer

	// PrettyPrint enables human-readable formatted output.
	PrettyPrint bool

	// OTLP sends spans to a collector instead of Writer when its Endpoint
	// is set.
	OTLP OTLPConfig

	ServiceName    string
	ServiceVersion string
}

// ShutdownFunc flushes pending spans and releases the provider.
type ShutdownFunc func(context.Context) error

// NewConsoleExporter creates a stdout-style span exporter writing to w.
func NewConsoleExporter(w io.Writer, pretty bool) (sdktrace.SpanExporter, error) {
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console exporter: %w", err)
	}
	return exporter, nil
}

// Setup installs a global tracer provider according to cfg. The returned
// shutdown func is always non-nil.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	// Collector export is batched; console export stays synchronous so
	// short CLI runs print their spans before exiting.
	var processor sdktrace.TracerProviderOption
	if cfg.OTLP.Endpoint != "" {
		exporter, err := NewOTLPExporter(ctx, cfg.OTLP)
		if err != nil {
			return noop, err
		}
		processor = sdktrace.WithBatcher(exporter)
	} else {
		exporter, err := NewConsoleExporter(cfg.Writer, cfg.PrettyPrint)
		if err != nil {
			return noop, err
		}
		processor = sdktrace.WithSyncer(exporter)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "tracker"
	}

	// Empty schema URL avoids conflicts when merging with the default resource.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		processor,
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
