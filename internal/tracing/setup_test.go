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

package tracing

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func resetProvider(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestSetup_Disabled(t *testing.T) {
	resetProvider(t)

	shutdown, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetup_ExportsSpans(t *testing.T) {
	resetProvider(t)

	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Enabled: true, Writer: &buf, ServiceVersion: "1.2.3"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "progress.update_step")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"progress.update_step", "tracker", "1.2.3"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported span missing %q:\n%s", want, out)
		}
	}
}

func TestNewConsoleExporter(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewConsoleExporter(&buf, true)
	if err != nil {
		t.Fatalf("NewConsoleExporter: %v", err)
	}
	if err := exp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// collector records OTLP/HTTP export requests.
type collector struct {
	mu       sync.Mutex
	paths    []string
	headers  []http.Header
	payloads [][]byte
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.paths = append(c.paths, r.URL.Path)
	c.headers = append(c.headers, r.Header.Clone())
	c.payloads = append(c.payloads, body)
	c.mu.Unlock()
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
}

func TestSetup_ExportsToOTLPHTTP(t *testing.T) {
	resetProvider(t)

	rec := &collector{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	shutdown, err := Setup(context.Background(), Config{
		Enabled:        true,
		ServiceVersion: "1.2.3",
		OTLP: OTLPConfig{
			Endpoint: strings.TrimPrefix(srv.URL, "http://"),
			Protocol: ProtocolHTTP,
			Insecure: true,
			Headers:  map[string]string{"x-api-key": "secret"},
		},
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "progress.checkpoint")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.paths) == 0 {
		t.Fatal("collector received no export request")
	}
	if rec.paths[0] != "/v1/traces" {
		t.Errorf("path = %q, want /v1/traces", rec.paths[0])
	}
	if got := rec.headers[0].Get("X-Api-Key"); got != "secret" {
		t.Errorf("x-api-key header = %q, want secret", got)
	}
	if !bytes.Contains(rec.payloads[0], []byte("progress.checkpoint")) {
		t.Error("exported payload does not contain the span name")
	}
}

func TestNewOTLPExporter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OTLPConfig
		wantErr string
	}{
		{name: "grpc insecure", cfg: OTLPConfig{Endpoint: "127.0.0.1:4317", Insecure: true}},
		{name: "grpc tls", cfg: OTLPConfig{Endpoint: "collector.example.com:4317", Protocol: ProtocolGRPC}},
		{name: "http tls", cfg: OTLPConfig{Endpoint: "collector.example.com:4318", Protocol: ProtocolHTTP}},
		{name: "missing endpoint", cfg: OTLPConfig{}, wantErr: "endpoint is required"},
		{name: "unknown protocol", cfg: OTLPConfig{Endpoint: "localhost:1", Protocol: "thrift"}, wantErr: "unknown OTLP protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewOTLPExporter(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewOTLPExporter() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOTLPExporter() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := exp.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown: %v", err)
			}
		})
	}
}
