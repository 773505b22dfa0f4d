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

// Package metrics holds the Prometheus collectors for tracker operations.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	plansCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_plans_created_total",
			Help: "Total task plans created",
		},
	)

	stepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_step_transitions_total",
			Help: "Total step transitions by target status",
		},
		[]string{"status"},
	)

	checkpoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_checkpoints_total",
			Help: "Total checkpoints written",
		},
	)

	persistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_persistence_errors_total",
			Help: "Total persistence operation errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_operation_duration_seconds",
			Help:    "Duration of tracker operations including storage round trips",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation"},
	)

	toolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_mcp_tool_calls_total",
			Help: "Total MCP tool calls by tool and result",
		},
		[]string{"tool", "result"},
	)
)

// RecordPlanCreated increments the plan creation counter.
func RecordPlanCreated() {
	plansCreated.Inc()
}

// RecordStepTransition counts a step moving to status.
func RecordStepTransition(status string) {
	stepTransitions.WithLabelValues(status).Inc()
}

// RecordCheckpoint increments the checkpoint counter.
func RecordCheckpoint() {
	checkpoints.Inc()
}

// RecordPersistenceError increments the persistence error counter.
// operation is the tracker operation (create_plan, update_step, checkpoint, load_plan)
// errorType is derived from the error with ClassifyError.
func RecordPersistenceError(operation, errorType string) {
	persistenceErrors.WithLabelValues(operation, errorType).Inc()
}

// ObserveOperation records how long an operation took.
func ObserveOperation(operation string, d time.Duration) {
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordToolCall counts an MCP tool call. result is "ok", "error" or "rate_limited".
func RecordToolCall(tool, result string) {
	toolCalls.WithLabelValues(tool, result).Inc()
}

// ClassifyError maps a storage error to a low-cardinality label value.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context_canceled"
	case errors.Is(err, fs.ErrPermission):
		return "permission_denied"
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.Is(err, os.ErrClosed):
		return "closed"
	default:
		var (
			pathErr        *fs.PathError
			unsupportedVal *json.UnsupportedValueError
			unsupportedTyp *json.UnsupportedTypeError
		)
		switch {
		case errors.As(err, &pathErr):
			return "io_error"
		case errors.As(err, &unsupportedVal), errors.As(err, &unsupportedTyp):
			return "encode_error"
		}
		return "unknown"
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
