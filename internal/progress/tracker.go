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

package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcp-adapters/tracker/internal/log"
	"github.com/mcp-adapters/tracker/internal/metrics"
)

const instrumentationName = "github.com/mcp-adapters/tracker/internal/progress"

// Tracker owns plan lifecycle on top of a Store. It performs no locking and
// starts no goroutines; every call is a synchronous read-modify-write.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = log.WithComponent(logger, "progress")
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *Tracker) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

// New creates a Tracker persisting through store.
func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: log.Discard(),
		now:    time.Now,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateRequest describes a new plan.
type CreateRequest struct {
	TaskID   string
	Title    string
	Steps    []string
	Metadata map[string]any

	// Overwrite replaces an existing plan with the same id. When false an
	// existing plan makes CreatePlan fail with ErrTaskExists.
	Overwrite bool
}

// CreatePlan builds a plan with one pending step per description and persists it.
func (t *Tracker) CreatePlan(ctx context.Context, req CreateRequest) (_ *TaskPlan, err error) {
	const op = "create_plan"
	ctx, finish := t.begin(ctx, op, req.TaskID, -1)
	defer func() { finish(err) }()

	if err := ValidateTaskID(req.TaskID); err != nil {
		return nil, opError(op, req.TaskID, -1, err)
	}
	if len(req.Steps) == 0 {
		return nil, opError(op, req.TaskID, -1, ErrNoSteps)
	}

	if !req.Overwrite {
		existing, err := t.load(ctx, op, req.TaskID)
		if err != nil {
			return nil, opError(op, req.TaskID, -1, err)
		}
		if existing != nil {
			return nil, opError(op, req.TaskID, -1, ErrTaskExists)
		}
	}

	now := t.now()
	steps := make([]TaskStep, len(req.Steps))
	for i, desc := range req.Steps {
		steps[i] = TaskStep{
			ID:          StepID(req.TaskID, i),
			Description: desc,
			Status:      StatusPending,
		}
	}

	metadata := cloneMap(req.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}

	plan := &TaskPlan{
		TaskID:           req.TaskID,
		Title:            req.Title,
		Steps:            steps,
		CreatedAt:        now,
		UpdatedAt:        now,
		TotalSteps:       len(steps),
		CompletedSteps:   0,
		CurrentStepIndex: 0,
		Metadata:         metadata,
	}
	plan.refreshStatus()

	if err := t.save(ctx, op, plan); err != nil {
		return nil, opError(op, req.TaskID, -1, err)
	}

	metrics.RecordPlanCreated()
	log.WithTaskContext(t.logger, plan.TaskID).Info("plan created",
		slog.String("title", plan.Title),
		slog.Int("total_steps", plan.TotalSteps),
		slog.Bool("overwrite", req.Overwrite))

	return plan, nil
}

// LoadPlan returns the stored plan, or (nil, nil) when none exists. An id that
// fails ValidateTaskID cannot name a stored plan and is also reported as
// absent. Corrupt documents are reported as errors wrapping ErrCorruptPlan,
// never as absence.
func (t *Tracker) LoadPlan(ctx context.Context, taskID string) (_ *TaskPlan, err error) {
	const op = "load_plan"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.lookup(ctx, op, taskID)
	if err != nil {
		return nil, opError(op, taskID, -1, err)
	}
	return plan, nil
}

// UpdateStep applies update to the step at index and persists the plan.
//
// started_at is only set when leaving pending, completed_at is set on both
// terminal outcomes, and completed_steps is incremented once per step.
// current_step_index moves only when a step is started.
func (t *Tracker) UpdateStep(ctx context.Context, taskID string, index int, update StepUpdate) (_ *TaskPlan, err error) {
	const op = "update_step"
	ctx, finish := t.begin(ctx, op, taskID, index)
	defer func() { finish(err) }()

	plan, err := t.load(ctx, op, taskID)
	if err != nil {
		return nil, opError(op, taskID, index, err)
	}
	if plan == nil {
		return nil, opError(op, taskID, index, ErrTaskNotFound)
	}
	if index < 0 || index >= len(plan.Steps) {
		return nil, opError(op, taskID, index,
			fmt.Errorf("%w: %d not in [0, %d)", ErrStepOutOfRange, index, len(plan.Steps)))
	}

	previous := plan.Steps[index].Status
	now := t.now()
	if err := applyUpdate(plan, index, update, now); err != nil {
		return nil, opError(op, taskID, index, err)
	}
	plan.UpdatedAt = now
	plan.refreshStatus()

	if err := t.save(ctx, op, plan); err != nil {
		return nil, opError(op, taskID, index, err)
	}

	metrics.RecordStepTransition(string(update.status))
	log.WithTaskContext(t.logger, taskID).Debug("step updated",
		slog.Int(log.StepIndexKey, index),
		slog.String("from", string(previous)),
		slog.String(log.StatusKey, string(update.status)),
		slog.Int("completed_steps", plan.CompletedSteps))
	if plan.Status == PlanComplete && previous != StatusCompleted {
		log.WithTaskContext(t.logger, taskID).Info("plan complete", slog.Int("total_steps", plan.TotalSteps))
	}

	return plan, nil
}

func applyUpdate(plan *TaskPlan, index int, u StepUpdate, now time.Time) error {
	step := &plan.Steps[index]

	switch u.status {
	case StatusInProgress:
		if step.Status.Terminal() {
			return fmt.Errorf("%w: cannot start a %s step", ErrInvalidTransition, step.Status)
		}
		if step.Status == StatusPending {
			step.StartedAt = timePtr(now)
		}
		step.Status = StatusInProgress
		plan.CurrentStepIndex = index

	case StatusCompleted:
		switch step.Status {
		case StatusFailed:
			return fmt.Errorf("%w: cannot complete a failed step", ErrInvalidTransition)
		case StatusCompleted:
			// Already counted; keep the first finish time.
		default:
			step.CompletedAt = timePtr(now)
			plan.CompletedSteps++
		}
		step.Status = StatusCompleted

	case StatusFailed:
		if step.Status == StatusCompleted {
			return fmt.Errorf("%w: cannot fail a completed step", ErrInvalidTransition)
		}
		step.CompletedAt = timePtr(now)
		step.Error = u.errMsg
		step.Status = StatusFailed

	default:
		return fmt.Errorf("%w: unsupported target status %q", ErrInvalidTransition, u.status)
	}

	if u.output != nil {
		step.Output = cloneMap(u.output)
	}
	return nil
}

// NextStep returns the first pending step in plan order. It returns nil when
// the plan does not exist or no step is pending; callers that need to tell
// those apart should check LoadPlan or Summary.
func (t *Tracker) NextStep(ctx context.Context, taskID string) (_ *TaskStep, err error) {
	const op = "next_step"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.lookup(ctx, op, taskID)
	if err != nil {
		return nil, opError(op, taskID, -1, err)
	}
	if plan == nil {
		return nil, nil
	}
	return firstPending(plan), nil
}

func firstPending(plan *TaskPlan) *TaskStep {
	for i := range plan.Steps {
		if plan.Steps[i].Status == StatusPending {
			step := plan.Steps[i].clone()
			return &step
		}
	}
	return nil
}

// Summary returns the progress summary for taskID. A missing plan is not an
// error: the returned Summary carries Error instead.
func (t *Tracker) Summary(ctx context.Context, taskID string) (_ Summary, err error) {
	const op = "summary"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.lookup(ctx, op, taskID)
	if err != nil {
		return Summary{}, opError(op, taskID, -1, err)
	}
	if plan == nil {
		return NotFoundSummary(), nil
	}
	return Summarize(plan), nil
}

// Checkpoint replaces the plan's last checkpoint with data. Other metadata
// keys are left untouched.
func (t *Tracker) Checkpoint(ctx context.Context, taskID string, data map[string]any) (err error) {
	const op = "checkpoint"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.load(ctx, op, taskID)
	if err != nil {
		return opError(op, taskID, -1, err)
	}
	if plan == nil {
		return opError(op, taskID, -1, ErrTaskNotFound)
	}

	now := t.now()
	if plan.Metadata == nil {
		plan.Metadata = map[string]any{}
	}
	plan.Metadata[CheckpointKey] = map[string]any{
		"timestamp": now.Format(time.RFC3339Nano),
		"data":      cloneMap(data),
	}
	plan.UpdatedAt = now

	if err := t.save(ctx, op, plan); err != nil {
		return opError(op, taskID, -1, err)
	}

	metrics.RecordCheckpoint()
	log.WithTaskContext(t.logger, taskID).Debug("checkpoint saved", slog.Int("keys", len(data)))
	return nil
}

// RestoreCheckpoint returns the data of the last checkpoint, or nil when the
// plan does not exist or has never been checkpointed.
func (t *Tracker) RestoreCheckpoint(ctx context.Context, taskID string) (_ map[string]any, err error) {
	const op = "restore_checkpoint"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.lookup(ctx, op, taskID)
	if err != nil {
		return nil, opError(op, taskID, -1, err)
	}
	if plan == nil {
		return nil, nil
	}
	cp, ok := plan.LastCheckpoint()
	if !ok {
		return nil, nil
	}
	return cp.Data, nil
}

// ResumeState bundles everything an orchestrator needs to pick a task back up.
type ResumeState struct {
	Plan           *TaskPlan      `json:"plan"`
	NextStep       *TaskStep      `json:"next_step"`
	CheckpointData map[string]any `json:"checkpoint_data"`
	Summary        Summary        `json:"summary"`
}

// Resume loads the plan once and derives the next step, checkpoint data and
// summary from that single snapshot. It returns nil when the plan is absent.
func (t *Tracker) Resume(ctx context.Context, taskID string) (_ *ResumeState, err error) {
	const op = "resume"
	ctx, finish := t.begin(ctx, op, taskID, -1)
	defer func() { finish(err) }()

	plan, err := t.lookup(ctx, op, taskID)
	if err != nil {
		return nil, opError(op, taskID, -1, err)
	}
	if plan == nil {
		return nil, nil
	}

	state := &ResumeState{
		Plan:     plan,
		NextStep: firstPending(plan),
		Summary:  Summarize(plan),
	}
	if cp, ok := plan.LastCheckpoint(); ok {
		state.CheckpointData = cp.Data
	}
	return state, nil
}

// ListPlans returns the ids of all stored plans in lexical order.
func (t *Tracker) ListPlans(ctx context.Context) (_ []string, err error) {
	const op = "list_plans"
	ctx, finish := t.begin(ctx, op, "", -1)
	defer func() { finish(err) }()

	ids, err := t.store.List(ctx)
	if err != nil {
		metrics.RecordPersistenceError(op, classify(err))
		return nil, opError(op, "*", -1, err)
	}
	slices.Sort(ids)
	return ids, nil
}

// lookup is load for the read-only operations: an invalid id has no plan.
func (t *Tracker) lookup(ctx context.Context, op, taskID string) (*TaskPlan, error) {
	if ValidateTaskID(taskID) != nil {
		return nil, nil
	}
	return t.load(ctx, op, taskID)
}

func (t *Tracker) load(ctx context.Context, op, taskID string) (*TaskPlan, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return nil, err
	}
	plan, err := t.store.Load(ctx, taskID)
	if err != nil {
		metrics.RecordPersistenceError(op, classify(err))
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	if err := plan.Validate(); err != nil {
		metrics.RecordPersistenceError(op, "corrupt")
		return nil, fmt.Errorf("%w: %v", ErrCorruptPlan, err)
	}
	return plan, nil
}

func (t *Tracker) save(ctx context.Context, op string, plan *TaskPlan) error {
	if err := t.store.Save(ctx, plan); err != nil {
		metrics.RecordPersistenceError(op, classify(err))
		log.WithTaskContext(t.logger, plan.TaskID).Error("failed to persist plan",
			slog.String("operation", op), log.Error(err))
		return err
	}
	log.Trace(t.logger, "plan persisted",
		slog.String(log.TaskIDKey, plan.TaskID), slog.String("operation", op))
	return nil
}

// begin opens a span for op and returns a func that records the outcome.
func (t *Tracker) begin(ctx context.Context, op, taskID string, stepIndex int) (context.Context, func(error)) {
	start := time.Now()
	attrs := []attribute.KeyValue{
		attribute.String("task.id", taskID),
		attribute.String("span.type", "progress."+op),
	}
	if stepIndex >= 0 {
		attrs = append(attrs, attribute.Int("step.index", stepIndex))
	}
	ctx, span := t.tracer.Start(ctx, "progress."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		metrics.ObserveOperation(op, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func classify(err error) string {
	if errors.Is(err, ErrCorruptPlan) {
		return "corrupt"
	}
	if errors.Is(err, ErrUnencodablePlan) {
		return "encode_error"
	}
	return metrics.ClassifyError(err)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
