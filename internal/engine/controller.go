// Package engine orchestrates workflow runs: validate the current graph,
// compile it into a plan, submit the plan to the external runner, and track
// state, result, and history.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Joseph-k-iype/multi-agent/internal/compile"
	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/logging"
	"github.com/Joseph-k-iype/multi-agent/internal/runner"
	"github.com/Joseph-k-iype/multi-agent/internal/validation"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// DefaultHistoryLimit caps the session history; the oldest records drop first.
const DefaultHistoryLimit = 100

// RunResult is what a completed (or failed) run returns to the caller.
type RunResult struct {
	Record schema.ExecutionRecord `json:"record"`
	Plan   *schema.ExecutionPlan  `json:"plan,omitempty"`
}

// Controller drives the run lifecycle. At most one run is in flight at a
// time; a second Run while one is in progress is rejected, not queued, and
// leaves no history entry. Every accepted run appends exactly one record.
type Controller struct {
	store    *graph.Store
	compiler *compile.Compiler
	runner   runner.Runner
	fsm      *RunFSM
	logger   *slog.Logger

	mu           sync.Mutex
	history      []schema.ExecutionRecord
	historyLimit int
	lastResult   json.RawMessage
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithHistoryLimit overrides the default history cap.
func WithHistoryLimit(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// NewController wires a controller to a graph store and a runner.
func NewController(store *graph.Store, r runner.Runner, logger *slog.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		store:        store,
		compiler:     compile.NewCompiler(),
		runner:       r,
		fsm:          NewRunFSM(),
		logger:       logger,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() schema.RunState {
	return c.fsm.State()
}

// History returns a copy of the append-ordered run records.
func (c *Controller) History() []schema.ExecutionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.ExecutionRecord, len(c.history))
	copy(out, c.history)
	return out
}

// LastResult returns the most recent successful run's response body, or nil.
func (c *Controller) LastResult() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// Run executes one workflow run against the current graph snapshot.
//
// The pipeline is: reject if busy -> validate -> compile -> submit. A failed
// validation or compilation never reaches the runner. Whatever happens
// after the run is accepted, exactly one history record is appended and
// the machine lands in a stable terminal state.
func (c *Controller) Run(ctx context.Context, task string) (*RunResult, error) {
	if err := c.fsm.Begin(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	snapshot := c.store.Snapshot()
	ctx = logging.WithWorkflowID(ctx, snapshot.WorkflowID)
	ctx = logging.WithRunID(ctx, runID)
	log := logging.LogWith(ctx, c.logger)

	log.Info("run started", slog.String("task", task))

	result := validation.Validate(snapshot)
	for _, w := range result.Warnings {
		log.Warn("validation warning", slog.String("code", w.Code), slog.String("message", w.Message))
	}
	if !result.Valid() {
		err := result.ToError()
		log.Warn("run blocked by validation", slog.String("reason", result.Reason()))
		return c.fail(runID, task, err), err
	}

	plan, err := c.compiler.Compile(snapshot, task)
	if err != nil {
		log.Error("plan compilation failed", slog.String("error", err.Error()))
		return c.fail(runID, task, err), err
	}

	data, err := c.runner.Run(ctx, plan)
	if err != nil {
		log.Error("run failed", slog.String("error", err.Error()))
		res := c.fail(runID, task, err)
		res.Plan = plan
		return res, err
	}

	record := schema.ExecutionRecord{
		ID:        runID,
		Timestamp: time.Now().UTC(),
		Task:      task,
		Outcome:   schema.RunOutcome{Success: true, Data: data},
	}
	c.append(record, data)
	// Transition cannot fail: Running -> Succeeded is always allowed.
	_ = c.fsm.Transition(schema.RunStateSucceeded)

	log.Info("run succeeded")
	return &RunResult{Record: record, Plan: plan}, nil
}

// fail records a failed attempt and parks the machine in Failed.
func (c *Controller) fail(runID, task string, cause error) *RunResult {
	record := schema.ExecutionRecord{
		ID:        runID,
		Timestamp: time.Now().UTC(),
		Task:      task,
		Outcome:   schema.RunOutcome{Success: false, Error: cause.Error()},
	}
	c.append(record, nil)
	_ = c.fsm.Transition(schema.RunStateFailed)
	return &RunResult{Record: record}
}

func (c *Controller) append(record schema.ExecutionRecord, result json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, record)
	if len(c.history) > c.historyLimit {
		c.history = c.history[len(c.history)-c.historyLimit:]
	}
	if result != nil {
		c.lastResult = result
	}
}
