package engine

import (
	"sync"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// TransitionHook is called after a state transition commits.
type TransitionHook func(from, to schema.RunState)

type hookKey struct {
	from, to schema.RunState
}

// RunFSM manages the execution lifecycle state machine:
// Idle -> Running -> {Succeeded, Failed} -> {Running, Idle}. A new run
// restarts from Idle or a terminal state, and a terminal state may be
// reset back to Idle. Succeeded and Failed are stable resting states;
// nothing is ever stuck.
type RunFSM struct {
	mu    sync.Mutex
	state schema.RunState
	after map[hookKey][]TransitionHook
}

// NewRunFSM creates an FSM starting in Idle.
func NewRunFSM() *RunFSM {
	return &RunFSM{
		state: schema.RunStateIdle,
		after: make(map[hookKey][]TransitionHook),
	}
}

// State returns the current state.
func (f *RunFSM) State() schema.RunState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnAfter registers a hook called after the given transition commits.
func (f *RunFSM) OnAfter(from, to schema.RunState, hook TransitionHook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := hookKey{from, to}
	f.after[key] = append(f.after[key], hook)
}

// Transition moves the machine to the given state, validating against the
// transition table. Hooks run after the state change, outside the lock.
func (f *RunFSM) Transition(to schema.RunState) error {
	f.mu.Lock()
	from := f.state
	if !isValidRunTransition(from, to) {
		f.mu.Unlock()
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid run transition: %s -> %s", from, to).
			WithDetails(map[string]any{"from": string(from), "to": string(to)})
	}
	f.state = to
	hooks := f.after[hookKey{from, to}]
	f.mu.Unlock()

	for _, hook := range hooks {
		hook(from, to)
	}
	return nil
}

// Begin atomically checks that no run is in flight and enters Running.
// Returns a CONFLICT error if a run is already in flight; the check and
// the transition share one critical section so two concurrent callers can
// never both begin.
func (f *RunFSM) Begin() error {
	f.mu.Lock()
	from := f.state
	if from == schema.RunStateRunning {
		f.mu.Unlock()
		return schema.NewError(schema.ErrCodeConflict, "a workflow run is already in progress")
	}
	if !isValidRunTransition(from, schema.RunStateRunning) {
		f.mu.Unlock()
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid run transition: %s -> %s", from, schema.RunStateRunning)
	}
	f.state = schema.RunStateRunning
	hooks := f.after[hookKey{from, schema.RunStateRunning}]
	f.mu.Unlock()

	for _, hook := range hooks {
		hook(from, schema.RunStateRunning)
	}
	return nil
}

// ValidRunTransitions defines the allowed lifecycle transitions.
var ValidRunTransitions = map[schema.RunState][]schema.RunState{
	schema.RunStateIdle:      {schema.RunStateRunning},
	schema.RunStateRunning:   {schema.RunStateSucceeded, schema.RunStateFailed},
	schema.RunStateSucceeded: {schema.RunStateRunning, schema.RunStateIdle},
	schema.RunStateFailed:    {schema.RunStateRunning, schema.RunStateIdle},
}

func isValidRunTransition(from, to schema.RunState) bool {
	allowed, ok := ValidRunTransitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}
