package schema

import (
	"encoding/json"
	"time"
)

// RunState is the execution controller's lifecycle state.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

// RunOutcome is the terminal result of one run attempt.
type RunOutcome struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ExecutionRecord is an immutable history entry for one run attempt,
// successful or not. Records are session-scoped and append-ordered.
type ExecutionRecord struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Task      string     `json:"task"`
	Outcome   RunOutcome `json:"outcome"`
}
