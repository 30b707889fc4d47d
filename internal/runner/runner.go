// Package runner submits compiled execution plans to the external backend
// orchestrator and reports its reachability.
package runner

import (
	"context"
	"encoding/json"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// Runner is the outbound boundary of the graph engine. Implementations
// must return the backend's response body verbatim on success.
type Runner interface {
	// Run submits a plan and returns the backend's response body.
	Run(ctx context.Context, plan *schema.ExecutionPlan) (json.RawMessage, error)
	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
}
