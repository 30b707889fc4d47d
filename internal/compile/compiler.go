// Package compile turns a validated graph snapshot and a task string into
// an orchestrator-ready execution plan.
package compile

import (
	"encoding/json"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// Agent defaults applied when a node omits a field.
const (
	DefaultRole        = "Default Role"
	DefaultGoal        = "Process information"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Compiler builds execution plans. It is stateless apart from the
// interpolation program cache and safe for concurrent use.
type Compiler struct {
	interp *Interpolator
}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{interp: NewInterpolator()}
}

// Compile converts a graph and an initial task into an ExecutionPlan.
// The graph must already have passed validation; entry and finish points
// are recomputed here from the snapshot's node order. Only the first entry
// node is representable in the plan. ${{...}} tokens in role, goal, and
// label resolve against {task, workflow, node}.
func (c *Compiler) Compile(g *schema.Graph, task string) (*schema.ExecutionPlan, error) {
	entries := g.EntryNodes()
	if len(entries) == 0 {
		return nil, schema.NewError(schema.ErrCodeNoEntryPoint, "cannot compile a graph without an entry point")
	}

	plan := &schema.ExecutionPlan{
		InitialTask: task,
		WorkflowID:  g.WorkflowID,
		Orchestrator: schema.OrchestratorSpec{
			EntryPoint:   entries[0],
			FinishPoints: g.ExitNodes(),
		},
	}

	plan.Agents = make([]schema.AgentSpec, 0, len(g.Nodes))
	for i := range g.Nodes {
		agent, err := c.agentSpec(&g.Nodes[i], g, task)
		if err != nil {
			return nil, err
		}
		plan.Agents = append(plan.Agents, agent)
		plan.Orchestrator.Nodes = append(plan.Orchestrator.Nodes, schema.OrchestratorNode{ID: g.Nodes[i].ID})
	}

	plan.Orchestrator.Edges = make([]schema.OrchestratorEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		oe := schema.OrchestratorEdge{Source: e.Source, Target: e.Target}
		// The label travels with the edge; visual styling does not.
		if e.Data.Label != "" {
			oe.Data = map[string]any{"label": e.Data.Label}
		}
		plan.Orchestrator.Edges = append(plan.Orchestrator.Edges, oe)
	}

	return plan, nil
}

func (c *Compiler) agentSpec(n *schema.Node, g *schema.Graph, task string) (schema.AgentSpec, error) {
	scope := map[string]any{
		"task": task,
		"workflow": map[string]any{
			"id": g.WorkflowID,
		},
		"node": map[string]any{
			"id":    n.ID,
			"type":  n.Type,
			"label": n.Data.Label,
		},
	}

	name := n.Data.Label
	if name == "" {
		name = n.ID
	}
	role := n.Data.Role
	if role == "" {
		role = DefaultRole
	}
	goal := n.Data.Goal
	if goal == "" {
		goal = DefaultGoal
	}

	var err error
	if name, err = c.interp.ResolveString(name, scope); err != nil {
		return schema.AgentSpec{}, wrapNodeErr(err, n.ID)
	}
	if role, err = c.interp.ResolveString(role, scope); err != nil {
		return schema.AgentSpec{}, wrapNodeErr(err, n.ID)
	}
	if goal, err = c.interp.ResolveString(goal, scope); err != nil {
		return schema.AgentSpec{}, wrapNodeErr(err, n.ID)
	}

	return schema.AgentSpec{
		ID:           n.ID,
		Name:         name,
		Role:         role,
		Goal:         goal,
		InitialState: map[string]any{},
		LLMConfig:    llmConfig(n.Data.Config),
		AllowedTools: append([]string{}, n.Data.AllowedTools...),
	}, nil
}

// llmConfig applies the compile defaults, overridden by valid node config
// values. Out-of-range overrides (temperature outside [0,1], non-positive
// max_tokens) fall back to the defaults.
func llmConfig(config map[string]any) schema.LLMConfig {
	cfg := schema.LLMConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	if t, ok := floatValue(config, "temperature"); ok && t >= 0 && t <= 1 {
		cfg.Temperature = t
	}
	if m, ok := intValue(config, "max_tokens", "maxTokens"); ok && m > 0 {
		cfg.MaxTokens = m
	}
	return cfg
}

func floatValue(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func intValue(m map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n, true
		case float64:
			return int(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

func wrapNodeErr(err error, nodeID string) error {
	if werr, ok := err.(*schema.WorkflowError); ok {
		return werr.WithNode(nodeID)
	}
	return err
}
