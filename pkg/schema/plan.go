package schema

// ExecutionPlan is the orchestrator-ready description of one run, derived
// from a validated graph. Field names follow the backend wire contract.
type ExecutionPlan struct {
	InitialTask  string           `json:"initial_task"`
	WorkflowID   string           `json:"workflow_id"`
	Agents       []AgentSpec      `json:"agents_config"`
	Orchestrator OrchestratorSpec `json:"orchestrator_config"`
}

// AgentSpec is the backend-facing configuration of a single agent.
type AgentSpec struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Role         string         `json:"role"`
	Goal         string         `json:"goal"`
	InitialState map[string]any `json:"initial_state"`
	LLMConfig    LLMConfig      `json:"llm_config"`
	AllowedTools []string       `json:"allowed_tools"`
}

// LLMConfig holds model sampling parameters for one agent.
type LLMConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// OrchestratorSpec describes the connectivity the orchestrator walks.
// Only one entry point is representable; all exits are finish points.
type OrchestratorSpec struct {
	EntryPoint   string             `json:"entry_point"`
	FinishPoints []string           `json:"finish_point"`
	Nodes        []OrchestratorNode `json:"nodes"`
	Edges        []OrchestratorEdge `json:"edges"`
}

// OrchestratorNode references an agent by id.
type OrchestratorNode struct {
	ID string `json:"id"`
}

// OrchestratorEdge is a source->target hop with optional attached data.
// Visual attributes never reach the orchestrator.
type OrchestratorEdge struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Data   map[string]any `json:"data,omitempty"`
}
