package schema

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the agent parameters attached to a node.
// Config carries arbitrary agent settings; "temperature" and "max_tokens"
// are recognized by the plan compiler as llm_config overrides.
type NodeData struct {
	Label        string         `json:"label"`
	Role         string         `json:"role,omitempty"`
	Goal         string         `json:"goal,omitempty"`
	AllowedTools []string       `json:"allowedTools,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
}

// Node is one agent task on the canvas. Type is the agent kind (free-form,
// e.g. "research", "write", "edit").
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// EdgeType enumerates the visual edge styles supported by the canvas.
type EdgeType string

const (
	EdgeTypeBezier EdgeType = "bezier"
	EdgeTypeStep   EdgeType = "step"
)

// EdgeData holds the attributes attached to an edge. EdgeType is purely
// visual and is dropped when compiling an execution plan.
type EdgeData struct {
	Label    string   `json:"label,omitempty"`
	EdgeType EdgeType `json:"edgeType,omitempty"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Data   EdgeData `json:"data"`
}

// Graph is an immutable snapshot of the workflow canvas. The graph store
// owns the canonical state; everything else receives copies.
type Graph struct {
	WorkflowID string `json:"workflowId"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Degrees returns the in-degree and out-degree of every node.
// Nodes with no edges appear with zero counts.
func (g *Graph) Degrees() (in, out map[string]int) {
	in = make(map[string]int, len(g.Nodes))
	out = make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		in[n.ID] = 0
		out[n.ID] = 0
	}
	for _, e := range g.Edges {
		out[e.Source]++
		in[e.Target]++
	}
	return in, out
}

// EntryNodes returns the ids of nodes with no incoming edges, in node order.
func (g *Graph) EntryNodes() []string {
	in, _ := g.Degrees()
	var entries []string
	for _, n := range g.Nodes {
		if in[n.ID] == 0 {
			entries = append(entries, n.ID)
		}
	}
	return entries
}

// ExitNodes returns the ids of nodes with no outgoing edges, in node order.
func (g *Graph) ExitNodes() []string {
	_, out := g.Degrees()
	var exits []string
	for _, n := range g.Nodes {
		if out[n.ID] == 0 {
			exits = append(exits, n.ID)
		}
	}
	return exits
}
