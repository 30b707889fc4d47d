// Package graph owns the canonical workflow graph and mutates it atomically.
// All readers receive deep-copied snapshots; no snapshot ever contains an
// edge referencing a missing node.
package graph

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// NodePatch is a partial update to a node. Nil fields are left unchanged;
// Config entries are merged key-by-key into the existing config.
type NodePatch struct {
	Label        *string          `json:"label,omitempty"`
	Role         *string          `json:"role,omitempty"`
	Goal         *string          `json:"goal,omitempty"`
	AllowedTools *[]string        `json:"allowedTools,omitempty"`
	Config       map[string]any   `json:"config,omitempty"`
	Position     *schema.Position `json:"position,omitempty"`
}

// Store holds the canonical node and edge lists for one workflow graph.
// Every mutation is synchronous and run-to-completion; Snapshot returns a
// deep copy so readers never observe partial state.
type Store struct {
	mu         sync.Mutex
	workflowID string
	nodes      []schema.Node
	edges      []schema.Edge
	logger     *slog.Logger
}

// NewStore creates an empty graph store with a fresh workflow ID.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		workflowID: uuid.NewString(),
		logger:     logger,
	}
}

// WorkflowID returns the current graph's workflow ID.
func (s *Store) WorkflowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflowID
}

// Snapshot returns a deep copy of the current graph.
func (s *Store) Snapshot() *schema.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &schema.Graph{
		WorkflowID: s.workflowID,
		Nodes:      copyNodes(s.nodes),
		Edges:      copyEdges(s.edges),
	}
}

// AddNode creates a node of the given agent kind at the given position and
// returns a copy of it. The template's label defaults to the node type.
func (s *Store) AddNode(nodeType string, pos schema.Position, data schema.NodeData) schema.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Label == "" {
		data.Label = nodeType
	}
	node := schema.Node{
		ID:       uuid.NewString(),
		Type:     nodeType,
		Position: pos,
		Data:     copyNodeData(data),
	}
	s.nodes = append(s.nodes, node)
	s.logger.Debug("node added", slog.String("node_id", node.ID), slog.String("type", nodeType))
	return copyNode(node)
}

// UpdateNode applies a partial update to the node with the given id.
func (s *Store) UpdateNode(id string, patch NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		if s.nodes[i].ID != id {
			continue
		}
		n := &s.nodes[i]
		if patch.Label != nil {
			n.Data.Label = *patch.Label
		}
		if patch.Role != nil {
			n.Data.Role = *patch.Role
		}
		if patch.Goal != nil {
			n.Data.Goal = *patch.Goal
		}
		if patch.AllowedTools != nil {
			n.Data.AllowedTools = append([]string(nil), (*patch.AllowedTools)...)
		}
		if len(patch.Config) > 0 {
			if n.Data.Config == nil {
				n.Data.Config = make(map[string]any, len(patch.Config))
			}
			for k, v := range patch.Config {
				n.Data.Config[k] = v
			}
		}
		if patch.Position != nil {
			n.Position = *patch.Position
		}
		return nil
	}
	return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not found", id).WithNode(id)
}

// RemoveNode deletes a node and every edge whose source or target is the
// node. The cascade happens within a single critical section so no snapshot
// can observe a dangling edge.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not found", id).WithNode(id)
	}

	kept := s.edges[:0]
	removed := 0
	for _, e := range s.edges {
		if e.Source == id || e.Target == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	s.nodes = append(s.nodes[:idx], s.nodes[idx+1:]...)

	s.logger.Debug("node removed",
		slog.String("node_id", id),
		slog.Int("cascaded_edges", removed),
	)
	return nil
}

// Connect creates an edge from source to target and returns a copy of it.
// Both endpoints must exist. Parallel edges between the same ordered pair
// are permitted; structural problems (self-loops, cycles) are the
// validator's concern, not the store's.
func (s *Store) Connect(source, target string, data schema.EdgeData) (schema.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasNode(source) {
		return schema.Edge{}, schema.NewErrorf(schema.ErrCodeNotFound, "edge source %q not found", source).WithNode(source)
	}
	if !s.hasNode(target) {
		return schema.Edge{}, schema.NewErrorf(schema.ErrCodeNotFound, "edge target %q not found", target).WithNode(target)
	}

	if data.EdgeType == "" {
		data.EdgeType = schema.EdgeTypeBezier
	}
	edge := schema.Edge{
		ID:     uuid.NewString(),
		Source: source,
		Target: target,
		Data:   data,
	}
	s.edges = append(s.edges, edge)
	return edge, nil
}

// RemoveEdge deletes the edge with the given id.
func (s *Store) RemoveEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.edges {
		if s.edges[i].ID == id {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return schema.NewErrorf(schema.ErrCodeNotFound, "edge %q not found", id)
}

// ReplaceAll swaps in a whole new graph (import path). Edges referencing
// unknown nodes are rejected so the no-dangling-edge invariant holds for
// imported documents too.
func (s *Store) ReplaceAll(workflowID string, nodes []schema.Node, edges []schema.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := ids[n.ID]; dup {
			return schema.NewErrorf(schema.ErrCodeInvalidFormat, "duplicate node id %q", n.ID).WithNode(n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			return schema.NewErrorf(schema.ErrCodeInvalidFormat, "edge %q references unknown source %q", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return schema.NewErrorf(schema.ErrCodeInvalidFormat, "edge %q references unknown target %q", e.ID, e.Target)
		}
	}

	if workflowID == "" {
		workflowID = uuid.NewString()
	}
	s.workflowID = workflowID
	s.nodes = copyNodes(nodes)
	s.edges = copyEdges(edges)

	s.logger.Info("graph replaced",
		slog.String("workflow_id", workflowID),
		slog.Int("nodes", len(nodes)),
		slog.Int("edges", len(edges)),
	)
	return nil
}

// Clear discards the graph and starts over with a fresh workflow ID.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflowID = uuid.NewString()
	s.nodes = nil
	s.edges = nil
	s.logger.Info("graph cleared", slog.String("workflow_id", s.workflowID))
}

// ApplyPositions moves nodes to the given positions. Unknown ids are
// ignored; edges are untouched.
func (s *Store) ApplyPositions(positions map[string]schema.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		if pos, ok := positions[s.nodes[i].ID]; ok {
			s.nodes[i].Position = pos
		}
	}
}

// Empty reports whether the graph has no nodes.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes) == 0
}

func (s *Store) hasNode(id string) bool {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return true
		}
	}
	return false
}

func copyNode(n schema.Node) schema.Node {
	n.Data = copyNodeData(n.Data)
	return n
}

func copyNodeData(d schema.NodeData) schema.NodeData {
	d.AllowedTools = append([]string(nil), d.AllowedTools...)
	if d.Config != nil {
		cfg := make(map[string]any, len(d.Config))
		for k, v := range d.Config {
			cfg[k] = v
		}
		d.Config = cfg
	}
	return d
}

func copyNodes(nodes []schema.Node) []schema.Node {
	out := make([]schema.Node, len(nodes))
	for i, n := range nodes {
		out[i] = copyNode(n)
	}
	return out
}

func copyEdges(edges []schema.Edge) []schema.Edge {
	out := make([]schema.Edge, len(edges))
	copy(out, edges)
	return out
}
