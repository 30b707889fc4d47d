// Package validation decides whether a graph snapshot is runnable.
// All checks are pure functions over the snapshot.
package validation

import (
	"fmt"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// DFS colors for cycle detection.
type color uint8

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // finished
)

// Validate runs the structural checks in order and short-circuits on the
// first failure: empty graph, missing entry point, missing exit point,
// cycle. Cheaper, more actionable checks run first. A valid result may
// still carry warnings (e.g. multiple entry points, of which only the
// first is representable in a compiled plan).
func Validate(g *schema.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if g == nil || len(g.Nodes) == 0 {
		result.AddError("nodes", schema.ErrCodeEmptyGraph, "workflow has no nodes")
		return result
	}

	entries := g.EntryNodes()
	if len(entries) == 0 {
		result.AddError("edges", schema.ErrCodeNoEntryPoint,
			"no entry point: every node has an incoming edge")
		return result
	}

	if len(g.ExitNodes()) == 0 {
		result.AddError("edges", schema.ErrCodeNoExitPoint,
			"no exit point: every node has an outgoing edge")
		return result
	}

	if cycleNode := findCycle(g, entries); cycleNode != "" {
		result.AddError(fmt.Sprintf("nodes[%s]", cycleNode), schema.ErrCodeCycleDetected,
			fmt.Sprintf("cycle detected through node %q; an orchestrator walking the edges would never terminate", cycleNode))
		return result
	}

	if len(entries) > 1 {
		result.AddWarning("nodes", schema.ErrCodeMultipleEntries,
			fmt.Sprintf("%d entry points found; only the first (%q) becomes the plan's entry point", len(entries), entries[0]))
	}

	return result
}

// findCycle runs a three-color depth-first traversal and returns the id of
// a node found on the current stack, or "". Traversal starts from every
// entry node, then sweeps any nodes unreachable from an entry so that
// disconnected cycles are still caught. A self-loop is a cycle of length 1.
func findCycle(g *schema.Graph, entries []string) string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Source == e.Target {
			return e.Source
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	colors := make(map[string]color, len(g.Nodes))

	var visit func(id string) string
	visit = func(id string) string {
		colors[id] = gray
		for _, next := range adj[id] {
			switch colors[next] {
			case gray:
				return next
			case white:
				if hit := visit(next); hit != "" {
					return hit
				}
			}
		}
		colors[id] = black
		return ""
	}

	for _, entry := range entries {
		if colors[entry] == white {
			if hit := visit(entry); hit != "" {
				return hit
			}
		}
	}

	// Sweep remaining unvisited nodes (only reachable parts of the graph
	// were covered above; a cycle disconnected from every entry would
	// otherwise slip through).
	for _, n := range g.Nodes {
		if colors[n.ID] == white {
			if hit := visit(n.ID); hit != "" {
				return hit
			}
		}
	}

	return ""
}
