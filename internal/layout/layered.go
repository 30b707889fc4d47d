// Package layout computes node positions from graph topology.
// The layout is purely cosmetic: it never rejects a graph and always
// terminates, even on malformed (cyclic) input.
package layout

import (
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// Spacing constants for the layered placement.
const (
	startX = 50.0
	startY = 50.0
	hGap   = 300.0
	vGap   = 200.0

	// fallbackCols is the width of the grid used for nodes that cannot be
	// layered (cyclic remainders).
	fallbackCols = 4
)

// Layout computes a position for every node using layered topological
// placement. Layer 0 holds the entry nodes; a node joins a layer once every
// incoming edge's source sits in an earlier layer. Nodes left over after a
// pass that places nothing (only possible with a cycle) are placed in a
// fixed-width grid below the last layer. Deterministic given the snapshot's
// node order; edges are never touched.
func Layout(g *schema.Graph) map[string]schema.Position {
	positions := make(map[string]schema.Position, len(g.Nodes))
	if len(g.Nodes) == 0 {
		return positions
	}

	// incoming[id] = sources of edges pointing at id. Self-loops count:
	// a node depending on itself can never be layered and drops to the grid.
	incoming := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		incoming[e.Target] = append(incoming[e.Target], e.Source)
	}

	placed := make(map[string]bool, len(g.Nodes))
	remaining := len(g.Nodes)
	layer := 0
	y := startY

	for remaining > 0 {
		// Nodes whose every incoming source was placed in an earlier pass.
		var row []string
		for _, n := range g.Nodes {
			if placed[n.ID] {
				continue
			}
			ready := true
			for _, src := range incoming[n.ID] {
				if !placed[src] {
					ready = false
					break
				}
			}
			if ready {
				row = append(row, n.ID)
			}
		}

		if len(row) == 0 {
			break // cyclic remainder, fall through to the grid
		}

		y = startY + float64(layer)*vGap
		for i, id := range row {
			positions[id] = schema.Position{X: startX + float64(i)*hGap, Y: y}
			placed[id] = true
		}
		remaining -= len(row)
		layer++
	}

	if remaining > 0 {
		placeGrid(g, placed, positions, y+vGap)
	}

	return positions
}

// placeGrid positions every unplaced node in a fixed-width grid starting at
// the given y. Keeps node order so the result stays deterministic.
func placeGrid(g *schema.Graph, placed map[string]bool, positions map[string]schema.Position, y float64) {
	col, row := 0, 0
	for _, n := range g.Nodes {
		if placed[n.ID] {
			continue
		}
		positions[n.ID] = schema.Position{
			X: startX + float64(col)*hGap,
			Y: y + float64(row)*vGap,
		}
		col++
		if col == fallbackCols {
			col = 0
			row++
		}
	}
}
