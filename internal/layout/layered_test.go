package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

func buildGraph(nodeIDs []string, pairs [][2]string) *schema.Graph {
	g := &schema.Graph{WorkflowID: "wf-layout"}
	for _, id := range nodeIDs {
		g.Nodes = append(g.Nodes, schema.Node{ID: id})
	}
	for i, p := range pairs {
		g.Edges = append(g.Edges, schema.Edge{
			ID: fmt.Sprintf("e%d", i), Source: p[0], Target: p[1],
		})
	}
	return g
}

func TestLayout_EmptyGraph(t *testing.T) {
	positions := Layout(&schema.Graph{})
	assert.Empty(t, positions)
}

func TestLayout_LinearChain(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	positions := Layout(g)

	require.Len(t, positions, 3)
	assert.Equal(t, schema.Position{X: 50, Y: 50}, positions["a"])
	assert.Equal(t, schema.Position{X: 50, Y: 250}, positions["b"])
	assert.Equal(t, schema.Position{X: 50, Y: 450}, positions["c"])
}

func TestLayout_EntriesShareLayerZero(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "c"}, {"b", "c"}})
	positions := Layout(g)

	assert.Equal(t, schema.Position{X: 50, Y: 50}, positions["a"])
	assert.Equal(t, schema.Position{X: 350, Y: 50}, positions["b"], "second entry shifted by hGap")
	assert.Equal(t, schema.Position{X: 50, Y: 250}, positions["c"])
}

func TestLayout_DiamondMiddleLayerSideBySide(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})
	positions := Layout(g)

	assert.Equal(t, 50.0, positions["a"].Y)
	assert.Equal(t, 250.0, positions["b"].Y)
	assert.Equal(t, 250.0, positions["c"].Y)
	assert.Equal(t, 450.0, positions["d"].Y)
	assert.NotEqual(t, positions["b"].X, positions["c"].X)
}

func TestLayout_NodeWaitsForAllInputs(t *testing.T) {
	// d has inputs from layers 0 and 1; it must land in layer 2.
	g := buildGraph([]string{"a", "b", "d"}, [][2]string{
		{"a", "b"}, {"a", "d"}, {"b", "d"},
	})
	positions := Layout(g)
	assert.Equal(t, 450.0, positions["d"].Y)
}

func TestLayout_CycleFallsBackToGrid(t *testing.T) {
	// s -> a, then a <-> b cycle: a and b can never be layered.
	g := buildGraph([]string{"s", "a", "b"}, [][2]string{
		{"s", "a"}, {"a", "b"}, {"b", "a"},
	})
	positions := Layout(g)

	require.Len(t, positions, 3, "every node gets a position even on cyclic input")
	assert.Equal(t, schema.Position{X: 50, Y: 50}, positions["s"])
	// Grid row starts one vGap below the last placed layer.
	assert.Equal(t, schema.Position{X: 50, Y: 250}, positions["a"])
	assert.Equal(t, schema.Position{X: 350, Y: 250}, positions["b"])
}

func TestLayout_PureCycleTerminates(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	positions := Layout(g)
	require.Len(t, positions, 2)
}

func TestLayout_SelfLoopGoesToGrid(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "b"}})
	positions := Layout(g)
	require.Len(t, positions, 2)
	assert.Equal(t, schema.Position{X: 50, Y: 50}, positions["a"])
}

func TestLayout_GridWraps(t *testing.T) {
	// Six mutually-cyclic nodes: all fall to the grid, wrapping after four.
	ids := []string{"a", "b", "c", "d", "e", "f"}
	var pairs [][2]string
	for i := range ids {
		pairs = append(pairs, [2]string{ids[i], ids[(i+1)%len(ids)]})
	}
	g := buildGraph(ids, pairs)
	positions := Layout(g)

	require.Len(t, positions, 6)
	assert.Equal(t, positions["a"].Y, positions["d"].Y)
	assert.Greater(t, positions["e"].Y, positions["a"].Y, "fifth node wraps to next grid row")
	assert.Equal(t, positions["a"].X, positions["e"].X)
}

func TestLayout_Idempotent(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})
	first := Layout(g)
	second := Layout(g)
	assert.Equal(t, first, second)
}

func TestLayout_IgnoresExistingPositions(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})
	g.Nodes[0].Position = schema.Position{X: 999, Y: 999}

	positions := Layout(g)
	assert.Equal(t, schema.Position{X: 50, Y: 50}, positions["a"], "layout derives from topology only")
}
