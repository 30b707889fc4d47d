package persist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/store"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(store.NewMemoryStore())
	require.NoError(t, err)
	return a
}

func populatedStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore(nil)
	a := s.AddNode("research", schema.Position{X: 50, Y: 50}, schema.NodeData{Label: "Research"})
	b := s.AddNode("write", schema.Position{X: 50, Y: 250}, schema.NodeData{Label: "Write"})
	_, err := s.Connect(a.ID, b.ID, schema.EdgeData{Label: "handoff"})
	require.NoError(t, err)
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t)
	src := populatedStore(t)
	want := src.Snapshot()

	saved, err := adapter.Save(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, want.WorkflowID, saved.ID)
	assert.False(t, saved.Timestamp.IsZero())

	dst := graph.NewStore(nil)
	loaded, err := adapter.Load(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, want.WorkflowID, loaded.ID)

	got := dst.Snapshot()
	assert.Equal(t, want.WorkflowID, got.WorkflowID)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)
}

func TestLoad_NothingSaved(t *testing.T) {
	adapter := newAdapter(t)
	_, err := adapter.Load(context.Background(), graph.NewStore(nil))
	require.Error(t, err)
	assert.True(t, schema.IsNotFound(err))
}

func TestExport_DocumentShape(t *testing.T) {
	adapter := newAdapter(t)
	src := populatedStore(t)
	want := src.Snapshot()

	doc := adapter.Export(src)
	assert.Equal(t, want.WorkflowID, doc.ID)
	assert.Equal(t, want.Nodes, doc.Nodes)
	assert.Equal(t, want.Edges, doc.Edges)
	assert.Equal(t, ExportVersion, doc.Metadata.Version)
	assert.False(t, doc.Metadata.CreatedAt.IsZero())
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "workflow-a1b2c3d4.json", ExportFilename("a1b2c3d4-0000-0000-0000-000000000000"))
	assert.Equal(t, "workflow-abc.json", ExportFilename("abc"))
}

func TestImport_OfExportRoundTrips(t *testing.T) {
	adapter := newAdapter(t)
	src := populatedStore(t)
	want := src.Snapshot()

	raw, err := json.Marshal(adapter.Export(src))
	require.NoError(t, err)

	doc, err := adapter.Import(raw)
	require.NoError(t, err)

	dst := graph.NewStore(nil)
	require.NoError(t, adapter.ImportInto(dst, doc, false))

	got := dst.Snapshot()
	assert.Equal(t, want.WorkflowID, got.WorkflowID)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)
}

func TestImport_RejectsMalformedJSON(t *testing.T) {
	adapter := newAdapter(t)
	_, err := adapter.Import([]byte(`{"nodes": [`))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidFormat, schema.ErrorCode(err))
}

func TestImport_RejectsSchemaViolations(t *testing.T) {
	adapter := newAdapter(t)

	cases := map[string]string{
		"missing nodes":           `{"edges": []}`,
		"node without id":         `{"nodes": [{"type": "agent", "position": {"x": 0, "y": 0}}], "edges": []}`,
		"node without position":   `{"nodes": [{"id": "a", "type": "agent"}], "edges": []}`,
		"edge without target":     `{"nodes": [{"id": "a", "type": "agent", "position": {"x": 0, "y": 0}}], "edges": [{"id": "e1", "source": "a"}]}`,
		"nodes not an array":      `{"nodes": {}, "edges": []}`,
		"position coords non-num": `{"nodes": [{"id": "a", "type": "agent", "position": {"x": "0", "y": 0}}], "edges": []}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.Import([]byte(raw))
			require.Error(t, err)
			assert.Equal(t, schema.ErrCodeInvalidFormat, schema.ErrorCode(err))
		})
	}
}

func TestImport_DanglingEdgeRejectedAtApply(t *testing.T) {
	adapter := newAdapter(t)
	raw := []byte(`{
		"nodes": [{"id": "a", "type": "agent", "position": {"x": 0, "y": 0}}],
		"edges": [{"id": "e1", "source": "a", "target": "ghost"}]
	}`)

	doc, err := adapter.Import(raw)
	require.NoError(t, err)

	err = adapter.ImportInto(graph.NewStore(nil), doc, false)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidFormat, schema.ErrorCode(err))
}

func TestImportInto_ConfirmationGate(t *testing.T) {
	adapter := newAdapter(t)
	dst := populatedStore(t)
	before := dst.Snapshot()

	doc := &ExportDocument{
		ID:    "imported",
		Nodes: []schema.Node{{ID: "x", Type: "agent"}},
	}

	err := adapter.ImportInto(dst, doc, false)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeConflict, schema.ErrorCode(err))
	assert.Equal(t, before.Nodes, dst.Snapshot().Nodes, "rejected import leaves the graph untouched")

	require.NoError(t, adapter.ImportInto(dst, doc, true))
	got := dst.Snapshot()
	assert.Equal(t, "imported", got.WorkflowID)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "x", got.Nodes[0].ID)
}

func TestImportInto_EmptyStoreNeedsNoConfirmation(t *testing.T) {
	adapter := newAdapter(t)
	doc := &ExportDocument{Nodes: []schema.Node{{ID: "x", Type: "agent"}}}

	dst := graph.NewStore(nil)
	require.NoError(t, adapter.ImportInto(dst, doc, false))
	assert.NotEmpty(t, dst.Snapshot().WorkflowID, "missing id gets a generated one")
}
