// Package persist saves, loads, exports, and imports workflow graphs as
// JSON documents on top of a blob store.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/store"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

const (
	// SavedWorkflowKey is the blob key holding the single saved workflow.
	SavedWorkflowKey = "savedWorkflow"
	// ExportVersion stamps exported documents.
	ExportVersion = "1.0"
)

// SavedWorkflow is the save/load document.
type SavedWorkflow struct {
	ID        string        `json:"id"`
	Nodes     []schema.Node `json:"nodes"`
	Edges     []schema.Edge `json:"edges"`
	Timestamp time.Time     `json:"timestamp"`
}

// ExportMetadata is stamped on exported documents.
type ExportMetadata struct {
	CreatedAt time.Time `json:"createdAt"`
	Version   string    `json:"version"`
}

// ExportDocument is the portable workflow file format.
type ExportDocument struct {
	ID       string         `json:"id"`
	Nodes    []schema.Node  `json:"nodes"`
	Edges    []schema.Edge  `json:"edges"`
	Metadata ExportMetadata `json:"metadata"`
}

// importSchemaJSON validates incoming export documents before any of their
// content touches the graph store.
const importSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://agentgraph.dev/schemas/workflow-export.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "id": { "type": "string" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    },
    "metadata": {
      "type": "object",
      "properties": {
        "createdAt": { "type": "string" },
        "version": { "type": "string" }
      }
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "type", "position"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "type": { "type": "string", "minLength": 1 },
        "position": {
          "type": "object",
          "required": ["x", "y"],
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" }
          }
        },
        "data": { "type": "object" }
      }
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 },
        "data": { "type": "object" }
      }
    }
  }
}`

// Adapter persists workflow graphs to a blob store and converts them to and
// from the portable export format.
type Adapter struct {
	blobs        store.BlobStore
	importSchema *jsonschema.Schema
}

// NewAdapter compiles the embedded import schema and wires the adapter to a
// blob store.
func NewAdapter(blobs store.BlobStore) (*Adapter, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(importSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal import schema: %w", err)
	}
	if err := c.AddResource("https://agentgraph.dev/schemas/workflow-export.json", doc); err != nil {
		return nil, fmt.Errorf("add import schema resource: %w", err)
	}
	compiled, err := c.Compile("https://agentgraph.dev/schemas/workflow-export.json")
	if err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}

	return &Adapter{blobs: blobs, importSchema: compiled}, nil
}

// Save snapshots the store's graph under SavedWorkflowKey.
func (a *Adapter) Save(ctx context.Context, s *graph.Store) (*SavedWorkflow, error) {
	g := s.Snapshot()
	doc := &SavedWorkflow{
		ID:        g.WorkflowID,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodePersistence, "encode saved workflow").WithCause(err)
	}
	if err := a.blobs.Put(ctx, SavedWorkflowKey, body); err != nil {
		return nil, schema.NewError(schema.ErrCodePersistence, "write saved workflow").WithCause(err)
	}
	return doc, nil
}

// Load reads the saved workflow and replaces the store's graph with it.
// A missing saved workflow surfaces as NOT_FOUND.
func (a *Adapter) Load(ctx context.Context, s *graph.Store) (*SavedWorkflow, error) {
	body, err := a.blobs.Get(ctx, SavedWorkflowKey)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil, err
		}
		return nil, schema.NewError(schema.ErrCodePersistence, "read saved workflow").WithCause(err)
	}
	var doc SavedWorkflow
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodePersistence, "decode saved workflow").WithCause(err)
	}
	if err := s.ReplaceAll(doc.ID, doc.Nodes, doc.Edges); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Export renders the store's graph as a portable document.
func (a *Adapter) Export(s *graph.Store) *ExportDocument {
	g := s.Snapshot()
	return &ExportDocument{
		ID:    g.WorkflowID,
		Nodes: g.Nodes,
		Edges: g.Edges,
		Metadata: ExportMetadata{
			CreatedAt: time.Now().UTC(),
			Version:   ExportVersion,
		},
	}
}

// ExportFilename derives the suggested download name from the workflow ID.
func ExportFilename(workflowID string) string {
	short := workflowID
	if len(short) > 8 {
		short = short[:8]
	}
	return "workflow-" + short + ".json"
}

// Import parses and validates a portable document. Malformed JSON or schema
// violations yield INVALID_FORMAT; nothing is applied to any store.
func (a *Adapter) Import(raw []byte) (*ExportDocument, error) {
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeInvalidFormat, "document is not valid JSON").WithCause(err)
	}
	if err := a.importSchema.Validate(inst); err != nil {
		return nil, invalidFormat(err)
	}
	var doc ExportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeInvalidFormat, "decode document").WithCause(err)
	}
	return &doc, nil
}

// ImportInto replaces the store's graph with an imported document. When the
// store already holds nodes, confirm must be true or the import is rejected
// with CONFLICT and nothing changes.
func (a *Adapter) ImportInto(s *graph.Store, doc *ExportDocument, confirm bool) error {
	if !s.Empty() && !confirm {
		return schema.NewError(schema.ErrCodeConflict,
			"importing would replace the current workflow; confirmation required")
	}
	return s.ReplaceAll(doc.ID, doc.Nodes, doc.Edges)
}

// invalidFormat flattens a jsonschema.ValidationError into an INVALID_FORMAT
// error with per-location violations.
func invalidFormat(err error) *schema.WorkflowError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeInvalidFormat, err.Error())
	}
	violations := collectViolations(verr)
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeInvalidFormat, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}
	return schema.NewErrorf(schema.ErrCodeInvalidFormat, "document failed validation with %d errors", len(violations)).
		WithDetails(map[string]any{"violations": violations})
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
