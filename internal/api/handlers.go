package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Joseph-k-iype/multi-agent/internal/diagram"
	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/layout"
	"github.com/Joseph-k-iype/multi-agent/internal/persist"
	"github.com/Joseph-k-iype/multi-agent/internal/validation"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// maxBodyBytes caps request bodies; imported documents are the largest.
const maxBodyBytes = 4 << 20

// --- Graph ---

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Graph.Snapshot())
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     string          `json:"type"`
		Position schema.Position `json:"position"`
		Data     schema.NodeData `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Type == "" {
		writeBadRequest(w, "type is required")
		return
	}
	node := s.deps.Graph.AddNode(body.Type, body.Position, body.Data)
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch graph.NodePatch
	if err := decodeBody(r, &patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.deps.Graph.UpdateNode(id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Graph.Snapshot().NodeByID(id))
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Graph.RemoveNode(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string          `json:"source"`
		Target string          `json:"target"`
		Data   schema.EdgeData `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Source == "" || body.Target == "" {
		writeBadRequest(w, "source and target are required")
		return
	}
	edge, err := s.deps.Graph.Connect(body.Source, body.Target, body.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Graph.RemoveEdge(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClearGraph(w http.ResponseWriter, r *http.Request) {
	s.deps.Graph.Clear()
	writeJSON(w, http.StatusOK, s.deps.Graph.Snapshot())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	positions := layout.Layout(s.deps.Graph.Snapshot())
	s.deps.Graph.ApplyPositions(positions)
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

// handleMermaid renders the graph as a Mermaid flowchart.
func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, diagram.RenderMermaid(s.deps.Graph.Snapshot()))
}

// --- Validation, compilation, execution ---

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	result := validation.Validate(s.deps.Graph.Snapshot())
	writeJSON(w, http.StatusOK, result)
}

// handleCompile previews the execution plan without submitting a run.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Task string `json:"task"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	g := s.deps.Graph.Snapshot()
	if result := validation.Validate(g); !result.Valid() {
		writeError(w, result.ToError())
		return
	}
	plan, err := s.compiler.Compile(g, body.Task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Task string `json:"task"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.deps.Controller.Run(r.Context(), body.Task)
	if err != nil {
		if result != nil {
			// The run was accepted and recorded before failing.
			werr := err
			if schema.ErrorCode(err) == "" {
				werr = schema.NewError(schema.ErrCodeExecution, err.Error())
			}
			writeJSON(w, statusFor(schema.ErrorCode(werr)), map[string]any{
				"record": result.Record,
				"error":  werr,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":      s.deps.Controller.State(),
		"lastResult": s.deps.Controller.LastResult(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.deps.Controller.History()
	if history == nil {
		history = []schema.ExecutionRecord{}
	}
	writeJSON(w, http.StatusOK, history)
}

// --- Persistence ---

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	saved, err := s.deps.Persist.Save(r.Context(), s.deps.Graph)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.deps.Persist.Load(r.Context(), s.deps.Graph)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loaded)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := s.deps.Persist.Export(s.deps.Graph)
	w.Header().Set("Content-Disposition", `attachment; filename="`+persist.ExportFilename(doc.ID)+`"`)
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "read request body")
		return
	}
	var body struct {
		Workflow json.RawMessage `json:"workflow"`
		Confirm  bool            `json:"confirm"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(body.Workflow) == 0 {
		writeBadRequest(w, "workflow document is required")
		return
	}

	doc, err := s.deps.Persist.Import(body.Workflow)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.Persist.ImportInto(s.deps.Graph, doc, body.Confirm); err != nil {
		writeError(w, err)
		return
	}

	s.deps.Logger.Info("workflow imported",
		slog.String("workflow_id", s.deps.Graph.WorkflowID()),
		slog.Int("nodes", len(doc.Nodes)),
	)
	writeJSON(w, http.StatusOK, s.deps.Graph.Snapshot())
}

// --- Scheduler ---

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Scheduler.ListJobs())
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CronExpr string `json:"cronExpr"`
		Task     string `json:"task"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.CronExpr == "" {
		writeBadRequest(w, "cronExpr is required")
		return
	}
	job, err := s.deps.Scheduler.AddJob(body.CronExpr, body.Task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	job, err := s.deps.Scheduler.SetEnabled(r.PathValue("id"), body.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Scheduler.RemoveJob(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backend := "ok"
	status := http.StatusOK
	if err := s.deps.Runner.Health(r.Context()); err != nil {
		backend = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"status":  "ok",
		"backend": backend,
	})
}
