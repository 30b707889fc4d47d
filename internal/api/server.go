// Package api exposes the workflow engine over JSON HTTP for the canvas UI:
// graph CRUD, validation, layout, plan preview, runs, history, persistence,
// and scheduling.
package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/Joseph-k-iype/multi-agent/internal/compile"
	"github.com/Joseph-k-iype/multi-agent/internal/engine"
	"github.com/Joseph-k-iype/multi-agent/internal/graph"
	"github.com/Joseph-k-iype/multi-agent/internal/persist"
	"github.com/Joseph-k-iype/multi-agent/internal/runner"
	"github.com/Joseph-k-iype/multi-agent/internal/scheduler"
)

// Deps holds the dependencies for the API server.
type Deps struct {
	Graph      *graph.Store
	Controller *engine.Controller
	Runner     runner.Runner
	Persist    *persist.Adapter
	Scheduler  *scheduler.Scheduler
	Logger     *slog.Logger
}

// Server routes API requests to the engine components.
type Server struct {
	deps     Deps
	compiler *compile.Compiler
}

// NewServer creates a Server over the given dependencies.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{
		deps:     deps,
		compiler: compile.NewCompiler(),
	}
}

// Handler returns the HTTP handler for all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Graph CRUD.
	mux.HandleFunc("GET /api/graph", s.handleGetGraph)
	mux.HandleFunc("POST /api/graph/nodes", s.handleAddNode)
	mux.HandleFunc("PATCH /api/graph/nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("DELETE /api/graph/nodes/{id}", s.handleRemoveNode)
	mux.HandleFunc("POST /api/graph/edges", s.handleAddEdge)
	mux.HandleFunc("DELETE /api/graph/edges/{id}", s.handleRemoveEdge)
	mux.HandleFunc("POST /api/graph/clear", s.handleClearGraph)
	mux.HandleFunc("POST /api/graph/layout", s.handleLayout)
	mux.HandleFunc("GET /api/graph/mermaid", s.handleMermaid)

	// Validation, compilation, execution.
	mux.HandleFunc("GET /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/compile", s.handleCompile)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// Persistence.
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/load", s.handleLoad)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	// Scheduler.
	mux.HandleFunc("GET /api/scheduler", s.handleListJobs)
	mux.HandleFunc("POST /api/scheduler", s.handleCreateJob)
	mux.HandleFunc("PUT /api/scheduler/{id}", s.handleUpdateJob)
	mux.HandleFunc("DELETE /api/scheduler/{id}", s.handleDeleteJob)

	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}
