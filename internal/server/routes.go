package server

import (
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Tool index page
	mux.HandleFunc("/", s.app.PageHandler.Index)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Tool catalogue and calculation. Handlers check the method themselves
	// so a wrong method gets a JSON 405.
	mux.HandleFunc("/api/tools", s.app.ToolsHandler.List)
	mux.HandleFunc("/api/tools/{id}", s.app.ToolsHandler.Get)
	mux.HandleFunc("/api/tools/{id}/schema", s.app.ToolsHandler.RequestSchema)
	mux.Handle("/api/tools/{id}/calculate", s.app.CalculateHandler)
	mux.HandleFunc("/api/tool-schema", s.app.ToolsHandler.DefinitionSchema)

	// Fan performance curves
	mux.HandleFunc("/api/fans", s.app.FansHandler.List)
	mux.HandleFunc("/api/fans/{model}", s.app.FansHandler.Get)

	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "not found: "+r.URL.Path)
}
