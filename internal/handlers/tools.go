package handlers

import (
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/registry"
)

// describer is implemented by compiled request validators that can render
// their request schema.
type describer interface {
	Describe() map[string]any
}

// ToolsHandler serves the tool catalogue from the registry's current snapshot.
type ToolsHandler struct {
	logger   *common.Logger
	registry *registry.Registry
}

// NewToolsHandler creates a tools handler.
func NewToolsHandler(logger *common.Logger, reg *registry.Registry) *ToolsHandler {
	return &ToolsHandler{logger: logger, registry: reg}
}

// List handles GET /api/tools.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	snap := h.registry.Current()
	if snap == nil {
		WriteJSON(w, http.StatusOK, []registry.Summary{})
		return
	}
	WriteJSON(w, http.StatusOK, snap.Summaries())
}

// Get handles GET /api/tools/{id}.
func (h *ToolsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	tool, ok := h.lookup(r.PathValue("id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "tool not found: "+r.PathValue("id"))
		return
	}
	WriteJSON(w, http.StatusOK, tool)
}

// RequestSchema handles GET /api/tools/{id}/schema.
func (h *ToolsHandler) RequestSchema(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := r.PathValue("id")
	snap := h.registry.Current()
	if snap == nil {
		WriteError(w, http.StatusNotFound, "tool not found: "+id)
		return
	}
	v, ok := snap.Validator(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "tool not found: "+id)
		return
	}
	d, ok := v.(describer)
	if !ok {
		WriteError(w, http.StatusNotFound, "no request schema for tool: "+id)
		return
	}
	WriteJSON(w, http.StatusOK, d.Describe())
}

// DefinitionSchema handles GET /api/tool-schema.
func (h *ToolsHandler) DefinitionSchema(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, registry.DefinitionSchema())
}

func (h *ToolsHandler) lookup(id string) (*registry.ToolSpec, bool) {
	snap := h.registry.Current()
	if snap == nil {
		return nil, false
	}
	return snap.Get(id)
}
