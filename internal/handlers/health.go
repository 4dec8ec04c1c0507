package handlers

import (
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/registry"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger   *common.Logger
	registry *registry.Registry
}

// NewHealthHandler creates a new health handler. reg may be nil.
func NewHealthHandler(logger *common.Logger, reg *registry.Registry) *HealthHandler {
	return &HealthHandler{logger: logger, registry: reg}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	body := map[string]interface{}{"status": "ok"}
	if h.registry != nil {
		if snap := h.registry.Current(); snap != nil {
			body["tools"] = snap.Len()
			body["generation"] = snap.Generation
		} else {
			body["status"] = "loading"
		}
	}
	WriteJSON(w, http.StatusOK, body)
}
