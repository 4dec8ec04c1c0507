package handlers

import (
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/dispatch"
)

// CalculateHandler runs a tool's calculator for a JSON request body.
type CalculateHandler struct {
	logger     *common.Logger
	dispatcher *dispatch.Dispatcher
}

// NewCalculateHandler creates a calculate handler over d.
func NewCalculateHandler(logger *common.Logger, d *dispatch.Dispatcher) *CalculateHandler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &CalculateHandler{logger: logger, dispatcher: d}
}

// ServeHTTP handles POST /api/tools/{id}/calculate.
func (h *CalculateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	toolID := r.PathValue("id")
	body, err := readBody(w, r)
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	res, err := h.dispatcher.Dispatch(r.Context(), toolID, body)
	if err != nil {
		status := dispatch.Status(err)
		if status < http.StatusInternalServerError {
			h.logger.ForContext(r.Context()).Debug().
				Str("tool", toolID).
				Int("status", status).
				Str("detail", err.Error()).
				Msg("Calculation rejected")
		}
		WriteError(w, status, dispatch.Detail(err))
		return
	}

	WriteJSON(w, http.StatusOK, res)
}
