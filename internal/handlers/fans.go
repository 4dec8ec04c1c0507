package handlers

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

// FansHandler exposes the fan performance curve store read-only.
type FansHandler struct {
	logger *common.Logger
	curves interfaces.PerformanceCurveStorage
}

// NewFansHandler creates a fans handler.
func NewFansHandler(logger *common.Logger, curves interfaces.PerformanceCurveStorage) *FansHandler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &FansHandler{logger: logger, curves: curves}
}

// List handles GET /api/fans.
func (h *FansHandler) List(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	names, err := h.curves.Models(r.Context())
	if err != nil {
		h.logger.ForContext(r.Context()).Error().Err(err).Msg("Failed to list fan models")
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if names == nil {
		names = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"models": names})
}

// Get handles GET /api/fans/{model}.
func (h *FansHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	model := r.PathValue("model")
	points, err := h.curves.Get(r.Context(), model)
	if errors.Is(err, interfaces.ErrCurveNotFound) {
		WriteError(w, http.StatusNotFound, "fan model not found: "+model)
		return
	}
	if err != nil {
		h.logger.ForContext(r.Context()).Error().Err(err).Str("model", model).Msg("Failed to load fan curve")
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, models.PerformanceCurve{Model: model, Points: points})
}
