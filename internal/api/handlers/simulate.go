package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"streetplan/internal/core"
	"streetplan/internal/simulation"
	"streetplan/internal/telemetry"
	"streetplan/internal/types"
)

// SimulateRequest is the request body for POST /api/projects/{id}/simulate.
type SimulateRequest struct {
	Sliders *SliderInput `json:"sliders" validate:"required"`
}

// SimulateResponse carries the metrics the sliders would produce.
type SimulateResponse struct {
	Metrics types.Metrics `json:"metrics"`
}

// SimulateHandler serves the live preview used while a respondent moves the
// sliders. Nothing is stored.
type SimulateHandler struct {
	projects  ProjectStore
	metrics   BusinessMetrics
	validator *core.Validator
	logger    *slog.Logger
}

func NewSimulateHandler(projects ProjectStore, metrics BusinessMetrics, v *core.Validator, l *slog.Logger) *SimulateHandler {
	if l == nil {
		l = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &SimulateHandler{projects: projects, metrics: metrics, validator: v, logger: l}
}

// Routes implements core.RouteRegistrar.
func (h *SimulateHandler) Routes(r chi.Router, _ core.Middleware) {
	r.Post("/projects/{id}/simulate", h.Simulate)
}

// Simulate handles POST /api/projects/{id}/simulate (public).
func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	project, err := h.projects.GetByID(r.Context(), projectID(r))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	sliders := req.Sliders.Values()
	if err := types.ValidateSliders(sliders, simulation.LimitsFor(project)); err != nil {
		core.Error(w, r, err)
		return
	}

	metrics := simulation.SimulateSliders(simulation.BaselineFor(project), sliders)
	h.metrics.Simulated(telemetry.ModePreview)

	core.JSON(w, r, http.StatusOK, SimulateResponse{Metrics: metrics})
}
