package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"streetplan/internal/core"
	"streetplan/internal/events"
	"streetplan/internal/simulation"
	"streetplan/internal/telemetry"
	"streetplan/internal/types"
)

// publishTimeout bounds the best-effort event publish after a submission.
const publishTimeout = 3 * time.Second

// SubmitDesignRequest is the request body for POST /api/projects/{id}/designs.
type SubmitDesignRequest struct {
	RespondentType types.RespondentType `json:"respondentType" validate:"omitempty,oneof=RESIDENT BUSINESS VISITOR UNKNOWN"`
	PostalCode4    *string              `json:"postalCode4" validate:"omitempty,postal_code4"`
	AgeGroup       types.AgeGroup       `json:"ageGroup" validate:"omitempty,oneof=UNDER_18 AGE_18_34 AGE_35_54 AGE_55_74 AGE_75_PLUS UNKNOWN"`
	Sliders        *SliderInput         `json:"sliders" validate:"required"`
}

// normalize applies defaults: missing enums become UNKNOWN and a blank
// postal code is treated as absent.
func (req *SubmitDesignRequest) normalize() {
	if req.RespondentType == "" {
		req.RespondentType = types.RespondentUnknown
	}
	if req.AgeGroup == "" {
		req.AgeGroup = types.AgeUnknown
	}
	if req.PostalCode4 != nil {
		trimmed := strings.TrimSpace(*req.PostalCode4)
		if trimmed == "" {
			req.PostalCode4 = nil
		} else {
			req.PostalCode4 = &trimmed
		}
	}
}

// SubmitDesignResponse returns the stored design ID and the metrics computed
// for it.
type SubmitDesignResponse struct {
	ID      string        `json:"id"`
	Metrics types.Metrics `json:"metrics"`
}

// DesignHandler accepts public design submissions and lists them for admins.
type DesignHandler struct {
	projects  ProjectStore
	designs   DesignStore
	publisher events.Publisher
	metrics   BusinessMetrics
	validator *core.Validator
	logger    *slog.Logger
}

func NewDesignHandler(
	projects ProjectStore,
	designs DesignStore,
	publisher events.Publisher,
	metrics BusinessMetrics,
	v *core.Validator,
	l *slog.Logger,
) *DesignHandler {
	if l == nil {
		l = slog.Default()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DesignHandler{
		projects:  projects,
		designs:   designs,
		publisher: publisher,
		metrics:   metrics,
		validator: v,
		logger:    l,
	}
}

// Routes implements core.RouteRegistrar.
func (h *DesignHandler) Routes(r chi.Router, admin core.Middleware) {
	r.Post("/projects/{id}/designs", h.Submit)
	r.With(admin).Get("/projects/{id}/designs", h.List)
}

// Submit handles POST /api/projects/{id}/designs (public).
//
//  1. Decode and validate the body, apply defaults.
//  2. Load the project (404 if unknown) and check sliders against its limits.
//  3. Simulate once and store sliders together with the metrics.
//  4. Publish design.submitted (best effort) and return 201.
func (h *DesignHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitDesignRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	req.normalize()
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	ctx := r.Context()
	project, err := h.projects.GetByID(ctx, projectID(r))
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
	h.metrics.Simulated(telemetry.ModeSubmit)

	clientHash := r.Header.Get("User-Agent")
	if clientHash == "" {
		clientHash = "unknown"
	}

	design := &types.Design{
		ProjectID:      project.ID,
		RespondentType: req.RespondentType,
		PostalCode4:    req.PostalCode4,
		AgeGroup:       req.AgeGroup,
		Sliders:        sliders,
		Metrics:        metrics,
		ClientHash:     clientHash,
	}
	if err := h.designs.Create(ctx, design); err != nil {
		core.Error(w, r, err)
		return
	}
	h.metrics.DesignSubmitted(design.RespondentType)

	logger := types.LoggerFromContext(ctx, h.logger)
	logger.Info("design submitted",
		"project_id", project.ID,
		"design_id", design.ID,
		"respondent_type", string(design.RespondentType),
	)

	h.publish(ctx, logger, design)

	core.JSON(w, r, http.StatusCreated, SubmitDesignResponse{ID: design.ID, Metrics: metrics})
}

// publish sends the design event. Failures are logged, never returned: the
// design is already stored.
func (h *DesignHandler) publish(ctx context.Context, logger *slog.Logger, d *types.Design) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.PublishDesignSubmitted(pubCtx, types.NewDesignSubmittedEvent(d)); err != nil {
		logger.Warn("design event not published",
			"design_id", d.ID,
			"error", err,
		)
	}
}

// List handles GET /api/projects/{id}/designs (admin). Designs are returned
// newest first. An unknown project yields 404.
func (h *DesignHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := projectID(r)

	if _, err := h.projects.GetByID(ctx, id); err != nil {
		core.Error(w, r, err)
		return
	}

	designs, err := h.designs.ListByProject(ctx, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, designs)
}
