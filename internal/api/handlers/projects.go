package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"streetplan/internal/core"
	"streetplan/internal/simulation"
	"streetplan/internal/types"
)

// --- Request/Response Models ---

// CreateProjectRequest is the request body for POST /api/projects.
type CreateProjectRequest struct {
	Name                    string   `json:"name" validate:"required,max=200"`
	AreaName                string   `json:"areaName" validate:"required,max=200"`
	BaselineParkingPressure *float64 `json:"baselineParkingPressure" validate:"required,gte=0,lte=200"`
	BaselineParkingSpots    *int     `json:"baselineParkingSpots" validate:"required,gte=0"`
	LayoutJSON              string   `json:"layoutJson" validate:"required,json_document"`
	Notes                   *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`

	Intersections []IntersectionInput `json:"intersections" validate:"dive"`
	Zones         []ZoneInput         `json:"zones" validate:"dive"`
	CostConfigs   []CostConfigInput   `json:"costConfigs" validate:"unique=Key,dive"`
}

type IntersectionInput struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type ZoneInput struct {
	Type         types.ZoneType `json:"type" validate:"required,oneof=PARKING GREEN OTHER"`
	GeometryJSON string         `json:"geometryJson" validate:"required,json_document"`
	Capacity     *int           `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}

type CostConfigInput struct {
	Key      types.CostKey `json:"key" validate:"required,cost_key"`
	UnitCost float64       `json:"unitCost" validate:"gte=0"`
	UnitOpex float64       `json:"unitOpex" validate:"gte=0"`
}

// ToProject maps a validated request onto the domain record.
func (req CreateProjectRequest) ToProject() *types.Project {
	p := &types.Project{
		Name:          strings.TrimSpace(req.Name),
		AreaName:      strings.TrimSpace(req.AreaName),
		LayoutJSON:    req.LayoutJSON,
		Notes:         req.Notes,
		Intersections: make([]types.Intersection, 0, len(req.Intersections)),
		Zones:         make([]types.Zone, 0, len(req.Zones)),
		CostConfigs:   make([]types.CostConfig, 0, len(req.CostConfigs)),
	}
	if req.BaselineParkingPressure != nil {
		p.BaselineParkingPressure = *req.BaselineParkingPressure
	}
	if req.BaselineParkingSpots != nil {
		p.BaselineParkingSpots = *req.BaselineParkingSpots
	}
	for _, in := range req.Intersections {
		p.Intersections = append(p.Intersections, types.Intersection{X: *in.X, Y: *in.Y})
	}
	for _, z := range req.Zones {
		p.Zones = append(p.Zones, types.Zone{Type: z.Type, GeometryJSON: z.GeometryJSON, Capacity: z.Capacity})
	}
	for _, c := range req.CostConfigs {
		p.CostConfigs = append(p.CostConfigs, types.CostConfig{Key: c.Key, UnitCost: c.UnitCost, UnitOpex: c.UnitOpex})
	}
	return p
}

// CreatedResponse is returned by creation endpoints.
type CreatedResponse struct {
	ID string `json:"id"`
}

// ProjectResponse is the public project resource: the stored project plus
// the slider limits and baseline metrics derived from it.
type ProjectResponse struct {
	*types.Project
	IntersectionCount int                `json:"intersectionCount"`
	SliderLimits      types.SliderValues `json:"sliderLimits"`
	BaselineMetrics   types.Metrics      `json:"baselineMetrics"`
}

func newProjectResponse(p *types.Project) ProjectResponse {
	return ProjectResponse{
		Project:           p,
		IntersectionCount: p.IntersectionCount(),
		SliderLimits:      simulation.LimitsFor(p),
		BaselineMetrics:   simulation.BaselineMetrics(simulation.BaselineFor(p)),
	}
}

// --- Handler ---

// ProjectHandler manages project creation and retrieval.
type ProjectHandler struct {
	store     ProjectStore
	validator *core.Validator
	logger    *slog.Logger
}

func NewProjectHandler(store ProjectStore, v *core.Validator, l *slog.Logger) *ProjectHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ProjectHandler{store: store, validator: v, logger: l}
}

// Routes implements core.RouteRegistrar.
func (h *ProjectHandler) Routes(r chi.Router, admin core.Middleware) {
	r.With(admin).Post("/projects", h.Create)
	r.With(admin).Get("/projects", h.List)
	r.Get("/projects/{id}", h.Get)
}

// Create handles POST /api/projects (admin).
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	p := req.ToProject()
	if err := types.ValidateCostConfigs(p.CostConfigs); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.store.Create(r.Context(), p); err != nil {
		core.Error(w, r, err)
		return
	}

	types.LoggerFromContext(r.Context(), h.logger).Info("project created",
		"project_id", p.ID,
		"intersections", len(p.Intersections),
		"zones", len(p.Zones),
		"cost_configs", len(p.CostConfigs),
	)
	core.JSON(w, r, http.StatusCreated, CreatedResponse{ID: p.ID})
}

// List handles GET /api/projects (admin).
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, projects)
}

// Get handles GET /api/projects/{id} (public).
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetByID(r.Context(), projectID(r))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, newProjectResponse(p))
}
