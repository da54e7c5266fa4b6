package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"streetplan/internal/core"
	"streetplan/internal/export"
	"streetplan/internal/insights"
	"streetplan/internal/types"
)

// InsightsHandler serves the admin insights snapshot and the XLSX export.
type InsightsHandler struct {
	projects ProjectStore
	designs  DesignStore
	metrics  BusinessMetrics
	logger   *slog.Logger
}

func NewInsightsHandler(projects ProjectStore, designs DesignStore, metrics BusinessMetrics, l *slog.Logger) *InsightsHandler {
	if l == nil {
		l = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &InsightsHandler{projects: projects, designs: designs, metrics: metrics, logger: l}
}

// Routes implements core.RouteRegistrar. Both routes are admin-only.
func (h *InsightsHandler) Routes(r chi.Router, admin core.Middleware) {
	r.With(admin).Get("/projects/{id}/insights", h.Get)
	r.With(admin).Get("/projects/{id}/export.xlsx", h.Export)
}

// Get handles GET /api/projects/{id}/insights. The project and the design
// sliders are loaded concurrently; the snapshot is computed on every call.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)

	var (
		project *types.Project
		sliders []types.SliderValues
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		project, err = h.projects.GetByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		sliders, err = h.designs.ListSliders(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		core.Error(w, r, err)
		return
	}

	snap := insights.Aggregate(project, sliders)
	h.metrics.InsightsComputed()

	core.JSON(w, r, http.StatusOK, snap)
}

// Export handles GET /api/projects/{id}/export.xlsx. The workbook is
// rendered into memory first so a rendering failure still produces a JSON
// error response.
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)

	var (
		project *types.Project
		designs []types.Design
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		project, err = h.projects.GetByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		designs, err = h.designs.ListByProject(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		core.Error(w, r, err)
		return
	}

	sliders := make([]types.SliderValues, len(designs))
	for i, d := range designs {
		sliders[i] = d.Sliders
	}
	snap := insights.Aggregate(project, sliders)

	var buf bytes.Buffer
	if err := export.Write(&buf, project, designs, snap); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalExport, "failed to render workbook", err))
		return
	}

	types.LoggerFromContext(r.Context(), h.logger).Info("workbook exported",
		"project_id", project.ID,
		"designs", len(designs),
		"bytes", buf.Len(),
	)

	hdr := w.Header()
	hdr.Set("Content-Type", export.ContentType)
	hdr.Set("Content-Disposition", `attachment; filename="`+export.Filename(project)+`"`)
	hdr.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
