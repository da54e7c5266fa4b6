package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"streetplan/internal/core"
	"streetplan/internal/types"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockProjectStore struct {
	createFn  func(ctx context.Context, p *types.Project) error
	getByIDFn func(ctx context.Context, id string) (*types.Project, error)
	listFn    func(ctx context.Context) ([]types.ProjectSummary, error)
}

func (m *mockProjectStore) Create(ctx context.Context, p *types.Project) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = "prj_test"
	p.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockProjectStore) GetByID(ctx context.Context, id string) (*types.Project, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	p := sampleProject()
	p.ID = id
	return p, nil
}

func (m *mockProjectStore) List(ctx context.Context) ([]types.ProjectSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []types.ProjectSummary{}, nil
}

type mockDesignStore struct {
	createFn        func(ctx context.Context, d *types.Design) error
	listByProjectFn func(ctx context.Context, projectID string) ([]types.Design, error)
	listSlidersFn   func(ctx context.Context, projectID string) ([]types.SliderValues, error)

	mu      sync.Mutex
	created []*types.Design
}

func (m *mockDesignStore) Create(ctx context.Context, d *types.Design) error {
	m.mu.Lock()
	m.created = append(m.created, d)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	d.ID = "dsg_test"
	d.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockDesignStore) ListByProject(ctx context.Context, projectID string) ([]types.Design, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID)
	}
	return []types.Design{}, nil
}

func (m *mockDesignStore) ListSliders(ctx context.Context, projectID string) ([]types.SliderValues, error) {
	if m.listSlidersFn != nil {
		return m.listSlidersFn(ctx, projectID)
	}
	return []types.SliderValues{}, nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, evt types.DesignSubmittedEvent) error
	events    []types.DesignSubmittedEvent
}

func (m *mockPublisher) PublishDesignSubmitted(ctx context.Context, evt types.DesignSubmittedEvent) error {
	m.events = append(m.events, evt)
	if m.publishFn != nil {
		return m.publishFn(ctx, evt)
	}
	return nil
}

type mockMetrics struct {
	mu          sync.Mutex
	submitted   []types.RespondentType
	insights    int
	simulations []string
}

func (m *mockMetrics) DesignSubmitted(rt types.RespondentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, rt)
}

func (m *mockMetrics) InsightsComputed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights++
}

func (m *mockMetrics) Simulated(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulations = append(m.simulations, mode)
}

// =============================================================================
// Helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *core.Validator {
	return core.NewValidator(discardLogger())
}

func sampleProject() *types.Project {
	notes := "pilot"
	return &types.Project{
		ID:                      "prj_1",
		Name:                    "Voorbeeldstraat Noord",
		AreaName:                "Binnenstad",
		BaselineParkingPressure: 72,
		BaselineParkingSpots:    48,
		LayoutJSON:              `{"width":800}`,
		Notes:                   &notes,
		Intersections: []types.Intersection{
			{ID: "int_1", X: 120, Y: 120},
			{ID: "int_2", X: 420, Y: 120},
			{ID: "int_3", X: 680, Y: 120},
		},
		Zones: []types.Zone{{ID: "zon_1", Type: types.ZoneParking, GeometryJSON: `{}`}},
		CostConfigs: []types.CostConfig{
			{Key: types.CostRemoveParking, UnitCost: 1200, UnitOpex: 50},
			{Key: types.CostGreenUnit, UnitCost: 450, UnitOpex: 18},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func validSliders() map[string]int {
	return map[string]int{
		"removedParkingSpots": 10,
		"addedGreenUnits":     4,
		"addedSharedCars":     2,
		"addedBikeUnits":      6,
		"addedPublicSpace":    3,
	}
}

// passthrough stands in for the admin guard; auth is covered in core.
func passthrough(next http.Handler) http.Handler { return next }

// newRouter mounts the registrar the same way core.Server does under /api.
func newRouter(registrar core.RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		registrar(api, passthrough)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()
	var resp core.APIErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func notFoundProject(context.Context, string) (*types.Project, error) {
	return nil, types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
}
