// Package handlers contains the HTTP handler implementations for the
// StreetPlan API: projects, the public simulation preview, design
// submissions, insights and exports.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"streetplan/internal/types"
)

// --- Service Interfaces ---
//
// Handlers depend on these abstractions rather than on the db package so
// tests can substitute function-field fakes.

// ProjectStore mirrors the db.ProjectRepository methods used by the handlers.
type ProjectStore interface {
	Create(ctx context.Context, p *types.Project) error
	GetByID(ctx context.Context, id string) (*types.Project, error)
	List(ctx context.Context) ([]types.ProjectSummary, error)
}

// DesignStore mirrors the db.DesignRepository methods used by the handlers.
type DesignStore interface {
	Create(ctx context.Context, d *types.Design) error
	ListByProject(ctx context.Context, projectID string) ([]types.Design, error)
	ListSliders(ctx context.Context, projectID string) ([]types.SliderValues, error)
}

// BusinessMetrics receives domain counters (Prometheus in production).
type BusinessMetrics interface {
	DesignSubmitted(rt types.RespondentType)
	InsightsComputed()
	Simulated(mode string)
}

type noopMetrics struct{}

func (noopMetrics) DesignSubmitted(types.RespondentType) {}
func (noopMetrics) InsightsComputed()                    {}
func (noopMetrics) Simulated(string)                     {}

// projectIDParam is the URL parameter naming the project in every
// project-scoped route.
const projectIDParam = "id"

func projectID(r *http.Request) string {
	return chi.URLParam(r, projectIDParam)
}

// SliderInput is the wire form of a slider vector. Every key is required
// and must be a non-negative integer.
type SliderInput struct {
	RemovedParkingSpots *int `json:"removedParkingSpots" validate:"required,min=0"`
	AddedGreenUnits     *int `json:"addedGreenUnits" validate:"required,min=0"`
	AddedSharedCars     *int `json:"addedSharedCars" validate:"required,min=0"`
	AddedBikeUnits      *int `json:"addedBikeUnits" validate:"required,min=0"`
	AddedPublicSpace    *int `json:"addedPublicSpace" validate:"required,min=0"`
}

// Values converts a validated input. Missing keys read as 0.
func (s SliderInput) Values() types.SliderValues {
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return types.SliderValues{
		RemovedParkingSpots: deref(s.RemovedParkingSpots),
		AddedGreenUnits:     deref(s.AddedGreenUnits),
		AddedSharedCars:     deref(s.AddedSharedCars),
		AddedBikeUnits:      deref(s.AddedBikeUnits),
		AddedPublicSpace:    deref(s.AddedPublicSpace),
	}
}
