package types

import "time"

// Project is an administrator-defined street redesign with its baseline
// layout, parking data and cost parameters. Child collections are loaded
// together with the project row.
type Project struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	AreaName string `json:"areaName" db:"area_name"`

	BaselineParkingPressure float64 `json:"baselineParkingPressure" db:"baseline_parking_pressure"`
	BaselineParkingSpots    int     `json:"baselineParkingSpots" db:"baseline_parking_spots"`

	LayoutJSON string  `json:"layoutJson" db:"layout_json"`
	Notes      *string `json:"notes,omitempty" db:"notes"`

	Intersections []Intersection `json:"intersections" db:"-"`
	Zones         []Zone         `json:"zones" db:"-"`
	CostConfigs   []CostConfig   `json:"costConfigs" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IntersectionCount is derived from the project geometry.
func (p *Project) IntersectionCount() int {
	return len(p.Intersections)
}

// Intersection is a crossing point on the street layout.
type Intersection struct {
	ID string  `json:"id" db:"id"`
	X  float64 `json:"x" db:"x"`
	Y  float64 `json:"y" db:"y"`
}

// Zone is an area of the layout (parking bays, green strips, other).
type Zone struct {
	ID           string   `json:"id" db:"id"`
	Type         ZoneType `json:"type" db:"type"`
	GeometryJSON string   `json:"geometryJson" db:"geometry_json"`
	Capacity     *int     `json:"capacity,omitempty" db:"capacity"`
}

// CostConfig is the per-unit capital and yearly operating cost of one slider
// dimension. Configured at project creation and read-only thereafter.
type CostConfig struct {
	ID       string  `json:"id,omitempty" db:"id"`
	Key      CostKey `json:"key" db:"key"`
	UnitCost float64 `json:"unitCost" db:"unit_cost"`
	UnitOpex float64 `json:"unitOpex" db:"unit_opex"`
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	AreaName    string    `json:"areaName" db:"area_name"`
	DesignCount int       `json:"designCount" db:"design_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Design is one public submission: the sliders chosen, the metrics they
// produced at submission time, and respondent metadata. Designs are
// append-only.
type Design struct {
	ID             string         `json:"id" db:"id"`
	ProjectID      string         `json:"projectId" db:"project_id"`
	RespondentType RespondentType `json:"respondentType" db:"respondent_type"`
	PostalCode4    *string        `json:"postalCode4" db:"postal_code4"`
	AgeGroup       AgeGroup       `json:"ageGroup" db:"age_group"`
	Sliders        SliderValues   `json:"sliders" db:"sliders"`
	Metrics        Metrics        `json:"metrics" db:"metrics"`
	ClientHash     string         `json:"-" db:"client_hash"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}
