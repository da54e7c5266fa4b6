package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"streetplan/internal/types"
)

// ID prefixes for project-owned records.
const (
	projectIDPrefix      = "prj_"
	intersectionIDPrefix = "int_"
	zoneIDPrefix         = "zon_"
	costConfigIDPrefix   = "cst_"
)

func newID(prefix string) string {
	return prefix + uuid.NewString()
}

// ProjectRepository provides data access for projects and their child
// collections (intersections, zones, cost configs).
type ProjectRepository struct {
	db DBTX
}

// NewProjectRepository creates a new ProjectRepository backed by the given
// database connection (pool or transaction).
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Child rows are shipped to PostgreSQL as one JSON array each and expanded
// with jsonb_to_recordset, so the whole project lands in a single statement.
type intersectionRow struct {
	ID       string  `json:"id"`
	Position int     `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type zoneRow struct {
	ID           string         `json:"id"`
	Position     int            `json:"position"`
	Type         types.ZoneType `json:"type"`
	GeometryJSON string         `json:"geometry_json"`
	Capacity     *int           `json:"capacity"`
}

type costConfigRow struct {
	ID       string        `json:"id"`
	Key      types.CostKey `json:"key"`
	UnitCost float64       `json:"unit_cost"`
	UnitOpex float64       `json:"unit_opex"`
}

const insertProjectSQL = `
WITH p AS (
	INSERT INTO projects (id, name, area_name, baseline_parking_pressure,
		baseline_parking_spots, layout_json, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at
), i AS (
	INSERT INTO intersections (id, project_id, position, x, y)
	SELECT r.id, p.id, r.position, r.x, r.y
	FROM p, jsonb_to_recordset($8::jsonb) AS r(id TEXT, position INTEGER, x DOUBLE PRECISION, y DOUBLE PRECISION)
), z AS (
	INSERT INTO zones (id, project_id, position, type, geometry_json, capacity)
	SELECT r.id, p.id, r.position, r.type, r.geometry_json, r.capacity
	FROM p, jsonb_to_recordset($9::jsonb) AS r(id TEXT, position INTEGER, type TEXT, geometry_json TEXT, capacity INTEGER)
), c AS (
	INSERT INTO cost_configs (id, project_id, key, unit_cost, unit_opex)
	SELECT r.id, p.id, r.key, r.unit_cost, r.unit_opex
	FROM p, jsonb_to_recordset($10::jsonb) AS r(id TEXT, key TEXT, unit_cost DOUBLE PRECISION, unit_opex DOUBLE PRECISION)
)
SELECT created_at FROM p`

// Create inserts the project together with all child records in one
// statement. IDs are assigned here when empty; CreatedAt is set from the
// database. A duplicate project ID yields conflict_project_exists.
func (r *ProjectRepository) Create(ctx context.Context, p *types.Project) error {
	if p.ID == "" {
		p.ID = newID(projectIDPrefix)
	}

	intersections := make([]intersectionRow, len(p.Intersections))
	for i := range p.Intersections {
		in := &p.Intersections[i]
		if in.ID == "" {
			in.ID = newID(intersectionIDPrefix)
		}
		intersections[i] = intersectionRow{ID: in.ID, Position: i, X: in.X, Y: in.Y}
	}

	zones := make([]zoneRow, len(p.Zones))
	for i := range p.Zones {
		z := &p.Zones[i]
		if z.ID == "" {
			z.ID = newID(zoneIDPrefix)
		}
		zones[i] = zoneRow{ID: z.ID, Position: i, Type: z.Type, GeometryJSON: z.GeometryJSON, Capacity: z.Capacity}
	}

	costs := make([]costConfigRow, len(p.CostConfigs))
	for i := range p.CostConfigs {
		c := &p.CostConfigs[i]
		if c.ID == "" {
			c.ID = newID(costConfigIDPrefix)
		}
		costs[i] = costConfigRow{ID: c.ID, Key: c.Key, UnitCost: c.UnitCost, UnitOpex: c.UnitOpex}
	}

	intersectionsJSON, err := json.Marshal(intersections)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode intersections", err)
	}
	zonesJSON, err := json.Marshal(zones)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode zones", err)
	}
	costsJSON, err := json.Marshal(costs)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode cost configs", err)
	}

	var createdAt time.Time
	err = r.db.QueryRow(ctx, insertProjectSQL,
		p.ID,
		p.Name,
		p.AreaName,
		p.BaselineParkingPressure,
		p.BaselineParkingSpots,
		p.LayoutJSON,
		p.Notes,
		string(intersectionsJSON),
		string(zonesJSON),
		string(costsJSON),
	).Scan(&createdAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return types.NewAppError(types.ErrCodeConflictProject, "project already exists", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create project", err)
	}
	p.CreatedAt = createdAt
	return nil
}

// GetByID loads a project with its intersections, zones and cost configs.
// Child collections are never nil. Returns not_found_project when no project
// has the given ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := r.db.QueryRow(ctx,
		`SELECT id, name, area_name, baseline_parking_pressure, baseline_parking_spots,
		        layout_json, notes, created_at
		 FROM projects
		 WHERE id = $1`,
		id,
	).Scan(
		&p.ID,
		&p.Name,
		&p.AreaName,
		&p.BaselineParkingPressure,
		&p.BaselineParkingSpots,
		&p.LayoutJSON,
		&p.Notes,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve project", err)
	}

	if p.Intersections, err = r.listIntersections(ctx, id); err != nil {
		return nil, err
	}
	if p.Zones, err = r.listZones(ctx, id); err != nil {
		return nil, err
	}
	if p.CostConfigs, err = r.listCostConfigs(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) listIntersections(ctx context.Context, projectID string) ([]types.Intersection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, x, y FROM intersections WHERE project_id = $1 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load intersections", err)
	}
	defer rows.Close()

	out := []types.Intersection{}
	for rows.Next() {
		var in types.Intersection
		if err := rows.Scan(&in.ID, &in.X, &in.Y); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan intersection", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating intersections", err)
	}
	return out, nil
}

func (r *ProjectRepository) listZones(ctx context.Context, projectID string) ([]types.Zone, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, type, geometry_json, capacity FROM zones WHERE project_id = $1 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load zones", err)
	}
	defer rows.Close()

	out := []types.Zone{}
	for rows.Next() {
		var z types.Zone
		if err := rows.Scan(&z.ID, &z.Type, &z.GeometryJSON, &z.Capacity); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan zone", err)
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating zones", err)
	}
	return out, nil
}

func (r *ProjectRepository) listCostConfigs(ctx context.Context, projectID string) ([]types.CostConfig, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, key, unit_cost, unit_opex FROM cost_configs WHERE project_id = $1 ORDER BY key`,
		projectID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load cost configs", err)
	}
	defer rows.Close()

	out := []types.CostConfig{}
	for rows.Next() {
		var c types.CostConfig
		if err := rows.Scan(&c.ID, &c.Key, &c.UnitCost, &c.UnitOpex); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan cost config", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating cost configs", err)
	}
	return out, nil
}

// List returns every project summary, newest first, with its design count.
func (r *ProjectRepository) List(ctx context.Context) ([]types.ProjectSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.name, p.area_name,
		        (SELECT COUNT(*) FROM designs d WHERE d.project_id = p.id) AS design_count,
		        p.created_at
		 FROM projects p
		 ORDER BY p.created_at DESC, p.id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list projects", err)
	}
	defer rows.Close()

	out := []types.ProjectSummary{}
	for rows.Next() {
		var s types.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.AreaName, &s.DesignCount, &s.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan project", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating projects", err)
	}
	return out, nil
}
