package db

import (
	"context"

	"streetplan/internal/types"
)

const designIDPrefix = "dsg_"

// DesignRepository provides append-only access to submitted designs.
type DesignRepository struct {
	db DBTX
}

// NewDesignRepository creates a new DesignRepository backed by the given
// database connection (pool or transaction).
func NewDesignRepository(db DBTX) *DesignRepository {
	return &DesignRepository{db: db}
}

const designColumns = `id, project_id, respondent_type, postal_code4, age_group,
	sliders, metrics, client_hash, created_at`

// Create stores a design. The ID is assigned when empty and CreatedAt is
// taken from the database. A project ID that does not exist yields
// not_found_project.
func (r *DesignRepository) Create(ctx context.Context, d *types.Design) error {
	if d.ID == "" {
		d.ID = newID(designIDPrefix)
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO designs (id, project_id, respondent_type, postal_code4, age_group,
		                      sliders, metrics, client_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		d.ID,
		d.ProjectID,
		d.RespondentType,
		d.PostalCode4,
		d.AgeGroup,
		d.Sliders,
		d.Metrics,
		d.ClientHash,
	).Scan(&d.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return types.NewAppError(types.ErrCodeNotFoundProject, "project not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create design", err)
	}
	return nil
}

// ListByProject returns all designs of a project, newest first.
func (r *DesignRepository) ListByProject(ctx context.Context, projectID string) ([]types.Design, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+designColumns+`
		 FROM designs
		 WHERE project_id = $1
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list designs", err)
	}
	defer rows.Close()

	out := []types.Design{}
	for rows.Next() {
		var d types.Design
		if err := rows.Scan(
			&d.ID,
			&d.ProjectID,
			&d.RespondentType,
			&d.PostalCode4,
			&d.AgeGroup,
			&d.Sliders,
			&d.Metrics,
			&d.ClientHash,
			&d.CreatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan design", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating designs", err)
	}
	return out, nil
}

// ListSliders returns only the slider vectors of a project's designs, newest
// first. This is the input of the insights aggregation.
func (r *DesignRepository) ListSliders(ctx context.Context, projectID string) ([]types.SliderValues, error) {
	rows, err := r.db.Query(ctx,
		`SELECT sliders FROM designs
		 WHERE project_id = $1
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list design sliders", err)
	}
	defer rows.Close()

	out := []types.SliderValues{}
	for rows.Next() {
		var s types.SliderValues
		if err := rows.Scan(&s); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan design sliders", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating design sliders", err)
	}
	return out, nil
}
