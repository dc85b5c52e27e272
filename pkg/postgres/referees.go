package postgres

import (
	"context"
	"fmt"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// GetReferees retrieves the full referee pool. Availability and the other
// eligibility constraints are applied in the engine, not here.
func (d *DB) GetReferees(ctx context.Context) ([]model.Referee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, available, level, years_experience, distance_km
		FROM referee
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query referees: %w", err)
	}
	defer rows.Close()

	var referees []model.Referee
	for rows.Next() {
		var r model.Referee
		var level string
		if err := rows.Scan(&r.ID, &r.Name, &r.Available, &level, &r.YearsExperience, &r.DistanceKm); err != nil {
			return nil, fmt.Errorf("failed to scan referee: %w", err)
		}
		r.Level = model.RefereeLevel(level)
		referees = append(referees, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referees: %w", err)
	}

	return referees, nil
}
