package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// GetEligibleGames retrieves upcoming games matching a rule's criteria,
// optionally restricted to explicit game IDs. Games already underway are
// excluded; MaxDaysAhead bounds the horizon from now when set.
func (d *DB) GetEligibleGames(ctx context.Context, criteria model.Criteria, now time.Time, gameIDs []string) ([]model.Game, error) {
	conditions := []string{"start > $1"}
	args := []any{now.UTC()}

	if criteria.MaxDaysAhead > 0 {
		args = append(args, now.UTC().AddDate(0, 0, criteria.MaxDaysAhead))
		conditions = append(conditions, fmt.Sprintf("start <= $%d", len(args)))
	}
	if len(criteria.GameTypes) > 0 {
		args = append(args, criteria.GameTypes)
		conditions = append(conditions, fmt.Sprintf("game_type = ANY($%d)", len(args)))
	}
	if len(criteria.AgeGroups) > 0 {
		args = append(args, criteria.AgeGroups)
		conditions = append(conditions, fmt.Sprintf("age_group = ANY($%d)", len(args)))
	}
	if len(gameIDs) > 0 {
		args = append(args, gameIDs)
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	query := `
		SELECT id, start, duration_minutes, game_type, age_group, level, location, refs_needed
		FROM game
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY start, id
	`

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var level string
		if err := rows.Scan(&g.ID, &g.Start, &g.DurationMinutes, &g.Type, &g.AgeGroup, &level, &g.Location, &g.RefsNeeded); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		g.Level = model.RefereeLevel(level)
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}
