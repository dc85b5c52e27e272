package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// InsertAssignment commits one planned assignment. The unique index on
// (game_id, position) makes concurrent runs race safely: the first insert
// wins and later ones return false without touching the existing row.
func (d *DB) InsertAssignment(ctx context.Context, ruleID string, a model.PlannedAssignment) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		INSERT INTO assignment (id, rule_id, game_id, referee_id, position, score, justification)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id, position) DO NOTHING
	`, uuid.NewString(), ruleID, a.GameID, a.RefereeID, a.Position, a.Score, a.Justification)
	if err != nil {
		return false, fmt.Errorf("failed to insert assignment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
