package assignment

import (
	"time"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// ConflictDetector decides whether assigning a referee to a game collides
// with an assignment made earlier in the same orchestration pass: the same
// game already staffed by that referee, or a different game whose time window
// overlaps. Windows are half-open [start, start+duration).
type ConflictDetector struct {
	games           map[string]model.Game
	defaultDuration time.Duration
	minGap          time.Duration // non-zero when back-to-back games are also blocked
}

// NewConflictDetector builds a detector over the games visible to this pass.
// defaultDuration is used for games whose record carries no duration. When
// avoidBackToBack is set, games separated by less than minGap are treated as
// conflicting even when their windows do not overlap.
func NewConflictDetector(games []model.Game, defaultDuration time.Duration, avoidBackToBack bool, minGap time.Duration) *ConflictDetector {
	byID := make(map[string]model.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}
	d := &ConflictDetector{games: byID, defaultDuration: defaultDuration}
	if avoidBackToBack {
		d.minGap = minGap
	}
	return d
}

// Conflicts reports whether the referee already holds a colliding assignment
// among those accumulated so far in this pass.
func (d *ConflictDetector) Conflicts(refereeID string, game model.Game, soFar []model.PlannedAssignment) bool {
	start, end := game.Window(d.defaultDuration)
	start = start.Add(-d.minGap)
	end = end.Add(d.minGap)

	for _, a := range soFar {
		if a.RefereeID != refereeID {
			continue
		}
		if a.GameID == game.ID {
			return true
		}
		held, ok := d.games[a.GameID]
		if !ok {
			continue
		}
		heldStart, heldEnd := held.Window(d.defaultDuration)
		if overlaps(start, end, heldStart, heldEnd) {
			return true
		}
	}
	return false
}

// overlaps reports whether two half-open intervals intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
