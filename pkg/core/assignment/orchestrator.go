package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// Engine defaults applied when neither the rule, the game record, nor the
// caller specifies otherwise.
const (
	DefaultRefsNeeded    = 2
	DefaultGameDuration  = 2 * time.Hour
	DefaultBackToBackGap = time.Hour
)

// Options tune one orchestration pass.
type Options struct {
	// DefaultRefsNeeded staffs games whose record carries no refs_needed.
	DefaultRefsNeeded int
	// DefaultGameDuration sizes conflict windows for games without a duration.
	DefaultGameDuration time.Duration
	// BackToBackGap is the minimum rest between a referee's games when the
	// rule avoids back-to-back assignments.
	BackToBackGap time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultRefsNeeded <= 0 {
		o.DefaultRefsNeeded = DefaultRefsNeeded
	}
	if o.DefaultGameDuration <= 0 {
		o.DefaultGameDuration = DefaultGameDuration
	}
	if o.BackToBackGap <= 0 {
		o.BackToBackGap = DefaultBackToBackGap
	}
	return o
}

// Orchestrator drives one rule execution over an in-memory snapshot of games
// and referees. The pass is pure: nothing is persisted here, so an abandoned
// pass has no side effects. Deciding whether to commit belongs to the
// recorder.
type Orchestrator struct {
	strategy ScoringStrategy
	opts     Options
}

// NewOrchestrator builds an orchestrator around the rule's configured
// strategy.
func NewOrchestrator(strategy ScoringStrategy, opts Options) *Orchestrator {
	return &Orchestrator{strategy: strategy, opts: opts.withDefaults()}
}

// Execute produces an assignment plan for the given games. Games are
// processed in start-time order; per game the pool is narrowed by the hard
// constraints, cleared of in-pass conflicts, ranked by the strategy, and the
// top refs_needed candidates are allocated to numbered positions. A game that
// cannot be fully staffed yields an unfilled conflict naming the shortfall.
func (o *Orchestrator) Execute(ctx context.Context, rule model.Rule, games []model.Game, pool []model.Referee) (*model.AssignmentPlan, error) {
	plan := &model.AssignmentPlan{
		Games:     []model.GamePlan{},
		Conflicts: []model.Conflict{},
		Strategy:  o.strategy.Name(),
	}
	if rule.Model != nil {
		plan.Model = rule.Model.Model
	}
	if len(games) == 0 {
		return plan, nil
	}

	ordered := make([]model.Game, len(games))
	copy(ordered, games)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].ID < ordered[j].ID
	})

	detector := NewConflictDetector(ordered, o.opts.DefaultGameDuration, rule.Criteria.AvoidBackToBack, o.opts.BackToBackGap)

	var passAssignments []model.PlannedAssignment
	var scoreSum float64
	var scoreCount int

	for _, game := range ordered {
		eligible := FilterCandidates(pool, rule.Criteria)

		free := make([]model.Referee, 0, len(eligible))
		for _, ref := range eligible {
			if !detector.Conflicts(ref.ID, game, passAssignments) {
				free = append(free, ref)
			}
		}

		ranked, err := o.strategy.Rank(ctx, game, free, rule)
		if err != nil {
			return nil, fmt.Errorf("ranking candidates for game %s: %w", game.ID, err)
		}

		needed := game.RefsNeeded
		if needed <= 0 {
			needed = o.opts.DefaultRefsNeeded
		}

		gamePlan := model.GamePlan{GameID: game.ID}
		for position := 1; position <= needed && position <= len(ranked); position++ {
			c := ranked[position-1]
			a := model.PlannedAssignment{
				GameID:        game.ID,
				RefereeID:     c.Referee.ID,
				Position:      position,
				Score:         c.Score,
				Justification: c.Justification,
			}
			gamePlan.Assignments = append(gamePlan.Assignments, a)
			passAssignments = append(passAssignments, a)
			scoreSum += c.Score
			scoreCount++
		}

		if shortfall := needed - len(gamePlan.Assignments); shortfall > 0 {
			plan.Conflicts = append(plan.Conflicts, model.Conflict{
				GameID:    game.ID,
				Type:      model.ConflictUnfilled,
				Shortfall: shortfall,
				Detail:    fmt.Sprintf("needed %d referees, allocated %d", needed, len(gamePlan.Assignments)),
			})
		}

		plan.Games = append(plan.Games, gamePlan)
		plan.GamesProcessed++
	}

	if scoreCount > 0 {
		plan.MeanConfidence = scoreSum / float64(scoreCount)
	}
	return plan, nil
}
