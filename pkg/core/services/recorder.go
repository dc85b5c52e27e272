package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// RecordStore defines the database operations needed to persist a run.
type RecordStore interface {
	InsertRuleRun(ctx context.Context, run *model.RuleRun) error
	// InsertAssignment commits one planned assignment. It returns false when
	// the game position was already taken, leaving the existing row in place.
	InsertAssignment(ctx context.Context, ruleID string, a model.PlannedAssignment) (bool, error)
	UpdateRuleCounters(ctx context.Context, ruleID string, assignmentsCreated, conflictsFound int, lastRun time.Time, status model.RunStatus) error
}

// Record persists the outcome of an orchestration pass. On a live run it
// commits the planned assignments one by one; a position already taken by a
// concurrent run is downgraded to a conflict rather than overwritten. The run
// record is written for dry and live runs alike, but only a live run updates
// the rule's rolling counters.
func Record(
	ctx context.Context,
	store RecordStore,
	logger *zap.Logger,
	rule *model.Rule,
	plan *model.AssignmentPlan,
	duration time.Duration,
	dryRun bool,
	notes []string,
) (*model.RuleRun, error) {
	created := 0
	if !dryRun {
		for _, a := range plan.AllAssignments() {
			inserted, err := store.InsertAssignment(ctx, rule.ID, a)
			if err != nil {
				return nil, fmt.Errorf("failed to commit assignment for game %s: %w", a.GameID, err)
			}
			if !inserted {
				logger.Warn("Game position already assigned, skipping",
					zap.String("game_id", a.GameID),
					zap.Int("position", a.Position))
				plan.Conflicts = append(plan.Conflicts, model.Conflict{
					GameID: a.GameID,
					Type:   model.ConflictCommitRace,
					Detail: fmt.Sprintf("position %d was assigned by another run", a.Position),
				})
				continue
			}
			created++
		}
	}

	status := model.RunStatusSuccess
	if len(plan.Conflicts) > 0 {
		status = model.RunStatusPartial
	}

	run := &model.RuleRun{
		ID:                 uuid.NewString(),
		RuleID:             rule.ID,
		RanAt:              time.Now().UTC(),
		Status:             status,
		Strategy:           plan.Strategy,
		Model:              plan.Model,
		DryRun:             dryRun,
		GamesProcessed:     plan.GamesProcessed,
		AssignmentsCreated: created,
		ConflictsFound:     len(plan.Conflicts),
		MeanConfidence:     plan.MeanConfidence,
		Duration:           duration,
		ContextNotes:       notes,
		Plan:               plan,
	}

	if err := store.InsertRuleRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	if !dryRun {
		if err := store.UpdateRuleCounters(ctx, rule.ID, created, len(plan.Conflicts), run.RanAt, status); err != nil {
			return nil, fmt.Errorf("failed to update rule counters: %w", err)
		}
	}

	logger.Info("Run recorded",
		zap.String("run_id", run.ID),
		zap.String("status", string(status)),
		zap.Bool("dry_run", dryRun),
		zap.Int("assignments_created", created),
		zap.Int("conflicts_found", len(plan.Conflicts)))

	return run, nil
}

// recordFailure writes the audit record for a run whose strategy could not
// produce a plan. Counters stay untouched except the last-run marker on live
// runs.
func recordFailure(
	ctx context.Context,
	store RecordStore,
	rule *model.Rule,
	runErr error,
	duration time.Duration,
	opts RunRuleOptions,
) (*model.RuleRun, error) {
	run := &model.RuleRun{
		ID:           uuid.NewString(),
		RuleID:       rule.ID,
		RanAt:        time.Now().UTC(),
		Status:       model.RunStatusFailed,
		Strategy:     rule.Strategy,
		DryRun:       opts.DryRun,
		Duration:     duration,
		ContextNotes: opts.ContextNotes,
		Error:        runErr.Error(),
	}

	if err := store.InsertRuleRun(ctx, run); err != nil {
		return nil, err
	}

	if !opts.DryRun {
		if err := store.UpdateRuleCounters(ctx, rule.ID, 0, 0, run.RanAt, model.RunStatusFailed); err != nil {
			return nil, err
		}
	}

	return run, nil
}
