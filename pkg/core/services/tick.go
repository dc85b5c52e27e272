package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syncedsports/refassign/internal/config"
	"github.com/syncedsports/refassign/pkg/core/assignment"
	"github.com/syncedsports/refassign/pkg/core/model"
	"github.com/syncedsports/refassign/pkg/core/schedule"
)

// TickStore defines the database operations needed by the scheduler tick.
type TickStore interface {
	RunRuleStore
	// GetDueRules returns enabled rules whose next run is at or before now.
	GetDueRules(ctx context.Context, now time.Time) ([]model.Rule, error)
	UpdateNextRun(ctx context.Context, ruleID string, next *time.Time) error
}

// TickResult summarizes one scheduler pass.
type TickResult struct {
	RulesDue int
	Runs     []*model.RuleRun
	Failures int
}

// Tick executes every enabled rule that has come due and advances its next
// run time. A failing rule does not stop the pass; its failure is logged and
// counted and the remaining due rules still execute.
func Tick(
	ctx context.Context,
	store TickStore,
	ranker assignment.Ranker,
	cfg *config.Config,
	logger *zap.Logger,
	now time.Time,
) (*TickResult, error) {
	due, err := store.GetDueRules(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due rules: %w", err)
	}

	result := &TickResult{RulesDue: len(due)}
	if len(due) == 0 {
		logger.Debug("No rules due", zap.Time("now", now))
		return result, nil
	}

	logger.Info("Running due rules", zap.Int("count", len(due)))

	for _, rule := range due {
		runResult, err := RunRule(ctx, store, ranker, cfg, logger, rule.ID, RunRuleOptions{})
		if err != nil {
			logger.Error("Scheduled run failed",
				zap.String("rule_id", rule.ID),
				zap.String("rule_name", rule.Name),
				zap.Error(err))
			result.Failures++
		}
		if runResult != nil && runResult.Run != nil {
			result.Runs = append(result.Runs, runResult.Run)
		}

		next, err := schedule.NextRun(rule.Schedule, now)
		if err != nil {
			logger.Error("Failed to compute next run",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			result.Failures++
			continue
		}
		if err := store.UpdateNextRun(ctx, rule.ID, next); err != nil {
			logger.Error("Failed to persist next run",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			result.Failures++
		}
	}

	return result, nil
}
