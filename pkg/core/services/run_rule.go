package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syncedsports/refassign/internal/config"
	"github.com/syncedsports/refassign/pkg/core/assignment"
	"github.com/syncedsports/refassign/pkg/core/model"
)

// RunRuleOptions control one rule execution.
type RunRuleOptions struct {
	// DryRun produces and records a plan without committing assignments or
	// touching the rule's rolling counters.
	DryRun bool
	// GameIDs restricts the run to specific games; empty means every game
	// matching the rule's criteria inside its horizon.
	GameIDs []string
	// ContextNotes are free-text comments flowing into the model-assisted
	// prompt and onto the run record.
	ContextNotes []string
}

// RunRuleResult contains the audited run and the plan it recorded.
type RunRuleResult struct {
	Run  *model.RuleRun
	Plan *model.AssignmentPlan
}

// RunRuleStore defines the database operations needed to execute a rule.
type RunRuleStore interface {
	// GetRule returns nil when no rule with the ID exists.
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	GetPartnerPreferences(ctx context.Context, ruleID string) ([]model.PartnerPreference, error)
	// GetEligibleGames returns games matching the criteria's game types, age
	// groups, and days-ahead horizon from now, optionally restricted to
	// explicit game IDs.
	GetEligibleGames(ctx context.Context, criteria model.Criteria, now time.Time, gameIDs []string) ([]model.Game, error)
	GetReferees(ctx context.Context) ([]model.Referee, error)
	RecordStore
}

// RunRule executes a rule end-to-end: loads the eligible games and referee
// pool, runs the orchestration pass with the rule's configured strategy, and
// records the outcome. Configuration errors (missing rule, malformed
// strategy) fail fast before any run record is written; a strategy that
// cannot reach its reasoning service is captured as a failed run so the audit
// trail reflects the attempt.
func RunRule(
	ctx context.Context,
	store RunRuleStore,
	ranker assignment.Ranker,
	cfg *config.Config,
	logger *zap.Logger,
	ruleID string,
	opts RunRuleOptions,
) (*RunRuleResult, error) {
	logger.Debug("Starting rule run",
		zap.String("rule_id", ruleID),
		zap.Bool("dry_run", opts.DryRun))

	rule, err := store.GetRule(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule: %w", err)
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: %s", assignment.ErrRuleNotFound, ruleID)
	}

	var prefs []model.PartnerPreference
	if rule.Strategy == model.StrategyAlgorithmic {
		prefs, err = store.GetPartnerPreferences(ctx, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch partner preferences: %w", err)
		}
	}

	strategy, err := assignment.NewStrategy(*rule, prefs, ranker, opts.ContextNotes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	games, err := store.GetEligibleGames(ctx, rule.Criteria, now, opts.GameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch eligible games: %w", err)
	}
	logger.Debug("Fetched eligible games", zap.Int("count", len(games)))

	referees, err := store.GetReferees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch referees: %w", err)
	}
	logger.Debug("Fetched referee pool", zap.Int("count", len(referees)))

	orchestrator := assignment.NewOrchestrator(strategy, assignment.Options{
		DefaultRefsNeeded:   cfg.Engine.DefaultRefsNeeded,
		DefaultGameDuration: time.Duration(cfg.Engine.DefaultGameDurationMinutes) * time.Minute,
		BackToBackGap:       time.Duration(cfg.Engine.BackToBackGapMinutes) * time.Minute,
	})

	started := time.Now()
	plan, err := orchestrator.Execute(ctx, *rule, games, referees)
	duration := time.Since(started)

	if err != nil {
		var unavailable *assignment.StrategyUnavailableError
		if errors.As(err, &unavailable) {
			logger.Warn("Strategy unavailable, recording failed run",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			run, recordErr := recordFailure(ctx, store, rule, err, duration, opts)
			if recordErr != nil {
				return nil, fmt.Errorf("failed to record failed run: %w", recordErr)
			}
			return &RunRuleResult{Run: run}, err
		}
		return nil, err
	}

	logger.Info("Orchestration completed",
		zap.String("rule_id", rule.ID),
		zap.Int("games_processed", plan.GamesProcessed),
		zap.Int("assignments_planned", plan.AssignmentCount()),
		zap.Int("conflicts", len(plan.Conflicts)))

	run, err := Record(ctx, store, logger, rule, plan, duration, opts.DryRun, opts.ContextNotes)
	if err != nil {
		return nil, err
	}

	return &RunRuleResult{Run: run, Plan: plan}, nil
}
