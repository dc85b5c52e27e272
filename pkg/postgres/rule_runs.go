package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// InsertRuleRun appends an execution record to the audit trail.
func (d *DB) InsertRuleRun(ctx context.Context, run *model.RuleRun) error {
	var planJSON []byte
	if run.Plan != nil {
		var err error
		planJSON, err = json.Marshal(run.Plan)
		if err != nil {
			return fmt.Errorf("failed to encode run plan: %w", err)
		}
	}

	var notesJSON []byte
	if len(run.ContextNotes) > 0 {
		var err error
		notesJSON, err = json.Marshal(run.ContextNotes)
		if err != nil {
			return fmt.Errorf("failed to encode context notes: %w", err)
		}
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO rule_run (
			id, rule_id, ran_at, status, strategy, model, dry_run,
			games_processed, assignments_created, conflicts_found,
			mean_confidence, duration_ms, context_notes, plan, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		run.ID, run.RuleID, run.RanAt.UTC(), string(run.Status), string(run.Strategy),
		nullableString(run.Model), run.DryRun,
		run.GamesProcessed, run.AssignmentsCreated, run.ConflictsFound,
		run.MeanConfidence, run.Duration.Milliseconds(), notesJSON, planJSON,
		nullableString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule run: %w", err)
	}
	return nil
}

// GetRuleRun retrieves one run record by ID. It returns nil when no run
// exists.
func (d *DB) GetRuleRun(ctx context.Context, id string) (*model.RuleRun, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, rule_id, ran_at, status, strategy, model, dry_run,
		       games_processed, assignments_created, conflicts_found,
		       mean_confidence, duration_ms, context_notes, plan, error
		FROM rule_run
		WHERE id = $1
	`, id)

	var run model.RuleRun
	var status, strategy string
	var runModel, runErr *string
	var durationMs int64
	var notesJSON, planJSON []byte

	err := row.Scan(
		&run.ID, &run.RuleID, &run.RanAt, &status, &strategy, &runModel, &run.DryRun,
		&run.GamesProcessed, &run.AssignmentsCreated, &run.ConflictsFound,
		&run.MeanConfidence, &durationMs, &notesJSON, &planJSON, &runErr,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule run: %w", err)
	}

	run.Status = model.RunStatus(status)
	run.Strategy = model.StrategyType(strategy)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if runModel != nil {
		run.Model = *runModel
	}
	if runErr != nil {
		run.Error = *runErr
	}
	if notesJSON != nil {
		if err := json.Unmarshal(notesJSON, &run.ContextNotes); err != nil {
			return nil, fmt.Errorf("failed to decode context notes: %w", err)
		}
	}
	if planJSON != nil {
		run.Plan = &model.AssignmentPlan{}
		if err := json.Unmarshal(planJSON, run.Plan); err != nil {
			return nil, fmt.Errorf("failed to decode run plan: %w", err)
		}
	}

	return &run, nil
}

// GetRuleRuns retrieves a rule's run history, newest first.
func (d *DB) GetRuleRuns(ctx context.Context, ruleID string, limit int) ([]model.RuleRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, ran_at, status, strategy, dry_run,
		       games_processed, assignments_created, conflicts_found, duration_ms
		FROM rule_run
		WHERE rule_id = $1
		ORDER BY ran_at DESC
		LIMIT $2
	`, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RuleRun
	for rows.Next() {
		var run model.RuleRun
		var status, strategy string
		var durationMs int64
		if err := rows.Scan(
			&run.ID, &run.RanAt, &status, &strategy, &run.DryRun,
			&run.GamesProcessed, &run.AssignmentsCreated, &run.ConflictsFound, &durationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule run: %w", err)
		}
		run.RuleID = ruleID
		run.Status = model.RunStatus(status)
		run.Strategy = model.StrategyType(strategy)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule runs: %w", err)
	}

	return runs, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
