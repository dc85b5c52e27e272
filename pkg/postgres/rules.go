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

const ruleColumns = `
	id, name, enabled, schedule, criteria, strategy,
	algorithmic_params, model_params,
	next_run, last_run, last_run_status,
	assignments_created, conflicts_found,
	created_at, updated_at
`

// GetRule retrieves a rule by ID. It returns nil when no rule exists.
func (d *DB) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM rule
		WHERE id = $1
	`, id)

	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}
	return rule, nil
}

// ListRules retrieves all rules ordered by name.
func (d *DB) ListRules(ctx context.Context) ([]model.Rule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM rule
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// GetDueRules retrieves enabled rules whose next run is at or before now.
func (d *DB) GetDueRules(ctx context.Context, now time.Time) ([]model.Rule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM rule
		WHERE enabled AND next_run IS NOT NULL AND next_run <= $1
		ORDER BY next_run
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// UpdateRuleCounters adds a run's outcome to the rule's rolling counters and
// stamps the last-run marker.
func (d *DB) UpdateRuleCounters(ctx context.Context, ruleID string, assignmentsCreated, conflictsFound int, lastRun time.Time, status model.RunStatus) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE rule
		SET assignments_created = assignments_created + $2,
		    conflicts_found = conflicts_found + $3,
		    last_run = $4,
		    last_run_status = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, ruleID, assignmentsCreated, conflictsFound, lastRun.UTC(), string(status))
	if err != nil {
		return fmt.Errorf("failed to update rule counters: %w", err)
	}
	return nil
}

// UpdateNextRun sets the rule's next scheduled run time; nil clears it, which
// retires an expired schedule.
func (d *DB) UpdateNextRun(ctx context.Context, ruleID string, next *time.Time) error {
	var value *time.Time
	if next != nil {
		utc := next.UTC()
		value = &utc
	}
	_, err := d.pool.Exec(ctx, `
		UPDATE rule SET next_run = $2, updated_at = NOW() WHERE id = $1
	`, ruleID, value)
	if err != nil {
		return fmt.Errorf("failed to update next run: %w", err)
	}
	return nil
}

func collectRules(rows pgx.Rows) ([]model.Rule, error) {
	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

func scanRule(row pgx.Row) (*model.Rule, error) {
	var r model.Rule
	var scheduleJSON, criteriaJSON []byte
	var algorithmicJSON, modelJSON []byte
	var strategy string
	var lastRunStatus *string

	err := row.Scan(
		&r.ID, &r.Name, &r.Enabled, &scheduleJSON, &criteriaJSON, &strategy,
		&algorithmicJSON, &modelJSON,
		&r.NextRun, &r.LastRun, &lastRunStatus,
		&r.AssignmentsCreated, &r.ConflictsFound,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Strategy = model.StrategyType(strategy)
	if lastRunStatus != nil {
		r.LastRunStatus = model.RunStatus(*lastRunStatus)
	}

	if err := json.Unmarshal(scheduleJSON, &r.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	if err := json.Unmarshal(criteriaJSON, &r.Criteria); err != nil {
		return nil, fmt.Errorf("failed to decode criteria: %w", err)
	}
	if algorithmicJSON != nil {
		r.Algorithmic = &model.AlgorithmicParams{}
		if err := json.Unmarshal(algorithmicJSON, r.Algorithmic); err != nil {
			return nil, fmt.Errorf("failed to decode algorithmic params: %w", err)
		}
	}
	if modelJSON != nil {
		r.Model = &model.ModelParams{}
		if err := json.Unmarshal(modelJSON, r.Model); err != nil {
			return nil, fmt.Errorf("failed to decode model params: %w", err)
		}
	}

	return &r, nil
}
