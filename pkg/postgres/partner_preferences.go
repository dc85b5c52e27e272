package postgres

import (
	"context"
	"fmt"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// GetPartnerPreferences retrieves the directed partner preferences of a rule.
func (d *DB) GetPartnerPreferences(ctx context.Context, ruleID string) ([]model.PartnerPreference, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, rule_id, referee1_id, referee2_id, preference_type
		FROM partner_preference
		WHERE rule_id = $1
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query partner preferences: %w", err)
	}
	defer rows.Close()

	var prefs []model.PartnerPreference
	for rows.Next() {
		var p model.PartnerPreference
		var prefType string
		if err := rows.Scan(&p.ID, &p.RuleID, &p.Referee1ID, &p.Referee2ID, &prefType); err != nil {
			return nil, fmt.Errorf("failed to scan partner preference: %w", err)
		}
		p.Type = model.PreferenceType(prefType)
		prefs = append(prefs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partner preferences: %w", err)
	}

	return prefs, nil
}
