package assignment

import (
	"context"
	"fmt"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// ScoredCandidate is a referee ranked for one game, with a score in [0,1]
// and a human-readable justification of the dominant factors.
type ScoredCandidate struct {
	Referee       model.Referee
	Score         float64
	Justification string
}

// ScoringStrategy ranks a candidate pool for a game. Implementations return
// candidates in descending preference order; the orchestrator allocates from
// the front of the list.
type ScoringStrategy interface {
	Name() model.StrategyType
	Rank(ctx context.Context, game model.Game, candidates []model.Referee, rule model.Rule) ([]ScoredCandidate, error)
}

// NewStrategy builds the strategy a rule is configured with. The algorithmic
// strategy needs the rule's partner preferences; the model-assisted strategy
// needs a Ranker for the external reasoning service plus any free-text
// context notes supplied for the run.
func NewStrategy(rule model.Rule, prefs []model.PartnerPreference, ranker Ranker, contextNotes []string) (ScoringStrategy, error) {
	switch rule.Strategy {
	case model.StrategyAlgorithmic:
		if rule.Algorithmic == nil {
			return nil, fmt.Errorf("%w: algorithmic parameters missing", ErrUnknownStrategy)
		}
		return NewAlgorithmicStrategy(prefs), nil
	case model.StrategyModelAssisted:
		if rule.Model == nil {
			return nil, fmt.Errorf("%w: model parameters missing", ErrUnknownStrategy)
		}
		if ranker == nil {
			return nil, fmt.Errorf("%w: no reasoning service configured", ErrUnknownStrategy)
		}
		return NewModelAssistedStrategy(ranker, contextNotes), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, rule.Strategy)
	}
}
