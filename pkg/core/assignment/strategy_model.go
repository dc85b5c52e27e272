package assignment

import (
	"context"
	"fmt"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// RankRequest is the payload handed to the external reasoning service.
type RankRequest struct {
	Game         model.Game
	Candidates   []model.Referee
	Model        string
	Temperature  float64
	Prompt       string
	ContextNotes []string
}

// CandidateRanking is one entry of the service's ranked answer.
type CandidateRanking struct {
	RefereeID     string  `json:"referee_id"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

// RankResponse is the service's ranked answer, best candidate first.
type RankResponse struct {
	Rankings []CandidateRanking
	Model    string
}

// Ranker is implemented by the reasoning-service client. Implementations must
// bound the call with a timeout; the strategy treats any error as the service
// being unavailable.
type Ranker interface {
	RankCandidates(ctx context.Context, req RankRequest) (*RankResponse, error)
}

// ModelAssistedStrategy delegates candidate ranking to an external reasoning
// service. Confidence values are clamped to [0,1] before use. A failed call
// surfaces a StrategyUnavailableError; there is no silent fallback to the
// algorithmic strategy.
type ModelAssistedStrategy struct {
	ranker       Ranker
	contextNotes []string
}

// NewModelAssistedStrategy builds the strategy around a reasoning-service
// client and the free-text context notes supplied for this run.
func NewModelAssistedStrategy(ranker Ranker, contextNotes []string) *ModelAssistedStrategy {
	return &ModelAssistedStrategy{ranker: ranker, contextNotes: contextNotes}
}

func (s *ModelAssistedStrategy) Name() model.StrategyType {
	return model.StrategyModelAssisted
}

// Rank asks the service to order the candidates. Candidates the service
// omits are appended after the ranked ones with a zero score rather than
// dropped, so allocation bounds still hold.
func (s *ModelAssistedStrategy) Rank(ctx context.Context, game model.Game, candidates []model.Referee, rule model.Rule) ([]ScoredCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	params := rule.Model
	if params == nil {
		return nil, fmt.Errorf("%w: model parameters missing", ErrUnknownStrategy)
	}

	resp, err := s.ranker.RankCandidates(ctx, RankRequest{
		Game:         game,
		Candidates:   candidates,
		Model:        params.Model,
		Temperature:  params.Temperature,
		Prompt:       params.ContextPrompt,
		ContextNotes: s.contextNotes,
	})
	if err != nil {
		return nil, &StrategyUnavailableError{Strategy: model.StrategyModelAssisted, Err: err}
	}

	byID := make(map[string]model.Referee, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	ranked := make([]ScoredCandidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, r := range resp.Rankings {
		ref, ok := byID[r.RefereeID]
		if !ok || seen[r.RefereeID] {
			// The service invented or repeated an ID; ignore the entry.
			continue
		}
		seen[r.RefereeID] = true
		ranked = append(ranked, ScoredCandidate{
			Referee:       ref,
			Score:         clamp01(r.Confidence),
			Justification: r.Justification,
		})
	}

	for _, c := range candidates {
		if !seen[c.ID] {
			ranked = append(ranked, ScoredCandidate{
				Referee:       c,
				Score:         0,
				Justification: "not ranked by model",
			})
		}
	}

	return ranked, nil
}
