package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// fakeRanker implements Ranker for testing
type fakeRanker struct {
	resp    *RankResponse
	err     error
	lastReq RankRequest
}

func (f *fakeRanker) RankCandidates(ctx context.Context, req RankRequest) (*RankResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func modelRule() model.Rule {
	return model.Rule{
		ID:       "rule-1",
		Strategy: model.StrategyModelAssisted,
		Model: &model.ModelParams{
			Model:         "gpt-4o-mini",
			Temperature:   0.2,
			ContextPrompt: "Prefer senior referees for finals.",
		},
	}
}

func TestModelAssistedRank_OrdersByServiceAnswer(t *testing.T) {
	ranker := &fakeRanker{resp: &RankResponse{
		Rankings: []CandidateRanking{
			{RefereeID: "r2", Confidence: 0.9, Justification: "strongest fit"},
			{RefereeID: "r1", Confidence: 0.4, Justification: "acceptable"},
		},
		Model: "gpt-4o-mini",
	}}
	strategy := NewModelAssistedStrategy(ranker, []string{"cup final weekend"})

	candidates := []model.Referee{
		{ID: "r1", Available: true, Level: model.LevelSenior},
		{ID: "r2", Available: true, Level: model.LevelElite},
	}
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, modelRule())
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "r2", ranked[0].Referee.ID)
	assert.Equal(t, 0.9, ranked[0].Score)
	assert.Equal(t, "strongest fit", ranked[0].Justification)
	assert.Equal(t, "r1", ranked[1].Referee.ID)

	// The rule's parameters and the run's notes reach the service
	assert.Equal(t, "gpt-4o-mini", ranker.lastReq.Model)
	assert.Equal(t, 0.2, ranker.lastReq.Temperature)
	assert.Equal(t, "Prefer senior referees for finals.", ranker.lastReq.Prompt)
	assert.Equal(t, []string{"cup final weekend"}, ranker.lastReq.ContextNotes)
}

func TestModelAssistedRank_ClampsConfidence(t *testing.T) {
	ranker := &fakeRanker{resp: &RankResponse{
		Rankings: []CandidateRanking{
			{RefereeID: "r1", Confidence: 1.7},
			{RefereeID: "r2", Confidence: -0.3},
		},
	}}
	strategy := NewModelAssistedStrategy(ranker, nil)

	candidates := []model.Referee{{ID: "r1"}, {ID: "r2"}}
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, modelRule())
	require.NoError(t, err)

	assert.Equal(t, 1.0, ranked[0].Score)
	assert.Equal(t, 0.0, ranked[1].Score)
}

func TestModelAssistedRank_IgnoresInventedAndDuplicateIDs(t *testing.T) {
	ranker := &fakeRanker{resp: &RankResponse{
		Rankings: []CandidateRanking{
			{RefereeID: "ghost", Confidence: 0.99},
			{RefereeID: "r1", Confidence: 0.8},
			{RefereeID: "r1", Confidence: 0.1},
		},
	}}
	strategy := NewModelAssistedStrategy(ranker, nil)

	candidates := []model.Referee{{ID: "r1"}}
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, modelRule())
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "r1", ranked[0].Referee.ID)
	assert.Equal(t, 0.8, ranked[0].Score)
}

func TestModelAssistedRank_AppendsUnrankedCandidates(t *testing.T) {
	ranker := &fakeRanker{resp: &RankResponse{
		Rankings: []CandidateRanking{{RefereeID: "r1", Confidence: 0.7}},
	}}
	strategy := NewModelAssistedStrategy(ranker, nil)

	candidates := []model.Referee{{ID: "r1"}, {ID: "r2"}}
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, modelRule())
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "r2", ranked[1].Referee.ID)
	assert.Equal(t, 0.0, ranked[1].Score)
	assert.Equal(t, "not ranked by model", ranked[1].Justification)
}

func TestModelAssistedRank_ServiceErrorIsStrategyUnavailable(t *testing.T) {
	ranker := &fakeRanker{err: errors.New("connection refused")}
	strategy := NewModelAssistedStrategy(ranker, nil)

	_, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, []model.Referee{{ID: "r1"}}, modelRule())

	var unavailable *StrategyUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, model.StrategyModelAssisted, unavailable.Strategy)
	assert.ErrorContains(t, err, "connection refused")
}

func TestModelAssistedRank_NoCandidatesSkipsService(t *testing.T) {
	ranker := &fakeRanker{err: errors.New("should not be called")}
	strategy := NewModelAssistedStrategy(ranker, nil)

	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, nil, modelRule())
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
