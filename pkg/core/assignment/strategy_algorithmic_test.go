package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncedsports/refassign/pkg/core/model"
)

func algorithmicRule(weights model.AlgorithmicParams, criteria model.Criteria) model.Rule {
	return model.Rule{
		ID:          "rule-1",
		Strategy:    model.StrategyAlgorithmic,
		Algorithmic: &weights,
		Criteria:    criteria,
	}
}

func TestAlgorithmicRank_DistanceDominates(t *testing.T) {
	// Weights 40/30/20/10 over three identical referees at 5, 15, and 30 km
	// with a 30 km ceiling: distance sub-scores 0.83, 0.50, 0.00 order the
	// nearest first.
	rule := algorithmicRule(
		model.AlgorithmicParams{DistanceWeight: 40, SkillWeight: 30, ExperienceWeight: 20, PartnerWeight: 10},
		model.Criteria{MaxDistanceKm: 30},
	)
	candidates := []model.Referee{
		{ID: "far", Available: true, Level: model.LevelSenior, YearsExperience: 5, DistanceKm: 30},
		{ID: "near", Available: true, Level: model.LevelSenior, YearsExperience: 5, DistanceKm: 5},
		{ID: "mid", Available: true, Level: model.LevelSenior, YearsExperience: 5, DistanceKm: 15},
	}

	strategy := NewAlgorithmicStrategy(nil)
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "near", ranked[0].Referee.ID)
	assert.Equal(t, "mid", ranked[1].Referee.ID)
	assert.Equal(t, "far", ranked[2].Referee.ID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Greater(t, ranked[1].Score, ranked[2].Score)
}

func TestAlgorithmicRank_ScoresStayInUnitInterval(t *testing.T) {
	rule := algorithmicRule(
		model.AlgorithmicParams{DistanceWeight: 40, SkillWeight: 30, ExperienceWeight: 20, PartnerWeight: 10},
		model.Criteria{MaxDistanceKm: 20},
	)
	candidates := []model.Referee{
		{ID: "r1", Available: true, Level: model.LevelElite, YearsExperience: 30, DistanceKm: 0},
		{ID: "r2", Available: true, Level: model.LevelRookie, YearsExperience: 0, DistanceKm: 100},
	}

	strategy := NewAlgorithmicStrategy(nil)
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1", Level: model.LevelSenior}, candidates, rule)
	require.NoError(t, err)

	for _, c := range ranked {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
		assert.NotEmpty(t, c.Justification)
	}
}

func TestAlgorithmicRank_Deterministic(t *testing.T) {
	rule := algorithmicRule(
		model.AlgorithmicParams{DistanceWeight: 25, SkillWeight: 25, ExperienceWeight: 25, PartnerWeight: 25},
		model.Criteria{MaxDistanceKm: 40},
	)
	candidates := []model.Referee{
		{ID: "r1", Available: true, Level: model.LevelJunior, YearsExperience: 2, DistanceKm: 12},
		{ID: "r2", Available: true, Level: model.LevelSenior, YearsExperience: 8, DistanceKm: 25},
		{ID: "r3", Available: true, Level: model.LevelElite, YearsExperience: 15, DistanceKm: 38},
	}

	strategy := NewAlgorithmicStrategy(nil)
	first, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAlgorithmicRank_PreferredPartnerLiftsCandidate(t *testing.T) {
	rule := algorithmicRule(
		model.AlgorithmicParams{DistanceWeight: 50, PartnerWeight: 50},
		model.Criteria{MaxDistanceKm: 10},
	)
	candidates := []model.Referee{
		{ID: "anchor", Available: true, Level: model.LevelSenior, DistanceKm: 0},
		{ID: "buddy", Available: true, Level: model.LevelSenior, DistanceKm: 10},
		{ID: "other", Available: true, Level: model.LevelSenior, DistanceKm: 10},
	}
	prefs := []model.PartnerPreference{
		{RuleID: "rule-1", Referee1ID: "anchor", Referee2ID: "buddy", Type: model.PreferencePreferred},
	}

	strategy := NewAlgorithmicStrategy(prefs)
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// anchor wins on distance; once picked, its preference pulls buddy ahead
	assert.Equal(t, "anchor", ranked[0].Referee.ID)
	assert.Equal(t, "buddy", ranked[1].Referee.ID)
	assert.Equal(t, "other", ranked[2].Referee.ID)
	assert.Contains(t, ranked[1].Justification, "preferred partner of anchor")
}

func TestAlgorithmicRank_AvoidPreferencePushesCandidateBack(t *testing.T) {
	rule := algorithmicRule(
		model.AlgorithmicParams{DistanceWeight: 50, PartnerWeight: 50},
		model.Criteria{MaxDistanceKm: 10},
	)
	candidates := []model.Referee{
		{ID: "anchor", Available: true, Level: model.LevelSenior, DistanceKm: 0},
		{ID: "rival", Available: true, Level: model.LevelSenior, DistanceKm: 8},
		{ID: "other", Available: true, Level: model.LevelSenior, DistanceKm: 9},
	}
	prefs := []model.PartnerPreference{
		{RuleID: "rule-1", Referee1ID: "anchor", Referee2ID: "rival", Type: model.PreferenceAvoid},
	}

	strategy := NewAlgorithmicStrategy(prefs)
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// rival is nearer than other but the avoid preference outweighs that
	assert.Equal(t, "anchor", ranked[0].Referee.ID)
	assert.Equal(t, "other", ranked[1].Referee.ID)
	assert.Equal(t, "rival", ranked[2].Referee.ID)
}

func TestAlgorithmicRank_TieBreakDistanceThenExperience(t *testing.T) {
	// Zero weights make every score 0, leaving only the tie-break order
	rule := algorithmicRule(model.AlgorithmicParams{}, model.Criteria{})
	candidates := []model.Referee{
		{ID: "far-seasoned", Available: true, Level: model.LevelSenior, YearsExperience: 12, DistanceKm: 20},
		{ID: "near-rookie", Available: true, Level: model.LevelSenior, YearsExperience: 1, DistanceKm: 5},
	}

	strategy := NewAlgorithmicStrategy(nil)
	ranked, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)
	assert.Equal(t, "near-rookie", ranked[0].Referee.ID)

	// Prioritizing experience swaps the order
	rule.Criteria.PrioritizeExperience = true
	ranked, err = strategy.Rank(context.Background(), model.Game{ID: "g1"}, candidates, rule)
	require.NoError(t, err)
	assert.Equal(t, "far-seasoned", ranked[0].Referee.ID)
}

func TestAlgorithmicRank_MissingParams(t *testing.T) {
	rule := model.Rule{ID: "rule-1", Strategy: model.StrategyAlgorithmic}
	strategy := NewAlgorithmicStrategy(nil)
	_, err := strategy.Rank(context.Background(), model.Game{ID: "g1"}, []model.Referee{{ID: "r1"}}, rule)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestDistanceScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceScore(0, 30), 0.001)
	assert.InDelta(t, 0.5, distanceScore(15, 30), 0.001)
	assert.InDelta(t, 0.0, distanceScore(30, 30), 0.001)
	assert.InDelta(t, 0.0, distanceScore(45, 30), 0.001) // beyond the ceiling floors at 0

	// No ceiling means distance does not differentiate
	assert.InDelta(t, 1.0, distanceScore(100, 0), 0.001)
}

func TestSkillScore(t *testing.T) {
	// Against a senior game: rookie 1/3, senior 3/3, elite capped at 1
	assert.InDelta(t, 1.0/3.0, skillScore(model.LevelRookie, model.LevelSenior, ""), 0.001)
	assert.InDelta(t, 1.0, skillScore(model.LevelSenior, model.LevelSenior, ""), 0.001)
	assert.InDelta(t, 1.0, skillScore(model.LevelElite, model.LevelSenior, ""), 0.001)

	// Falls back to the rule's minimum level when the game carries none
	assert.InDelta(t, 0.5, skillScore(model.LevelRookie, "", model.LevelJunior), 0.001)

	// No requirement at all: everyone scores full
	assert.InDelta(t, 1.0, skillScore(model.LevelRookie, "", ""), 0.001)
}

func TestExperienceScore(t *testing.T) {
	assert.InDelta(t, 0.0, experienceScore(0), 0.001)
	assert.InDelta(t, 0.5, experienceScore(5), 0.001)
	assert.InDelta(t, 1.0, experienceScore(10), 0.001)
	assert.InDelta(t, 1.0, experienceScore(25), 0.001) // saturates
}
