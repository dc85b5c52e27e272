package assignment

import (
	"context"
	"fmt"
	"strings"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// experienceCeilingYears is the experience at which the experience sub-score
// saturates at 1.0.
const experienceCeilingYears = 10.0

// AlgorithmicStrategy is the deterministic weighted-scoring strategy. The
// score of a candidate is a convex combination of four normalized sub-scores
// (distance, skill, experience, partner preference) weighted by the rule's
// weights, clamped to [0,1].
//
// Partner preferences only take effect once a referee is already picked for
// the game, so the ranked list is built greedily: the best base-scored
// candidate first, then the remainder rescored with partner nudges relative
// to the picks so far. The returned order is therefore the allocation order.
type AlgorithmicStrategy struct {
	prefs map[string]model.PreferenceType // keyed referee1ID|referee2ID (directed)
}

// NewAlgorithmicStrategy builds the strategy over a rule's partner preferences.
func NewAlgorithmicStrategy(prefs []model.PartnerPreference) *AlgorithmicStrategy {
	byPair := make(map[string]model.PreferenceType, len(prefs))
	for _, p := range prefs {
		byPair[p.Referee1ID+"|"+p.Referee2ID] = p.Type
	}
	return &AlgorithmicStrategy{prefs: byPair}
}

func (s *AlgorithmicStrategy) Name() model.StrategyType {
	return model.StrategyAlgorithmic
}

// Rank orders candidates by weighted score, descending. Ties break on lower
// distance then higher experience, or the reverse when the rule prioritizes
// experience.
func (s *AlgorithmicStrategy) Rank(ctx context.Context, game model.Game, candidates []model.Referee, rule model.Rule) ([]ScoredCandidate, error) {
	params := rule.Algorithmic
	if params == nil {
		return nil, fmt.Errorf("%w: algorithmic parameters missing", ErrUnknownStrategy)
	}

	wDistance := float64(params.DistanceWeight) / 100
	wSkill := float64(params.SkillWeight) / 100
	wExperience := float64(params.ExperienceWeight) / 100
	wPartner := float64(params.PartnerWeight) / 100

	remaining := make([]model.Referee, len(candidates))
	copy(remaining, candidates)

	ranked := make([]ScoredCandidate, 0, len(candidates))
	picked := make([]model.Referee, 0, len(candidates))

	for len(remaining) > 0 {
		bestIdx := -1
		var best ScoredCandidate
		for i, ref := range remaining {
			sc := s.score(ref, game, rule.Criteria, picked, wDistance, wSkill, wExperience, wPartner)
			if bestIdx < 0 || s.better(sc, best, rule.Criteria.PrioritizeExperience) {
				bestIdx = i
				best = sc
			}
		}
		ranked = append(ranked, best)
		picked = append(picked, best.Referee)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return ranked, nil
}

// score computes a candidate's weighted score and justification, given the
// referees already picked for this game.
func (s *AlgorithmicStrategy) score(ref model.Referee, game model.Game, criteria model.Criteria, picked []model.Referee, wDistance, wSkill, wExperience, wPartner float64) ScoredCandidate {
	distance := distanceScore(ref.DistanceKm, criteria.MaxDistanceKm)
	skill := skillScore(ref.Level, game.Level, criteria.MinRefereeLevel)
	experience := experienceScore(ref.YearsExperience)
	partner, partnerNote := s.partnerNudge(ref, picked)

	total := wDistance*distance + wSkill*skill + wExperience*experience + wPartner*partner
	total = clamp01(total)

	var parts []string
	if c := wDistance * distance; c >= 0.005 {
		parts = append(parts, fmt.Sprintf("distance %.1fkm (+%.2f)", ref.DistanceKm, c))
	}
	if c := wSkill * skill; c >= 0.005 {
		parts = append(parts, fmt.Sprintf("level %s (+%.2f)", ref.Level, c))
	}
	if c := wExperience * experience; c >= 0.005 {
		parts = append(parts, fmt.Sprintf("%dy experience (+%.2f)", ref.YearsExperience, c))
	}
	if c := wPartner * partner; c >= 0.005 || c <= -0.005 {
		parts = append(parts, fmt.Sprintf("%s (%+.2f)", partnerNote, c))
	}
	if len(parts) == 0 {
		parts = append(parts, "no dominant factors")
	}

	return ScoredCandidate{
		Referee:       ref,
		Score:         total,
		Justification: strings.Join(parts, "; "),
	}
}

// partnerNudge sums directed preferences from already-picked referees toward
// the candidate, bounded to [-1,1] before weighting.
func (s *AlgorithmicStrategy) partnerNudge(ref model.Referee, picked []model.Referee) (float64, string) {
	nudge := 0.0
	var note string
	for _, p := range picked {
		switch s.prefs[p.ID+"|"+ref.ID] {
		case model.PreferencePreferred:
			nudge++
			note = fmt.Sprintf("preferred partner of %s", p.ID)
		case model.PreferenceAvoid:
			nudge--
			note = fmt.Sprintf("avoid pairing with %s", p.ID)
		}
	}
	if nudge > 1 {
		nudge = 1
	}
	if nudge < -1 {
		nudge = -1
	}
	return nudge, note
}

// better reports whether a should rank ahead of b.
func (s *AlgorithmicStrategy) better(a, b ScoredCandidate, prioritizeExperience bool) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if prioritizeExperience {
		if a.Referee.YearsExperience != b.Referee.YearsExperience {
			return a.Referee.YearsExperience > b.Referee.YearsExperience
		}
		return a.Referee.DistanceKm < b.Referee.DistanceKm
	}
	if a.Referee.DistanceKm != b.Referee.DistanceKm {
		return a.Referee.DistanceKm < b.Referee.DistanceKm
	}
	return a.Referee.YearsExperience > b.Referee.YearsExperience
}

// distanceScore is 1 at the venue, 0 at or beyond the distance ceiling. With
// no ceiling configured there is nothing to normalize against, so distance
// does not differentiate.
func distanceScore(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 {
		return 1
	}
	score := 1 - distanceKm/maxDistanceKm
	if score < 0 {
		return 0
	}
	return score
}

// skillScore compares the referee's level against the game's level, falling
// back to the rule's minimum level when the game carries none.
func skillScore(level, gameLevel, minLevel model.RefereeLevel) float64 {
	required := gameLevel.Ordinal()
	if required == 0 {
		required = minLevel.Ordinal()
	}
	if required == 0 {
		return 1
	}
	score := float64(level.Ordinal()) / float64(required)
	if score > 1 {
		return 1
	}
	return score
}

func experienceScore(years int) float64 {
	score := float64(years) / experienceCeilingYears
	if score > 1 {
		return 1
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
