package assignment

import "github.com/syncedsports/refassign/pkg/core/model"

// EligibleReferee reports whether a referee satisfies the rule's hard
// constraints for a game: marked available, within the distance ceiling, and
// at or above the minimum level. Soft preferences belong to scoring, not here.
func EligibleReferee(ref model.Referee, criteria model.Criteria) bool {
	if !ref.Available {
		return false
	}
	if criteria.MaxDistanceKm > 0 && ref.DistanceKm > criteria.MaxDistanceKm {
		return false
	}
	return ref.Level.AtLeast(criteria.MinRefereeLevel)
}

// FilterCandidates narrows the referee pool to those eligible under the
// rule's hard constraints.
func FilterCandidates(pool []model.Referee, criteria model.Criteria) []model.Referee {
	eligible := make([]model.Referee, 0, len(pool))
	for _, ref := range pool {
		if EligibleReferee(ref, criteria) {
			eligible = append(eligible, ref)
		}
	}
	return eligible
}
