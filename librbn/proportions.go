package librbn

import (
	"github.com/rbnsystems/gorbn"
)

// Proportions scores a trajectory against a set of attractors: the fraction
// of its states inside the union of the attractors and the transient
// remainder. The two always sum to 1. With no attractors to land in, the
// whole trajectory counts as transient.
func Proportions(traj Traj, attrs []gorbn.Attractor) (transient, inAttr float64) {
	if len(traj) == 0 {
		return 0, 0
	}
	if len(attrs) == 0 {
		return 1, 0
	}

	hits := 0
	for _, s := range traj {
		for _, attr := range attrs {
			if attr.Contains(s) {
				hits++
				break
			}
		}
	}

	inAttr = float64(hits) / float64(len(traj))
	return 1 - inAttr, inAttr
}

// Score bundles a trajectory with its proportions.
func Score(traj Traj, attrs []gorbn.Attractor) ScoredTraj {
	st := ScoredTraj{Traj: traj}
	st.Transient, st.InAttr = Proportions(traj, attrs)
	return st
}
