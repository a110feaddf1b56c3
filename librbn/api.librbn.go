package librbn

import (
	"github.com/rbnsystems/gorbn"
)

var (
	LibVersion = "v1.2026.1"
)

// Traj is one sampled trajectory: an ordered run of states, initial state first.
type Traj []gorbn.State

// ScoredTraj is a trajectory with its transient / attractor split attached.
type ScoredTraj struct {
	Traj      Traj
	Transient float64
	InAttr    float64
}

// OnTrajHit is a callback channel used to return sampled trajectories.
// Ownership of a Traj travels through the channel.
type OnTrajHit chan<- Traj

// SigSet accumulates canonical byte signatures, dropping duplicates.
type SigSet interface {

	// Tries to add the given signature to this set.
	// If true is returned, the signature did not exist and was added.
	TryAdd(sig []byte) bool

	// Count returns the number of distinct signatures added so far.
	Count() int64

	Close()
}
