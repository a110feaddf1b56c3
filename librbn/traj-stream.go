package librbn

import (
	"math/rand"

	"github.com/rbnsystems/gorbn"
)

// TrajStream is a one-shot pipe of sampled trajectories.
// Stages set up a goroutine that pulls from the stage's inlet and push to Outlet.
type TrajStream struct {
	Outlet chan Traj
}

func NewTrajStream() *TrajStream {
	stream := &TrajStream{
		Outlet: make(chan Traj),
	}
	return stream
}

// StreamTrajs streams the given trajectories in order.
func StreamTrajs(trajs []Traj) *TrajStream {
	next := NewTrajStream()

	go func() {
		for _, traj := range trajs {
			next.Outlet <- traj
		}
		next.Close()
	}()

	return next
}

// GenTrajs samples ntraj trajectories of net and streams them.
//
// Each trajectory keeps count states, one every stride raw steps, under the
// given update discipline.  Per-trajectory rngs are seeded from rng up front,
// so a stream is reproducible for a given source rng state.
func GenTrajs(rng *rand.Rand, net *Net, count, stride, ntraj int, d gorbn.Discipline) (*TrajStream, error) {
	switch {
	case net == nil:
		return nil, gorbn.ErrNilNet
	case count < 1 || stride < 1 || ntraj < 0:
		return nil, gorbn.ErrBadParam
	case d != gorbn.SyncUpdate && d != gorbn.AsyncUpdate:
		return nil, gorbn.ErrBadParam
	}

	seeds := make([]int64, ntraj)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	next := &TrajStream{
		Outlet: make(chan Traj, 1),
	}

	go func() {
		for _, seed := range seeds {
			trajRng := rand.New(rand.NewSource(seed))
			traj, err := SampleTraj(trajRng, net, count, stride, d)
			if err != nil {
				panic(err)
			}
			next.Outlet <- traj
		}
		next.Close()
	}()

	return next, nil
}

func (stream *TrajStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *TrajStream) PushTraj(traj Traj) {
	stream.Outlet <- traj
}

func (stream *TrajStream) PullTraj() Traj {
	traj := <-stream.Outlet
	return traj
}

func (stream *TrajStream) PullAll() int {
	count := int(0)
	for range stream.Outlet {
		count++
	}
	return count
}

// ScoredStream is a TrajStream whose trajectories carry their proportion split.
type ScoredStream struct {
	Outlet chan ScoredTraj
}

func (stream *ScoredStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *ScoredStream) PullScored() ScoredTraj {
	scored := <-stream.Outlet
	return scored
}

// Score attaches the transient / attractor proportions of each trajectory
// against the given attractor set.  attrs is shared read-only.
func (stream *TrajStream) Score(attrs []gorbn.Attractor) *ScoredStream {
	next := &ScoredStream{
		Outlet: make(chan ScoredTraj, 1),
	}

	go func() {
		for traj := range stream.Outlet {
			next.Outlet <- Score(traj, attrs)
		}
		next.Close()
	}()

	return next
}

type AddSigOpts struct {
	AutoCloseSet bool
}

// DropDupes forwards only trajectories whose signature has not been seen by set.
func (stream *TrajStream) DropDupes(set SigSet, opts AddSigOpts) *TrajStream {
	next := &TrajStream{
		Outlet: make(chan Traj, 1),
	}

	go func() {
		var keyBuf [512]byte
		for traj := range stream.Outlet {
			sig := traj.AppendSig(keyBuf[:0])
			if set.TryAdd(sig) {
				next.Outlet <- traj
			}
		}
		if opts.AutoCloseSet {
			set.Close()
		}
		next.Close()
	}()

	return next
}
