package librbn

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// StepSync advances one synchronous step: every node is recomputed from the
// pre-step state. Zero-parent rules are constant but still applied every
// step, so a constant node converges to its rule's value after one step
// regardless of its initial bit.
func StepSync(net *Net, s gorbn.State) gorbn.State {
	var args [gorbn.MaxNodes]byte

	next := s
	for i := 0; i < net.NodeCount(); i++ {
		ps := net.parents[i]
		for j, p := range ps {
			args[j] = s.Bit(int(p))
		}
		next = next.SetBit(i, net.rules[i].Eval(args[:len(ps)]))
	}
	return next
}

// StepAsync advances one asynchronous step: one node chosen uniformly from
// all n is recomputed from the pre-step state. A parentless pick leaves the
// state unchanged. At most one bit changes per call.
func StepAsync(rng *rand.Rand, net *Net, s gorbn.State) gorbn.State {
	var args [gorbn.MaxNodes]byte

	i := rng.Intn(net.NodeCount())
	ps := net.parents[i]
	if len(ps) == 0 {
		return s
	}
	for j, p := range ps {
		args[j] = s.Bit(int(p))
	}
	return s.SetBit(i, net.rules[i].Eval(args[:len(ps)]))
}

// RandState draws a uniform random state: each node an independent fair bit.
func RandState(rng *rand.Rand, nodeCount int) gorbn.State {
	var s gorbn.State
	for i := 0; i < nodeCount; i++ {
		if rng.Intn(2) == 1 {
			s |= 1 << i
		}
	}
	return s
}

// Simulate produces one trajectory: a random initial state followed by
// `steps` updates under the given discipline, steps+1 states in all.
func Simulate(rng *rand.Rand, net *Net, steps int, d gorbn.Discipline) (Traj, error) {
	if steps < 0 {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "steps must be >= 0 (got %d)", steps)
	}
	if d != gorbn.SyncUpdate && d != gorbn.AsyncUpdate {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "unknown discipline %d", d)
	}

	s := RandState(rng, net.NodeCount())
	traj := make(Traj, 0, steps+1)
	traj = append(traj, s)

	for t := 0; t < steps; t++ {
		if d == gorbn.SyncUpdate {
			s = StepSync(net, s)
		} else {
			s = StepAsync(rng, net, s)
		}
		traj = append(traj, s)
	}
	return traj, nil
}

// SampleTraj runs (count-1)*stride raw steps and keeps every stride-th
// state, yielding exactly count states (the initial state included).
func SampleTraj(rng *rand.Rand, net *Net, count, stride int, d gorbn.Discipline) (Traj, error) {
	if count < 1 {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "sample count must be >= 1 (got %d)", count)
	}
	if stride < 1 {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "stride must be >= 1 (got %d)", stride)
	}

	raw, err := Simulate(rng, net, (count-1)*stride, d)
	if err != nil {
		return nil, err
	}

	traj := make(Traj, 0, count)
	for t := 0; t < len(raw); t += stride {
		traj = append(traj, raw[t])
	}
	return traj, nil
}
