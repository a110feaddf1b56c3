package librbn

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// AsyncAttractors characterizes the asynchronous attractors of net as its
// minimal trap spaces. The net's rules are rendered in canonical v<i> form,
// handed to the solver once, and each returned partial assignment is
// expanded over its free nodes into an explicit state set.
//
// The solver owns minimality and distinctness; only the shape of its answer
// is checked here. An empty answer is a solver fault: the whole state space
// is itself a trap space, so the minimal set can never have zero members.
func AsyncAttractors(ctx context.Context, net *Net, solver gorbn.TrapSolver, lim gorbn.Limits) ([]gorbn.Attractor, error) {
	if net == nil {
		return nil, gorbn.ErrNilNet
	}
	if solver == nil {
		return nil, errors.Wrap(gorbn.ErrBadParam, "no trap solver")
	}
	lim = lim.Bounded()

	spaces, err := solver.MinTrapSpaces(ctx, net.AppendCanonRules(nil))
	if err != nil {
		return nil, solverErr(err)
	}
	if len(spaces) == 0 {
		return nil, errors.Wrap(gorbn.ErrSolver, "solver returned no trap spaces")
	}
	if len(spaces) > lim.MaxSpaces {
		return nil, errors.Wrapf(gorbn.ErrResourceLimit, "solver returned %d trap spaces (cap %d)", len(spaces), lim.MaxSpaces)
	}

	n := net.NodeCount()
	attrs := make([]gorbn.Attractor, 0, len(spaces))

	var expanded int64
	for si, ts := range spaces {
		if err := ts.Validate(n); err != nil {
			return nil, errors.Wrapf(err, "trap space %d of %d", si, len(spaces))
		}

		var free []int
		base := gorbn.State(0)
		for i, vi := range ts {
			if vi == gorbn.FreeVar {
				free = append(free, i)
			} else {
				base = base.SetBit(i, byte(vi))
			}
		}

		count := int64(1) << len(free)
		if expanded += count; expanded > lim.MaxStates {
			return nil, errors.Wrapf(gorbn.ErrResourceLimit, "trap space expansion passed %d states", lim.MaxStates)
		}
		if len(free) >= 12 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		// Free bit positions ascend, so the expansion is already canonical.
		attr := make(gorbn.Attractor, 0, count)
		for m := int64(0); m < count; m++ {
			s := base
			for j, fi := range free {
				s = s.SetBit(fi, byte((m>>j)&1))
			}
			attr = append(attr, s)
		}
		attrs = append(attrs, attr)
	}

	gorbn.SortAttractors(attrs)
	return attrs, nil
}

// solverErr keeps already-classified failures intact and folds anything
// else a foreign solver returns into ErrSolver.
func solverErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorbn.ErrSolver),
		errors.Is(err, gorbn.ErrTranslate),
		errors.Is(err, gorbn.ErrResourceLimit),
		errors.Is(err, gorbn.ErrBadParam):
		return err
	}
	return errors.Wrapf(gorbn.ErrSolver, "%v", err)
}
