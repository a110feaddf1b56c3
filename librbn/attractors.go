package librbn

import (
	"context"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// visitRec tags a state with the walk that first reached it and at what depth.
// Walk IDs start at 1, so the zero value means unvisited.
type visitRec struct {
	walk  int32
	depth int32
}

// SyncAttractors finds every synchronous attractor of net by exhaustive
// search: each of the 2^n states is walked forward until it meets a state
// already seen. A hit inside the current walk closes a new cycle at the
// depth the state was first recorded; a hit on an earlier walk means this
// walk drains into a basin whose cycle is already recorded, so nothing is
// emitted for it.
//
// The walk touches every reachable transition once, so the search is O(2^n)
// in both time and memory. lim.MaxStates caps the number of distinct states
// visited; the ctx cancels long searches.
func SyncAttractors(ctx context.Context, net *Net, lim gorbn.Limits) ([]gorbn.Attractor, error) {
	if net == nil {
		return nil, gorbn.ErrNilNet
	}
	lim = lim.Bounded()

	stateCount := net.StateCount()
	recs := make([]visitRec, stateCount)

	uniques := redblacktree.Tree{
		Comparator: func(A, B interface{}) int {
			return gorbn.CompareAttractors(A.(gorbn.Attractor), B.(gorbn.Attractor))
		},
	}

	var (
		path    []gorbn.State
		visited int64
		walkID  int32
	)

	for init := int64(0); init < stateCount; init++ {
		if recs[init].walk != 0 {
			continue
		}
		if walkID&0x3FF == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		walkID++
		path = path[:0]

		s := gorbn.State(init)
		for {
			rec := recs[s]
			if rec.walk == walkID {
				attr := gorbn.NewAttractor(path[rec.depth:])
				if _, found := uniques.Get(attr); !found {
					uniques.Put(attr, nil)
				}
				break
			}
			if rec.walk != 0 {
				break
			}

			if visited++; visited > lim.MaxStates {
				return nil, errors.Wrapf(gorbn.ErrResourceLimit, "sync attractor search passed %d states", lim.MaxStates)
			}
			recs[s] = visitRec{
				walk:  walkID,
				depth: int32(len(path)),
			}
			path = append(path, s)
			s = StepSync(net, s)
		}
	}

	attrs := make([]gorbn.Attractor, 0, uniques.Size())
	itr := uniques.Iterator()
	for itr.Next() {
		attrs = append(attrs, itr.Key().(gorbn.Attractor))
	}
	return attrs, nil
}

// FixedPoints filters attrs down to the single-state attractors.
func FixedPoints(attrs []gorbn.Attractor) []gorbn.Attractor {
	var pts []gorbn.Attractor
	for _, attr := range attrs {
		if len(attr) == 1 {
			pts = append(pts, attr)
		}
	}
	return pts
}
