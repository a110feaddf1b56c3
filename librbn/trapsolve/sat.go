package trapsolve

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

const (
	defaultMaxArity = 12
	defaultMaxImps  = 1 << 14
)

// SatSolver computes minimal trap spaces natively with a SAT backend.
//
// The encoding follows the prime-implicant characterization: an atom per
// node and polarity asserts that the node is fixed to that value, and an
// atom may hold only if some prime implicant of its rule (at that value)
// has all of its literals' atoms held too. Consistent closed atom sets are
// exactly trap spaces, larger atom sets are smaller spaces, and the
// set-maximal models are the minimal trap spaces. Models are grown to
// maximality one forced atom at a time, then blocked and re-solved until
// the formula runs dry.
type SatSolver struct {
	MaxArity  int // widest translatable rule; 0 means 12
	MaxImps   int // prime implicant cap per rule and polarity; 0 means 1<<14
	MaxSpaces int // solution cap; 0 means gorbn.DefaultLimits.MaxSpaces
}

// atoms t(v,1) are vars 1..n, atoms t(v,0) are vars n+1..2n.
func atomVar(n, v int, c byte) int {
	if c == 1 {
		return v + 1
	}
	return n + v + 1
}

type tsEncoding struct {
	n       int
	clauses [][]int
	nextVar int
}

func encode(net *librbn.Net, maxArity, maxImps int) (*tsEncoding, error) {
	n := net.NodeCount()
	enc := &tsEncoding{
		n:       n,
		nextVar: 2 * n,
	}

	for v := 0; v < n; v++ {
		rule := net.NodeRule(v)
		if int(rule.K) > maxArity {
			return nil, errors.Wrapf(gorbn.ErrTranslate, "node %d rule has %d parents (solver cap %d)", v, rule.K, maxArity)
		}
		ps := net.Parents(v)

		for _, c := range []byte{1, 0} {
			primes, err := primeImplicants(rule, c, maxImps)
			if err != nil {
				return nil, errors.WithMessagef(err, "node %d", v)
			}
			atom := atomVar(n, v, c)

			// The rule can never be constantly c, so no space fixes it.
			if len(primes) == 0 {
				enc.clauses = append(enc.clauses, []int{-atom})
				continue
			}

			support := []int{-atom}
			for _, p := range primes {
				if p.mask == 0 {
					// Constantly c everywhere: the atom needs no support.
					support = nil
					break
				}
				enc.nextVar++
				sel := enc.nextVar
				support = append(support, sel)
				for j, parent := range ps {
					if p.mask>>j&1 == 1 {
						d := byte(p.values >> j & 1)
						enc.clauses = append(enc.clauses, []int{-sel, atomVar(n, int(parent), d)})
					}
				}
			}
			if support != nil {
				enc.clauses = append(enc.clauses, support)
			}
		}

		enc.clauses = append(enc.clauses, []int{-atomVar(n, v, 1), -atomVar(n, v, 0)})
	}

	return enc, nil
}

func (ss *SatSolver) MinTrapSpaces(ctx context.Context, ruleText []byte) ([]gorbn.TrapSpace, error) {
	maxArity := ss.MaxArity
	if maxArity <= 0 {
		maxArity = defaultMaxArity
	}
	maxImps := ss.MaxImps
	if maxImps <= 0 {
		maxImps = defaultMaxImps
	}
	maxSpaces := ss.MaxSpaces
	if maxSpaces <= 0 {
		maxSpaces = gorbn.DefaultLimits.MaxSpaces
	}

	net, err := librbn.ParseRules(ruleText)
	if err != nil {
		return nil, errors.Wrapf(gorbn.ErrTranslate, "%v", err)
	}
	enc, err := encode(net, maxArity, maxImps)
	if err != nil {
		return nil, err
	}

	n := enc.n
	atomCount := 2 * n
	base := enc.clauses

	var spaces []gorbn.TrapSpace
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		model, sat, err := solveCNF(base)
		if err != nil {
			return nil, err
		}
		if !sat {
			break
		}

		// Grow the model's atom set until no further atom fits.
		M := atomBits(model, atomCount)
		for {
			added := false
			for a := 1; a <= atomCount; a++ {
				if M>>(a-1)&1 == 1 {
					continue
				}
				if opposed(M, n, a) {
					continue
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				test := base[:len(base):len(base)]
				for b := 1; b <= atomCount; b++ {
					if M>>(b-1)&1 == 1 {
						test = append(test, []int{b})
					}
				}
				test = append(test, []int{a})

				m2, sat2, err := solveCNF(test)
				if err != nil {
					return nil, err
				}
				if sat2 {
					M = atomBits(m2, atomCount)
					added = true
				}
			}
			if !added {
				break
			}
		}

		spaces = append(spaces, spaceOf(M, n))
		if len(spaces) > maxSpaces {
			return nil, errors.Wrapf(gorbn.ErrResourceLimit, "more than %d minimal trap spaces", maxSpaces)
		}

		// Block M and with it every subset: any further model must hold
		// an atom outside M. Atoms number at most n of 2n, so the clause
		// is never empty.
		var block []int
		for a := 1; a <= atomCount; a++ {
			if M>>(a-1)&1 == 0 {
				block = append(block, a)
			}
		}
		base = append(base, block)
	}

	return spaces, nil
}

// opposed reports whether atom a's node already holds the other polarity in M.
func opposed(M uint64, n, a int) bool {
	var other int
	if a <= n {
		other = a + n
	} else {
		other = a - n
	}
	return M>>(other-1)&1 == 1
}

// atomBits packs the model's atom assignments; model is 0-indexed (var 1 first).
func atomBits(model []bool, atomCount int) uint64 {
	var M uint64
	for a := 1; a <= atomCount; a++ {
		if model[a-1] {
			M |= 1 << (a - 1)
		}
	}
	return M
}

func spaceOf(M uint64, n int) gorbn.TrapSpace {
	ts := make(gorbn.TrapSpace, n)
	for v := 0; v < n; v++ {
		switch {
		case M>>v&1 == 1:
			ts[v] = 1
		case M>>(n+v)&1 == 1:
			ts[v] = 0
		default:
			ts[v] = gorbn.FreeVar
		}
	}
	return ts
}

func solveCNF(clauses [][]int) ([]bool, bool, error) {
	pb := solver.ParseSlice(clauses)
	s := solver.New(pb)
	switch s.Solve() {
	case solver.Sat:
		return s.Model(), true, nil
	case solver.Unsat:
		return nil, false, nil
	}
	return nil, false, errors.Wrap(gorbn.ErrSolver, "sat backend gave up")
}
