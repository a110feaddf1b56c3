package trapsolve

import (
	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

// implicant is a cube over a rule's parent slots: mask selects the slots
// carrying a literal, values gives each selected literal's polarity.
type implicant struct {
	values uint32
	mask   uint32
}

// primeImplicants computes every prime implicant of [rule = c] by
// iterated merging: two cubes equal everywhere but one opposing literal
// fuse into the cube without it, and whatever never fuses is prime.
//
// The truth table has 2^K rows, so rule arity is capped by the caller;
// maxImps caps the merge frontier for pathological rules.
func primeImplicants(rule librbn.Rule, c byte, maxImps int) ([]implicant, error) {
	k := int(rule.K)

	var args [gorbn.MaxNodes]byte
	cur := make([]implicant, 0, 16)
	fullMask := uint32(1)<<k - 1

	for m := uint32(0); m < 1<<k; m++ {
		for j := 0; j < k; j++ {
			args[j] = byte((m >> j) & 1)
		}
		if rule.Eval(args[:k]) == c {
			cur = append(cur, implicant{values: m, mask: fullMask})
		}
	}

	var primes []implicant

	for len(cur) > 0 {
		merged := make([]bool, len(cur))
		var next []implicant

		for i := 0; i < len(cur); i++ {
			for j := i + 1; j < len(cur); j++ {
				if cur[i].mask != cur[j].mask {
					continue
				}
				diff := cur[i].values ^ cur[j].values
				if diff&cur[i].mask == diff && diff != 0 && diff&(diff-1) == 0 {
					fused := implicant{
						values: cur[i].values &^ diff,
						mask:   cur[i].mask &^ diff,
					}
					merged[i] = true
					merged[j] = true
					if !containsImp(next, fused) {
						next = append(next, fused)
					}
				}
			}
		}

		for i, imp := range cur {
			if !merged[i] && !containsImp(primes, imp) {
				primes = append(primes, imp)
			}
		}

		if len(primes)+len(next) > maxImps {
			return nil, errors.Wrapf(gorbn.ErrResourceLimit, "rule expands past %d implicants", maxImps)
		}
		cur = next
	}

	return primes, nil
}

func containsImp(imps []implicant, imp implicant) bool {
	for _, have := range imps {
		if have == imp {
			return true
		}
	}
	return false
}
