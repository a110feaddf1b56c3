package trapsolve

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

func TestPrimeImplicantsOr(t *testing.T) {
	rule := librbn.Rule{K: 2, Fn: librbn.Or(librbn.Arg(0), librbn.Arg(1))}

	pos, err := primeImplicants(rule, 1, 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 2 {
		t.Fatalf("f=1 primes: %v", pos)
	}
	if !containsImp(pos, implicant{values: 1, mask: 1}) || !containsImp(pos, implicant{values: 2, mask: 2}) {
		t.Fatalf("f=1 primes missing a single-literal cube: %v", pos)
	}

	neg, err := primeImplicants(rule, 0, 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	if len(neg) != 1 || neg[0] != (implicant{values: 0, mask: 3}) {
		t.Fatalf("f=0 primes: %v", neg)
	}
}

func TestPrimeImplicantsConstant(t *testing.T) {
	rule := librbn.Rule{K: 0, Fn: librbn.Con(1)}

	pos, err := primeImplicants(rule, 1, 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 1 || pos[0].mask != 0 {
		t.Fatalf("constant-1 primes: %v", pos)
	}

	neg, err := primeImplicants(rule, 0, 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	if len(neg) != 0 {
		t.Fatalf("constant-1 has %v implicants at 0", neg)
	}
}

func TestPrimeImplicantsXorish(t *testing.T) {
	// !s0 & s1 | s0 & !s1 has no mergeable pair: both minterms stay prime.
	rule := librbn.Rule{K: 2, Fn: librbn.Or(
		librbn.And(librbn.Not(librbn.Arg(0)), librbn.Arg(1)),
		librbn.And(librbn.Arg(0), librbn.Not(librbn.Arg(1))))}

	pos, err := primeImplicants(rule, 1, 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 2 {
		t.Fatalf("xor primes: %v", pos)
	}
	for _, p := range pos {
		if p.mask != 3 {
			t.Fatalf("xor prime dropped a literal: %v", p)
		}
	}
}

func TestPrimeImplicantsCap(t *testing.T) {
	rule := librbn.Rule{K: 2, Fn: librbn.Or(librbn.Arg(0), librbn.Arg(1))}
	if _, err := primeImplicants(rule, 1, 1); !errors.Is(err, gorbn.ErrResourceLimit) {
		t.Fatalf("got %v, want ErrResourceLimit", err)
	}
}
