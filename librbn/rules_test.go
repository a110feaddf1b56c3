package librbn

import (
	"math/rand"
	"testing"
)

var gT *testing.T

func TestExprEvalForm(t *testing.T) {
	gT = t

	// !(s0 & s1 | s2)
	fn := Not(Or(And(Arg(0), Arg(1)), Arg(2)))
	checkForm(fn, "!(s0 & s1 | s2)")

	table := []struct {
		args []byte
		want byte
	}{
		{[]byte{0, 0, 0}, 1},
		{[]byte{1, 0, 0}, 1},
		{[]byte{1, 1, 0}, 0},
		{[]byte{0, 0, 1}, 0},
		{[]byte{1, 1, 1}, 0},
	}
	for _, row := range table {
		if got := fn.Eval(row.args); got != row.want {
			t.Fatalf("Eval(%v): got %d, want %d", row.args, got, row.want)
		}
	}

	// AND binds tighter than OR, so only the OR side needs parens.
	checkForm(And(Or(Arg(0), Arg(1)), Arg(2)), "(s0 | s1) & s2")
	checkForm(Or(Arg(0), And(Arg(1), Arg(2))), "s0 | s1 & s2")
	checkForm(And(Not(Arg(0)), Not(Arg(1))), "!s0 & !s1")
	checkForm(Con(1), "1")
	checkForm(Con(0), "0")

	// Right operands at equal precedence keep their parens so the
	// rendered form folds back left to right.
	checkForm(And(Arg(0), And(Arg(1), Arg(2))), "s0 & (s1 & s2)")
}

func checkForm(fn *Expr, want string) {
	got := string(fn.AppendForm(nil, nil))
	if got != want {
		gT.Fatalf("AppendForm: got %q, want %q", got, want)
	}
}

func TestRandRule(t *testing.T) {
	gT = t

	rng := rand.New(rand.NewSource(1))
	for k := 0; k <= 8; k++ {
		rule := RandRule(rng, k)
		if rule.K != int32(k) {
			t.Fatalf("RandRule(%d): K = %d", k, rule.K)
		}
		want := int32(k) - 1
		if got := rule.Fn.MaxSlot(); got != want {
			t.Fatalf("RandRule(%d): MaxSlot = %d, want %d", k, got, want)
		}
	}

	// Constant rules ignore their (empty) argument list.
	for i := 0; i < 16; i++ {
		rule := RandRule(rng, 0)
		v := rule.Eval(nil)
		if v != 0 && v != 1 {
			t.Fatalf("constant rule evaluated to %d", v)
		}
	}

	// The draw sequence is fixed, so one seed means one rule.
	r1 := RandRule(rand.New(rand.NewSource(77)), 5)
	r2 := RandRule(rand.New(rand.NewSource(77)), 5)
	if r1.Form() != r2.Form() {
		t.Fatalf("seeded rules differ:\n    %s\n    %s", r1.Form(), r2.Form())
	}
}
