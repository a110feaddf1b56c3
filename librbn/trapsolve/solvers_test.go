package trapsolve_test

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
	"github.com/rbnsystems/gorbn/librbn/trapsolve"
)

func minSpaces(t *testing.T, ss gorbn.TrapSolver, ruleText string) []gorbn.TrapSpace {
	t.Helper()
	spaces, err := ss.MinTrapSpaces(context.Background(), []byte(ruleText))
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(spaces, func(i, j int) bool {
		return spaces[i].String() < spaces[j].String()
	})
	return spaces
}

func checkSpaces(t *testing.T, got []gorbn.TrapSpace, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d spaces %v, want %d", len(got), got, len(want))
	}
	for i := range got {
		if got[i].String() != want[i] {
			t.Fatalf("space %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSatSolverMutualActivation(t *testing.T) {
	spaces := minSpaces(t, &trapsolve.SatSolver{}, "v0,   v1\nv1,   v0\n")
	checkSpaces(t, spaces, "{v0=0, v1=0}", "{v0=1, v1=1}")
}

func TestSatSolverNegationLoop(t *testing.T) {
	// The only trap space of a negating loop is the whole space.
	spaces := minSpaces(t, &trapsolve.SatSolver{}, "v0,   !v0\n")
	checkSpaces(t, spaces, "{}")
}

func TestSatSolverConstantSource(t *testing.T) {
	spaces := minSpaces(t, &trapsolve.SatSolver{}, "v0,   1\nv1,   v0\n")
	checkSpaces(t, spaces, "{v0=1, v1=1}")
}

func TestSatSolverInputNode(t *testing.T) {
	// b has no line, so it becomes a held input: each of its values seeds
	// its own minimal trap space.
	spaces := minSpaces(t, &trapsolve.SatSolver{}, "a, b\n")
	checkSpaces(t, spaces, "{v0=0, v1=0}", "{v0=1, v1=1}")
}

func TestSatSolverMixedCircuit(t *testing.T) {
	// v2 negates itself, so it can never be fixed; v0/v1 still lock up.
	spaces := minSpaces(t, &trapsolve.SatSolver{},
		"v0,   v1\nv1,   v0\nv2,   !v2\n")
	checkSpaces(t, spaces, "{v0=0, v1=0}", "{v0=1, v1=1}")
}

func TestSatSolverFaults(t *testing.T) {
	ss := &trapsolve.SatSolver{MaxArity: 2}
	_, err := ss.MinTrapSpaces(context.Background(), []byte("a,   b & c & d\n"))
	if !errors.Is(err, gorbn.ErrTranslate) {
		t.Fatalf("arity cap: got %v", err)
	}

	if _, err = ss.MinTrapSpaces(context.Background(), []byte("a, b &\n")); !errors.Is(err, gorbn.ErrTranslate) {
		t.Fatalf("bad rule text: got %v", err)
	}

	capped := &trapsolve.SatSolver{MaxSpaces: 1}
	if _, err = capped.MinTrapSpaces(context.Background(), []byte("v0,   v1\nv1,   v0\n")); !errors.Is(err, gorbn.ErrResourceLimit) {
		t.Fatalf("space cap: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = (&trapsolve.SatSolver{}).MinTrapSpaces(ctx, []byte("v0,   v1\nv1,   v0\n")); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx: got %v", err)
	}
}

func TestAsyncAttractorsWithSatSolver(t *testing.T) {
	net, err := librbn.ParseRules([]byte("v0,   v1\nv1,   v0\n"))
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := librbn.AsyncAttractors(context.Background(), net, &trapsolve.SatSolver{}, gorbn.Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 2 {
		t.Fatalf("got %d attractors: %v", len(attrs), attrs)
	}
	if len(attrs[0]) != 1 || attrs[0][0] != 0 || len(attrs[1]) != 1 || attrs[1][0] != 3 {
		t.Fatalf("attractors: %v", attrs)
	}

	// Negating loop: the whole 2-state space is the one attractor.
	net, err = librbn.ParseRules([]byte("v0,   !v0\n"))
	if err != nil {
		t.Fatal(err)
	}
	attrs, err = librbn.AsyncAttractors(context.Background(), net, &trapsolve.SatSolver{}, gorbn.Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 1 || len(attrs[0]) != 2 {
		t.Fatalf("attractors: %v", attrs)
	}
}

func needSh(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
}

func TestExecSolver(t *testing.T) {
	needSh(t)

	xs := &trapsolve.ExecSolver{Args: []string{
		"/bin/sh", "-c", `cat >/dev/null; printf '%s\n' '{"v0":1,"v1":1}' '{}'`,
	}}
	spaces := minSpaces(t, xs, "v0,   v1\nv1,   v0\n")
	checkSpaces(t, spaces, "{v0=1, v1=1}", "{}")
}

func TestExecSolverFaults(t *testing.T) {
	needSh(t)
	ruleText := []byte("v0,   v1\nv1,   v0\n")

	sh := func(script string) *trapsolve.ExecSolver {
		return &trapsolve.ExecSolver{Args: []string{"/bin/sh", "-c", script}}
	}

	cases := []struct {
		script string
		want   error
	}{
		{`cat >/dev/null; echo boom >&2; exit 3`, gorbn.ErrSolver},
		{`cat >/dev/null; echo not-json`, gorbn.ErrSolver},
		{`cat >/dev/null; echo '{"zz":1}'`, gorbn.ErrSolver},
		{`cat >/dev/null; echo '{"v0":7}'`, gorbn.ErrSolver},
	}
	for _, c := range cases {
		if _, err := sh(c.script).MinTrapSpaces(context.Background(), ruleText); !errors.Is(err, c.want) {
			t.Fatalf("%q: got %v, want %v", c.script, err, c.want)
		}
	}

	if _, err := (&trapsolve.ExecSolver{}).MinTrapSpaces(context.Background(), ruleText); !errors.Is(err, gorbn.ErrBadParam) {
		t.Fatalf("no command: got %v", err)
	}

	// A solver that answers nothing at all is caught by the analysis layer.
	net, err := librbn.ParseRules(ruleText)
	if err != nil {
		t.Fatal(err)
	}
	quiet := sh(`cat >/dev/null`)
	if _, err := librbn.AsyncAttractors(context.Background(), net, quiet, gorbn.Limits{}); !errors.Is(err, gorbn.ErrSolver) {
		t.Fatalf("silent solver: got %v", err)
	}
}
