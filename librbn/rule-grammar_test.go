package librbn_test

import (
	"os"
	"path"
	"testing"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
	"github.com/rbnsystems/gorbn/librbn"
)

const cellCycleSrc = `
targets, factors
# a toy mutual-activation circuit
CtrA,  GcrA & !SciP
GcrA,  CtrA
SciP,  CtrA & DnaA
`

func TestParseRules(t *testing.T) {
	net, err := librbn.ParseRules([]byte(cellCycleSrc))
	if err != nil {
		t.Fatal(err)
	}

	// Three ruled nodes in line order, then DnaA synthesized as an input.
	if net.NodeCount() != 4 {
		t.Fatalf("got %d nodes", net.NodeCount())
	}
	wantNames := []string{"CtrA", "GcrA", "SciP", "DnaA"}
	for i, name := range wantNames {
		if net.NodeName(i) != name {
			t.Fatalf("node %d: %q, want %q", i, net.NodeName(i), name)
		}
	}

	// CtrA's parents in first-use order: GcrA then SciP.
	if ps := net.Parents(0); len(ps) != 2 || ps[0] != 1 || ps[1] != 2 {
		t.Fatalf("CtrA parents: %v", ps)
	}
	if form := net.RuleForm(0); form != "GcrA & !SciP" {
		t.Fatalf("CtrA rule: %q", form)
	}

	// The input node holds its value: identity on itself.
	if ps := net.Parents(3); len(ps) != 1 || ps[0] != 3 {
		t.Fatalf("DnaA parents: %v", ps)
	}
	if form := net.RuleForm(3); form != "DnaA" {
		t.Fatalf("DnaA rule: %q", form)
	}
}

func TestParseRulesConstants(t *testing.T) {
	net, err := librbn.ParseRules([]byte("a, 1\nb, false\nc, true | a\n"))
	if err != nil {
		t.Fatal(err)
	}
	if net.NodeCount() != 3 {
		t.Fatalf("got %d nodes", net.NodeCount())
	}

	// Constants leave no parent slots behind.
	if len(net.Parents(0)) != 0 || len(net.Parents(1)) != 0 {
		t.Fatal("constant rules grew parents")
	}
	if got := librbn.StepSync(net, 0); got.Bit(0) != 1 || got.Bit(1) != 0 || got.Bit(2) != 1 {
		t.Fatalf("constants stepped to %s", got.Format(3))
	}
}

func TestParseRulesRejects(t *testing.T) {
	cases := []struct {
		src  string
		want error
	}{
		{"", gorbn.ErrBadRuleFile},
		{"# only a comment\n", gorbn.ErrBadRuleFile},
		{"a, b\na, c\n", gorbn.ErrBadRuleFile},
		{"a, b &\n", gorbn.ErrBadExpr},
		{"a, (b\n", gorbn.ErrBadExpr},
		{"a, 2\n", gorbn.ErrBadExpr},
		{"a b\n", gorbn.ErrBadExpr},
	}
	for _, c := range cases {
		if _, err := librbn.ParseRules([]byte(c.src)); !errors.Is(err, c.want) {
			t.Fatalf("%q: got %v, want %v", c.src, err, c.want)
		}
	}
}

func TestRulesRoundTrip(t *testing.T) {
	net, err := librbn.ParseRules([]byte(cellCycleSrc))
	if err != nil {
		t.Fatal(err)
	}

	// Rendered rules parse back to a net with identical sync behavior.
	text := net.AppendRules(nil)
	net2, err := librbn.ParseRules(text)
	if err != nil {
		t.Fatalf("re-parse of %q: %v", text, err)
	}
	if net2.NodeCount() != net.NodeCount() {
		t.Fatalf("round trip changed node count: %d vs %d", net2.NodeCount(), net.NodeCount())
	}
	for s := gorbn.State(0); int64(s) < net.StateCount(); s++ {
		if librbn.StepSync(net, s) != librbn.StepSync(net2, s) {
			t.Fatalf("round trip diverges at state %s", s.Format(net.NodeCount()))
		}
	}

	// Canonical form uses positional names only.
	canon := string(net.AppendCanonRules(nil))
	want := "v0,   v1 & !v2\n" +
		"v1,   v0\n" +
		"v2,   v0 & v3\n" +
		"v3,   v3\n"
	if canon != want {
		t.Fatalf("canon rules:\n%swant:\n%s", canon, want)
	}
}

func TestLoadBNet(t *testing.T) {
	dir := t.TempDir()
	pathname := path.Join(dir, "toy.bnet")
	if err := os.WriteFile(pathname, []byte(cellCycleSrc), 0644); err != nil {
		t.Fatal(err)
	}

	net, err := librbn.LoadBNet(pathname)
	if err != nil {
		t.Fatal(err)
	}
	if net.NodeCount() != 4 {
		t.Fatalf("got %d nodes", net.NodeCount())
	}

	if _, err := librbn.LoadBNet(path.Join(dir, "missing.bnet")); !errors.Is(err, gorbn.ErrBadRuleFile) {
		t.Fatalf("missing file: got %v", err)
	}
}
