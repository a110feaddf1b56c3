package librbn

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// BNetLine is one rule line of the shared plain-text grammar:
//
//	<target>, <bool expr over node names>
//
// The same grammar serves .bnet model files, catalog-stored sources, and
// the rule text handed to a TrapSolver.
type BNetLine struct {
	Target string  `parser:"@Ident \",\""`
	Expr   *BoolOr `parser:"@@"`
}

type BoolOr struct {
	Terms []*BoolAnd `parser:"@@ (\"|\" @@)*"`
}

type BoolAnd struct {
	Terms []*BoolNot `parser:"@@ (\"&\" @@)*"`
}

type BoolNot struct {
	Neg  *BoolNot  `parser:"  \"!\" @@"`
	Atom *BoolAtom `parser:"| @@"`
}

type BoolAtom struct {
	Con  *int    `parser:"  @Int"`
	Name *string `parser:"| @Ident"`
	Sub  *BoolOr `parser:"| \"(\" @@ \")\""`
}

var parseBNetLine = participle.MustBuild[BNetLine]()

// netBuilder accumulates parsed lines into nodes, assigning indexes in
// line order and tracking which referenced names still lack a line.
type netBuilder struct {
	names   []string
	indexOf map[string]int32
	exprs   []*BoolOr
	slots   [][]int32 // per node, referenced node index per rule slot
}

func (nb *netBuilder) nodeID(name string) int32 {
	id, ok := nb.indexOf[name]
	if !ok {
		id = int32(len(nb.names))
		nb.indexOf[name] = id
		nb.names = append(nb.names, name)
		nb.exprs = append(nb.exprs, nil)
		nb.slots = append(nb.slots, nil)
	}
	return id
}

func (nb *netBuilder) addLine(line *BNetLine) error {
	id := nb.nodeID(line.Target)
	if nb.exprs[id] != nil {
		return errors.Wrapf(gorbn.ErrBadRuleFile, "duplicate rule for %q", line.Target)
	}
	nb.exprs[id] = line.Expr
	return nil
}

// slotFor maps a referenced name to a rule slot of node id, appending the
// name to the node's parent list on first use.
func (nb *netBuilder) slotFor(id int32, name string) int32 {
	ref := nb.nodeID(name)
	for slot, p := range nb.slots[id] {
		if p == ref {
			return int32(slot)
		}
	}
	nb.slots[id] = append(nb.slots[id], ref)
	return int32(len(nb.slots[id]) - 1)
}

func (nb *netBuilder) buildOr(id int32, or *BoolOr) (*Expr, error) {
	fn, err := nb.buildAnd(id, or.Terms[0])
	if err != nil {
		return nil, err
	}
	for _, term := range or.Terms[1:] {
		rhs, err := nb.buildAnd(id, term)
		if err != nil {
			return nil, err
		}
		fn = Or(fn, rhs)
	}
	return fn, nil
}

func (nb *netBuilder) buildAnd(id int32, and *BoolAnd) (*Expr, error) {
	fn, err := nb.buildNot(id, and.Terms[0])
	if err != nil {
		return nil, err
	}
	for _, term := range and.Terms[1:] {
		rhs, err := nb.buildNot(id, term)
		if err != nil {
			return nil, err
		}
		fn = And(fn, rhs)
	}
	return fn, nil
}

func (nb *netBuilder) buildNot(id int32, not *BoolNot) (*Expr, error) {
	if not.Neg != nil {
		fn, err := nb.buildNot(id, not.Neg)
		if err != nil {
			return nil, err
		}
		return Not(fn), nil
	}
	return nb.buildAtom(id, not.Atom)
}

func (nb *netBuilder) buildAtom(id int32, atom *BoolAtom) (*Expr, error) {
	switch {
	case atom.Con != nil:
		switch *atom.Con {
		case 0, 1:
			return Con(byte(*atom.Con)), nil
		}
		return nil, errors.Wrapf(gorbn.ErrBadExpr, "constant %d is not 0 or 1", *atom.Con)
	case atom.Name != nil:
		switch *atom.Name {
		case "true":
			return Con(1), nil
		case "false":
			return Con(0), nil
		}
		return Arg(nb.slotFor(id, *atom.Name)), nil
	case atom.Sub != nil:
		return nb.buildOr(id, atom.Sub)
	}
	return nil, gorbn.ErrBadExpr
}

// ParseRules parses rule text in the shared grammar into a Net. Node order
// follows line order. A name referenced but never given a line of its own
// becomes an input node: it is appended after the ruled nodes with the
// identity self-rule, so it holds whatever value it starts with.
func ParseRules(src []byte) (*Net, error) {
	nb := netBuilder{
		indexOf: make(map[string]int32),
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if hash := strings.IndexByte(line, '#'); hash >= 0 {
			line = line[:hash]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isBNetHeader(line) {
			continue
		}

		parsed, err := parseBNetLine.ParseString("", line)
		if err != nil {
			return nil, errors.Wrapf(gorbn.ErrBadExpr, "%q: %v", line, err)
		}
		if err := nb.addLine(parsed); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(gorbn.ErrBadRuleFile, err.Error())
	}
	if len(nb.names) == 0 {
		return nil, errors.Wrap(gorbn.ErrBadRuleFile, "no rules")
	}
	if len(nb.names) > gorbn.MaxNodes {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "%d nodes exceeds the %d-node ceiling", len(nb.names), gorbn.MaxNodes)
	}

	// Building an expression can append input nodes, so the node list may
	// still grow under this loop; appended nodes have a nil expr and are
	// picked up by the same pass.
	var (
		parents [][]int32
		rules   []Rule
	)
	for i := 0; i < len(nb.names); i++ {
		if nb.exprs[i] == nil {
			// input node
			nb.slots[i] = []int32{int32(i)}
			parents = append(parents, nb.slots[i])
			rules = append(rules, Rule{K: 1, Fn: Arg(0)})
			continue
		}
		fn, err := nb.buildOr(int32(i), nb.exprs[i])
		if err != nil {
			return nil, err
		}
		parents = append(parents, nb.slots[i])
		rules = append(rules, Rule{K: int32(len(nb.slots[i])), Fn: fn})
	}

	return NewNet(nb.names, parents, rules)
}

// LoadBNet reads and parses a .bnet rule file.
func LoadBNet(pathname string) (*Net, error) {
	src, err := os.ReadFile(pathname)
	if err != nil {
		return nil, errors.Wrapf(gorbn.ErrBadRuleFile, "%v", err)
	}
	return ParseRules(src)
}

// isBNetHeader spots the optional "targets, factors" header line some
// .bnet exporters emit.
func isBNetHeader(line string) bool {
	fields := strings.SplitN(line, ",", 2)
	if len(fields) != 2 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fields[0]), "targets") &&
		strings.EqualFold(strings.TrimSpace(fields[1]), "factors")
}

// AppendRules appends net's rule set in the shared grammar, one line per
// node in node order, using display names.
func (net *Net) AppendRules(out []byte) []byte {
	return net.appendRuleLines(out, func(i int32) string {
		return net.names[i]
	})
}

// AppendCanonRules is AppendRules with positional v<i> names, the form
// handed to a TrapSolver so returned assignments line up with node indexes.
func (net *Net) AppendCanonRules(out []byte) []byte {
	var scrap [8]byte
	return net.appendRuleLines(out, func(i int32) string {
		return string(appendVarName(scrap[:0], i))
	})
}

func (net *Net) appendRuleLines(out []byte, nameOf func(i int32) string) []byte {
	for i := 0; i < net.NodeCount(); i++ {
		ps := net.parents[i]
		out = append(out, nameOf(int32(i))...)
		out = append(out, ',', ' ', ' ', ' ')
		out = net.rules[i].Fn.AppendForm(out, func(slot int32) string {
			return nameOf(ps[slot])
		})
		out = append(out, '\n')
	}
	return out
}

func appendVarName(out []byte, i int32) []byte {
	out = append(out, 'v')
	if i >= 10 {
		out = append(out, byte('0'+i/10))
	}
	return append(out, byte('0'+i%10))
}
