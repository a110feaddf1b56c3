package librbn

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rbnsystems/gorbn"
)

// Net is an immutable random boolean network: per node, an ordered parent
// list and a rule whose arity matches it. Build once, read forever.
type Net struct {
	names   []string
	parents [][]int32
	rules   []Rule
}

// GenOpts configures GenNet.
type GenOpts struct {
	Nodes      int
	MaxParents int

	// Relaxed switches the parent-set policy: k is drawn from [0, MaxParents]
	// and a node may be its own parent. The default (strict) policy draws k
	// from [1, min(MaxParents, Nodes-1)] and excludes self-parents, which is
	// what BNFinder2-bound exports require.
	Relaxed bool
}

// Validate fails fast on parameter combinations no generator variant accepts.
func (opts GenOpts) Validate() error {
	if opts.Nodes < 1 {
		return errors.Wrapf(gorbn.ErrBadParam, "nodes must be >= 1 (got %d)", opts.Nodes)
	}
	if opts.Nodes > gorbn.MaxNodes {
		return errors.Wrapf(gorbn.ErrBadParam, "nodes must be <= %d (got %d)", gorbn.MaxNodes, opts.Nodes)
	}
	if opts.MaxParents < 1 {
		return errors.Wrapf(gorbn.ErrBadParam, "max parents must be >= 1 (got %d)", opts.MaxParents)
	}
	if opts.MaxParents > opts.Nodes-1 {
		return errors.Wrapf(gorbn.ErrBadParam, "max parents must be <= nodes-1 (got %d for %d nodes)", opts.MaxParents, opts.Nodes)
	}
	return nil
}

// GenNet generates a random network under the given policy.
//
// Per node, the draw order is: parent count, parent sample (order preserved),
// then the rule draws (see RandRule), so a seeded rng reproduces the net.
func GenNet(rng *rand.Rand, opts GenOpts) (*Net, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	n := opts.Nodes
	net := &Net{
		names:   make([]string, n),
		parents: make([][]int32, n),
		rules:   make([]Rule, n),
	}

	candidates := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		net.names[i] = "v" + strconv.Itoa(i)

		candidates = candidates[:0]
		for j := 0; j < n; j++ {
			if opts.Relaxed || j != i {
				candidates = append(candidates, int32(j))
			}
		}

		var k int
		if opts.Relaxed {
			k = rng.Intn(opts.MaxParents + 1)
		} else {
			hi := opts.MaxParents
			if hi > len(candidates) {
				hi = len(candidates)
			}
			k = 1 + rng.Intn(hi)
		}

		// Partial Fisher-Yates: the first k entries are a uniform sample,
		// in draw order.
		for j := 0; j < k; j++ {
			swap := j + rng.Intn(len(candidates)-j)
			candidates[j], candidates[swap] = candidates[swap], candidates[j]
		}
		ps := make([]int32, k)
		copy(ps, candidates[:k])

		net.parents[i] = ps
		net.rules[i] = RandRule(rng, k)
	}

	return net, nil
}

// NewNet assembles a network from explicit parts, enforcing the structural
// invariants (matching lengths, duplicate-free parent lists, rule arity).
// Self-parents are allowed here: loaded models use them for input nodes.
func NewNet(names []string, parents [][]int32, rules []Rule) (*Net, error) {
	n := len(names)
	if n < 1 || n > gorbn.MaxNodes {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "node count %d out of range [1, %d]", n, gorbn.MaxNodes)
	}
	if len(parents) != n || len(rules) != n {
		return nil, errors.Wrapf(gorbn.ErrBadParam, "parents/rules length mismatch (%d names, %d parents, %d rules)", n, len(parents), len(rules))
	}

	for i := 0; i < n; i++ {
		ps := parents[i]
		if int(rules[i].K) != len(ps) {
			return nil, errors.Wrapf(gorbn.ErrBadParam, "node %d: rule arity %d != %d parents", i, rules[i].K, len(ps))
		}
		if rules[i].Fn == nil {
			return nil, errors.Wrapf(gorbn.ErrBadParam, "node %d: missing rule", i)
		}
		if maxSlot := rules[i].Fn.MaxSlot(); maxSlot >= int32(len(ps)) {
			return nil, errors.Wrapf(gorbn.ErrBadParam, "node %d: rule references slot %d beyond %d parents", i, maxSlot, len(ps))
		}
		seen := int32(0)
		for _, p := range ps {
			if p < 0 || int(p) >= n {
				return nil, errors.Wrapf(gorbn.ErrBadParam, "node %d: parent %d out of range", i, p)
			}
			if seen&(1<<p) != 0 {
				return nil, errors.Wrapf(gorbn.ErrBadParam, "node %d: duplicate parent %d", i, p)
			}
			seen |= 1 << p
		}
	}

	return &Net{
		names:   names,
		parents: parents,
		rules:   rules,
	}, nil
}

// NodeCount returns n, the number of nodes.
func (net *Net) NodeCount() int {
	return len(net.rules)
}

// StateCount returns 2^n, the size of the full state space.
func (net *Net) StateCount() int64 {
	return int64(1) << net.NodeCount()
}

// NodeName returns the display name of node i.
func (net *Net) NodeName(i int) string {
	return net.names[i]
}

// Parents returns node i's ordered parent list. The slice is shared; callers must not mutate it.
func (net *Net) Parents(i int) []int32 {
	return net.parents[i]
}

// NodeRule returns node i's rule.
func (net *Net) NodeRule(i int) Rule {
	return net.rules[i]
}

// RuleForm renders node i's rule over its parents' display names.
func (net *Net) RuleForm(i int) string {
	ps := net.parents[i]
	out := net.rules[i].Fn.AppendForm(nil, func(slot int32) string {
		return net.names[ps[slot]]
	})
	return string(out)
}

// WriteStructure writes the dependency listing and rule of every node,
// two lines per node:
//
//	v3 <- v1, v7
//	   f3 = v1 & !v7
func (net *Net) WriteStructure(out io.Writer) {
	var line strings.Builder
	for i := 0; i < net.NodeCount(); i++ {
		line.Reset()
		line.WriteString(net.names[i])
		line.WriteString(" <- ")
		if ps := net.parents[i]; len(ps) == 0 {
			line.WriteString("NONE")
		} else {
			for j, p := range ps {
				if j > 0 {
					line.WriteString(", ")
				}
				line.WriteString(net.names[p])
			}
		}
		fmt.Fprintf(out, "%s\n   f%d = %s\n", line.String(), i, net.RuleForm(i))
	}
}
