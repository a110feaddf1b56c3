package librbn

import (
	"math/rand"
	"strconv"
)

// ExprOp enumerates the node kinds of a rule expression tree.
type ExprOp byte

const (
	OpConst ExprOp = iota // constant 0 or 1
	OpArg                 // reference to a parent slot
	OpNot
	OpAnd
	OpOr
)

// Expr is an immutable boolean expression over a node's parent slots.
//
// Evaluation is structural recursion, so the value computed always agrees
// with the rendered expression, including the left-to-right associativity
// of generated fold chains.
type Expr struct {
	Op   ExprOp
	X, Y *Expr // operands (X only for OpNot)
	Slot int32 // parent slot index for OpArg
	Bit  byte  // value for OpConst
}

func Con(bit byte) *Expr { return &Expr{Op: OpConst, Bit: bit & 1} }

func Arg(slot int32) *Expr { return &Expr{Op: OpArg, Slot: slot} }

func Not(x *Expr) *Expr { return &Expr{Op: OpNot, X: x} }

func And(x, y *Expr) *Expr { return &Expr{Op: OpAnd, X: x, Y: y} }

func Or(x, y *Expr) *Expr { return &Expr{Op: OpOr, X: x, Y: y} }

// Eval computes the expression over the given parent values.
// Both operands of a binary node are always evaluated; there is no
// short-circuit path that could diverge from the rendered form.
func (x *Expr) Eval(args []byte) byte {
	switch x.Op {
	case OpConst:
		return x.Bit
	case OpArg:
		return args[x.Slot] & 1
	case OpNot:
		return 1 - x.X.Eval(args)
	case OpAnd:
		return x.X.Eval(args) & x.Y.Eval(args)
	case OpOr:
		return x.X.Eval(args) | x.Y.Eval(args)
	}
	return 0
}

// MaxSlot returns the highest parent slot referenced, or -1 for none.
func (x *Expr) MaxSlot() int32 {
	switch x.Op {
	case OpArg:
		return x.Slot
	case OpNot:
		return x.X.MaxSlot()
	case OpAnd, OpOr:
		a := x.X.MaxSlot()
		if b := x.Y.MaxSlot(); b > a {
			a = b
		}
		return a
	}
	return -1
}

func (x *Expr) prec() int {
	switch x.Op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpNot:
		return 3
	}
	return 4
}

// AppendForm renders the expression in rule-file form (`!`, `&`, `|`),
// naming each parent slot through names (nil names means s<slot>).
// Parentheses are emitted only where precedence or associativity
// requires them.
func (x *Expr) AppendForm(out []byte, names func(slot int32) string) []byte {
	if names == nil {
		names = slotName
	}
	switch x.Op {
	case OpConst:
		return append(out, '0'+x.Bit)

	case OpArg:
		return append(out, names(x.Slot)...)

	case OpNot:
		out = append(out, '!')
		if x.X.prec() < x.prec() {
			out = append(out, '(')
			out = x.X.AppendForm(out, names)
			return append(out, ')')
		}
		return x.X.AppendForm(out, names)
	}

	op := " & "
	if x.Op == OpOr {
		op = " | "
	}

	if x.X.prec() < x.prec() {
		out = append(out, '(')
		out = x.X.AppendForm(out, names)
		out = append(out, ')')
	} else {
		out = x.X.AppendForm(out, names)
	}

	out = append(out, op...)

	// Right side at equal precedence would re-associate; parenthesize it.
	if x.Y.prec() <= x.prec() {
		out = append(out, '(')
		out = x.Y.AppendForm(out, names)
		out = append(out, ')')
	} else {
		out = x.Y.AppendForm(out, names)
	}
	return out
}

// Rule is a node's update function: a pure expression over K parent slots.
type Rule struct {
	K  int32
	Fn *Expr
}

// Eval applies the rule to the parent values (len(args) must be K).
func (rule Rule) Eval(args []byte) byte {
	return rule.Fn.Eval(args)
}

// Form renders the rule with s<slot> placeholder names (slot order, not node ids).
func (rule Rule) Form() string {
	return string(rule.Fn.AppendForm(nil, slotName))
}

func slotName(slot int32) string {
	return "s" + strconv.Itoa(int(slot))
}

// RandRule generates a random rule over k parents.
//
// k == 0 yields a constant rule. Otherwise each parent literal gets an
// independent random negation, literals are folded left-to-right with a
// random AND/OR at each join, and the whole expression is randomly negated.
// The draw order is fixed (k-1 operators, then k negations, then the whole
// negation), so a seeded rng reproduces the rule exactly.
func RandRule(rng *rand.Rand, k int) Rule {
	if k == 0 {
		return Rule{K: 0, Fn: Con(byte(rng.Intn(2)))}
	}

	ops := make([]ExprOp, k-1)
	for i := range ops {
		if rng.Intn(2) == 0 {
			ops[i] = OpAnd
		} else {
			ops[i] = OpOr
		}
	}

	negs := make([]bool, k)
	for i := range negs {
		negs[i] = rng.Intn(2) == 1
	}
	negWhole := rng.Intn(2) == 1

	lit := func(slot int) *Expr {
		x := Arg(int32(slot))
		if negs[slot] {
			x = Not(x)
		}
		return x
	}

	expr := lit(0)
	for i, op := range ops {
		right := lit(i + 1)
		if op == OpAnd {
			expr = And(expr, right)
		} else {
			expr = Or(expr, right)
		}
	}
	if negWhole {
		expr = Not(expr)
	}

	return Rule{K: int32(k), Fn: expr}
}
