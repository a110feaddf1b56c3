package gorbn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
)

// AppendString appends the bits of s for a nodeCount-sized net, node 0 first.
func (s State) AppendString(out []byte, nodeCount int) []byte {
	for i := 0; i < nodeCount; i++ {
		out = append(out, '0'+byte((s>>i)&1))
	}
	return out
}

// Format returns s as a bit string, node 0 leftmost (e.g. "0110").
func (s State) Format(nodeCount int) string {
	var scrap [MaxNodes]byte
	return string(s.AppendString(scrap[:0], nodeCount))
}

// Bit returns node i's value in s.
func (s State) Bit(i int) byte {
	return byte((s >> i) & 1)
}

// SetBit returns s with node i set to v.
func (s State) SetBit(i int, v byte) State {
	if v == 0 {
		return s &^ (1 << i)
	}
	return s | (1 << i)
}

// ParseState parses a bit string produced by Format (node 0 first).
func ParseState(str string) (State, error) {
	if len(str) == 0 || len(str) > MaxNodes {
		return 0, ErrBadParam
	}
	var s State
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '1':
			s |= 1 << i
		case '0':
		default:
			return 0, ErrBadParam
		}
	}
	return s, nil
}

// NewAttractor forms a canonical Attractor from the given states:
// strictly ascending, duplicates dropped.
func NewAttractor(states []State) Attractor {
	attr := make(Attractor, len(states))
	copy(attr, states)
	sort.Slice(attr, func(i, j int) bool {
		return attr[i] < attr[j]
	})

	// Compact duplicates in place
	n := 0
	for i, si := range attr {
		if i > 0 && si == attr[n-1] {
			continue
		}
		attr[n] = si
		n++
	}
	return attr[:n]
}

// Contains reports whether s is a member of this (canonical) attractor.
func (attr Attractor) Contains(s State) bool {
	lo, hi := 0, len(attr)
	for lo < hi {
		mid := (lo + hi) >> 1
		if attr[mid] < s {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(attr) && attr[lo] == s
}

// AppendKey appends a canonical binary encoding of attr to out.
// The first state is absolute, the rest are deltas (always positive in canonical form).
func (attr Attractor) AppendKey(out []byte) []byte {
	var scrap [8]byte
	prev := State(0)
	for _, si := range attr {
		n := binary.PutUvarint(scrap[:], uint64(si-prev))
		out = append(out, scrap[:n]...)
		prev = si
	}
	return out
}

// InitFromKey assigns this Attractor from an encoding made by AppendKey.
func (attr *Attractor) InitFromKey(key []byte) error {
	out := (*attr)[:0]
	rdr := bytes.NewReader(key)

	prev := uint64(0)
	for {
		delta, err := binary.ReadUvarint(rdr)
		if err != nil {
			if err == io.EOF {
				break
			}
			*attr = out
			return ErrBadParam
		}
		prev += delta
		out = append(out, State(prev))
	}

	*attr = out
	return nil
}

// CompareAttractors is a total order over canonical attractors, usable as a tree comparator.
func CompareAttractors(A, B Attractor) int {
	lenB := len(B)

	for i, ai := range A {
		if lenB == i {
			return 1
		}
		bi := B[i]
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}

	if len(A) < lenB {
		return -1
	}
	return 0
}

// SortAttractors orders a list of canonical attractors deterministically.
func SortAttractors(attrs []Attractor) {
	sort.Slice(attrs, func(i, j int) bool {
		return CompareAttractors(attrs[i], attrs[j]) < 0
	})
}

// Validate checks that this trap space has one entry per node, each 0, 1, or FreeVar.
func (ts TrapSpace) Validate(nodeCount int) error {
	if len(ts) != nodeCount {
		return ErrSolver
	}
	for _, vi := range ts {
		switch vi {
		case 0, 1, FreeVar:
		default:
			return ErrSolver
		}
	}
	return nil
}

// FixedCount returns the number of constrained nodes.
func (ts TrapSpace) FixedCount() int {
	n := 0
	for _, vi := range ts {
		if vi != FreeVar {
			n++
		}
	}
	return n
}

// FreeCount returns the number of unconstrained nodes.
func (ts TrapSpace) FreeCount() int {
	return len(ts) - ts.FixedCount()
}

// Admits reports whether the complete state s is consistent with this trap space.
func (ts TrapSpace) Admits(s State) bool {
	for i, vi := range ts {
		if vi != FreeVar && byte(vi) != s.Bit(i) {
			return false
		}
	}
	return true
}

func (ts TrapSpace) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i, vi := range ts {
		if vi == FreeVar {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "v%d=%d", i, vi)
	}
	b.WriteByte('}')
	return b.String()
}
