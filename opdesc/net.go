// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opgrad/types"
)

// Aggregate slot names under which a Net exposes its children's variables.
const (
	netInputsSlot  = "X"
	netOutputsSlot = "Out"
)

// Net is a composite operator: an ordered sequence of children, themselves
// leaves or composites. A Net exclusively owns its children.
type Net struct {
	kind     string
	children []Op
}

// NewNet creates a plain composite with the given children, in order.
func NewNet(children ...Op) *Net {
	return &Net{kind: KindNet, children: children}
}

// NOP returns the canonical "does nothing" composite. It has no children and
// is distinguishable from an empty plain Net by its kind.
func NOP() *Net {
	return &Net{kind: KindNOP}
}

// IsNOP reports whether op is a NOP composite.
func IsNOP(op Op) bool {
	net, ok := op.(*Net)
	return ok && net.kind == KindNOP
}

// Type returns the composite kind.
func (n *Net) Type() string { return n.kind }

// SetType changes the composite kind.
func (n *Net) SetType(kind string) { n.kind = kind }

// IsNet returns true: a Net is always a composite.
func (n *Net) IsNet() bool { return true }

// Append adds children at the end of the sequence, taking ownership.
func (n *Net) Append(children ...Op) {
	n.children = append(n.children, children...)
}

// Insert adds a child at position pos, shifting later children one to the
// right. It panics (throws) on an out-of-range position.
func (n *Net) Insert(pos int, child Op) {
	if pos < 0 || pos > len(n.children) {
		exceptions.Panicf("Net.Insert(%d): position out of range, net has %d children", pos, len(n.children))
	}
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
}

// Children returns the children slice, owned by the Net.
func (n *Net) Children() []Op { return n.children }

// NumChildren returns the number of children.
func (n *Net) NumChildren() int { return len(n.children) }

// Child returns the child at position i.
func (n *Net) Child(i int) Op { return n.children[i] }

// Inputs returns the insertion-ordered, deduplicated union of the children's
// input variable names, under the single aggregate slot "X". The returned
// map is computed on each call and owned by the caller; mutating it does not
// affect the Net.
func (n *Net) Inputs() *VarMap {
	return n.aggregate(netInputsSlot, Op.Inputs)
}

// Outputs returns the insertion-ordered, deduplicated union of the
// children's output variable names, under the single aggregate slot "Out",
// with the same ownership rules as Inputs.
func (n *Net) Outputs() *VarMap {
	return n.aggregate(netOutputsSlot, Op.Outputs)
}

func (n *Net) aggregate(slot string, get func(Op) *VarMap) *VarMap {
	vm := NewVarMap()
	seen := types.MakeSet[string]()
	for _, child := range n.children {
		get(child).Each(func(_, name string) bool {
			if !seen.Has(name) {
				seen.Insert(name)
				vm.Add(slot, name)
			}
			return false
		})
	}
	return vm
}

// Rename replaces every occurrence of the variable name `from` with `to` in
// every child, recursively.
func (n *Net) Rename(from, to string) {
	for _, child := range n.children {
		child.Rename(from, to)
	}
}

// String returns a multi-line form listing the children indented.
func (n *Net) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s {", n.kind)
	if len(n.children) == 0 {
		sb.WriteString("}")
		return sb.String()
	}
	sb.WriteString("\n")
	for _, child := range n.children {
		for _, line := range strings.Split(child.String(), "\n") {
			fmt.Fprintf(&sb, "\t%s\n", line)
		}
	}
	sb.WriteString("}")
	return sb.String()
}
