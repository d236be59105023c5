// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package opdesc defines the operator-descriptor data model the backward
// builder transforms: leaf descriptors (OpDesc), composites (Net), flat
// blocks (Block), and the variable naming convention shared by all of them.
//
// A descriptor carries no tensors and no execution semantics: it is a kind
// string, ordered slot maps of input and output variable names, and an
// opaque attribute bag. Graph-to-graph transformations, like the backward
// pass in the sibling backward package, only ever manipulate descriptors.
package opdesc

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedDescriptor is returned (wrapped) when a descriptor misses a
// required part: an empty kind, an empty variable name in a slot, or a
// recurrent leaf without a step-net.
var ErrMalformedDescriptor = errors.New("malformed operator descriptor")

// Op is a node of an operator graph: either an *OpDesc leaf or a *Net
// composite.
type Op interface {
	// Type returns the operator kind, e.g. "mul" or "fill_zeros_like".
	Type() string

	// Inputs returns the input slot map. For leaves this is the descriptor's
	// own map; for composites it is computed from the children on each call.
	Inputs() *VarMap

	// Outputs returns the output slot map, with the same ownership rules as
	// Inputs.
	Outputs() *VarMap

	// Rename replaces every occurrence of the variable name `from` with
	// `to` in this node. Composites recurse into their children.
	Rename(from, to string)

	// IsNet reports whether this node is a composite.
	IsNet() bool

	fmt.Stringer
}

// OpDesc is a leaf operator descriptor.
type OpDesc struct {
	kind            string
	inputs, outputs *VarMap
	attrs           map[string]any

	// stepNet is non-nil only for recurrent kinds: the owned forward (or,
	// after differentiation, backward) sub-program executed per step.
	stepNet Op
}

// Compile-time check that both node types implement Op.
var (
	_ Op = (*OpDesc)(nil)
	_ Op = (*Net)(nil)
)

// New creates a leaf descriptor of the given kind. Nil slot maps are
// replaced with empty ones; attrs is kept by reference and passed through
// transformations unchanged.
func New(kind string, inputs, outputs *VarMap, attrs map[string]any) *OpDesc {
	if inputs == nil {
		inputs = NewVarMap()
	}
	if outputs == nil {
		outputs = NewVarMap()
	}
	return &OpDesc{kind: kind, inputs: inputs, outputs: outputs, attrs: attrs}
}

// Type returns the operator kind.
func (op *OpDesc) Type() string { return op.kind }

// Inputs returns the descriptor's input slot map. Mutating it mutates the
// descriptor.
func (op *OpDesc) Inputs() *VarMap { return op.inputs }

// Outputs returns the descriptor's output slot map. Mutating it mutates the
// descriptor.
func (op *OpDesc) Outputs() *VarMap { return op.outputs }

// Attrs returns the opaque attribute bag. May be nil.
func (op *OpDesc) Attrs() map[string]any { return op.attrs }

// StepNet returns the owned step-net, or nil for non-recurrent kinds.
func (op *OpDesc) StepNet() Op { return op.stepNet }

// SetStepNet transfers ownership of stepNet to the descriptor.
func (op *OpDesc) SetStepNet(stepNet Op) { op.stepNet = stepNet }

// IsNet returns false: an OpDesc is always a leaf.
func (op *OpDesc) IsNet() bool { return false }

// Rename replaces every occurrence of the variable name `from` with `to` in
// the descriptor's own slot maps. The step-net, if any, is not touched: its
// variables live in their own scope.
func (op *OpDesc) Rename(from, to string) {
	op.inputs.Rename(from, to)
	op.outputs.Rename(from, to)
}

// Clone returns a deep copy of the descriptor: slot maps are cloned, the
// attribute bag is shared (it is opaque and treated as immutable), and the
// step-net is not cloned -- the copy shares it.
func (op *OpDesc) Clone() *OpDesc {
	return &OpDesc{
		kind:    op.kind,
		inputs:  op.inputs.Clone(),
		outputs: op.outputs.Clone(),
		attrs:   op.attrs,
		stepNet: op.stepNet,
	}
}

// Validate checks the descriptor is well-formed: non-empty kind, no empty
// variable names (the EmptyName sentinel is fine, the empty string is not),
// and a step-net present on recurrent kinds. Violations are reported as
// ErrMalformedDescriptor.
func (op *OpDesc) Validate() error {
	if op.kind == "" {
		return errors.Wrap(ErrMalformedDescriptor, "operator kind is empty")
	}
	var badSlot string
	checkNames := func(vm *VarMap) {
		vm.Each(func(slot, name string) bool {
			if name == "" {
				badSlot = slot
				return true
			}
			return false
		})
	}
	checkNames(op.inputs)
	checkNames(op.outputs)
	if badSlot != "" {
		return errors.Wrapf(ErrMalformedDescriptor, "operator %q has an empty variable name in slot %q", op.kind, badSlot)
	}
	if op.kind == KindRecurrent && op.stepNet == nil {
		return errors.Wrapf(ErrMalformedDescriptor, "operator %q is missing its step-net", op.kind)
	}
	return nil
}

// String returns a compact one-line form, e.g. `mul(X:[a], Y:[b]) -> (Out:[c])`.
func (op *OpDesc) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(%s) -> (%s)", op.kind, op.inputs, op.outputs)
	if op.stepNet != nil {
		fmt.Fprintf(&sb, " step-net=%s", op.stepNet.Type())
	}
	return sb.String()
}
