// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package backward synthesizes backward operator graphs: given a forward
// graph of operator descriptors, it emits the graph that computes the
// gradients of a scalar with respect to the forward inputs.
//
// It is a pure graph-to-graph transformation. No tensors are allocated and
// no operator is executed; the per-kind gradient recipes come from the
// gradients package registry, which must be populated before the first call.
//
// Two entry points cover the two program representations of the system:
// Backward for nested composites (opdesc.Net) and AppendBackward for flat
// blocks (opdesc.Block). Both walk the forward program in reverse, decide
// per operator whether a gradient is needed at all, rename duplicated
// gradient writers to unique aliases and combine them with accumulate
// operators, and substitute zero-filled variables for suppressed upstream
// gradients.
package backward

import (
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MaxStepNetDepth limits the total recursion depth of one synthesis call.
// A recurrent step-net that transitively contains its parent never
// terminates; exceeding this guard is reported as ErrCyclicStepNet.
var MaxStepNetDepth = 128

// ErrCyclicStepNet is returned when the recursion guard trips, carrying the
// recursion path of operator kinds.
var ErrCyclicStepNet = errors.New("cyclic step-net")

// builder threads the mutable synthesis state down one recursion stack: the
// set of suppressed gradient names (grown, never shrunk), the unique-id
// counter for rename aliases, and the path of operator kinds for error
// reporting. A builder must not outlive or escape its synthesis call.
type builder struct {
	noGrad  types.Set[string]
	nextUID int
	path    []string
}

// Backward synthesizes the backward graph of the forward graph rooted at
// root. The gradients of the noGradVars forward variables (and of whatever
// only depends on them) are not computed.
//
// The result is a single operator node owned by the caller: a leaf for the
// simplest case, a composite of kind opdesc.KindGeneratedBackward otherwise,
// or a NOP when there is nothing to differentiate. The forward graph is
// never referenced by the result.
func Backward(root opdesc.Op, noGradVars ...string) (opdesc.Op, error) {
	return BackwardWithGradSet(root, seedNoGrad(noGradVars))
}

// BackwardWithGradSet is like Backward, but takes the no-grad set directly:
// a set of gradient variable names (already carrying opdesc.GradSuffix). The
// set is threaded mutably through the synthesis and grows as the builder
// discovers inputs that cannot receive gradients; callers that care about
// the post-state keep their reference to it.
func BackwardWithGradSet(root opdesc.Op, noGrad types.Set[string]) (bwd opdesc.Op, err error) {
	if root == nil {
		exceptions.Panicf("backward.Backward: nil forward root")
	}
	noGrad.Insert(opdesc.GradName(opdesc.EmptyName))
	klog.V(2).Infof("backward: synthesizing gradient of %q with %d suppressed gradient names", root.Type(), len(noGrad))
	b := &builder{noGrad: noGrad}
	err = exceptions.TryCatch[error](func() {
		bwd = b.recurse(root, 0)
	})
	if err != nil {
		return nil, err
	}
	return bwd, nil
}

// seedNoGrad builds the initial no-grad set from forward variable names.
func seedNoGrad(noGradVars []string) types.Set[string] {
	noGrad := types.MakeSet[string](len(noGradVars) + 1)
	for _, name := range noGradVars {
		noGrad.Insert(opdesc.GradName(name))
	}
	return noGrad
}

// recurse synthesizes the backward node of one forward node. It implements
// the common skip decisions and dispatches to the leaf or composite path.
func (b *builder) recurse(fwd opdesc.Op, depth int) opdesc.Op {
	if depth > MaxStepNetDepth {
		panic(errors.Wrapf(ErrCyclicStepNet,
			"recursion deeper than MaxStepNetDepth=%d, path: %s",
			MaxStepNetDepth, strings.Join(b.path, " -> ")))
	}
	b.path = append(b.path, fwd.Type())
	defer func() { b.path = b.path[:len(b.path)-1] }()

	// If no input gradient of fwd is wanted, there is nothing to synthesize.
	// A NOP (and not nil) keeps the composite shapes aligned.
	if b.allGradsSuppressed(fwd.Inputs()) {
		return opdesc.NOP()
	}

	// If no output gradient of fwd is available, none of its input gradients
	// can be computed either: suppress them all and skip.
	if b.allGradsSuppressed(fwd.Outputs()) {
		fwd.Inputs().Each(func(_, name string) bool {
			b.noGrad.Insert(opdesc.GradName(name))
			return false
		})
		return opdesc.NOP()
	}

	switch node := fwd.(type) {
	case *opdesc.Net:
		return b.compositeBackward(node, depth)
	case *opdesc.OpDesc:
		return b.leafBackward(node, depth)
	}
	exceptions.Panicf("backward: unknown operator node type %T", fwd)
	return nil
}

// allGradsSuppressed reports whether the gradient name of every variable in
// vm is in the no-grad set. Vacuously true for an empty map.
func (b *builder) allGradsSuppressed(vm *opdesc.VarMap) bool {
	all := true
	vm.Each(func(_, name string) bool {
		all = b.noGrad.Has(opdesc.GradName(name))
		return !all
	})
	return all
}

// compositeBackward synthesizes the backward composite of a forward
// composite: children are differentiated in reverse order, duplicated
// gradient writers are renamed to per-level aliases and summed by
// accumulate operators inserted right after their last writer.
func (b *builder) compositeBackward(fwdNet *opdesc.Net, depth int) opdesc.Op {
	uid := b.nextUID
	b.nextUID++

	net := opdesc.NewNet()
	net.SetType(opdesc.KindGeneratedBackward)
	dups := newDupWriters()
	children := fwdNet.Children()
	for ii := len(children) - 1; ii >= 0; ii-- {
		localOpID := net.NumChildren()
		bwd := b.recurse(children[ii], depth+1)
		dups.recordOutputs(bwd, localOpID)
		net.Append(bwd)
	}

	pending := resolveDuplicateWriters(dups,
		func(name string, i int) string { return opdesc.RenameAlias(name, uid, i) },
		func(opIdx int, from, to string) { net.Child(opIdx).Rename(from, to) })
	// pending comes sorted by descending position, so each insertion leaves
	// the positions of the remaining ones untouched.
	for _, p := range pending {
		net.Insert(p.pos+1, p.op)
	}
	return net
}
