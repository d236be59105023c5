// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backward

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types"
	"github.com/gomlx/opgrad/types/xslices"
)

// AppendBackward synthesizes the backward pass of a flat block and appends
// the gradient descriptors to it, in the order produced. It is the flat
// counterpart of Backward: same decisions, same rewrites, but the program is
// an ordered list of leaf descriptors instead of a nested composite, so
// duplicate-writer aliases need no per-level uid infix.
func AppendBackward(block *opdesc.Block, noGradVars ...string) error {
	return AppendBackwardWithGradSet(block, seedNoGrad(noGradVars))
}

// AppendBackwardWithGradSet is like AppendBackward, but takes the no-grad
// set of gradient variable names directly and mutates it, exactly like
// BackwardWithGradSet.
func AppendBackwardWithGradSet(block *opdesc.Block, noGrad types.Set[string]) error {
	if block == nil {
		exceptions.Panicf("backward.AppendBackward: nil block")
	}
	noGrad.Insert(opdesc.GradName(opdesc.EmptyName))
	b := &builder{noGrad: noGrad}
	return exceptions.TryCatch[error](func() {
		b.appendBackward(block)
	})
}

func (b *builder) appendBackward(block *opdesc.Block) {
	var gradDescs []*opdesc.OpDesc
	dups := newDupWriters()
	for _, fwd := range xslices.Reversed(block.Ops()) {
		if b.allGradsSuppressed(fwd.Inputs()) {
			continue
		}
		if b.allGradsSuppressed(fwd.Outputs()) {
			fwd.Inputs().Each(func(_, name string) bool {
				b.noGrad.Insert(opdesc.GradName(name))
				return false
			})
			continue
		}
		fills, grads := b.synthesizeLeaf(fwd, 0)
		for _, desc := range fills {
			dups.recordOutputs(desc, len(gradDescs))
			gradDescs = append(gradDescs, desc)
		}
		for _, desc := range grads {
			dups.recordOutputs(desc, len(gradDescs))
			gradDescs = append(gradDescs, desc)
		}
	}

	pending := resolveDuplicateWriters(dups,
		opdesc.RenameAliasFlat,
		func(pos int, from, to string) { gradDescs[pos].Rename(from, to) })
	for _, p := range pending {
		gradDescs = slices.Insert(gradDescs, p.pos+1, p.op)
	}
	block.Append(gradDescs...)
}
