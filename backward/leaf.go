// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backward

import (
	"github.com/gomlx/opgrad/gradients"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types"
	"github.com/pkg/errors"
)

// leafBackward synthesizes the backward node of one forward leaf. The result
// is the gradient leaf itself when no auxiliary operator is needed, or a
// generated composite of [fill-zeros-like ops..., gradient ops...].
func (b *builder) leafBackward(fwd *opdesc.OpDesc, depth int) opdesc.Op {
	fills, grads := b.synthesizeLeaf(fwd, depth)
	if len(fills) == 0 && len(grads) == 1 {
		return grads[0]
	}
	if len(fills) == 0 && len(grads) == 0 {
		// The recipe decided there is no gradient to contribute.
		return opdesc.NOP()
	}
	net := opdesc.NewNet()
	net.SetType(opdesc.KindGeneratedBackward)
	for _, fill := range fills {
		net.Append(fill)
	}
	for _, grad := range grads {
		net.Append(grad)
	}
	return net
}

// synthesizeLeaf produces the gradient descriptors of one forward leaf and
// applies the no-grad rewrites on them:
//
//   - a gradient input that is suppressed is renamed (in the input maps
//     only) to the zero alias of its forward variable, and a fill-zeros-like
//     operator producing that alias is scheduled before the gradient ops;
//   - a gradient output that is suppressed is renamed (in the output maps
//     only) to the EmptyName sentinel, so downstream discards it.
//
// For recurrent leaves it recursively differentiates the step-net, sharing
// the no-grad set and the unique-id counter, and installs the result on the
// gradient descriptor.
//
// Shared by the nested and the flat variants.
func (b *builder) synthesizeLeaf(fwd *opdesc.OpDesc, depth int) (fills, grads []*opdesc.OpDesc) {
	grads, err := gradients.MakeGradient(fwd)
	if err != nil {
		panic(err)
	}

	filled := types.MakeSet[string]()
	for _, grad := range grads {
		for _, name := range grad.Inputs().Names() {
			if !b.noGrad.Has(name) {
				continue
			}
			fwdName := opdesc.StripGrad(name)
			zeroName := opdesc.ZeroName(fwdName)
			grad.Inputs().Rename(name, zeroName)
			if filled.Has(zeroName) {
				// Already zero-filled for an earlier gradient op of this leaf.
				continue
			}
			filled.Insert(zeroName)
			fills = append(fills, opdesc.New(opdesc.KindFillZerosLike,
				opdesc.NewVarMap().Add("X", fwdName),
				opdesc.NewVarMap().Add("Y", zeroName),
				nil))
		}
		for _, name := range grad.Outputs().Names() {
			if b.noGrad.Has(name) {
				grad.Outputs().Rename(name, opdesc.EmptyName)
			}
		}
	}

	if fwd.Type() == opdesc.KindRecurrent {
		b.backwardStepNet(fwd, grads, depth)
	}
	return
}

// backwardStepNet replaces the step-net handed over by the recurrent
// gradient recipe with the synthesized backward step-net.
func (b *builder) backwardStepNet(fwd *opdesc.OpDesc, grads []*opdesc.OpDesc, depth int) {
	var target *opdesc.OpDesc
	for _, grad := range grads {
		if grad.StepNet() != nil {
			target = grad
			break
		}
	}
	if target == nil {
		panic(errors.Wrapf(opdesc.ErrMalformedDescriptor,
			"gradient of %q carries no step-net to differentiate", fwd.Type()))
	}
	target.SetStepNet(b.recurse(fwd.StepNet(), depth+1))
}
