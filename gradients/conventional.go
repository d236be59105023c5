// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gradients

import (
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types/xslices"
)

// conventionalOptions configures which parts of the forward descriptor the
// conventional gradient operator reads.
type conventionalOptions struct {
	useInputs  bool
	useOutputs bool
}

// ConventionalOption modifies what Conventional feeds the gradient operator.
type ConventionalOption func(*conventionalOptions)

// WithoutInputs drops the forward inputs from the gradient operator's
// inputs. Used by operators whose gradient only needs their outputs, like
// tanh or sigmoid.
func WithoutInputs() ConventionalOption {
	return func(opts *conventionalOptions) { opts.useInputs = false }
}

// WithoutOutputs drops the forward outputs (but never their gradients) from
// the gradient operator's inputs.
func WithoutOutputs() ConventionalOption {
	return func(opts *conventionalOptions) { opts.useOutputs = false }
}

// Conventional builds the Recipe for the common gradient shape: a single
// operator of kind `<fwd kind>_grad` whose inputs are the forward inputs,
// the forward outputs and the gradients of the forward outputs, and whose
// outputs are the gradients of the forward inputs, slot for slot. Gradient
// slots are the gradient names of the forward slots, so "Out" becomes
// "Out@GRAD". Attributes are passed through unchanged.
func Conventional(options ...ConventionalOption) Recipe {
	opts := conventionalOptions{useInputs: true, useOutputs: true}
	for _, option := range options {
		option(&opts)
	}
	return func(fwd *opdesc.OpDesc) []*opdesc.OpDesc {
		inputs := opdesc.NewVarMap()
		if opts.useInputs {
			for _, slot := range fwd.Inputs().Slots() {
				inputs.Set(slot, fwd.Inputs().Vars(slot))
			}
		}
		if opts.useOutputs {
			for _, slot := range fwd.Outputs().Slots() {
				inputs.Set(slot, fwd.Outputs().Vars(slot))
			}
		}
		for _, slot := range fwd.Outputs().Slots() {
			inputs.Set(opdesc.GradName(slot), xslices.Map(fwd.Outputs().Vars(slot), opdesc.GradName))
		}
		outputs := opdesc.NewVarMap()
		for _, slot := range fwd.Inputs().Slots() {
			outputs.Set(opdesc.GradName(slot), xslices.Map(fwd.Inputs().Vars(slot), opdesc.GradName))
		}
		grad := opdesc.New(fwd.Type()+opdesc.GradKindSuffix, inputs, outputs, fwd.Attrs())
		return []*opdesc.OpDesc{grad}
	}
}
