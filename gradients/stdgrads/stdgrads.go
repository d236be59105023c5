// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package stdgrads registers gradient recipes for the stock operator kinds.
// Import it for its side effects:
//
//	import _ "github.com/gomlx/opgrad/gradients/stdgrads"
//
// Programs with their own operator set can skip this package and register
// recipes directly with gradients.Register.
package stdgrads

import (
	"github.com/gomlx/opgrad/gradients"
	"github.com/gomlx/opgrad/opdesc"
)

func init() {
	// dX = dOut, dY = dOut: nothing from the forward pass is needed.
	gradients.Register("add", gradients.Conventional(gradients.WithoutInputs(), gradients.WithoutOutputs()))
	gradients.Register("scale", gradients.Conventional(gradients.WithoutInputs(), gradients.WithoutOutputs()))

	// dX = dOut*Y, dY = dOut*X: needs the forward inputs.
	gradients.Register("mul", gradients.Conventional(gradients.WithoutOutputs()))
	gradients.Register("matmul", gradients.Conventional(gradients.WithoutOutputs()))

	// dX = dOut*f'(Out): needs only the forward output.
	gradients.Register("tanh", gradients.Conventional(gradients.WithoutInputs()))
	gradients.Register("sigmoid", gradients.Conventional(gradients.WithoutInputs()))

	gradients.Register(opdesc.KindRecurrent, recurrentRecipe)
}

// recurrentRecipe builds the conventional recurrent gradient and hands the
// forward step-net to the descriptor. The backward builder replaces it with
// the synthesized backward step-net.
func recurrentRecipe(fwd *opdesc.OpDesc) []*opdesc.OpDesc {
	descs := gradients.Conventional()(fwd)
	descs[0].SetStepNet(fwd.StepNet())
	return descs
}
