// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stdgrads

import (
	"testing"

	"github.com/gomlx/opgrad/gradients"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockKindsRegistered(t *testing.T) {
	for _, kind := range []string{"add", "scale", "mul", "matmul", "tanh", "sigmoid", opdesc.KindRecurrent} {
		assert.Truef(t, gradients.Registered(kind), "kind %q should be registered", kind)
	}
	assert.False(t, gradients.Registered(opdesc.KindFillZerosLike))
	assert.False(t, gradients.Registered(opdesc.KindAccumulate))
}

func TestTanhRecipe(t *testing.T) {
	fwd := opdesc.New("tanh",
		opdesc.NewVarMap().Add("X", "x"),
		opdesc.NewVarMap().Add("Out", "y"),
		nil)
	descs, err := gradients.MakeGradient(fwd)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	grad := descs[0]
	assert.Equal(t, "tanh_grad", grad.Type())
	// Only the output and its gradient are read, not the forward input.
	assert.True(t, grad.Inputs().Equal(
		opdesc.NewVarMap().Add("Out", "y").Add("Out@GRAD", "y@GRAD")))
	assert.True(t, grad.Outputs().Equal(opdesc.NewVarMap().Add("X@GRAD", "x@GRAD")))
}

func TestRecurrentRecipe(t *testing.T) {
	step := opdesc.NewNet(opdesc.New("tanh",
		opdesc.NewVarMap().Add("X", "h"),
		opdesc.NewVarMap().Add("Out", "h2"),
		nil))
	fwd := opdesc.New(opdesc.KindRecurrent,
		opdesc.NewVarMap().Add("X", "x"),
		opdesc.NewVarMap().Add("Out", "h"),
		nil)
	fwd.SetStepNet(step)

	descs, err := gradients.MakeGradient(fwd)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "recurrent_grad", descs[0].Type())
	// The recipe hands over the forward step-net; the backward builder
	// replaces it with the synthesized backward step-net.
	assert.Same(t, opdesc.Op(step), descs[0].StepNet())
}
