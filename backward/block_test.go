// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backward_test

import (
	"testing"

	"github.com/gomlx/opgrad/backward"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBackwardLinearChain(t *testing.T) {
	block := opdesc.NewBlock(
		leaf("mul", vars("X", []string{"x"}, "Y", []string{"w1"}), vars("Out", []string{"h"})),
		leaf("mul", vars("X", []string{"h"}, "Y", []string{"w2"}), vars("Out", []string{"out"})),
	)
	require.NoError(t, backward.AppendBackward(block))
	require.Equal(t, 4, block.Len())

	// Gradients are appended in reverse forward order.
	gradLast := block.Op(2)
	assert.Equal(t, "mul_grad", gradLast.Type())
	assert.Equal(t, []string{"out@GRAD"}, gradLast.Inputs().Vars("Out@GRAD"))
	gradFirst := block.Op(3)
	assert.Equal(t, []string{"h@GRAD"}, gradFirst.Inputs().Vars("Out@GRAD"))
	assert.Equal(t, []string{"x@GRAD"}, gradFirst.Outputs().Vars("X@GRAD"))
}

func TestAppendBackwardDuplicateWriters(t *testing.T) {
	block := opdesc.NewBlock(
		leaf("sq", vars("X", []string{"x"}), vars("Out", []string{"y"})),
		leaf("sq", vars("X", []string{"x"}), vars("Out", []string{"y"})),
	)
	require.NoError(t, backward.AppendBackward(block))
	require.Equal(t, 5, block.Len())

	// Flat aliases carry no uid infix: there is a single scope.
	second := block.Op(2)
	first := block.Op(3)
	assert.Equal(t, []string{"x@GRAD@RENAME@0"}, second.Outputs().Vars("X@GRAD"))
	assert.Equal(t, []string{"x@GRAD@RENAME@1"}, first.Outputs().Vars("X@GRAD"))

	accum := block.Op(4)
	assert.Equal(t, opdesc.KindAccumulate, accum.Type())
	assert.Equal(t, []string{"x@GRAD@RENAME@0", "x@GRAD@RENAME@1"}, accum.Inputs().Vars("X"))
	assert.Equal(t, []string{"x@GRAD"}, accum.Outputs().Vars("Out"))
}

func TestAppendBackwardSkipAndPoison(t *testing.T) {
	block := opdesc.NewBlock(
		leaf("mul", vars("X", []string{"a"}, "Y", []string{"b"}), vars("Out", []string{"c"})),
	)
	noGrad := types.SetWith(opdesc.GradName("c"))
	require.NoError(t, backward.AppendBackwardWithGradSet(block, noGrad))

	// Nothing appended, and the input gradients are now suppressed too.
	assert.Equal(t, 1, block.Len())
	assert.True(t, noGrad.Has("a@GRAD"))
	assert.True(t, noGrad.Has("b@GRAD"))
}

func TestAppendBackwardZeroFill(t *testing.T) {
	block := opdesc.NewBlock(
		leaf("fork", vars("X", []string{"d"}), vars("Y", []string{"y"}, "Z", []string{"z"})),
	)
	require.NoError(t, backward.AppendBackward(block, "z"))
	require.Equal(t, 3, block.Len())

	// The fill op lands before the gradient op that consumes its output.
	fill := block.Op(1)
	assert.Equal(t, opdesc.KindFillZerosLike, fill.Type())
	assert.Equal(t, []string{"z"}, fill.Inputs().Vars("X"))
	assert.Equal(t, []string{"z@ZERO"}, fill.Outputs().Vars("Y"))

	grad := block.Op(2)
	assert.Equal(t, "fork_grad", grad.Type())
	assert.Equal(t, []string{"z@ZERO"}, grad.Inputs().Vars("Z@GRAD"))
}

func TestAppendBackwardRecurrent(t *testing.T) {
	rec := leaf(opdesc.KindRecurrent, vars("X", []string{"x"}), vars("Out", []string{"h"}))
	rec.SetStepNet(opdesc.NewNet(
		leaf("tanh", vars("X", []string{"h"}), vars("Out", []string{"h2"})),
	))
	block := opdesc.NewBlock(rec)
	require.NoError(t, backward.AppendBackward(block))
	require.Equal(t, 2, block.Len())

	grad := block.Op(1)
	assert.Equal(t, "recurrent_grad", grad.Type())
	bwdStep, ok := grad.StepNet().(*opdesc.Net)
	require.True(t, ok)
	assert.Equal(t, opdesc.KindGeneratedBackward, bwdStep.Type())
}

func TestAppendBackwardFullySuppressed(t *testing.T) {
	block := opdesc.NewBlock(
		leaf("mul", vars("X", []string{"a"}, "Y", []string{"b"}), vars("Out", []string{"c"})),
	)
	require.NoError(t, backward.AppendBackward(block, "a", "b"))
	assert.Equal(t, 1, block.Len())
}
