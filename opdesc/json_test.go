// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarMapJSON(t *testing.T) {
	vm := NewVarMap().Add("Y", "b").Add("X", "a", "c")
	data, err := vm.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Y":["b"],"X":["a","c"]}`, string(data))

	decoded := NewVarMap()
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.True(t, vm.Equal(decoded))
	// Slot order survives the round-trip.
	assert.Equal(t, []string{"Y", "X"}, decoded.Slots())
}

func TestMarshalOpRoundTrip(t *testing.T) {
	step := NewNet(newLeaf("tanh", []string{"h"}, []string{"h2"}))
	recurrent := New(KindRecurrent,
		NewVarMap().Add("X", "x").Add("H0", "h0"),
		NewVarMap().Add("Out", "h"),
		map[string]any{"steps": 3.0})
	recurrent.SetStepNet(step)

	forward := NewNet(
		newLeaf("mul", []string{"x", "w"}, []string{"y"}),
		recurrent,
		NewNet(newLeaf("add", []string{"h", "b"}, []string{"out"})),
	)

	data, err := MarshalOp(forward)
	require.NoError(t, err)

	decoded, err := UnmarshalOp(data)
	require.NoError(t, err)
	net, ok := decoded.(*Net)
	require.True(t, ok)
	require.Equal(t, 3, net.NumChildren())

	assert.Equal(t, "mul", net.Child(0).Type())
	assert.True(t, net.Child(0).Inputs().Equal(NewVarMap().Add("X", "x", "w")))

	rec, ok := net.Child(1).(*OpDesc)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"steps": 3.0}, rec.Attrs())
	require.NotNil(t, rec.StepNet())
	assert.Equal(t, "tanh", rec.StepNet().(*Net).Child(0).Type())

	inner, ok := net.Child(2).(*Net)
	require.True(t, ok)
	assert.Equal(t, KindNet, inner.Type())

	// Re-encoding yields the identical document.
	data2, err := MarshalOp(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))
}

func TestUnmarshalOpErrors(t *testing.T) {
	_, err := UnmarshalOp([]byte(`{`))
	require.Error(t, err)

	_, err = UnmarshalOp([]byte(`{"kind":"net 1","net":true,"ops":[{"kind":"x","inputs":3}]}`))
	require.Error(t, err)
}
