// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaf(kind string, inputs, outputs []string) *OpDesc {
	return New(kind, NewVarMap().Set("X", inputs), NewVarMap().Set("Out", outputs), nil)
}

func TestNOP(t *testing.T) {
	nop := NOP()
	assert.True(t, IsNOP(nop))
	assert.Equal(t, KindNOP, nop.Type())
	assert.Equal(t, 0, nop.NumChildren())

	// An empty plain net is not a NOP.
	assert.False(t, IsNOP(NewNet()))
	// Nor is a leaf.
	assert.False(t, IsNOP(newLeaf("add", []string{"a"}, []string{"b"})))
}

func TestNetAggregation(t *testing.T) {
	net := NewNet(
		newLeaf("op1", []string{"a", "b"}, []string{"c"}),
		newLeaf("op2", []string{"c", "a"}, []string{"d", "c"}),
	)
	// Union keeps first-seen order and drops duplicates.
	assert.Equal(t, []string{"a", "b", "c"}, net.Inputs().Names())
	assert.Equal(t, []string{"X"}, net.Inputs().Slots())
	assert.Equal(t, []string{"c", "d"}, net.Outputs().Names())
	assert.Equal(t, []string{"Out"}, net.Outputs().Slots())

	// The aggregate is a snapshot: mutating it doesn't touch the net.
	snapshot := net.Inputs()
	snapshot.Rename("a", "zzz")
	assert.Equal(t, []string{"a", "b", "c"}, net.Inputs().Names())
}

func TestNetInsertAndRename(t *testing.T) {
	net := NewNet(
		newLeaf("op1", []string{"a"}, []string{"y"}),
		newLeaf("op2", []string{"y"}, []string{"z"}),
	)
	net.Insert(1, newLeaf("mid", []string{"y"}, []string{"y"}))
	require.Equal(t, 3, net.NumChildren())
	assert.Equal(t, "mid", net.Child(1).Type())

	inner := NewNet(newLeaf("op3", []string{"z"}, []string{"w"}))
	net.Append(inner)
	net.Rename("z", "z2")
	assert.Equal(t, []string{"z2"}, net.Child(1+1).Outputs().Names())
	assert.Equal(t, []string{"z2"}, inner.Child(0).Inputs().Names())

	require.Panics(t, func() { net.Insert(99, newLeaf("x", nil, nil)) })
}
