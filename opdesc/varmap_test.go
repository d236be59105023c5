// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarMapOrdering(t *testing.T) {
	vm := NewVarMap().Add("X", "a").Add("Y", "b").Add("X", "c")
	assert.Equal(t, []string{"X", "Y"}, vm.Slots())
	assert.Equal(t, []string{"a", "c"}, vm.Vars("X"))
	assert.Equal(t, []string{"a", "c", "b"}, vm.Names())
	assert.True(t, vm.Has("Y"))
	assert.False(t, vm.Has("Out"))

	// Set replaces, keeping the slot position.
	vm.Set("X", []string{"z"})
	assert.Equal(t, []string{"X", "Y"}, vm.Slots())
	assert.Equal(t, []string{"z", "b"}, vm.Names())
}

func TestVarMapRename(t *testing.T) {
	vm := NewVarMap().Add("X", "a", "b").Add("Y", "a")
	assert.Equal(t, 2, vm.Rename("a", "a2"))
	assert.Equal(t, []string{"a2", "b", "a2"}, vm.Names())
	assert.Equal(t, 0, vm.Rename("missing", "x"))
}

func TestVarMapCloneAndEqual(t *testing.T) {
	vm := NewVarMap().Add("X", "a").Add("Y", "b")
	clone := vm.Clone()
	require.True(t, vm.Equal(clone))

	clone.Rename("a", "a2")
	assert.False(t, vm.Equal(clone))
	assert.Equal(t, []string{"a", "b"}, vm.Names())

	// Same content, different slot order, is not equal.
	other := NewVarMap().Add("Y", "b").Add("X", "a")
	assert.False(t, vm.Equal(other))
}

func TestVarMapString(t *testing.T) {
	vm := NewVarMap().Add("X", "a", "b").Add("Y", "c")
	assert.Equal(t, "X:[a b], Y:[c]", vm.String())
	assert.Equal(t, "", NewVarMap().String())
}

func TestVarMapEachEarlyStop(t *testing.T) {
	vm := NewVarMap().Add("X", "a", "b").Add("Y", "c")
	var visited []string
	vm.Each(func(_, name string) bool {
		visited = append(visited, name)
		return name == "b"
	})
	assert.Equal(t, []string{"a", "b"}, visited)
}
