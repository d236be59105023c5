// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock(t *testing.T) {
	block := NewBlock(
		newLeaf("op1", []string{"a"}, []string{"b"}),
		newLeaf("op2", []string{"b"}, []string{"c"}),
	)
	require.Equal(t, 2, block.Len())

	block.Insert(1, newLeaf("mid", []string{"b"}, []string{"b"}))
	assert.Equal(t, "mid", block.Op(1).Type())
	assert.Equal(t, "op2", block.Op(2).Type())

	block.Append(newLeaf("op3", []string{"c"}, []string{"d"}))
	assert.Equal(t, 4, block.Len())
	assert.Equal(t, "op3", block.Op(block.Len()-1).Type())

	require.Panics(t, func() { block.Insert(-1, nil) })
}
