// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"github.com/gomlx/exceptions"
)

// Block is a flat ordered list of leaf descriptors. It is the program
// representation of the layers of the system that do not nest composites.
type Block struct {
	ops []*OpDesc
}

// NewBlock creates a Block with the given descriptors, in order.
func NewBlock(ops ...*OpDesc) *Block {
	return &Block{ops: ops}
}

// Append adds descriptors at the end of the block.
func (b *Block) Append(ops ...*OpDesc) {
	b.ops = append(b.ops, ops...)
}

// Insert adds a descriptor at position pos, shifting later descriptors one
// to the right. It panics (throws) on an out-of-range position.
func (b *Block) Insert(pos int, op *OpDesc) {
	if pos < 0 || pos > len(b.ops) {
		exceptions.Panicf("Block.Insert(%d): position out of range, block has %d ops", pos, len(b.ops))
	}
	b.ops = append(b.ops, nil)
	copy(b.ops[pos+1:], b.ops[pos:])
	b.ops[pos] = op
}

// Ops returns the descriptor slice, owned by the Block.
func (b *Block) Ops() []*OpDesc { return b.ops }

// Len returns the number of descriptors in the block.
func (b *Block) Len() int { return len(b.ops) }

// Op returns the descriptor at position i.
func (b *Block) Op(i int) *OpDesc { return b.ops[i] }
