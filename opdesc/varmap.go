// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"fmt"
	"strings"

	"github.com/gomlx/opgrad/types/xslices"
)

// VarMap is an ordered mapping from slot name to the list of variable names
// bound to that slot. Slots keep the order in which they were first added,
// and variable lists keep insertion order. The zero value is usable.
//
// The meaning of a variable is fixed by its position in the slot map, so
// order is part of the data, not a presentation detail.
type VarMap struct {
	slots []string
	vars  map[string][]string
}

// NewVarMap returns an empty VarMap.
func NewVarMap() *VarMap {
	return &VarMap{}
}

// Add appends the given variable names to the slot, creating the slot at the
// end of the slot order if it doesn't exist yet. It returns the VarMap to
// allow chaining.
func (vm *VarMap) Add(slot string, names ...string) *VarMap {
	if vm.vars == nil {
		vm.vars = make(map[string][]string)
	}
	if _, found := vm.vars[slot]; !found {
		vm.slots = append(vm.slots, slot)
	}
	vm.vars[slot] = append(vm.vars[slot], names...)
	return vm
}

// Set replaces the variable list of the slot, creating the slot at the end of
// the slot order if it doesn't exist yet.
func (vm *VarMap) Set(slot string, names []string) *VarMap {
	if vm.vars == nil {
		vm.vars = make(map[string][]string)
	}
	if _, found := vm.vars[slot]; !found {
		vm.slots = append(vm.slots, slot)
	}
	vm.vars[slot] = xslices.Copy(names)
	return vm
}

// Vars returns the variable names bound to the slot, or nil if the slot
// doesn't exist. The returned slice is owned by the VarMap.
func (vm *VarMap) Vars(slot string) []string {
	if vm == nil || vm.vars == nil {
		return nil
	}
	return vm.vars[slot]
}

// Has returns whether the slot exists.
func (vm *VarMap) Has(slot string) bool {
	if vm == nil || vm.vars == nil {
		return false
	}
	_, found := vm.vars[slot]
	return found
}

// Slots returns the slot names in order. The returned slice is a copy.
func (vm *VarMap) Slots() []string {
	if vm == nil {
		return nil
	}
	return xslices.Copy(vm.slots)
}

// NumSlots returns the number of slots.
func (vm *VarMap) NumSlots() int {
	if vm == nil {
		return 0
	}
	return len(vm.slots)
}

// Each calls fn for every (slot, variable name) pair, slots in order and
// names in list order. If fn returns true the iteration stops early.
func (vm *VarMap) Each(fn func(slot, name string) bool) {
	if vm == nil {
		return
	}
	for _, slot := range vm.slots {
		for _, name := range vm.vars[slot] {
			if fn(slot, name) {
				return
			}
		}
	}
}

// Names returns all variable names, slots in order, names in list order.
// Duplicates are kept.
func (vm *VarMap) Names() (names []string) {
	vm.Each(func(_, name string) bool {
		names = append(names, name)
		return false
	})
	return
}

// Rename replaces every occurrence of the variable name `from` with `to`,
// across all slots, and returns the number of occurrences replaced.
func (vm *VarMap) Rename(from, to string) (count int) {
	if vm == nil {
		return 0
	}
	for _, slot := range vm.slots {
		names := vm.vars[slot]
		for ii, name := range names {
			if name == from {
				names[ii] = to
				count++
			}
		}
	}
	return
}

// Clone returns an independent deep copy.
func (vm *VarMap) Clone() *VarMap {
	if vm == nil {
		return nil
	}
	clone := &VarMap{
		slots: xslices.Copy(vm.slots),
		vars:  make(map[string][]string, len(vm.vars)),
	}
	for slot, names := range vm.vars {
		clone.vars[slot] = xslices.Copy(names)
	}
	return clone
}

// Equal reports whether vm and other hold the same slots in the same order
// with the same variable lists.
func (vm *VarMap) Equal(other *VarMap) bool {
	if vm.NumSlots() != other.NumSlots() {
		return false
	}
	if vm == nil || other == nil {
		return true
	}
	for ii, slot := range vm.slots {
		if other.slots[ii] != slot {
			return false
		}
		names, otherNames := vm.vars[slot], other.vars[slot]
		if len(names) != len(otherNames) {
			return false
		}
		for jj, name := range names {
			if otherNames[jj] != name {
				return false
			}
		}
	}
	return true
}

// String returns a compact human-readable form, e.g. `X:[a], Y:[b c]`.
func (vm *VarMap) String() string {
	if vm.NumSlots() == 0 {
		return ""
	}
	parts := make([]string, 0, len(vm.slots))
	for _, slot := range vm.slots {
		parts = append(parts, fmt.Sprintf("%s:[%s]", slot, strings.Join(vm.vars[slot], " ")))
	}
	return strings.Join(parts, ", ")
}
