// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backward

import (
	"slices"

	"github.com/gomlx/opgrad/opdesc"
	"github.com/gomlx/opgrad/types"
	"github.com/gomlx/opgrad/types/xslices"
)

// dupWriters records, per output variable name, the positions of the
// backward operators that write it, in the order the operators were
// produced. Names keep first-sighting order so resolution is deterministic.
type dupWriters struct {
	order  []string
	byName map[string][]int
}

func newDupWriters() *dupWriters {
	return &dupWriters{byName: make(map[string][]int)}
}

// recordOutputs records every distinct output variable name of op as written
// by the operator at position pos.
func (d *dupWriters) recordOutputs(op opdesc.Op, pos int) {
	seen := types.MakeSet[string]()
	op.Outputs().Each(func(_, name string) bool {
		if !seen.Has(name) {
			seen.Insert(name)
			d.add(name, pos)
		}
		return false
	})
}

func (d *dupWriters) add(name string, pos int) {
	if _, found := d.byName[name]; !found {
		d.order = append(d.order, name)
	}
	d.byName[name] = append(d.byName[name], pos)
}

// pendingAccumulation is an accumulate operator to insert right after the
// operator at position pos.
type pendingAccumulation struct {
	pos int
	op  *opdesc.OpDesc
}

// resolveDuplicateWriters handles output variables written by more than one
// backward operator: each writer's output is renamed to a unique alias (the
// rename callback must rewrite every occurrence of the name in the operator
// at that position), and an accumulate operator summing the aliases back
// into the original name is scheduled after the last writer.
//
// Suppressed outputs (EmptyName) are never a conflict and are skipped.
//
// The result is sorted by descending position: applying the insertions in
// that order keeps the positions of the not-yet-applied ones valid. Shared
// by the nested and the flat variants, which differ only in the alias format
// and in how an operator position is renamed.
func resolveDuplicateWriters(dups *dupWriters,
	alias func(name string, i int) string,
	rename func(pos int, from, to string)) []pendingAccumulation {
	var pending []pendingAccumulation
	for _, name := range dups.order {
		positions := dups.byName[name]
		if len(positions) < 2 || name == opdesc.EmptyName {
			continue
		}
		aliases := make([]string, 0, len(positions))
		for ii, pos := range positions {
			aliased := alias(name, ii)
			rename(pos, name, aliased)
			aliases = append(aliases, aliased)
		}
		pending = append(pending, pendingAccumulation{
			pos: xslices.Last(positions),
			op: opdesc.New(opdesc.KindAccumulate,
				opdesc.NewVarMap().Set("X", aliases),
				opdesc.NewVarMap().Add("Out", name),
				nil),
		})
	}
	slices.SortStableFunc(pending, func(a, b pendingAccumulation) int {
		return b.pos - a.pos
	})
	return pending
}
