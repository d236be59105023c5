// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package optree renders operator graphs for terminals: a styled tree of the
// nodes and a summary table of operator kinds. Used by cmd/opgrad_dump and
// handy when debugging backward synthesis.
package optree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/opgrad/opdesc"
	"golang.org/x/exp/maps"
)

var (
	kindStyle    = lipgloss.NewStyle().Bold(true)
	slotsStyle   = lipgloss.NewStyle().Faint(true)
	stepNetStyle = lipgloss.NewStyle().Italic(true)

	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
)

// Render returns a multi-line tree of the operator graph, composites
// indented with box-drawing characters and step-nets nested under their
// owner.
func Render(op opdesc.Op) string {
	var sb strings.Builder
	render(&sb, op, "", "")
	return strings.TrimSuffix(sb.String(), "\n")
}

func render(sb *strings.Builder, op opdesc.Op, linePrefix, childPrefix string) {
	switch node := op.(type) {
	case *opdesc.Net:
		fmt.Fprintf(sb, "%s%s\n", linePrefix, kindStyle.Render(node.Type()))
		children := node.Children()
		for ii, child := range children {
			connector, nested := "├─ ", "│  "
			if ii == len(children)-1 {
				connector, nested = "└─ ", "   "
			}
			render(sb, child, childPrefix+connector, childPrefix+nested)
		}
	case *opdesc.OpDesc:
		fmt.Fprintf(sb, "%s%s%s\n", linePrefix, kindStyle.Render(node.Type()),
			slotsStyle.Render(fmt.Sprintf("(%s) -> (%s)", node.Inputs(), node.Outputs())))
		if stepNet := node.StepNet(); stepNet != nil {
			fmt.Fprintf(sb, "%s%s\n", childPrefix, stepNetStyle.Render("step-net:"))
			render(sb, stepNet, childPrefix+"└─ ", childPrefix+"   ")
		}
	default:
		fmt.Fprintf(sb, "%s<unknown node %T>\n", linePrefix, op)
	}
}

// kindCounts walks the graph (step-nets included) counting leaves and
// composites per kind.
func kindCounts(op opdesc.Op, counts map[string]int) {
	counts[op.Type()]++
	switch node := op.(type) {
	case *opdesc.Net:
		for _, child := range node.Children() {
			kindCounts(child, counts)
		}
	case *opdesc.OpDesc:
		if node.StepNet() != nil {
			kindCounts(node.StepNet(), counts)
		}
	}
}

// Summary returns a table of operator counts per kind, plus a total.
func Summary(op opdesc.Op) string {
	counts := make(map[string]int)
	kindCounts(op, counts)
	kinds := maps.Keys(counts)
	slices.Sort(kinds)

	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row < 0 {
				// Header row.
				return headerRowStyle
			}
			if row%2 == 0 {
				return evenRowStyle
			}
			return oddRowStyle
		}).
		Headers("Kind", "Count")
	total := 0
	for _, kind := range kinds {
		table.Row(kind, humanize.Comma(int64(counts[kind])))
		total += counts[kind]
	}
	table.Row("(total)", humanize.Comma(int64(total)))
	return table.Render()
}
