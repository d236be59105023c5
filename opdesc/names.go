// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Fixed string constants of the variable naming convention and the well-known
// operator kinds. Gradient recipes registered elsewhere build names with
// these, so changing any of them is a breaking change.
const (
	// GradSuffix is appended to a forward variable name to form the name of
	// its gradient.
	GradSuffix = "@GRAD"

	// ZeroSuffix is appended to a forward variable name to form the alias
	// bound to a fill-zeros-like operator, substituted for a suppressed
	// upstream gradient.
	ZeroSuffix = "@ZERO"

	// EmptyName is the sentinel variable name denoting "no variable here".
	// Gradient machinery treats it as a no-op placeholder.
	EmptyName = "@EMPTY@"

	// RenameTag is the infix used to disambiguate multiple writers of the
	// same gradient variable. It never appears in user-provided names.
	RenameTag = "@RENAME@"

	// GradKindSuffix is appended to a forward operator kind to form the
	// conventional kind of its gradient operator.
	GradKindSuffix = "_grad"
)

// Well-known operator kinds.
const (
	// KindFillZerosLike is the operator that writes a zero-filled tensor
	// shaped like its input.
	KindFillZerosLike = "fill_zeros_like"

	// KindAccumulate is the operator that sums its X inputs into Out. It is
	// inserted to combine the renamed aliases of duplicated gradient writers.
	KindAccumulate = "accumulate"

	// KindNOP marks the canonical empty composite signaling "no work".
	KindNOP = "@NOP@"

	// KindNet marks a plain user-built composite.
	KindNet = "plain_net"

	// KindGeneratedBackward marks composites synthesized by the backward
	// builder.
	KindGeneratedBackward = "@generated-backward@"

	// KindRecurrent is the leaf kind that owns a step-net, differentiated
	// recursively.
	KindRecurrent = "recurrent"
)

// GradName returns the name of the gradient variable of v.
func GradName(v string) string { return v + GradSuffix }

// ZeroName returns the zero-filled alias for the forward variable v.
func ZeroName(v string) string { return v + ZeroSuffix }

// IsGradName returns whether g is the gradient name of some forward variable.
func IsGradName(g string) bool { return strings.HasSuffix(g, GradSuffix) }

// StripGrad returns the forward variable name whose gradient is g. It panics
// (throws) if g is not a gradient name -- that indicates a bug in the caller.
func StripGrad(g string) string {
	if !IsGradName(g) {
		exceptions.Panicf("opdesc.StripGrad(%q): name does not carry the %q suffix", g, GradSuffix)
	}
	return strings.TrimSuffix(g, GradSuffix)
}

// RenameAlias returns the globally unique alias of v for the i-th duplicated
// writer within the composite scope identified by uid.
func RenameAlias(v string, uid, i int) string {
	return fmt.Sprintf("%s%s%d@%d", v, RenameTag, uid, i)
}

// RenameAliasFlat returns the alias of v for the i-th duplicated writer of a
// flat block. Flat blocks have a single scope, so no uid infix is needed.
func RenameAliasFlat(v string, i int) string {
	return fmt.Sprintf("%s%s%d", v, RenameTag, i)
}
