// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gradients holds the process-wide registry of gradient recipes: for
// every differentiable operator kind, the recipe that produces the
// descriptor list of its gradient.
//
// The registry is populated at initialization time -- typically from init()
// functions, see the stdgrads sub-package -- and is read-only afterwards, so
// no locking happens on the synthesis path.
package gradients

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/opgrad/opdesc"
	"github.com/pkg/errors"
)

// Recipe produces the gradient descriptors of one forward leaf descriptor.
//
// The returned descriptors may reference the forward inputs, the forward
// outputs and the gradients of the forward outputs; their outputs are the
// gradients of the forward inputs. An empty result means the operator has no
// gradient to contribute.
type Recipe func(fwd *opdesc.OpDesc) []*opdesc.OpDesc

// ErrUnregisteredGradient is returned (wrapped with the offending kind) when
// backward synthesis encounters an operator kind with no registered recipe.
var ErrUnregisteredGradient = errors.New("no gradient recipe registered")

var registry = make(map[string]Recipe)

// Register installs the recipe for the given operator kind. It must be
// called before the first backward synthesis, usually from an init()
// function. Registering an empty kind, a nil recipe or the same kind twice
// panics: those are programming errors.
func Register(kind string, recipe Recipe) {
	if kind == "" {
		exceptions.Panicf("gradients.Register: empty operator kind")
	}
	if recipe == nil {
		exceptions.Panicf("gradients.Register(%q): nil recipe", kind)
	}
	if _, found := registry[kind]; found {
		exceptions.Panicf("gradients.Register(%q): kind already registered", kind)
	}
	registry[kind] = recipe
}

// Registered returns whether a recipe exists for the given kind.
func Registered(kind string) bool {
	_, found := registry[kind]
	return found
}

// MakeGradient produces the gradient descriptor list of one forward leaf
// descriptor, by looking up the recipe registered for its kind. It fails
// with ErrMalformedDescriptor if the descriptor doesn't validate, and with
// ErrUnregisteredGradient if no recipe is registered for the kind.
func MakeGradient(fwd *opdesc.OpDesc) ([]*opdesc.OpDesc, error) {
	if err := fwd.Validate(); err != nil {
		return nil, err
	}
	recipe, found := registry[fwd.Type()]
	if !found {
		return nil, errors.Wrapf(ErrUnregisteredGradient, "operator kind %q", fwd.Type())
	}
	return recipe(fwd), nil
}
