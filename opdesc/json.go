// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opdesc

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSON codec for operator graphs, used by tooling (see cmd/opgrad_dump) and
// tests. Slot order is part of the data model, so VarMap implements its own
// (un)marshalling instead of going through a Go map.

// MarshalJSON encodes the VarMap as a JSON object with the slots in order.
func (vm *VarMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for ii, slot := range vm.slots {
		if ii > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(slot)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		names := vm.vars[slot]
		if names == nil {
			names = []string{}
		}
		value, err := json.Marshal(names)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the VarMap, preserving the order
// of the keys in the document.
func (vm *VarMap) UnmarshalJSON(data []byte) error {
	vm.slots = nil
	vm.vars = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	token, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "decoding VarMap")
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("decoding VarMap: expected a JSON object, got %v", token)
	}
	for dec.More() {
		token, err = dec.Token()
		if err != nil {
			return errors.Wrap(err, "decoding VarMap slot name")
		}
		slot := token.(string) // Inside an object, keys are always strings.
		var names []string
		if err = dec.Decode(&names); err != nil {
			return errors.Wrapf(err, "decoding VarMap slot %q", slot)
		}
		vm.Set(slot, names)
	}
	return nil
}

// opJSON is the wire form shared by leaves and composites. Composites set
// "net" and "ops"; leaves set the slot maps and optionally "step_net".
type opJSON struct {
	Kind    string            `json:"kind"`
	Net     bool              `json:"net,omitempty"`
	Ops     []json.RawMessage `json:"ops,omitempty"`
	Inputs  *VarMap           `json:"inputs,omitempty"`
	Outputs *VarMap           `json:"outputs,omitempty"`
	Attrs   map[string]any    `json:"attrs,omitempty"`
	StepNet json.RawMessage   `json:"step_net,omitempty"`
}

// MarshalOp encodes an operator node, leaf or composite, recursively.
func MarshalOp(op Op) ([]byte, error) {
	wire := opJSON{Kind: op.Type()}
	switch node := op.(type) {
	case *Net:
		wire.Net = true
		wire.Ops = make([]json.RawMessage, 0, len(node.children))
		for _, child := range node.children {
			data, err := MarshalOp(child)
			if err != nil {
				return nil, err
			}
			wire.Ops = append(wire.Ops, data)
		}
	case *OpDesc:
		if node.inputs.NumSlots() > 0 {
			wire.Inputs = node.inputs
		}
		if node.outputs.NumSlots() > 0 {
			wire.Outputs = node.outputs
		}
		wire.Attrs = node.attrs
		if node.stepNet != nil {
			data, err := MarshalOp(node.stepNet)
			if err != nil {
				return nil, err
			}
			wire.StepNet = data
		}
	default:
		return nil, errors.Errorf("opdesc.MarshalOp: unknown node type %T", op)
	}
	return json.Marshal(&wire)
}

// UnmarshalOp decodes an operator node encoded by MarshalOp.
func UnmarshalOp(data []byte) (Op, error) {
	var wire opJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, "opdesc.UnmarshalOp")
	}
	if wire.Net {
		net := NewNet()
		net.SetType(wire.Kind)
		for ii, childData := range wire.Ops {
			child, err := UnmarshalOp(childData)
			if err != nil {
				return nil, errors.WithMessagef(err, "decoding child #%d of net %q", ii, wire.Kind)
			}
			net.Append(child)
		}
		return net, nil
	}
	op := New(wire.Kind, wire.Inputs, wire.Outputs, wire.Attrs)
	if len(wire.StepNet) > 0 {
		stepNet, err := UnmarshalOp(wire.StepNet)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoding step-net of %q", wire.Kind)
		}
		op.SetStepNet(stepNet)
	}
	return op, nil
}
