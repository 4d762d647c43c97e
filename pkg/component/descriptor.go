// Package component implements the component registry and type system: the
// catalog of named, typed units of computation that pipeline nodes
// instantiate, and the schema-first validation of a component's invoker
// against its declared input/output specs.
package component

import (
	"context"

	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

// InputSpec declares one named input a component accepts.
type InputSpec struct {
	Name         string
	AllowedTypes iotype.TypeSet
	Required     bool
}

// OutputSpec declares one named output a component produces.
type OutputSpec struct {
	Name string
	Type iotype.IOType
}

// Invoker is the callable a component descriptor attaches: it receives a
// keyed bag of inputs and returns a keyed bag of outputs, or an error.
// Invokers must be reentrant and must not mutate the inputs map.
type Invoker func(ctx context.Context, inputs map[string]iotype.Value) (map[string]iotype.Value, error)

// Descriptor is the immutable, fully-built description of a component:
// schema plus invoker. Construct one with Define, not by hand, so that
// registration-time validation (V1-V4) always runs against a real Go
// signature.
type Descriptor struct {
	Name            string
	Description     string
	IsOfficial      bool
	EnableTypeCheck bool
	Inputs          []InputSpec
	Outputs         []OutputSpec
	Invoke          Invoker
}

// PublicDescriptor is the introspection-safe projection of a Descriptor
// returned by Registry.ListDetails, per the wire shape in SPEC_FULL.md §6:
// { name, is_official, detail: { input_options, output_options } }.
type PublicDescriptor struct {
	Name       string           `json:"name"`
	IsOfficial bool             `json:"is_official"`
	Detail     PublicDescDetail `json:"detail"`
}

// PublicDescDetail mirrors the InputSpec/OutputSpec shapes for wire
// transport.
type PublicDescDetail struct {
	InputOptions  []PublicInputOption  `json:"input_options"`
	OutputOptions []PublicOutputOption `json:"output_options"`
}

// PublicInputOption is the wire projection of an InputSpec.
type PublicInputOption struct {
	Name         string         `json:"name"`
	AllowedTypes []iotype.IOType `json:"allowed_types"`
	Required     bool           `json:"required"`
}

// PublicOutputOption is the wire projection of an OutputSpec.
type PublicOutputOption struct {
	Name string        `json:"name"`
	Type iotype.IOType `json:"type"`
}

func (d Descriptor) toPublic() PublicDescriptor {
	inputs := make([]PublicInputOption, 0, len(d.Inputs))
	for _, in := range d.Inputs {
		inputs = append(inputs, PublicInputOption{
			Name:         in.Name,
			AllowedTypes: in.AllowedTypes.Slice(),
			Required:     in.Required,
		})
	}
	outputs := make([]PublicOutputOption, 0, len(d.Outputs))
	for _, out := range d.Outputs {
		outputs = append(outputs, PublicOutputOption{Name: out.Name, Type: out.Type})
	}
	return PublicDescriptor{
		Name:       d.Name,
		IsOfficial: d.IsOfficial,
		Detail: PublicDescDetail{
			InputOptions:  inputs,
			OutputOptions: outputs,
		},
	}
}

// InputByName returns the InputSpec named name, if any.
func (d Descriptor) InputByName(name string) (InputSpec, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputSpec{}, false
}

// OutputByName returns the OutputSpec named name, if any.
func (d Descriptor) OutputByName(name string) (OutputSpec, bool) {
	for _, out := range d.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return OutputSpec{}, false
}
