package component

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

// fieldTag is the struct tag key a schema-first In/Out struct uses to name
// its dataflow input or output, e.g. `dataflow:"s"`.
const fieldTag = "dataflow"

// StaticDescriptor is the hand-declared schema half of a component: the
// name, docs, and InputSpec/OutputSpec list. Define pairs it with a typed
// Go function and reflects over the function's In/Out structs exactly
// once, at registration time, to check the schema and the struct tags
// agree (V1-V4) — the "typed shim" the design notes call for, rather than
// reverse-engineering a signature from runtime reflection on every call.
type StaticDescriptor struct {
	Name            string
	Description     string
	IsOfficial      bool
	EnableTypeCheck bool
	Inputs          []InputSpec
	Outputs         []OutputSpec
}

// goTypeFor returns the Go representation reflect.Type that a schema-first
// struct field must declare for a given IOType, mirroring the original
// implementation's IOType -> python_type mapping.
func goTypeFor(t iotype.IOType) (reflect.Type, error) {
	switch t {
	case iotype.String:
		return reflect.TypeOf(""), nil
	case iotype.Int:
		return reflect.TypeOf(int64(0)), nil
	case iotype.Float:
		return reflect.TypeOf(float64(0)), nil
	case iotype.Bool:
		return reflect.TypeOf(false), nil
	case iotype.Bytes:
		return reflect.TypeOf([]byte(nil)), nil
	case iotype.StringList:
		return reflect.TypeOf([]string(nil)), nil
	case iotype.FloatList:
		return reflect.TypeOf([]float64(nil)), nil
	case iotype.FloatMatrix:
		return reflect.TypeOf([][]float64(nil)), nil
	case iotype.BytesList:
		return reflect.TypeOf([][]byte(nil)), nil
	case iotype.Dict:
		return reflect.TypeOf(map[string]any(nil)), nil
	case iotype.VectorPoint:
		return reflect.TypeOf(iotype.Vector{}), nil
	case iotype.VectorPointList:
		return reflect.TypeOf([]iotype.Vector(nil)), nil
	case iotype.SearchPayload:
		return reflect.TypeOf(iotype.Payload{}), nil
	case iotype.SearchPayloadList:
		return reflect.TypeOf([]iotype.Payload(nil)), nil
	case iotype.Json:
		return reflect.TypeOf((*any)(nil)).Elem(), nil
	default:
		return nil, iotype.ErrUnknownType(t)
	}
}

// isNilable reports whether a Go type already has a natural absent/zero
// representation (nil), so an optional input of this type need not be
// wrapped in a pointer.
func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Slice, reflect.Map, reflect.Interface, reflect.Ptr:
		return true
	default:
		return false
	}
}

// validateFieldTypes checks the In struct type st against byName: every
// tagged field must name a spec and every spec must have a corresponding
// tagged field (V1), and the field's declared Go type must match one of
// the spec's allowed representations, directly for required fields (V2)
// or as a pointer/naturally-nilable type for optional fields (V3). The
// Out struct is checked separately by validateOutputStruct (V4).
func validateFieldTypes(st reflect.Type, byName map[string]fieldSpec) error {
	seen := make(map[string]bool, st.NumField())
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name := f.Tag.Get(fieldTag)
		if name == "" {
			continue
		}
		spec, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: field %q tagged %q has no matching spec", dataflowerr.ErrInvalidComponent, f.Name, name)
		}
		seen[name] = true

		fieldType := f.Type
		optionalPtr := fieldType.Kind() == reflect.Ptr
		baseType := fieldType
		if optionalPtr {
			baseType = fieldType.Elem()
		}

		matched := false
		for _, allowed := range spec.allowedGoTypes {
			if baseType == allowed {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("%w: field %q (%s) does not match any allowed type for input %q",
				dataflowerr.ErrInvalidComponent, f.Name, fieldType, name)
		}

		if spec.required && optionalPtr {
			return fmt.Errorf("%w: required input %q must not be a pointer type", dataflowerr.ErrInvalidComponent, name)
		}
		if !spec.required && !optionalPtr && !isNilable(fieldType.Kind()) {
			return fmt.Errorf("%w: optional input %q must be a pointer or naturally-nilable type, got %s",
				dataflowerr.ErrInvalidComponent, name, fieldType)
		}
	}
	for name := range byName {
		if !seen[name] {
			return fmt.Errorf("%w: declared input %q has no matching struct field", dataflowerr.ErrInvalidComponent, name)
		}
	}
	return nil
}

type fieldSpec struct {
	required       bool
	allowedGoTypes []reflect.Type
}

func inputFieldSpecs(inputs []InputSpec) (map[string]fieldSpec, error) {
	out := make(map[string]fieldSpec, len(inputs))
	for _, in := range inputs {
		types := make([]reflect.Type, 0, len(in.AllowedTypes))
		for _, tag := range in.AllowedTypes.Slice() {
			t, err := goTypeFor(tag)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		out[in.Name] = fieldSpec{required: in.Required, allowedGoTypes: types}
	}
	return out, nil
}

// validateOutputStruct checks the Out struct type's tagged fields are a
// subset of declared output names (V4) and that each tagged field's type
// matches its declared IOType's Go representation.
func validateOutputStruct(st reflect.Type, outputs []OutputSpec) error {
	byName := make(map[string]reflect.Type, len(outputs))
	for _, out := range outputs {
		t, err := goTypeFor(out.Type)
		if err != nil {
			return err
		}
		byName[out.Name] = t
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name := f.Tag.Get(fieldTag)
		if name == "" {
			continue
		}
		want, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: output field %q tagged %q is not among declared outputs",
				dataflowerr.ErrInvalidComponent, f.Name, name)
		}
		fieldType := f.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		if fieldType != want {
			return fmt.Errorf("%w: output field %q (%s) does not match declared type for %q",
				dataflowerr.ErrInvalidComponent, f.Name, f.Type, name)
		}
	}
	return nil
}

// Define builds a Descriptor from a StaticDescriptor and a typed Go
// function, reflecting over In and Out exactly once to perform V1-V4
// validation when meta.EnableTypeCheck is set. It panics on a schema/type
// mismatch since this runs at package-init time (mirroring MustRegister's
// fail-fast contract). Registry.Register does not rerun V1-V4; it returns
// only the structural errors it checks itself.
func Define[In any, Out any](meta StaticDescriptor, fn func(context.Context, In) (Out, error)) Descriptor {
	var inZero In
	var outZero Out
	inType := reflect.TypeOf(inZero)
	outType := reflect.TypeOf(outZero)

	if meta.EnableTypeCheck {
		inSpecs, err := inputFieldSpecs(meta.Inputs)
		if err != nil {
			panic(fmt.Sprintf("component %q: %v", meta.Name, err))
		}
		if err := validateFieldTypes(inType, inSpecs); err != nil {
			panic(fmt.Sprintf("component %q: %v", meta.Name, err))
		}
		if err := validateOutputStruct(outType, meta.Outputs); err != nil {
			panic(fmt.Sprintf("component %q: %v", meta.Name, err))
		}
	}

	invoke := func(ctx context.Context, inputs map[string]iotype.Value) (map[string]iotype.Value, error) {
		in, err := decodeInput[In](meta.Inputs, inType, inputs)
		if err != nil {
			return nil, err
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return encodeOutput(meta.Outputs, outType, out)
	}

	return Descriptor{
		Name:            meta.Name,
		Description:     meta.Description,
		IsOfficial:      meta.IsOfficial,
		EnableTypeCheck: meta.EnableTypeCheck,
		Inputs:          meta.Inputs,
		Outputs:         meta.Outputs,
		Invoke:          invoke,
	}
}

func decodeInput[In any](specs []InputSpec, st reflect.Type, inputs map[string]iotype.Value) (In, error) {
	var result In
	rv := reflect.New(st).Elem()

	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name := f.Tag.Get(fieldTag)
		if name == "" {
			continue
		}
		spec, ok := findInput(specs, name)
		if !ok {
			continue
		}

		value, present := inputs[name]
		if !present {
			value = iotype.Null
		}

		field := rv.Field(i)
		if spec.Required && value.IsNull() {
			return result, fmt.Errorf("%w: required input %q", dataflowerr.ErrMissingInjectedInput, name)
		}
		if value.IsNull() {
			continue
		}

		raw := reflect.ValueOf(value.Raw())
		if field.Kind() == reflect.Ptr {
			ptr := reflect.New(field.Type().Elem())
			ptr.Elem().Set(raw)
			field.Set(ptr)
		} else {
			field.Set(raw)
		}
	}

	result = rv.Interface().(In)
	return result, nil
}

func findInput(specs []InputSpec, name string) (InputSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return InputSpec{}, false
}

func encodeOutput(specs []OutputSpec, st reflect.Type, out any) (map[string]iotype.Value, error) {
	rv := reflect.ValueOf(out)
	result := make(map[string]iotype.Value, len(specs))

	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name := f.Tag.Get(fieldTag)
		if name == "" {
			continue
		}
		spec, ok := findOutput(specs, name)
		if !ok {
			continue
		}

		field := rv.Field(i)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}

		value, err := rawToValue(spec.Type, field.Interface())
		if err != nil {
			return nil, err
		}
		result[name] = value
	}
	return result, nil
}

func findOutput(specs []OutputSpec, name string) (OutputSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return OutputSpec{}, false
}

// rawToValue wraps a concrete Go value as an iotype.Value tagged t.
func rawToValue(t iotype.IOType, raw any) (iotype.Value, error) {
	switch t {
	case iotype.String:
		return iotype.NewString(raw.(string)), nil
	case iotype.Int:
		return iotype.NewInt(raw.(int64)), nil
	case iotype.Float:
		return iotype.NewFloat(raw.(float64)), nil
	case iotype.Bool:
		return iotype.NewBool(raw.(bool)), nil
	case iotype.Bytes:
		return iotype.NewBytes(raw.([]byte)), nil
	case iotype.StringList:
		return iotype.NewStringList(raw.([]string)), nil
	case iotype.FloatList:
		return iotype.NewFloatList(raw.([]float64)), nil
	case iotype.FloatMatrix:
		return iotype.NewFloatMatrix(raw.([][]float64)), nil
	case iotype.BytesList:
		return iotype.NewBytesList(raw.([][]byte)), nil
	case iotype.Dict:
		return iotype.NewDict(raw.(map[string]any)), nil
	case iotype.VectorPoint:
		return iotype.NewVectorPoint(raw.(iotype.Vector)), nil
	case iotype.VectorPointList:
		return iotype.NewVectorPointList(raw.([]iotype.Vector)), nil
	case iotype.SearchPayload:
		return iotype.NewSearchPayload(raw.(iotype.Payload)), nil
	case iotype.SearchPayloadList:
		return iotype.NewSearchPayloadList(raw.([]iotype.Payload)), nil
	case iotype.Json:
		return iotype.NewJson(raw), nil
	default:
		return iotype.Value{}, iotype.ErrUnknownType(t)
	}
}
