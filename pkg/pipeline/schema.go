package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

// jsonSchemaForType returns the JSON Schema fragment describing the wire
// shape a raw external value must have to decode into t, mirroring the
// Go representations goTypeFor (pkg/component) expects. Json accepts any
// shape since it is an intentionally opaque passthrough type.
func jsonSchemaForType(t iotype.IOType) map[string]any {
	switch t {
	case iotype.String, iotype.Bytes:
		return map[string]any{"type": "string"}
	case iotype.Int:
		return map[string]any{"type": "integer"}
	case iotype.Float:
		return map[string]any{"type": "number"}
	case iotype.Bool:
		return map[string]any{"type": "boolean"}
	case iotype.StringList, iotype.BytesList:
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case iotype.FloatList:
		return map[string]any{"type": "array", "items": map[string]any{"type": "number"}}
	case iotype.FloatMatrix:
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
		}
	case iotype.Dict, iotype.VectorPoint, iotype.SearchPayload:
		return map[string]any{"type": "object"}
	case iotype.VectorPointList, iotype.SearchPayloadList:
		return map[string]any{"type": "array", "items": map[string]any{"type": "object"}}
	case iotype.Json:
		return map[string]any{}
	default:
		return map[string]any{}
	}
}

// jsonSchemaForTypeSet synthesizes a JSON Schema document accepting any
// shape that decodes into one of types, validated with
// gojsonschema.NewBytesLoader/Validate. A single allowed type is emitted
// directly; more than one is joined with anyOf.
func jsonSchemaForTypeSet(types iotype.TypeSet) map[string]any {
	members := types.Slice()
	if len(members) == 1 {
		return jsonSchemaForType(members[0])
	}
	variants := make([]map[string]any, 0, len(members))
	for _, m := range members {
		variants = append(variants, jsonSchemaForType(m))
	}
	return map[string]any{"anyOf": variants}
}

// ValidateInjectedJSON validates raw — the as-submitted JSON body for the
// external parameter param — against a schema synthesized from that
// parameter's target input's allowed_types, before the caller decodes raw
// into an iotype.Value and before any node is scheduled. This is the
// pre-flight check SPEC_FULL.md §11 promises on top of the native Go-level
// type check engine.Run performs once a value has already been decoded.
func (m *Model) ValidateInjectedJSON(param string, raw json.RawMessage) error {
	target, ok := m.injectionBindings[param]
	if !ok {
		return fmt.Errorf("%w: %q is not a bound injection parameter", dataflowerr.ErrInvalidPipeline, param)
	}
	node := m.nodes[target.NodeID]
	desc, _ := m.registry.Lookup(node.ComponentName)
	in, ok := desc.InputByName(target.InputName)
	if !ok {
		return fmt.Errorf("%w: %s.%s is not a declared input", dataflowerr.ErrInvalidPipeline, target.NodeID, target.InputName)
	}

	schema, err := json.Marshal(jsonSchemaForTypeSet(in.AllowedTypes))
	if err != nil {
		return fmt.Errorf("pipeline: marshal synthesized schema for %q: %w", param, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: validating %q: %v", dataflowerr.ErrTypeMismatch, param, err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.Description())
		}
		return fmt.Errorf("%w: injected param %q does not satisfy %s.%s's allowed types: %s",
			dataflowerr.ErrTypeMismatch, param, target.NodeID, target.InputName, strings.Join(descs, "; "))
	}
	return nil
}
