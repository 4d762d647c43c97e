package iotype

import (
	"encoding/json"
	"fmt"
)

// Value is a tagged union over IOType: exactly one in-memory
// representation is populated per Type. A zero Value (Type == "") is the
// null/none sentinel forwarded to an invoker for an absent optional input.
type Value struct {
	Type IOType
	raw  any
}

// Null is the sentinel value for an absent optional input.
var Null = Value{}

// IsNull reports whether v carries no value (the null sentinel).
func (v Value) IsNull() bool {
	return v.Type == ""
}

func newValue(t IOType, raw any) Value {
	return Value{Type: t, raw: raw}
}

func NewString(s string) Value            { return newValue(String, s) }
func NewInt(i int64) Value                { return newValue(Int, i) }
func NewFloat(f float64) Value            { return newValue(Float, f) }
func NewBool(b bool) Value                { return newValue(Bool, b) }
func NewBytes(b []byte) Value             { return newValue(Bytes, b) }
func NewStringList(s []string) Value      { return newValue(StringList, s) }
func NewFloatList(f []float64) Value      { return newValue(FloatList, f) }
func NewFloatMatrix(m [][]float64) Value  { return newValue(FloatMatrix, m) }
func NewBytesList(b [][]byte) Value       { return newValue(BytesList, b) }
func NewDict(d map[string]any) Value      { return newValue(Dict, d) }
func NewVectorPoint(v Vector) Value       { return newValue(VectorPoint, v) }
func NewVectorPointList(v []Vector) Value { return newValue(VectorPointList, v) }
func NewSearchPayload(p Payload) Value    { return newValue(SearchPayload, p) }
func NewSearchPayloadList(p []Payload) Value {
	return newValue(SearchPayloadList, p)
}
func NewJson(v any) Value { return newValue(Json, v) }

// AsString returns the underlying string, or an error if v is not a String.
func (v Value) AsString() (string, error) {
	s, ok := v.raw.(string)
	if !ok || v.Type != String {
		return "", fmt.Errorf("iotype: value is %s, not String", v.Type)
	}
	return s, nil
}

// AsInt returns the underlying int64, or an error if v is not an Int.
func (v Value) AsInt() (int64, error) {
	i, ok := v.raw.(int64)
	if !ok || v.Type != Int {
		return 0, fmt.Errorf("iotype: value is %s, not Int", v.Type)
	}
	return i, nil
}

// AsFloat returns the underlying float64, or an error if v is not a Float.
func (v Value) AsFloat() (float64, error) {
	f, ok := v.raw.(float64)
	if !ok || v.Type != Float {
		return 0, fmt.Errorf("iotype: value is %s, not Float", v.Type)
	}
	return f, nil
}

// AsBool returns the underlying bool, or an error if v is not a Bool.
func (v Value) AsBool() (bool, error) {
	b, ok := v.raw.(bool)
	if !ok || v.Type != Bool {
		return false, fmt.Errorf("iotype: value is %s, not Bool", v.Type)
	}
	return b, nil
}

// AsBytes returns the underlying []byte, or an error if v is not Bytes.
func (v Value) AsBytes() ([]byte, error) {
	b, ok := v.raw.([]byte)
	if !ok || v.Type != Bytes {
		return nil, fmt.Errorf("iotype: value is %s, not Bytes", v.Type)
	}
	return b, nil
}

// AsStringList returns the underlying []string, or an error if v is not a StringList.
func (v Value) AsStringList() ([]string, error) {
	s, ok := v.raw.([]string)
	if !ok || v.Type != StringList {
		return nil, fmt.Errorf("iotype: value is %s, not StringList", v.Type)
	}
	return s, nil
}

// AsFloatList returns the underlying []float64, or an error if v is not a FloatList.
func (v Value) AsFloatList() ([]float64, error) {
	f, ok := v.raw.([]float64)
	if !ok || v.Type != FloatList {
		return nil, fmt.Errorf("iotype: value is %s, not FloatList", v.Type)
	}
	return f, nil
}

// AsFloatMatrix returns the underlying [][]float64, or an error if v is not a FloatMatrix.
func (v Value) AsFloatMatrix() ([][]float64, error) {
	m, ok := v.raw.([][]float64)
	if !ok || v.Type != FloatMatrix {
		return nil, fmt.Errorf("iotype: value is %s, not FloatMatrix", v.Type)
	}
	return m, nil
}

// AsBytesList returns the underlying [][]byte, or an error if v is not a BytesList.
func (v Value) AsBytesList() ([][]byte, error) {
	b, ok := v.raw.([][]byte)
	if !ok || v.Type != BytesList {
		return nil, fmt.Errorf("iotype: value is %s, not BytesList", v.Type)
	}
	return b, nil
}

// AsDict returns the underlying map[string]any, or an error if v is not a Dict.
func (v Value) AsDict() (map[string]any, error) {
	d, ok := v.raw.(map[string]any)
	if !ok || v.Type != Dict {
		return nil, fmt.Errorf("iotype: value is %s, not Dict", v.Type)
	}
	return d, nil
}

// AsVectorPoint returns the underlying Vector, or an error if v is not a VectorPoint.
func (v Value) AsVectorPoint() (Vector, error) {
	p, ok := v.raw.(Vector)
	if !ok || v.Type != VectorPoint {
		return Vector{}, fmt.Errorf("iotype: value is %s, not VectorPoint", v.Type)
	}
	return p, nil
}

// AsVectorPointList returns the underlying []Vector, or an error if v is not a VectorPointList.
func (v Value) AsVectorPointList() ([]Vector, error) {
	p, ok := v.raw.([]Vector)
	if !ok || v.Type != VectorPointList {
		return nil, fmt.Errorf("iotype: value is %s, not VectorPointList", v.Type)
	}
	return p, nil
}

// AsSearchPayload returns the underlying Payload, or an error if v is not a SearchPayload.
func (v Value) AsSearchPayload() (Payload, error) {
	p, ok := v.raw.(Payload)
	if !ok || v.Type != SearchPayload {
		return Payload{}, fmt.Errorf("iotype: value is %s, not SearchPayload", v.Type)
	}
	return p, nil
}

// AsSearchPayloadList returns the underlying []Payload, or an error if v is not a SearchPayloadList.
func (v Value) AsSearchPayloadList() ([]Payload, error) {
	p, ok := v.raw.([]Payload)
	if !ok || v.Type != SearchPayloadList {
		return nil, fmt.Errorf("iotype: value is %s, not SearchPayloadList", v.Type)
	}
	return p, nil
}

// AsJson returns the underlying opaque value, or an error if v is not Json.
func (v Value) AsJson() (any, error) {
	if v.Type != Json {
		return nil, fmt.Errorf("iotype: value is %s, not Json", v.Type)
	}
	return v.raw, nil
}

// Raw returns the underlying representation without a type check, for
// callers that have already dispatched on v.Type (e.g. generic reflection
// shims in pkg/component).
func (v Value) Raw() any {
	return v.raw
}

// wireValue is the JSON-on-the-wire shape of a Value: {"type": ..., "value": ...}.
// Bytes and BytesList payloads are base64-encoded by encoding/json's default
// []byte handling, satisfying the "binary payloads... encoded as base64"
// requirement without a custom codec.
type wireValue struct {
	Type  IOType          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes v as its wire representation.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return json.Marshal(wireValue{Type: ""})
	}
	encoded, err := json.Marshal(v.raw)
	if err != nil {
		return nil, fmt.Errorf("iotype: encode %s value: %w", v.Type, err)
	}
	return json.Marshal(wireValue{Type: v.Type, Value: encoded})
}

// UnmarshalJSON decodes v from its wire representation, dispatching on the
// "type" tag to determine the concrete Go representation to decode into.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire wireValue
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Type == "" {
		*v = Null
		return nil
	}
	if !wire.Type.Valid() {
		return ErrUnknownType(wire.Type)
	}

	var raw any
	var err error
	switch wire.Type {
	case String:
		var s string
		err = json.Unmarshal(wire.Value, &s)
		raw = s
	case Int:
		var i int64
		err = json.Unmarshal(wire.Value, &i)
		raw = i
	case Float:
		var f float64
		err = json.Unmarshal(wire.Value, &f)
		raw = f
	case Bool:
		var b bool
		err = json.Unmarshal(wire.Value, &b)
		raw = b
	case Bytes:
		var b []byte
		err = json.Unmarshal(wire.Value, &b)
		raw = b
	case StringList:
		var s []string
		err = json.Unmarshal(wire.Value, &s)
		raw = s
	case FloatList:
		var f []float64
		err = json.Unmarshal(wire.Value, &f)
		raw = f
	case FloatMatrix:
		var m [][]float64
		err = json.Unmarshal(wire.Value, &m)
		raw = m
	case BytesList:
		var b [][]byte
		err = json.Unmarshal(wire.Value, &b)
		raw = b
	case Dict:
		var d map[string]any
		err = json.Unmarshal(wire.Value, &d)
		raw = d
	case VectorPoint:
		var p Vector
		err = json.Unmarshal(wire.Value, &p)
		raw = p
	case VectorPointList:
		var p []Vector
		err = json.Unmarshal(wire.Value, &p)
		raw = p
	case SearchPayload:
		var p Payload
		err = json.Unmarshal(wire.Value, &p)
		raw = p
	case SearchPayloadList:
		var p []Payload
		err = json.Unmarshal(wire.Value, &p)
		raw = p
	case Json:
		err = json.Unmarshal(wire.Value, &raw)
	default:
		return ErrUnknownType(wire.Type)
	}
	if err != nil {
		return fmt.Errorf("iotype: decode %s value: %w", wire.Type, err)
	}
	*v = Value{Type: wire.Type, raw: raw}
	return nil
}
