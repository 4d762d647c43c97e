// Package iotype defines the closed set of value shapes the execution
// engine transports between pipeline nodes, and the tagged-union Value
// type that carries exactly one in-memory representation per shape.
package iotype

import "fmt"

// IOType is a closed enumeration of value shapes. Every edge and
// injection binding in a pipeline is typed by exactly one IOType.
type IOType string

const (
	String            IOType = "String"
	Int               IOType = "Int"
	Float             IOType = "Float"
	Bool              IOType = "Bool"
	Bytes             IOType = "Bytes"
	StringList        IOType = "StringList"
	FloatList         IOType = "FloatList"
	FloatMatrix       IOType = "FloatMatrix"
	BytesList         IOType = "BytesList"
	Dict              IOType = "Dict"
	VectorPoint       IOType = "VectorPoint"
	VectorPointList   IOType = "VectorPointList"
	SearchPayload     IOType = "SearchPayload"
	SearchPayloadList IOType = "SearchPayloadList"
	Json              IOType = "Json"
)

// All enumerates every IOType tag, in declaration order. Used by registry
// introspection and by schema-first validation to check a declared type
// against the closed set.
var All = []IOType{
	String, Int, Float, Bool, Bytes,
	StringList, FloatList, FloatMatrix, BytesList,
	Dict, VectorPoint, VectorPointList, SearchPayload, SearchPayloadList,
	Json,
}

// Valid reports whether t is one of the closed set of IOType tags.
func (t IOType) Valid() bool {
	for _, candidate := range All {
		if candidate == t {
			return true
		}
	}
	return false
}

// Vector is the in-memory representation of a VectorPoint: an identified
// embedding with opaque metadata. Carried forward from the original
// implementation's retrieval/search components even though no concrete
// search component ships in this core; the tag and representation remain
// part of the closed IOType enumeration.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Payload is the in-memory representation of a SearchPayload: a scored
// search result wrapping a Vector.
type Payload struct {
	Point Vector  `json:"point"`
	Score float64 `json:"score"`
}

// TypeSet is a non-empty set of allowed IOTypes, as used by InputSpec's
// allowed_types and by edge type-compatibility checks (P2).
type TypeSet map[IOType]struct{}

// NewTypeSet builds a TypeSet from a list of tags.
func NewTypeSet(tags ...IOType) TypeSet {
	s := make(TypeSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether t is a member of the set.
func (s TypeSet) Contains(t IOType) bool {
	_, ok := s[t]
	return ok
}

// Slice returns the set's members in the declaration order of All, the
// same order on every call.
func (s TypeSet) Slice() []IOType {
	out := make([]IOType, 0, len(s))
	for _, t := range All {
		if s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// ErrUnknownType is returned when a value's declared IOType is not a
// member of the closed enumeration.
func ErrUnknownType(t IOType) error {
	return fmt.Errorf("iotype: unknown type tag %q", string(t))
}
