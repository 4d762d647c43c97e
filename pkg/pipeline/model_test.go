package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

type stringIn struct {
	S string `dataflow:"s"`
}

type stringOut struct {
	S string `dataflow:"s"`
}

func passthroughDescriptor(name string, allowed ...iotype.IOType) component.Descriptor {
	types := allowed
	if len(types) == 0 {
		types = []iotype.IOType{iotype.String}
	}
	return component.Define(component.StaticDescriptor{
		Name:            name,
		EnableTypeCheck: true,
		Inputs: []component.InputSpec{
			{Name: "s", AllowedTypes: iotype.NewTypeSet(types...), Required: true},
		},
		Outputs: []component.OutputSpec{
			{Name: "s", Type: iotype.String},
		},
	}, func(ctx context.Context, in stringIn) (stringOut, error) {
		return stringOut{S: in.S}, nil
	})
}

type listOut struct {
	L []string `dataflow:"l"`
}

func listSourceDescriptor(name string) component.Descriptor {
	return component.Define(component.StaticDescriptor{
		Name:            name,
		EnableTypeCheck: true,
		Outputs: []component.OutputSpec{
			{Name: "l", Type: iotype.StringList},
		},
	}, func(ctx context.Context, in struct{}) (listOut, error) {
		return listOut{L: []string{"a", "b"}}, nil
	})
}

func registryWithPassthroughChain() *component.Registry {
	reg := component.NewRegistry()
	reg.MustRegister(passthroughDescriptor("a"))
	reg.MustRegister(passthroughDescriptor("b"))
	return reg
}

func TestModel_JSONRoundTrip(t *testing.T) {
	reg := registryWithPassthroughChain()

	m, err := NewBuilder(reg).
		AddNode("n1", "a", WithOutputSurface("final"), WithPosition(1, 2)).
		AddNode("n2", "b").
		Connect("n1", "s", "n2", "s").
		Inject("msg", "n1", "s").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	m2, err := FromJSON(reg, data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if len(m2.Nodes()) != len(m.Nodes()) {
		t.Fatalf("node count = %d, want %d", len(m2.Nodes()), len(m.Nodes()))
	}
	n1, ok := m2.Node("n1")
	if !ok {
		t.Fatal("n1 missing after round-trip")
	}
	if n1.OutputSurfaceName != "final" {
		t.Errorf("OutputSurfaceName = %q, want \"final\"", n1.OutputSurfaceName)
	}
	if n1.Position == nil || n1.Position.X != 1 || n1.Position.Y != 2 {
		t.Errorf("Position = %+v, want {1 2}", n1.Position)
	}
	if len(n1.Forwards) != 1 || n1.Forwards[0].ToNode != "n2" {
		t.Errorf("Forwards = %+v, want one edge to n2", n1.Forwards)
	}
	target, ok := m2.InjectionBindings()["msg"]
	if !ok || target.NodeID != "n1" || target.InputName != "s" {
		t.Errorf("injection binding for msg = %+v, want {n1 s}", target)
	}

	data2, err := m2.ToJSON()
	if err != nil {
		t.Fatalf("second ToJSON() error = %v", err)
	}
	var doc1, doc2 map[string]any
	_ = json.Unmarshal(data, &doc1)
	_ = json.Unmarshal(data2, &doc2)
	b1, _ := json.Marshal(doc1)
	b2, _ := json.Marshal(doc2)
	if string(b1) != string(b2) {
		t.Errorf("re-serialization not stable:\n%s\nvs\n%s", b1, b2)
	}
}

func TestModel_WireFormatShape(t *testing.T) {
	reg := registryWithPassthroughChain()
	m, err := NewBuilder(reg).
		AddNode("n1", "a").
		AddNode("n2", "b").
		Connect("n1", "s", "n2", "s").
		Inject("msg", "n1", "s").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"nodes", "connections", "inject_input_mapping"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("wire document missing key %q", key)
		}
	}
	mapping := raw["inject_input_mapping"].(map[string]any)
	pair, ok := mapping["msg"].([]any)
	if !ok || len(pair) != 2 || pair[0] != "n1" || pair[1] != "s" {
		t.Errorf("inject_input_mapping[\"msg\"] = %v, want [\"n1\",\"s\"]", mapping["msg"])
	}
}

// S3: a pipeline containing a cycle is rejected at build time (I7).
func TestModel_CycleRejected(t *testing.T) {
	reg := registryWithPassthroughChain()
	_, err := NewBuilder(reg).
		AddNode("a", "a").
		AddNode("b", "b").
		Connect("a", "s", "b", "s").
		Connect("b", "s", "a", "s").
		Build()
	if err == nil {
		t.Fatal("expected cycle to be rejected")
	}
	if !errors.Is(err, dataflowerr.ErrInvalidPipeline) {
		t.Errorf("expected ErrInvalidPipeline, got %v", err)
	}
}

// S4: an edge whose producer output type is not in the consumer's
// allowed_types is rejected at build time.
func TestModel_TypeMismatchRejected(t *testing.T) {
	reg := component.NewRegistry()
	reg.MustRegister(listSourceDescriptor("lister"))
	reg.MustRegister(passthroughDescriptor("stringer", iotype.String))

	_, err := NewBuilder(reg).
		AddNode("n1", "lister").
		AddNode("n2", "stringer").
		Connect("n1", "l", "n2", "s").
		Build()
	if err == nil {
		t.Fatal("expected type mismatch to be rejected")
	}
	if !errors.Is(err, dataflowerr.ErrInvalidPipeline) {
		t.Errorf("expected ErrInvalidPipeline, got %v", err)
	}
}

// I6: a required input with no edge or injection binding is rejected at
// build time.
func TestModel_UncoveredRequiredInputRejected(t *testing.T) {
	reg := registryWithPassthroughChain()
	_, err := NewBuilder(reg).AddNode("n1", "a").Build()
	if err == nil {
		t.Fatal("expected uncovered required input to be rejected")
	}
	if !errors.Is(err, dataflowerr.ErrInvalidPipeline) {
		t.Errorf("expected ErrInvalidPipeline, got %v", err)
	}
}

func TestModel_UnknownComponentRejected(t *testing.T) {
	reg := component.NewRegistry()
	_, err := NewBuilder(reg).AddNode("n1", "nonexistent").Build()
	if err == nil {
		t.Fatal("expected unknown component to be rejected")
	}
	if !errors.Is(err, dataflowerr.ErrInvalidPipeline) {
		t.Errorf("expected ErrInvalidPipeline, got %v", err)
	}
}

func TestModel_BeginNodes(t *testing.T) {
	reg := registryWithPassthroughChain()
	m, err := NewBuilder(reg).
		AddNode("n1", "a").
		AddNode("n2", "b").
		Connect("n1", "s", "n2", "s").
		Inject("msg", "n1", "s").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	begin := m.BeginNodes()
	if len(begin) != 1 || begin[0] != "n1" {
		t.Errorf("BeginNodes() = %v, want [n1]", begin)
	}
}
