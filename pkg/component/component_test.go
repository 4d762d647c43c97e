package component

import (
	"context"
	"errors"
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

type lenIn struct {
	S string `dataflow:"s"`
}

type lenOut struct {
	N int64 `dataflow:"n"`
}

func lenDescriptor() Descriptor {
	return Define(StaticDescriptor{
		Name:            "len",
		Description:     "returns the length of a string",
		EnableTypeCheck: true,
		Inputs: []InputSpec{
			{Name: "s", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
		},
		Outputs: []OutputSpec{
			{Name: "n", Type: iotype.Int},
		},
	}, func(ctx context.Context, in lenIn) (lenOut, error) {
		return lenOut{N: int64(len(in.S))}, nil
	})
}

func TestDefine_ValidatesAndInvokes(t *testing.T) {
	desc := lenDescriptor()

	out, err := desc.Invoke(context.Background(), map[string]iotype.Value{
		"s": iotype.NewString("hello"),
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	n, err := out["n"].AsInt()
	if err != nil {
		t.Fatalf("AsInt() error = %v", err)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
}

func TestDefine_MissingRequiredInput(t *testing.T) {
	desc := lenDescriptor()

	_, err := desc.Invoke(context.Background(), map[string]iotype.Value{})
	if err == nil {
		t.Fatal("expected error for missing required input")
	}
}

type optIn struct {
	A int64  `dataflow:"a"`
	B *int64 `dataflow:"b"`
}

type optOut struct {
	R int64 `dataflow:"r"`
}

func TestDefine_OptionalInputAbsent(t *testing.T) {
	desc := Define(StaticDescriptor{
		Name:            "add-optional",
		EnableTypeCheck: true,
		Inputs: []InputSpec{
			{Name: "a", AllowedTypes: iotype.NewTypeSet(iotype.Int), Required: true},
			{Name: "b", AllowedTypes: iotype.NewTypeSet(iotype.Int), Required: false},
		},
		Outputs: []OutputSpec{{Name: "r", Type: iotype.Int}},
	}, func(ctx context.Context, in optIn) (optOut, error) {
		r := in.A
		if in.B != nil {
			r += *in.B
		}
		return optOut{R: r}, nil
	})

	out, err := desc.Invoke(context.Background(), map[string]iotype.Value{
		"a": iotype.NewInt(3),
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	r, _ := out["r"].AsInt()
	if r != 3 {
		t.Errorf("r = %d, want 3 (b absent)", r)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	desc := lenDescriptor()

	if err := reg.Register(desc); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := reg.Register(desc); err == nil {
		t.Fatal("expected duplicate registration to fail")
	} else if !errors.Is(err, dataflowerr.ErrDuplicateComponent) {
		t.Errorf("expected ErrDuplicateComponent, got %v", err)
	}
}

func TestRegistry_AllowDuplicate(t *testing.T) {
	reg := NewRegistry()
	desc := lenDescriptor()

	if err := reg.Register(desc); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := reg.Register(desc, AllowDuplicate()); err != nil {
		t.Errorf("expected re-registration with AllowDuplicate to succeed, got %v", err)
	}
}

func TestRegistry_LookupAndListDetails(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(lenDescriptor())

	desc, ok := reg.Lookup("len")
	if !ok {
		t.Fatal("expected to find registered component")
	}
	if desc.Name != "len" {
		t.Errorf("Name = %q, want \"len\"", desc.Name)
	}

	details := reg.ListDetails()
	if len(details) != 1 {
		t.Fatalf("ListDetails() len = %d, want 1", len(details))
	}
	if details[0].Name != "len" {
		t.Errorf("details[0].Name = %q, want \"len\"", details[0].Name)
	}
}
