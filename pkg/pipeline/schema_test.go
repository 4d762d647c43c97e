package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
)

func TestModel_ValidateInjectedJSON(t *testing.T) {
	reg := registryWithPassthroughChain()
	m, err := NewBuilder(reg).
		AddNode("n1", "a").
		Inject("msg", "n1", "s").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := m.ValidateInjectedJSON("msg", json.RawMessage(`"hello"`)); err != nil {
		t.Errorf("expected valid string to pass, got %v", err)
	}

	err = m.ValidateInjectedJSON("msg", json.RawMessage(`42`))
	if err == nil {
		t.Fatal("expected a non-string value to fail schema validation")
	}
	if !errors.Is(err, dataflowerr.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestModel_ValidateInjectedJSON_UnknownParam(t *testing.T) {
	reg := registryWithPassthroughChain()
	m, err := NewBuilder(reg).
		AddNode("n1", "a").
		Inject("msg", "n1", "s").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	err = m.ValidateInjectedJSON("nonexistent", json.RawMessage(`"x"`))
	if !errors.Is(err, dataflowerr.ErrInvalidPipeline) {
		t.Errorf("expected ErrInvalidPipeline, got %v", err)
	}
}
