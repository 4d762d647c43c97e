package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
)

// Registry is the process-wide (or per-test) catalog mapping a component
// name to its descriptor: a mutex-guarded map with Register/Lookup/List
// operations over an open set of component names (as opposed to a
// closed enum of built-in node types).
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Descriptor)}
}

// RegisterOption customizes Register's behavior.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	allowDuplicate bool
}

// AllowDuplicate opts out of duplicate-name checking, for tests that
// re-register a component under the same name (spec.md §4.1: "callers
// may opt out to support re-registration in tests").
func AllowDuplicate() RegisterOption {
	return func(o *registerOptions) { o.allowDuplicate = true }
}

// Register inserts desc keyed by desc.Name. It fails with
// ErrDuplicateComponent if the name is already registered, unless
// AllowDuplicate was passed. If desc.EnableTypeCheck is set, desc must
// already have been produced by Define (which performs V1-V4 at build
// time); Register itself only checks structural invariants (unique
// input/output names, non-empty allowed-types sets) since the invoker
// signature check cannot be redone from a Descriptor alone.
func (r *Registry) Register(desc Descriptor, opts ...RegisterOption) error {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateDescriptorShape(desc); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[desc.Name]; exists && !o.allowDuplicate {
		return fmt.Errorf("%w: %q", dataflowerr.ErrDuplicateComponent, desc.Name)
	}
	r.components[desc.Name] = desc
	return nil
}

// MustRegister calls Register and panics on error, for use in
// package-init-time registration of built-in components.
func (r *Registry) MustRegister(desc Descriptor, opts ...RegisterOption) {
	if err := r.Register(desc, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name, if any.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.components[name]
	return d, ok
}

// ListDetails returns the public, introspection-safe projection of every
// registered component, sorted by name for deterministic output.
func (r *Registry) ListDetails() []PublicDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]PublicDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.components[name].toPublic())
	}
	return out
}

// validateDescriptorShape checks the structural invariants spec.md §3
// requires of every ComponentDescriptor regardless of type-checking:
// input and output names unique within the component, and every
// allowed_types set non-empty.
func validateDescriptorShape(desc Descriptor) error {
	seenInputs := make(map[string]bool, len(desc.Inputs))
	for _, in := range desc.Inputs {
		if seenInputs[in.Name] {
			return fmt.Errorf("%w: duplicate input name %q in component %q", dataflowerr.ErrInvalidComponent, in.Name, desc.Name)
		}
		seenInputs[in.Name] = true
		if len(in.AllowedTypes) == 0 {
			return fmt.Errorf("%w: input %q of component %q has empty allowed_types", dataflowerr.ErrInvalidComponent, in.Name, desc.Name)
		}
	}
	seenOutputs := make(map[string]bool, len(desc.Outputs))
	for _, out := range desc.Outputs {
		if seenOutputs[out.Name] {
			return fmt.Errorf("%w: duplicate output name %q in component %q", dataflowerr.ErrInvalidComponent, out.Name, desc.Name)
		}
		seenOutputs[out.Name] = true
	}
	if desc.Invoke == nil {
		return fmt.Errorf("%w: component %q has no invoker", dataflowerr.ErrInvalidComponent, desc.Name)
	}
	return nil
}
