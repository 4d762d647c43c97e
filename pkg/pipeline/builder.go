package pipeline

import (
	"fmt"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
)

// Builder accumulates nodes, connections, and injection bindings before
// producing an immutable, validated Model. A PipelineModel is created by
// a builder, validated once, then treated as immutable (SPEC_FULL.md
// §4.2 lifecycle).
type Builder struct {
	registry          *component.Registry
	nodes             map[NodeID]PipelineNode
	nodeOrder         []NodeID
	injectionBindings map[string]InjectionTarget
}

// NewBuilder returns a Builder that resolves component names against
// registry.
func NewBuilder(registry *component.Registry) *Builder {
	return &Builder{
		registry:          registry,
		nodes:             make(map[NodeID]PipelineNode),
		injectionBindings: make(map[string]InjectionTarget),
	}
}

// NodeOption customizes AddNode.
type NodeOption func(*PipelineNode)

// WithOutputSurface marks the node's outputs as user-visible under name.
func WithOutputSurface(name string) NodeOption {
	return func(n *PipelineNode) { n.OutputSurfaceName = name }
}

// WithPosition attaches opaque UI position metadata.
func WithPosition(x, y float64) NodeOption {
	return func(n *PipelineNode) { n.Position = &Position{X: x, Y: y} }
}

// AddNode adds a node instantiating componentName under id. Fails at
// Build time (not here) if componentName does not resolve in the
// registry, so that Builder calls can be made in any order relative to
// registry population during tests.
func (b *Builder) AddNode(id NodeID, componentName string, opts ...NodeOption) *Builder {
	n := PipelineNode{ID: id, ComponentName: componentName}
	for _, opt := range opts {
		opt(&n)
	}
	if _, exists := b.nodes[id]; !exists {
		b.nodeOrder = append(b.nodeOrder, id)
	}
	b.nodes[id] = n
	return b
}

// Connect records a typed edge from (fromNode, fromOutput) to (toNode,
// toInput), appended to fromNode's forward list in call order (so
// to_json emits connections "in the order they were added per source
// node", per SPEC_FULL.md §4.2).
func (b *Builder) Connect(fromNode NodeID, fromOutput string, toNode NodeID, toInput string) *Builder {
	n := b.nodes[fromNode]
	n.ID = fromNode
	n.Forwards = append(n.Forwards, NodeConnection{
		FromNode:   fromNode,
		FromOutput: fromOutput,
		ToNode:     toNode,
		ToInput:    toInput,
	})
	b.nodes[fromNode] = n
	return b
}

// Inject records an injection binding from an external parameter name to
// a (node, input) pair.
func (b *Builder) Inject(externalParam string, nodeID NodeID, inputName string) *Builder {
	b.injectionBindings[externalParam] = InjectionTarget{NodeID: nodeID, InputName: inputName}
	return b
}

// Build validates the accumulated graph (P1-P6) against the builder's
// registry and returns the frozen Model, or an InvalidPipelineError
// describing the first violated invariant.
func (b *Builder) Build() (*Model, error) {
	if b.registry == nil {
		return nil, fmt.Errorf("%w: builder has no registry", dataflowerr.ErrInvalidPipeline)
	}

	nodesCopy := make(map[NodeID]PipelineNode, len(b.nodes))
	for id, n := range b.nodes {
		nodesCopy[id] = n
	}
	bindingsCopy := make(map[string]InjectionTarget, len(b.injectionBindings))
	for k, v := range b.injectionBindings {
		bindingsCopy[k] = v
	}
	orderCopy := make([]NodeID, len(b.nodeOrder))
	copy(orderCopy, b.nodeOrder)

	m := &Model{
		registry:          b.registry,
		nodes:             nodesCopy,
		nodeOrder:         orderCopy,
		injectionBindings: bindingsCopy,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
