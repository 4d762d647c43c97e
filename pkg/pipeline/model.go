// Package pipeline implements the in-memory pipeline model: nodes, typed
// directed edges between them, external input injection bindings, and
// JSON (de)serialization, together with the structural validation (P1-P6)
// that must hold before a model can be executed.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

// NodeID identifies a node uniquely within a pipeline.
type NodeID = string

// Position is opaque UI metadata, passed through but never interpreted.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeConnection is a typed edge from one node's output to another node's
// input.
type NodeConnection struct {
	FromNode   NodeID
	FromOutput string
	ToNode     NodeID
	ToInput    string
}

// PipelineNode is an instance of a registered component within a
// pipeline.
type PipelineNode struct {
	ID                NodeID
	ComponentName     string
	Forwards          []NodeConnection // all entries have FromNode == ID
	OutputSurfaceName string           // empty means not surfaced
	Position          *Position
}

// InjectionTarget is the (node, input) pair an external parameter name is
// bound to.
type InjectionTarget struct {
	NodeID    NodeID
	InputName string
}

// Model is an immutable, validated pipeline: a flat node table, edges
// recorded per source node, and the injection map. Per SPEC_FULL.md §4.2
// design notes, edges are stored as a flat list keyed by NodeId rather
// than nested inside mutually-referential node objects.
type Model struct {
	registry          *component.Registry
	nodes             map[NodeID]PipelineNode
	nodeOrder         []NodeID
	injectionBindings map[string]InjectionTarget
}

// Nodes returns the model's nodes, keyed by ID.
func (m *Model) Nodes() map[NodeID]PipelineNode {
	return m.nodes
}

// Node returns the node with the given ID.
func (m *Model) Node(id NodeID) (PipelineNode, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// InjectionBindings returns the external-parameter-name -> (node, input)
// map.
func (m *Model) InjectionBindings() map[string]InjectionTarget {
	return m.injectionBindings
}

// Registry returns the component registry this model was validated
// against.
func (m *Model) Registry() *component.Registry {
	return m.registry
}

// coverageKind records, for a node and input name, whether that
// input is covered by an incoming edge, an injection binding, or neither.
type coverageKind int

const (
	coverNone coverageKind = iota
	coverEdge
	coverInjection
)

// coverage computes, for every (node, input) pair, how it is satisfied.
func (m *Model) coverage() map[NodeID]map[string]coverageKind {
	result := make(map[NodeID]map[string]coverageKind, len(m.nodes))
	for id := range m.nodes {
		result[id] = make(map[string]coverageKind)
	}
	for _, n := range m.nodes {
		for _, c := range n.Forwards {
			if result[c.ToNode] == nil {
				result[c.ToNode] = make(map[string]coverageKind)
			}
			result[c.ToNode][c.ToInput] = coverEdge
		}
	}
	for _, target := range m.injectionBindings {
		if result[target.NodeID] == nil {
			result[target.NodeID] = make(map[string]coverageKind)
		}
		result[target.NodeID][target.InputName] = coverInjection
	}
	return result
}

// BeginNodes returns the IDs of nodes whose every required input is
// either absent from the component schema or satisfied purely by
// injection bindings (never by an incoming edge) — the set the engine
// seeds with tasks before any node has produced output.
func (m *Model) BeginNodes() []NodeID {
	cov := m.coverage()
	var begin []NodeID
	for _, id := range m.nodeOrder {
		n := m.nodes[id]
		desc, _ := m.registry.Lookup(n.ComponentName)
		ready := true
		for _, in := range desc.Inputs {
			if !in.Required {
				continue
			}
			if cov[id][in.Name] == coverEdge {
				ready = false
				break
			}
		}
		if ready {
			begin = append(begin, id)
		}
	}
	return begin
}

// validate runs the structural invariants P1-P6 against m's registry.
func (m *Model) validate() error {
	if err := m.checkP1ComponentsExist(); err != nil {
		return err
	}
	if err := m.checkP6NodeIDsResolve(); err != nil {
		return err
	}
	if err := m.checkP2EdgeTypesCompatible(); err != nil {
		return err
	}
	if err := m.checkP3SingleAssignment(); err != nil {
		return err
	}
	if err := m.checkP4Acyclic(); err != nil {
		return err
	}
	if err := m.checkP5RequiredCovered(); err != nil {
		return err
	}
	return nil
}

func (m *Model) checkP1ComponentsExist() error {
	for _, n := range m.nodes {
		if _, ok := m.registry.Lookup(n.ComponentName); !ok {
			return fmt.Errorf("%w: node %q references unknown component %q", dataflowerr.ErrInvalidPipeline, n.ID, n.ComponentName)
		}
	}
	return nil
}

func (m *Model) checkP6NodeIDsResolve() error {
	for _, n := range m.nodes {
		for _, c := range n.Forwards {
			if _, ok := m.nodes[c.ToNode]; !ok {
				return fmt.Errorf("%w: connection from %q references unknown node %q", dataflowerr.ErrInvalidPipeline, c.FromNode, c.ToNode)
			}
		}
	}
	for param, target := range m.injectionBindings {
		if _, ok := m.nodes[target.NodeID]; !ok {
			return fmt.Errorf("%w: injection binding %q references unknown node %q", dataflowerr.ErrInvalidPipeline, param, target.NodeID)
		}
	}
	return nil
}

func (m *Model) checkP2EdgeTypesCompatible() error {
	for _, n := range m.nodes {
		fromDesc, _ := m.registry.Lookup(n.ComponentName)
		for _, c := range n.Forwards {
			outSpec, ok := fromDesc.OutputByName(c.FromOutput)
			if !ok {
				return fmt.Errorf("%w: node %q has no output %q", dataflowerr.ErrInvalidPipeline, c.FromNode, c.FromOutput)
			}
			toNode := m.nodes[c.ToNode]
			toDesc, _ := m.registry.Lookup(toNode.ComponentName)
			inSpec, ok := toDesc.InputByName(c.ToInput)
			if !ok {
				return fmt.Errorf("%w: node %q has no input %q", dataflowerr.ErrInvalidPipeline, c.ToNode, c.ToInput)
			}
			if !inSpec.AllowedTypes.Contains(outSpec.Type) {
				return fmt.Errorf("%w: edge %s.%s -> %s.%s: type %s not in allowed types",
					dataflowerr.ErrInvalidPipeline, c.FromNode, c.FromOutput, c.ToNode, c.ToInput, outSpec.Type)
			}
		}
	}
	return nil
}

func (m *Model) checkP3SingleAssignment() error {
	assigned := make(map[string]bool)
	mark := func(nodeID NodeID, input string) error {
		key := nodeID + "." + input
		if assigned[key] {
			return fmt.Errorf("%w: input %s.%s is assigned more than once", dataflowerr.ErrInvalidPipeline, nodeID, input)
		}
		assigned[key] = true
		return nil
	}
	for _, n := range m.nodes {
		for _, c := range n.Forwards {
			if err := mark(c.ToNode, c.ToInput); err != nil {
				return err
			}
		}
	}
	for _, target := range m.injectionBindings {
		if err := mark(target.NodeID, target.InputName); err != nil {
			return err
		}
	}
	return nil
}

// checkP4Acyclic enforces P4 by running Kahn's algorithm directly over the
// node table: nodes whose in-degree never reaches zero are exactly the
// ones sitting on (or downstream of) a cycle, so a failure names them
// instead of reporting "a cycle exists" with no further detail.
func (m *Model) checkP4Acyclic() error {
	inDegree := make(map[NodeID]int, len(m.nodes))
	for id := range m.nodes {
		inDegree[id] = 0
	}
	for _, n := range m.nodes {
		for _, c := range n.Forwards {
			inDegree[c.ToNode]++
		}
	}

	queue := make([]NodeID, 0, len(m.nodes))
	for _, id := range m.nodeOrder {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		resolved++
		for _, c := range m.nodes[current].Forwards {
			inDegree[c.ToNode]--
			if inDegree[c.ToNode] == 0 {
				queue = append(queue, c.ToNode)
			}
		}
	}

	if resolved == len(m.nodes) {
		return nil
	}

	var stuck []string
	for id, degree := range inDegree {
		if degree > 0 {
			stuck = append(stuck, id)
		}
	}
	sort.Strings(stuck)
	return fmt.Errorf("%w: cycle detected among nodes [%s]", dataflowerr.ErrInvalidPipeline, strings.Join(stuck, ", "))
}

func (m *Model) checkP5RequiredCovered() error {
	cov := m.coverage()
	for _, n := range m.nodes {
		desc, _ := m.registry.Lookup(n.ComponentName)
		for _, in := range desc.Inputs {
			if !in.Required {
				continue
			}
			if cov[n.ID][in.Name] == coverNone {
				return fmt.Errorf("%w: required input %s.%s is not covered by an edge or injection binding",
					dataflowerr.ErrInvalidPipeline, n.ID, in.Name)
			}
		}
	}
	return nil
}

// ValueForInjectedParam resolves an injected external value for the given
// parameter against the target input's declared allowed types, returning
// a TypeMismatchError if the supplied value's type is not allowed.
func (m *Model) ValueForInjectedParam(param string, value iotype.Value) error {
	target, ok := m.injectionBindings[param]
	if !ok {
		return nil
	}
	node := m.nodes[target.NodeID]
	desc, _ := m.registry.Lookup(node.ComponentName)
	in, ok := desc.InputByName(target.InputName)
	if !ok {
		return nil
	}
	if value.IsNull() {
		return nil
	}
	if !in.AllowedTypes.Contains(value.Type) {
		return fmt.Errorf("%w: injected param %q has type %s, not allowed for %s.%s",
			dataflowerr.ErrTypeMismatch, param, value.Type, target.NodeID, target.InputName)
	}
	return nil
}
