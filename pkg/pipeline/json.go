package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
)

// wireDocument is the bit-exact JSON wire format of SPEC_FULL.md §4.2.
type wireDocument struct {
	Nodes               []wireNode          `json:"nodes"`
	Connections         []wireConnection    `json:"connections"`
	InjectInputMapping  map[string][2]string `json:"inject_input_mapping"`
}

type wireNode struct {
	NodeID     string    `json:"node_id"`
	Component  string    `json:"component"`
	OutputName string    `json:"output_name,omitempty"`
	Position   *Position `json:"position,omitempty"`
}

type wireConnection struct {
	FromNodeID     string `json:"from_node_id"`
	FromOutputName string `json:"from_output_name"`
	ToNodeID       string `json:"to_node_id"`
	ToNodeInput    string `json:"to_node_input_name"`
}

// ToJSON produces the canonical wire form of m: nodes in insertion order,
// connections in per-source-node append order, injection bindings as a
// plain JSON object (order not semantically significant).
func (m *Model) ToJSON() ([]byte, error) {
	doc := wireDocument{
		Nodes:              make([]wireNode, 0, len(m.nodeOrder)),
		InjectInputMapping: make(map[string][2]string, len(m.injectionBindings)),
	}
	for _, id := range m.nodeOrder {
		n := m.nodes[id]
		doc.Nodes = append(doc.Nodes, wireNode{
			NodeID:     n.ID,
			Component:  n.ComponentName,
			OutputName: n.OutputSurfaceName,
			Position:   n.Position,
		})
		for _, c := range n.Forwards {
			doc.Connections = append(doc.Connections, wireConnection{
				FromNodeID:     c.FromNode,
				FromOutputName: c.FromOutput,
				ToNodeID:       c.ToNode,
				ToNodeInput:    c.ToInput,
			})
		}
	}
	for param, target := range m.injectionBindings {
		doc.InjectInputMapping[param] = [2]string{target.NodeID, target.InputName}
	}
	return json.Marshal(doc)
}

// FromJSON parses data, resolves every component_name against registry,
// enforces P1-P6, and returns the frozen Model. It fails with
// InvalidPipelineError describing the first violated invariant.
func FromJSON(registry *component.Registry, data []byte) (*Model, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed pipeline JSON: %v", dataflowerr.ErrInvalidPipeline, err)
	}

	b := NewBuilder(registry)
	for _, n := range doc.Nodes {
		opts := []NodeOption{}
		if n.OutputName != "" {
			opts = append(opts, WithOutputSurface(n.OutputName))
		}
		if n.Position != nil {
			opts = append(opts, WithPosition(n.Position.X, n.Position.Y))
		}
		b.AddNode(n.NodeID, n.Component, opts...)
	}
	for _, c := range doc.Connections {
		b.Connect(c.FromNodeID, c.FromOutputName, c.ToNodeID, c.ToNodeInput)
	}
	for param, target := range doc.InjectInputMapping {
		b.Inject(param, target[0], target[1])
	}

	return b.Build()
}
