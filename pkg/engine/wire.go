package engine

import (
	"encoding/json"
	"time"

	"github.com/ragnarok-labs/dataflow/pkg/iotype"
)

// wireEvent is the SPEC_FULL.md §6 transport shape for consumers that
// stream events over HTTP (e.g. as SSE): { node_id, type, data,
// timestamp }. Binary-bearing values inside data are base64-encoded by
// iotype.Value's own MarshalJSON, satisfying "consumers MUST NOT rely on
// raw bytes appearing in the event document" without a bespoke codec.
type wireEvent struct {
	NodeID    string                    `json:"node_id"`
	Type      string                    `json:"type"`
	Data      map[string]iotype.Value   `json:"data"`
	Timestamp string                    `json:"timestamp"`
	Error     string                    `json:"error,omitempty"`
}

// MarshalJSON encodes e in the wire event shape. An OutputInfo event's
// data is the one-key { output_surface_name: outputs } bag the spec
// requires; a ProcessInfo event's data is the node's full output bag, or
// empty with an "error" field set on a terminal failure event.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		NodeID:    e.NodeID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	switch e.Kind {
	case OutputInfo:
		w.Type = "output_info"
		w.Data = nil
	case ProcessInfo:
		w.Type = "process_info"
	}
	if e.Err != nil {
		w.Error = e.Err.Error()
		return json.Marshal(w)
	}
	if e.Kind == OutputInfo {
		// re-nest under the surface name using a raw message so the
		// outer object stays {"<name>": {<outputs>}} rather than typed
		// as map[string]iotype.Value (the value here is itself a bag).
		inner, err := marshalValueBag(e.Outputs)
		if err != nil {
			return nil, err
		}
		wrapped := map[string]json.RawMessage{e.OutputSurfaceName: inner}
		return json.Marshal(struct {
			NodeID    string                     `json:"node_id"`
			Type      string                     `json:"type"`
			Data      map[string]json.RawMessage `json:"data"`
			Timestamp string                     `json:"timestamp"`
		}{w.NodeID, w.Type, wrapped, w.Timestamp})
	}
	w.Data = e.Outputs
	return json.Marshal(w)
}

func marshalValueBag(bag map[string]iotype.Value) (json.RawMessage, error) {
	return json.Marshal(bag)
}
