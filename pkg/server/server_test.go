package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/demo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := component.NewRegistry()
	demo.RegisterDefaults(reg)

	srv, err := New(config.Testing(), reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func TestHandleListComponents(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/components", nil)
	rec := httptest.NewRecorder()
	srv.handleListComponents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []component.PublicDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d components, want 5", len(got))
	}
}

func echoPipelineJSON() string {
	return `{
		"nodes": [{"node_id": "echo", "component": "demo.echo"}],
		"connections": [],
		"inject_input_mapping": {"msg": ["echo", "x"]}
	}`
}

func TestHandleValidatePipeline(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantValid bool
	}{
		{"valid pipeline", echoPipelineJSON(), true},
		{"unknown component", `{"nodes":[{"node_id":"a","component":"nope"}],"connections":[],"inject_input_mapping":{}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/validate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.handleValidatePipeline(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp struct {
				Valid bool `json:"valid"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", resp.Valid, tt.wantValid)
			}
		})
	}
}

func TestHandleExecutePipelineStreamsEvents(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"pipeline": ` + echoPipelineJSON() + `,
		"inputs": {"msg": {"type": "String", "value": "ping"}}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/execute", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.handleExecutePipeline(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var dataLines []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
	}
	if len(dataLines) != 1 {
		t.Fatalf("got %d SSE events, want 1: %v", len(dataLines), dataLines)
	}

	var ev struct {
		NodeID string `json:"node_id"`
		Type   string `json:"type"`
		Data   struct {
			Y struct {
				Value string `json:"value"`
			} `json:"y"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(dataLines[0]), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "process_info" || ev.NodeID != "echo" {
		t.Errorf("event = %+v, want process_info for node echo", ev)
	}
	if ev.Data.Y.Value != "ping" {
		t.Errorf("y = %q, want %q", ev.Data.Y.Value, "ping")
	}
}

func TestHandleExecutePipelineInvalidPipeline(t *testing.T) {
	srv := newTestServer(t)

	body := `{"pipeline": {"nodes":[{"node_id":"a","component":"nope"}],"connections":[],"inject_input_mapping":{}}, "inputs": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/execute", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.handleExecutePipeline(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a pipeline referencing an unregistered component", rec.Code)
	}
}
