package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/engine"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
	"github.com/ragnarok-labs/dataflow/pkg/observer"
	"github.com/ragnarok-labs/dataflow/pkg/pipeline"
	"github.com/ragnarok-labs/dataflow/pkg/telemetry"
)

// handleListComponents serves the registry introspection shape of
// spec.md §6: [{name, is_official, detail: {input_options,
// output_options}}, ...].
func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.registry.ListDetails())
}

// handleValidatePipeline builds a pipeline.Model from the request body
// without running it, per spec.md §6 ("Clients may send the same
// document to build-and-validate endpoints and to the runner").
func (s *Server) handleValidatePipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, "failed to read request body", http.StatusBadRequest, err)
		return
	}

	if _, err := pipeline.FromJSON(s.registry, body); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// executeRequest is the body shape accepted by /api/v1/pipeline/execute:
// the pipeline document of spec.md §4.2 plus the injected external
// parameter values, keyed and typed the same way as iotype.Value's own
// wire shape.
type executeRequest struct {
	Pipeline json.RawMessage          `json:"pipeline"`
	Inputs   map[string]iotype.Value `json:"inputs"`
}

// handleExecutePipeline builds and runs the pipeline, streaming
// ExecutionEvents to the client as server-sent events, per spec.md §1
// ("the wrapping server maps engine events onto server-sent events") and
// the wire representation of spec.md §6.
func (s *Server) handleExecutePipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, "failed to read request body", http.StatusBadRequest, err)
		return
	}

	var req executeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, "failed to parse request", http.StatusBadRequest, err)
		return
	}

	model, err := pipeline.FromJSON(s.registry, req.Pipeline)
	if err != nil {
		s.writeError(w, "invalid pipeline", http.StatusBadRequest, err)
		return
	}

	observers := observer.NewManager()
	observers.Register(telemetry.NewTelemetryObserver(s.telemetryProvider))

	ctx := r.Context()
	if s.cfg.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MaxExecutionTime)
		defer cancel()
	}

	events, outcome, err := engine.Run(ctx, model, req.Inputs,
		engine.WithConfig(s.cfg),
		engine.WithObservers(observers),
		engine.WithLogger(s.logger),
	)
	if err != nil {
		status := http.StatusBadRequest
		s.writeError(w, "failed to start run", status, err)
		return
	}

	s.streamSSE(w, events)

	if err := outcome.Err(); err != nil {
		s.logger.WithError(err).Error("run terminated with error")
	}
}

// streamSSE drains events onto w as server-sent events, flushing after
// every event so a disconnecting client (context cancellation) is
// observed by the producer promptly, per spec.md §4.3/§5 "cancellation
// by the consumer".
func (s *Server) streamSSE(w http.ResponseWriter, events <-chan engine.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, canFlush := w.(http.Flusher)

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.WithError(err).Error("failed to encode execution event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodySize)
	return io.ReadAll(r.Body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int, err error) {
	s.logger.WithError(err).WithField("status_code", status).Error(message)
	status = mapErrorStatus(status, err)
	s.writeJSON(w, status, map[string]any{
		"error":   message,
		"details": err.Error(),
	})
}

// mapErrorStatus maps construction-time error kinds to HTTP status codes
// per spec.md §7 ("the engine's caller... maps construction errors to
// 4xx responses"). Run-time errors that reach here (failed to start a
// run) keep the caller's requested status.
func mapErrorStatus(fallback int, err error) int {
	switch {
	case errors.Is(err, dataflowerr.ErrInvalidPipeline),
		errors.Is(err, dataflowerr.ErrInvalidComponent),
		errors.Is(err, dataflowerr.ErrDuplicateComponent),
		errors.Is(err, dataflowerr.ErrMissingInjectedInput),
		errors.Is(err, dataflowerr.ErrTypeMismatch):
		return http.StatusBadRequest
	default:
		return fallback
	}
}
