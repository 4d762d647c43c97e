// Package logging provides structured logging for the dataflow execution
// engine.
//
// # Overview
//
// Logger wraps log/slog and adds chained accessors for the fields that
// recur throughout a pipeline run: execution_id, node_id, component_name,
// and event_kind ("process_info" or "output_info", mirroring
// pkg/engine.EventKind). Each With* call returns a new *Logger carrying
// the added field, so a per-run or per-node logger is built once and
// reused for every log line that node emits.
//
// # Basic usage
//
//	logger := logging.New(logging.Config{Level: "info"})
//
//	nodeLog := logger.WithExecutionID(execID).WithNodeID(nodeID).WithComponent(componentName)
//	nodeLog.Debug("dispatching node")
//	nodeLog.WithEventKind("process_info").Debug("emitting node result")
//
// # Output formats
//
// Config.Pretty selects between the two slog.Handler implementations the
// package ships with: JSON (the default, for production) or a
// human-readable text handler (for local development).
//
// # Thread safety
//
// A *Logger is immutable after construction; With* methods return a new
// value rather than mutating the receiver, so a logger can be shared
// across goroutines and derived from concurrently without locking.
package logging
