package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ragnarok-labs/dataflow/pkg/observer"
)

// TelemetryObserver implements observer.Observer and records telemetry data
// for a pipeline run's events. The engine dispatches node start/success/
// failure notifications from concurrently running per-node goroutines, so
// every field below is guarded by mu.
type TelemetryObserver struct {
	provider *Provider

	mu sync.Mutex

	// Track active spans for the run and its nodes
	runSpan   trace.Span
	nodeSpans map[string]trace.Span

	// Track execution times
	runStartTime   time.Time
	nodeStartTimes map[string]time.Time
}

// NewTelemetryObserver creates a new telemetry observer
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:       provider,
		nodeSpans:      make(map[string]trace.Span),
		nodeStartTimes: make(map[string]time.Time),
	}
}

// OnEvent handles execution events and records telemetry data
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventRunStart:
		o.handleRunStart(ctx, event)
	case observer.EventRunEnd:
		o.handleRunEnd(ctx, event)
	case observer.EventNodeStart:
		o.handleNodeStart(ctx, event)
	case observer.EventNodeSuccess:
		o.handleNodeSuccess(ctx, event)
	case observer.EventNodeFailure:
		o.handleNodeFailure(ctx, event)
	}
}

func (o *TelemetryObserver) handleRunStart(ctx context.Context, event observer.Event) {
	// Start the run's root span; node spans below attach to it as children.
	_, span := o.provider.Tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.mu.Lock()
	o.runSpan = span
	o.runStartTime = event.Timestamp
	o.mu.Unlock()
}

func (o *TelemetryObserver) handleRunEnd(ctx context.Context, event observer.Event) {
	o.mu.Lock()
	duration := time.Since(o.runStartTime)
	span := o.runSpan
	o.mu.Unlock()

	// Get nodes executed count from metadata
	nodesExecuted := 0
	if val, ok := event.Metadata["nodes_executed"]; ok {
		if count, ok := val.(int); ok {
			nodesExecuted = count
		}
	}

	// Record metrics
	success := event.Status == observer.StatusSuccess
	o.provider.RecordRunExecution(ctx, event.ExecutionID, duration, success, nodesExecuted)

	// End the run's root span
	if span != nil {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "run completed successfully")
		}
		span.End()
	}
}

func (o *TelemetryObserver) handleNodeStart(ctx context.Context, event observer.Event) {
	o.mu.Lock()
	runSpan := o.runSpan
	o.mu.Unlock()

	// Start node span as child of the run's root span
	var spanCtx context.Context
	if runSpan != nil {
		spanCtx = trace.ContextWithSpan(ctx, runSpan)
	} else {
		spanCtx = ctx
	}

	_, span := o.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", event.NodeID),
			attribute.String("component.name", event.ComponentName),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.mu.Lock()
	o.nodeSpans[event.NodeID] = span
	o.nodeStartTimes[event.NodeID] = event.Timestamp
	o.mu.Unlock()
}

func (o *TelemetryObserver) handleNodeSuccess(ctx context.Context, event observer.Event) {
	o.handleNodeEnd(ctx, event, true)
}

func (o *TelemetryObserver) handleNodeFailure(ctx context.Context, event observer.Event) {
	o.handleNodeEnd(ctx, event, false)
}

func (o *TelemetryObserver) handleNodeEnd(ctx context.Context, event observer.Event, success bool) {
	o.mu.Lock()
	var duration time.Duration
	if startTime, ok := o.nodeStartTimes[event.NodeID]; ok {
		duration = time.Since(startTime)
		delete(o.nodeStartTimes, event.NodeID)
	}
	span, hasSpan := o.nodeSpans[event.NodeID]
	delete(o.nodeSpans, event.NodeID)
	o.mu.Unlock()

	// Record metrics
	o.provider.RecordNodeExecution(ctx, event.NodeID, event.ComponentName, duration, success)

	// End node span
	if hasSpan {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "node completed successfully")
		}
		span.End()
	}
}
