// Package engine implements the concurrent, event-streaming execution
// engine: given a validated pipeline.Model and a bag of injected external
// values, it walks the DAG, spawning one goroutine per node as soon as
// that node's inputs are satisfied, and emits a stream of ExecutionEvents
// until every reachable node has run exactly once.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/dataflowerr"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
	"github.com/ragnarok-labs/dataflow/pkg/logging"
	"github.com/ragnarok-labs/dataflow/pkg/observer"
	"github.com/ragnarok-labs/dataflow/pkg/pipeline"
)

// EventKind distinguishes the two event shapes the engine emits.
type EventKind string

const (
	// ProcessInfo carries the full output bag of a node that just
	// finished (or, on failure, the error that terminated it).
	ProcessInfo EventKind = "process_info"
	// OutputInfo carries a node's outputs surfaced under its declared
	// output_surface_name. Always precedes that node's ProcessInfo.
	OutputInfo EventKind = "output_info"
)

// Event is one entry in the engine's execution event stream.
type Event struct {
	Kind      EventKind
	NodeID    string
	Timestamp time.Time

	// Outputs is the node's full output bag. For an OutputInfo event it
	// is surfaced under OutputSurfaceName rather than emitted flat, per
	// the wire shape { output_surface_name: outputs }.
	Outputs map[string]iotype.Value
	// OutputSurfaceName is set only on OutputInfo events.
	OutputSurfaceName string

	// Err is set on a terminal ProcessInfo-equivalent event produced by
	// an invoker failure or a downstream type mismatch.
	Err error
}

// Outcome carries the terminal error of a run, if any. It must only be
// read after the event channel returned by Run has been fully drained;
// reading it earlier may race with an in-flight failure.
type Outcome struct {
	mu  sync.Mutex
	err error
}

func (o *Outcome) set(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

// Err returns the run's terminal error, or nil if every node completed
// successfully.
func (o *Outcome) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// nodeRun is the ephemeral per-run, per-node state: an input slot map
// written at most once per input (P3) and an atomic countdown of
// still-unfilled required inputs. Kept separate from the immutable
// pipeline.Model so the model stays shareable across concurrent runs
// (SPEC_FULL.md §9 design note on RunState vs Model).
type nodeRun struct {
	mu      sync.Mutex
	slots   map[string]iotype.Value
	waiting int32
}

// runConfig holds the options a Run call can be customized with.
type runConfig struct {
	bufferMultiplier int
	executionID      string
	observers        *observer.Manager
	logger           *logging.Logger
}

// Option customizes a Run call.
type Option func(*runConfig)

// WithExecutionID stamps the run with a caller-supplied execution ID
// instead of a generated one.
func WithExecutionID(id string) Option {
	return func(c *runConfig) { c.executionID = id }
}

// WithObservers attaches an observer.Manager that receives lifecycle
// notifications (node start/success/failure) as the run progresses.
func WithObservers(m *observer.Manager) Option {
	return func(c *runConfig) { c.observers = m }
}

// WithBufferMultiplier overrides the event channel's capacity multiplier
// (capacity = multiplier * len(nodes)); the spec's safe default is 2.
func WithBufferMultiplier(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.bufferMultiplier = n
		}
	}
}

// WithLogger attaches a structured logger; defaults to
// logging.New(logging.DefaultConfig()), a JSON logger at info level, if
// not supplied.
func WithLogger(l *logging.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithConfig derives the run's event-buffer multiplier from cfg, so a
// single process-wide config.Config can govern every Run call instead of
// each caller hardcoding the multiplier. Equivalent to
// WithBufferMultiplier(cfg.EventBufferMultiplier) but tolerant of a zero
// value (falls back to the package default of 2).
func WithConfig(cfg *config.Config) Option {
	return func(c *runConfig) {
		if cfg != nil && cfg.EventBufferMultiplier > 0 {
			c.bufferMultiplier = cfg.EventBufferMultiplier
		}
	}
}

func defaultRunConfig() runConfig {
	return runConfig{
		bufferMultiplier: 2,
		executionID:      uuid.NewString(),
		observers:        observer.NewManager(),
		logger:           logging.New(logging.DefaultConfig()),
	}
}

// run holds the shared mutable state of a single Run invocation.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc

	registry *component.Registry
	nodes    map[pipeline.NodeID]pipeline.PipelineNode
	states   map[pipeline.NodeID]*nodeRun

	events        chan Event
	outcome       *Outcome
	wg            sync.WaitGroup
	failed        int32 // atomic: 0 = none yet, 1 = a terminal failure has been recorded
	nodesExecuted int32 // atomic: count of nodes that reached success or failure

	cfg runConfig
}

// Run executes model concurrently against injected external values,
// returning a channel of ExecutionEvents and an Outcome readable once
// that channel closes. It returns a synchronous error only for a
// run-time precondition violation discovered before any node is
// scheduled (a required input covered solely by an injection binding
// whose external parameter is absent, or an injected value outside its
// target input's allowed types) — per spec.md §4.3 step 1, a
// well-formed pipeline should never fail this check since P5 already
// enforces coverage at build time, but the external caller's injected
// map is not under the engine's control.
func Run(ctx context.Context, model *pipeline.Model, injected map[string]iotype.Value, opts ...Option) (<-chan Event, *Outcome, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := model.Registry()
	nodes := model.Nodes()

	states := make(map[pipeline.NodeID]*nodeRun, len(nodes))
	for id, n := range nodes {
		desc, _ := registry.Lookup(n.ComponentName)
		var waiting int32
		for _, in := range desc.Inputs {
			if in.Required {
				waiting++
			}
		}
		states[id] = &nodeRun{slots: make(map[string]iotype.Value), waiting: waiting}
	}

	for param, target := range model.InjectionBindings() {
		node := nodes[target.NodeID]
		desc, _ := registry.Lookup(node.ComponentName)
		inSpec, _ := desc.InputByName(target.InputName)

		val, present := injected[param]
		if !present {
			if inSpec.Required {
				return nil, nil, fmt.Errorf("%w: external parameter %q (-> %s.%s)",
					dataflowerr.ErrMissingInjectedInput, param, target.NodeID, target.InputName)
			}
			continue
		}
		if err := model.ValueForInjectedParam(param, val); err != nil {
			return nil, nil, err
		}

		st := states[target.NodeID]
		st.mu.Lock()
		st.slots[target.InputName] = val
		st.mu.Unlock()
		if inSpec.Required {
			atomic.AddInt32(&st.waiting, -1)
		}
	}

	bufSize := cfg.bufferMultiplier * len(nodes)
	if bufSize < 1 {
		bufSize = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		ctx:      runCtx,
		cancel:   cancel,
		registry: registry,
		nodes:    nodes,
		states:   states,
		events:   make(chan Event, bufSize),
		outcome:  &Outcome{},
		cfg:      cfg,
	}

	r.notifyRunStart()

	for _, id := range model.BeginNodes() {
		r.spawn(id)
	}

	go func() {
		r.wg.Wait()
		r.notifyRunEnd()
		cancel()
		close(r.events)
	}()

	return r.events, r.outcome, nil
}

func (r *run) spawn(id pipeline.NodeID) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runNode(id)
	}()
}

func (r *run) runNode(id pipeline.NodeID) {
	if atomic.LoadInt32(&r.failed) != 0 {
		return
	}
	select {
	case <-r.ctx.Done():
		return
	default:
	}

	node := r.nodes[id]
	desc, _ := r.registry.Lookup(node.ComponentName)
	st := r.states[id]

	st.mu.Lock()
	inputs := make(map[string]iotype.Value, len(st.slots))
	for k, v := range st.slots {
		inputs[k] = v
	}
	st.mu.Unlock()

	log := r.cfg.logger.WithExecutionID(r.cfg.executionID).WithNodeID(id).WithComponent(node.ComponentName)
	log.Debug("dispatching node")
	r.notify(observer.EventNodeStart, id, node.ComponentName, nil)

	outputs, err := desc.Invoke(r.ctx, inputs)
	if err != nil {
		r.fail(id, node.ComponentName, fmt.Errorf("%w: node %q: %v", dataflowerr.ErrInvokerFailed, id, err), log)
		return
	}

	log.Debug("node completed")
	atomic.AddInt32(&r.nodesExecuted, 1)
	r.notify(observer.EventNodeSuccess, id, node.ComponentName, outputs)

	if node.OutputSurfaceName != "" {
		log.WithEventKind(string(OutputInfo)).Debug("surfacing node output")
		r.emit(Event{
			Kind:              OutputInfo,
			NodeID:            id,
			Timestamp:         time.Now(),
			Outputs:           outputs,
			OutputSurfaceName: node.OutputSurfaceName,
		})
	}
	log.WithEventKind(string(ProcessInfo)).Debug("emitting node result")
	r.emit(Event{Kind: ProcessInfo, NodeID: id, Timestamp: time.Now(), Outputs: outputs})

	r.propagate(id, node, outputs, log)
}

// propagate writes each outgoing edge's value into its target's input
// slots and spawns the target once its waiting count reaches zero. A
// produced value outside the target input's allowed types is treated as
// an invoker failure on the producing node's downstream write, per
// spec.md §4.3 failure semantics.
func (r *run) propagate(id pipeline.NodeID, node pipeline.PipelineNode, outputs map[string]iotype.Value, log *logging.Logger) {
	for _, c := range node.Forwards {
		val, ok := outputs[c.FromOutput]
		if !ok {
			val = iotype.Null
		}

		toDesc, _ := r.registry.Lookup(r.nodes[c.ToNode].ComponentName)
		inSpec, _ := toDesc.InputByName(c.ToInput)
		if !val.IsNull() && !inSpec.AllowedTypes.Contains(val.Type) {
			mismatch := fmt.Errorf("%w: edge %s.%s -> %s.%s carries a %s value",
				dataflowerr.ErrTypeMismatch, id, c.FromOutput, c.ToNode, c.ToInput, val.Type)
			r.fail(id, node.ComponentName, mismatch, log)
			return
		}

		toSt := r.states[c.ToNode]
		toSt.mu.Lock()
		toSt.slots[c.ToInput] = val
		toSt.mu.Unlock()

		if inSpec.Required {
			if atomic.AddInt32(&toSt.waiting, -1) == 0 && atomic.LoadInt32(&r.failed) == 0 {
				r.spawn(c.ToNode)
			}
		}
	}
}

// fail records the first terminal failure of the run, cancels scheduling
// of any not-yet-started node, and emits the terminal event for id. It
// is a no-op beyond event emission if another node already failed first.
func (r *run) fail(id pipeline.NodeID, componentName string, err error, log *logging.Logger) {
	if atomic.CompareAndSwapInt32(&r.failed, 0, 1) {
		r.outcome.set(err)
		r.cancel()
	}
	log.WithEventKind(string(ProcessInfo)).WithError(err).Error("node failed")
	atomic.AddInt32(&r.nodesExecuted, 1)
	r.notify(observer.EventNodeFailure, id, componentName, nil)
	r.emit(Event{Kind: ProcessInfo, NodeID: id, Timestamp: time.Now(), Err: err})
}

func (r *run) emit(e Event) {
	r.events <- e
}

// notifyRunStart emits EventRunStart before the first node is spawned, so
// an observer's run-scoped state (e.g. a telemetry span) exists before any
// node-level event can reference it.
func (r *run) notifyRunStart() {
	if r.cfg.observers == nil || !r.cfg.observers.HasObservers() {
		return
	}
	r.cfg.observers.Notify(r.ctx, observer.Event{
		Type:        observer.EventRunStart,
		Status:      observer.StatusStarted,
		Timestamp:   time.Now(),
		ExecutionID: r.cfg.executionID,
	})
}

// notifyRunEnd emits EventRunEnd once every spawned node has returned,
// carrying the run's terminal status and the number of nodes it executed.
func (r *run) notifyRunEnd() {
	if r.cfg.observers == nil || !r.cfg.observers.HasObservers() {
		return
	}
	status := observer.StatusSuccess
	err := r.outcome.Err()
	if err != nil {
		status = observer.StatusFailure
	}
	r.cfg.observers.Notify(r.ctx, observer.Event{
		Type:        observer.EventRunEnd,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: r.cfg.executionID,
		Error:       err,
		Metadata: map[string]interface{}{
			"nodes_executed": int(atomic.LoadInt32(&r.nodesExecuted)),
		},
	})
}

func (r *run) notify(eventType observer.EventType, nodeID, componentName string, result map[string]iotype.Value) {
	if r.cfg.observers == nil || !r.cfg.observers.HasObservers() {
		return
	}
	status := observer.StatusStarted
	switch eventType {
	case observer.EventNodeSuccess:
		status = observer.StatusSuccess
	case observer.EventNodeFailure:
		status = observer.StatusFailure
	}
	r.cfg.observers.Notify(r.ctx, observer.Event{
		Type:          eventType,
		Status:        status,
		Timestamp:     time.Now(),
		ExecutionID:   r.cfg.executionID,
		NodeID:        nodeID,
		ComponentName: componentName,
		Result:        result,
	})
}
