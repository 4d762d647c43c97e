// Package observer provides an event-driven observer pattern for pipeline
// run monitoring.
//
// # Overview
//
// Observers receive a single notification type, Event, for every
// significant point in a run: the run itself starting and ending, and
// each node being dispatched, succeeding, or failing. A consumer
// registers one or more Observer implementations with a Manager, which
// fans every Event out to all of them without coupling the caller to
// any particular logging, metrics, or tracing backend.
//
// # Observer interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// Unlike a multi-method callback interface, a single OnEvent method means
// adding a new EventType never breaks existing implementations - they
// simply see a Type they don't recognize and can ignore it (see
// ConsoleObserver.OnEvent's switch, which falls through to a default
// case).
//
// # Event types
//
// EventRunStart and EventRunEnd bracket one pkg/engine.Run call.
// For each node it dispatches, pkg/engine emits EventNodeStart followed
// by EventNodeSuccess or EventNodeFailure; EventNodeEnd is defined (and
// handled by ConsoleObserver) but pkg/engine does not emit it. Node-level events
// carry NodeID and ComponentName; run-level events leave both empty.
//
// # Basic usage
//
//	mgr := observer.NewManager()
//	mgr.Register(observer.NewConsoleObserver())
//	mgr.Register(telemetryObserver)
//
//	mgr.Notify(ctx, observer.Event{
//	    Type:        observer.EventNodeSuccess,
//	    Status:      observer.StatusSuccess,
//	    ExecutionID: execID,
//	    NodeID:      nodeID,
//	})
//
// # Manager semantics
//
// Manager.Notify calls every registered Observer in its own goroutine and
// recovers any panic from within it, so a misbehaving observer can never
// block or crash the run it is observing. Consequently, observers should
// not assume ordering relative to each other or to the run continuing
// past the event.
//
// # Built-in observers
//
// NoOpObserver discards every event; pkg/engine does not install it by
// default (a run with no registered observers sends no notifications). ConsoleObserver writes events through a
// Logger (NewDefaultLogger's stdout/stderr wrapper around log.Logger, or
// any caller-supplied Logger), picking Debug/Info/Warn/Error based on the
// event's Type and whether it carries an Error.
package observer
