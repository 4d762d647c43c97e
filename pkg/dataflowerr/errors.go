// Package dataflowerr defines the sentinel error kinds raised by the
// registry, pipeline model, and execution engine. Each sentinel is a
// comparable kind, not a concrete type hierarchy; callers match with
// errors.Is and read detail from the wrapped message via %w.
package dataflowerr

import "errors"

// Sentinel error kinds for registration-time failures.
var (
	ErrDuplicateComponent = errors.New("component already registered")
	ErrInvalidComponent   = errors.New("invoker signature disagrees with declared specs")
)

// Sentinel error kinds for pipeline construction (build-time, P1-P6).
var (
	ErrInvalidPipeline = errors.New("pipeline violates a structural invariant")
)

// Sentinel error kinds for run-time failures.
var (
	ErrMissingInjectedInput = errors.New("required input has no injection binding value")
	ErrInvokerFailed        = errors.New("component invoker failed")
	ErrTypeMismatch         = errors.New("produced value is not a member of the target input's allowed types")
	ErrCancelled            = errors.New("run was cancelled")
)
