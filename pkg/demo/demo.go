// Package demo ships a small set of components that exercise the
// registry, pipeline, and engine packages end to end: the literal Src,
// Len, Concat, and Echo components from spec.md §8's scenarios S1/S2,
// plus an Expr component backed by github.com/expr-lang/expr. None of
// these are "concrete component implementations" of the LLM/search/
// embedding kind the spec excludes — they exist only as a registration
// and execution harness.
package demo

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
	"github.com/ragnarok-labs/dataflow/pkg/telemetry"
)

type srcOut struct {
	Out string `dataflow:"out"`
}

// Src is scenario S1's no-input source component: it always emits the
// string "hello".
var Src = component.Define(component.StaticDescriptor{
	Name:            "demo.src",
	Description:     "emits the constant string \"hello\"",
	IsOfficial:      true,
	EnableTypeCheck: true,
	Outputs: []component.OutputSpec{
		{Name: "out", Type: iotype.String},
	},
}, func(ctx context.Context, in struct{}) (srcOut, error) {
	return srcOut{Out: "hello"}, nil
})

type lenIn struct {
	S string `dataflow:"s"`
}

type lenOut struct {
	N int64 `dataflow:"n"`
}

// Len returns the rune length of its input string.
var Len = component.Define(component.StaticDescriptor{
	Name:            "demo.len",
	Description:     "returns the length of a string",
	IsOfficial:      true,
	EnableTypeCheck: true,
	Inputs: []component.InputSpec{
		{Name: "s", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
	},
	Outputs: []component.OutputSpec{
		{Name: "n", Type: iotype.Int},
	},
}, func(ctx context.Context, in lenIn) (lenOut, error) {
	return lenOut{N: int64(len([]rune(in.S)))}, nil
})

type concatIn struct {
	A string `dataflow:"a"`
	B *int64 `dataflow:"b"`
}

type concatOut struct {
	R string `dataflow:"r"`
}

// Concat appends the decimal string form of optional input b to required
// input a, per scenario S1/S5 ("Concat's ProcessInfo.data == {r:
// hello5}" and "optional input absent ... deterministic output").
var Concat = component.Define(component.StaticDescriptor{
	Name:            "demo.concat",
	Description:     "concatenates a required string with an optional integer's string form",
	IsOfficial:      true,
	EnableTypeCheck: true,
	Inputs: []component.InputSpec{
		{Name: "a", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
		{Name: "b", AllowedTypes: iotype.NewTypeSet(iotype.Int), Required: false},
	},
	Outputs: []component.OutputSpec{
		{Name: "r", Type: iotype.String},
	},
}, func(ctx context.Context, in concatIn) (concatOut, error) {
	if in.B == nil {
		return concatOut{R: in.A}, nil
	}
	return concatOut{R: fmt.Sprintf("%s%d", in.A, *in.B)}, nil
})

type echoIn struct {
	X string `dataflow:"x"`
}

type echoOut struct {
	Y string `dataflow:"y"`
}

// Echo returns its required string input unchanged, as in scenario S2.
var Echo = component.Define(component.StaticDescriptor{
	Name:            "demo.echo",
	Description:     "returns its input unchanged",
	IsOfficial:      true,
	EnableTypeCheck: true,
	Inputs: []component.InputSpec{
		{Name: "x", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
	},
	Outputs: []component.OutputSpec{
		{Name: "y", Type: iotype.String},
	},
}, func(ctx context.Context, in echoIn) (echoOut, error) {
	return echoOut{Y: in.X}, nil
})

type exprIn struct {
	Expression string         `dataflow:"expression"`
	Env        map[string]any `dataflow:"env"`
}

type exprOut struct {
	Result any `dataflow:"result"`
}

// exprCache memoizes compiled programs by source text; a pipeline may
// contain more than one demo.expr node running concurrently, so access
// is mutex-guarded.
var (
	exprCacheMu sync.Mutex
	exprCache   = map[string]*vm.Program{}
)

// Expr compiles and evaluates a user-supplied expression against an
// environment dict, using github.com/expr-lang/expr.
var Expr = component.Define(component.StaticDescriptor{
	Name:            "demo.expr",
	Description:     "evaluates an expr-lang expression against an environment dict",
	IsOfficial:      true,
	EnableTypeCheck: true,
	Inputs: []component.InputSpec{
		{Name: "expression", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
		{Name: "env", AllowedTypes: iotype.NewTypeSet(iotype.Dict), Required: false},
	},
	Outputs: []component.OutputSpec{
		{Name: "result", Type: iotype.Json},
	},
}, func(ctx context.Context, in exprIn) (exprOut, error) {
	env := in.Env
	if env == nil {
		env = map[string]any{}
	}

	exprCacheMu.Lock()
	program, ok := exprCache[in.Expression]
	exprCacheMu.Unlock()
	if !ok {
		compiled, err := expr.Compile(in.Expression, expr.Env(env))
		if err != nil {
			return exprOut{}, fmt.Errorf("demo.expr: compile %q: %w", in.Expression, err)
		}
		program = compiled
		exprCacheMu.Lock()
		exprCache[in.Expression] = program
		exprCacheMu.Unlock()
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return exprOut{}, fmt.Errorf("demo.expr: evaluate %q: %w", in.Expression, err)
	}
	return exprOut{Result: result}, nil
})

// RegisterDefaults registers the demo component set into reg in
// deterministic, sorted-by-name order, mirroring the original
// implementation's register_official_components() scan-and-register
// pattern (spec.md §4.1). It excludes demo.http_fetch, whose guard
// policy is config-dependent; use RegisterDefaultsWithConfig to include
// it.
func RegisterDefaults(reg *component.Registry) {
	reg.MustRegister(Concat)
	reg.MustRegister(Echo)
	reg.MustRegister(Expr)
	reg.MustRegister(Len)
	reg.MustRegister(Src)
}

// RegisterDefaultsWithConfig registers the same set as RegisterDefaults
// plus demo.http_fetch, built against cfg's network-access-control
// fields. An optional *telemetry.Provider is threaded through to
// demo.http_fetch so its outbound calls show up in the provider's
// http.calls.total / http.call.duration metrics.
func RegisterDefaultsWithConfig(reg *component.Registry, cfg *config.Config, provider ...*telemetry.Provider) {
	RegisterDefaults(reg)
	reg.MustRegister(NewHTTPFetch(cfg, provider...))
}
