package demo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
	"github.com/ragnarok-labs/dataflow/pkg/security"
	"github.com/ragnarok-labs/dataflow/pkg/telemetry"
)

type httpFetchIn struct {
	URL string `dataflow:"url"`
}

type httpFetchOut struct {
	Status int64  `dataflow:"status"`
	Body   string `dataflow:"body"`
}

// NewHTTPFetch builds the demo.http_fetch component: a GET-only outbound
// HTTP call guarded by a security.Guard built from cfg, and bounded by
// cfg.HTTPTimeout / cfg.MaxResponseSize. It is the one component that
// exercises config.Config's zero-trust network-access-control fields
// (SPEC_FULL.md §10.3), pairing an outbound HTTP invoker with
// pkg/security's SSRF guard as a schema-first component.
//
// An optional *telemetry.Provider records each request's method, status,
// and duration via RecordHTTPCall; omit it (or pass nil) to skip
// recording, as RegisterDefaultsWithConfig does when given no provider.
func NewHTTPFetch(cfg *config.Config, provider ...*telemetry.Provider) component.Descriptor {
	guard := security.NewGuard(cfg)
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	maxBody := cfg.MaxResponseSize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	var tp *telemetry.Provider
	if len(provider) > 0 {
		tp = provider[0]
	}

	return component.Define(component.StaticDescriptor{
		Name:            "demo.http_fetch",
		Description:     "performs a GET request against an allowlisted URL and returns its status and body",
		IsOfficial:      true,
		EnableTypeCheck: true,
		Inputs: []component.InputSpec{
			{Name: "url", AllowedTypes: iotype.NewTypeSet(iotype.String), Required: true},
		},
		Outputs: []component.OutputSpec{
			{Name: "status", Type: iotype.Int},
			{Name: "body", Type: iotype.String},
		},
	}, func(ctx context.Context, in httpFetchIn) (httpFetchOut, error) {
		if err := guard.ValidateURL(in.URL); err != nil {
			return httpFetchOut{}, fmt.Errorf("demo.http_fetch: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
		if err != nil {
			return httpFetchOut{}, fmt.Errorf("demo.http_fetch: build request: %w", err)
		}

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			if tp != nil {
				tp.RecordHTTPCall(ctx, http.MethodGet, in.URL, 0, time.Since(start))
			}
			return httpFetchOut{}, fmt.Errorf("demo.http_fetch: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if tp != nil {
			tp.RecordHTTPCall(ctx, http.MethodGet, in.URL, resp.StatusCode, time.Since(start))
		}
		if err != nil {
			return httpFetchOut{}, fmt.Errorf("demo.http_fetch: read body: %w", err)
		}

		return httpFetchOut{Status: int64(resp.StatusCode), Body: string(body)}, nil
	})
}
