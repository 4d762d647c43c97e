package demo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/iotype"
	"github.com/ragnarok-labs/dataflow/pkg/telemetry"
)

func TestHTTPFetchDeniedByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	desc := NewHTTPFetch(config.Default())
	_, err := desc.Invoke(context.Background(), map[string]iotype.Value{
		"url": iotype.NewString(ts.URL),
	})
	if err == nil {
		t.Fatal("expected error: outbound HTTP denied by default config")
	}
}

func TestHTTPFetchAllowed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hi"))
	}))
	defer ts.Close()

	cfg := config.Testing()
	desc := NewHTTPFetch(cfg)

	out, err := desc.Invoke(context.Background(), map[string]iotype.Value{
		"url": iotype.NewString(ts.URL),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	status, err := out["status"].AsInt()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != http.StatusTeapot {
		t.Errorf("status = %d, want %d", status, http.StatusTeapot)
	}
	body, err := out["body"].AsString()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if body != "hi" {
		t.Errorf("body = %q, want %q", body, "hi")
	}

	reg := component.NewRegistry()
	reg.MustRegister(desc)
	if _, ok := reg.Lookup("demo.http_fetch"); !ok {
		t.Fatal("component not registered")
	}
}

func TestHTTPFetchRecordsTelemetry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	provider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	desc := NewHTTPFetch(config.Testing(), provider)
	_, err = desc.Invoke(context.Background(), map[string]iotype.Value{
		"url": iotype.NewString(ts.URL),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestHTTPFetchBlockedByAllowlist(t *testing.T) {
	cfg := config.Testing()
	cfg.AllowedDomains = []string{"example.com"}
	desc := NewHTTPFetch(cfg)

	_, err := desc.Invoke(context.Background(), map[string]iotype.Value{
		"url": iotype.NewString("http://127.0.0.1:9"),
	})
	if err == nil {
		t.Fatal("expected error: host not in allowlist")
	}
}
