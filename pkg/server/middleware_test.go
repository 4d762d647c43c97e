package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareSetsHeaderAndContext(t *testing.T) {
	srv := newTestServer(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	srv.requestIDMiddleware(next).ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected requestIDMiddleware to attach a non-empty request ID to the context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Errorf("X-Request-Id header = %q, want %q", got, seen)
	}
}

func TestRequestIDFromContextEmptyWhenMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	if got := requestIDFromContext(req.Context()); got != "" {
		t.Errorf("requestIDFromContext() = %q, want empty string for a request never passed through requestIDMiddleware", got)
	}
}
