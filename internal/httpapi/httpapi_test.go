package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dring/mcstatus/internal/mcping"
	"github.com/dring/mcstatus/internal/resolver"
)

func newTestServer() *Server {
	return New(mcping.New(resolver.New()), nil, DefaultTimeouts())
}

func TestHandleJavaUnreachableAddressReturns200WithErrorBody(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/java/192.0.2.1:1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a reachability failure, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected non-empty error body, got %v", body)
	}
}

func TestHandleBedrockUnreachableAddressReturns200WithErrorBody(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/bedrock/192.0.2.1:1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a reachability failure, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected non-empty error body, got %v", body)
	}
}

func TestHandleJavaInvalidAddressReturns400(t *testing.T) {
	srv := newTestServer()
	// A colon with no host at all still reaches net.SplitHostPort fine,
	// so force the invalid-address path with an address gin can route
	// but javaping rejects: an explicit empty segment is disallowed by
	// the router, so use a lone colon instead.
	req := httptest.NewRequest(http.MethodGet, "/api/java/:", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid address, got %d: %s", rec.Code, rec.Body.String())
	}
}
