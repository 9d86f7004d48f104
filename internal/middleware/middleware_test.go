package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("Expected a generated request id in context")
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Errorf("Expected response header %q, got %q", seen, rr.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReusesInbound(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc-123" {
		t.Errorf("Expected inbound id to be reused, got %q", seen)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     string
		origin      string
		method      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{"wildcard", "*", "http://a.test", http.MethodPost, false, http.StatusTeapot, "*"},
		{"matching origin", "http://app.test", "http://app.test", http.MethodPost, false, http.StatusTeapot, "http://app.test"},
		{"foreign origin", "http://app.test", "http://evil.test", http.MethodPost, false, http.StatusTeapot, ""},
		{"preflight", "*", "http://a.test", http.MethodOptions, true, http.StatusNoContent, "*"},
		{"bare options reaches handler", "*", "", http.MethodOptions, false, http.StatusTeapot, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/chat", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()

			CORS(tc.allowed)(next).ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllowed {
				t.Errorf("Expected Allow-Origin %q, got %q", tc.wantAllowed, got)
			}
		})
	}
}

func TestLogger_RecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("{}"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusMethodNotAllowed) {
		t.Errorf("Expected status 405 logged, got %v", fields["status"])
	}
	if fields["path"] != "/api/chat" {
		t.Errorf("Expected path logged, got %v", fields["path"])
	}
	if fields["request_id"] == "" {
		t.Error("Expected request id logged")
	}
}
