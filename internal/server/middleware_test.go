package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/calc-portal/internal/common"
)

func newTestServer() *Server {
	return &Server{logger: common.NewSilentLogger()}
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})
}

func TestCorrelationIDMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"generated", nil, ""},
		{"request id", map[string]string{"X-Request-ID": "calc-req-1"}, "calc-req-1"},
		{"correlation id", map[string]string{"X-Correlation-ID": "calc-corr-2"}, "calc-corr-2"},
		{"request id wins", map[string]string{"X-Request-ID": "a", "X-Correlation-ID": "b"}, "a"},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := s.correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = common.CorrelationID(r.Context())
			}))

			req := httptest.NewRequest("POST", "/api/tools/current-calc/calculate", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			header := w.Header().Get("X-Correlation-ID")
			if header == "" || header != seen {
				t.Fatalf("expected header and context to agree, got header %q context %q", header, seen)
			}
			if tt.want != "" && header != tt.want {
				t.Errorf("expected %q, got %q", tt.want, header)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer()
	called := false
	handler := s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/tools/inertia-calc/calculate", nil))

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected Access-Control-Allow-Origin: *")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Error("expected POST in allowed methods")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id") {
		t.Error("expected Mcp-Session-Id in allowed headers")
	}
	if !called {
		t.Error("expected request to reach the handler")
	}

	called = false
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/tools/inertia-calc/calculate", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected preflight 200, got %d", w.Code)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer()

	panicking := s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("calculator exploded")
	}))
	w := httptest.NewRecorder()
	panicking.ServeHTTP(w, httptest.NewRequest("GET", "/api/tools", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["detail"] != "internal error" {
		t.Errorf("expected generic detail, got %q", body["detail"])
	}
	if strings.Contains(w.Body.String(), "exploded") {
		t.Error("panic value must not reach the client")
	}

	w = httptest.NewRecorder()
	s.recoveryMiddleware(okHandler(`[]`)).ServeHTTP(w, httptest.NewRequest("GET", "/api/tools", nil))
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Errorf("expected pass-through, got %d %q", w.Code, w.Body.String())
	}
}

func TestLoggingMiddleware_PreservesResponse(t *testing.T) {
	s := newTestServer()
	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"tool not found: nope"}`)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/tools/nope/calculate", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "nope") {
		t.Errorf("expected body to pass through, got %q", w.Body.String())
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusBadRequest)
	n, err := rw.Write([]byte(`{"detail":"voltage: is required"}`))
	if err != nil {
		t.Fatal(err)
	}
	rw.Flush()

	if rw.statusCode != http.StatusBadRequest {
		t.Errorf("expected captured status 400, got %d", rw.statusCode)
	}
	if rw.bytesWritten != n {
		t.Errorf("expected %d bytes counted, got %d", n, rw.bytesWritten)
	}
	if !w.Flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	s := newTestServer()
	handler := s.securityHeadersMiddleware(okHandler(`{"status":"ok"}`))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("expected %s %q, got %q", k, v, got)
		}
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Errorf("unexpected CSP %q", w.Header().Get("Content-Security-Policy"))
	}
	if w.Body.String() != `{"status":"ok"}` {
		t.Errorf("expected body to pass through, got %q", w.Body.String())
	}
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	s := newTestServer()
	handler := s.maxBodySizeMiddleware(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"small body", "POST", `{"power": 1000, "voltage": 220}`, http.StatusOK},
		{"oversized body", "POST", `{"padding": "` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge},
		{"no body", "GET", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, "/api/tools", nil)
			} else {
				req = httptest.NewRequest(tt.method, "/api/tools/current-calc/calculate", strings.NewReader(tt.body))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}
