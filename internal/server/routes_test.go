package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/calc-portal/internal/app"
	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()
	cfg.Tools.Dir = filepath.Join("..", "..", "configs", "tools")

	application, err := app.New(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}

	t.Cleanup(func() {
		application.Close()
	})

	return application
}

func serve(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q: %v", w.Body.String(), err)
	}
	return body["detail"]
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestRoutes_VersionEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/version", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Error("expected version field in response")
	}
}

func TestRoutes_APINotFound(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/nonexistent", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if d := detail(t, w); !strings.Contains(d, "/api/nonexistent") {
		t.Errorf("expected path in detail, got %q", d)
	}
}

func TestRoutes_IndexPage(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Current calculator", "Centrifugal fan selection", "/api/tools/inertia-calc/calculate"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected index page to contain %q", want)
		}
	}
}

func TestRoutes_ToolList(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/tools", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var tools []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &tools); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	var ids []string
	for _, tool := range tools {
		ids = append(ids, tool["id"])
	}
	want := "current-calc,electronic-gear-ratio,fan-selection,inertia-calc"
	if strings.Join(ids, ",") != want {
		t.Errorf("expected %s, got %v", want, ids)
	}
}

func TestRoutes_Calculate(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "POST", "/api/tools/current-calc/calculate", `{"scenario": "pure_resistor", "power": 1000, "voltage": 220}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Result       float64 `json:"result"`
		Unit         string  `json:"unit"`
		Formula      string  `json:"formula"`
		ScenarioName string  `json:"scenarioName"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if res.Result < 4.54 || res.Result > 4.55 {
		t.Errorf("expected ≈4.545 A, got %v", res.Result)
	}
	if res.Unit != "A" || res.Formula == "" || res.ScenarioName == "" {
		t.Errorf("incomplete envelope %+v", res)
	}
}

func TestRoutes_CalculateErrors(t *testing.T) {
	srv := New(newTestApp(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		detail string
	}{
		{"missing scenario", "POST", "/api/tools/current-calc/calculate", `{"power": 1000, "voltage": 220}`, http.StatusBadRequest, "scenario"},
		{"unknown tool", "POST", "/api/tools/nope/calculate", `{}`, http.StatusNotFound, "nope"},
		{"wrong method", "GET", "/api/tools/current-calc/calculate", "", http.StatusMethodNotAllowed, "method not allowed"},
		{"domain error", "POST", "/api/tools/inertia-calc/calculate", `{"scenario": "cylinder_parallel", "d0": 10, "d1": 12, "L": 1, "rho": 1}`, http.StatusBadRequest, "diameter"},
		{"non-integer", "POST", "/api/tools/electronic-gear-ratio/calculate", `{"encoder_resolution": 1.5, "mechanical_ratio": 1}`, http.StatusBadRequest, "encoder_resolution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if d := detail(t, w); !strings.Contains(strings.ToLower(d), strings.ToLower(tt.detail)) {
				t.Errorf("expected detail containing %q, got %q", tt.detail, d)
			}
		})
	}
}

func TestRoutes_ToolDetailAndSchemas(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/tools/fan-selection", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"calculatorRef":"fluid.fan_selection"`) {
		t.Errorf("unexpected tool detail %d %s", w.Code, w.Body.String())
	}

	w = serve(t, srv, "GET", "/api/tools/fan-selection/schema", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"suction_type"`) {
		t.Errorf("unexpected request schema %d %s", w.Code, w.Body.String())
	}

	w = serve(t, srv, "GET", "/api/tool-schema", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"templateRef"`) {
		t.Errorf("unexpected definition schema %d", w.Code)
	}
}

func TestRoutes_Fans(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/fans", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"4-68"`) {
		t.Errorf("expected seeded 4-68 model, got %d %s", w.Code, w.Body.String())
	}

	w = serve(t, srv, "GET", "/api/fans/4-68", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	w = serve(t, srv, "GET", "/api/fans/unknown", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRoutes_MCPEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "current-calc") {
		t.Error("expected current-calc in MCP tools/list")
	}
}

func TestRoutes_MiddlewareApplied(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(t, srv, "GET", "/api/health", "")

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header from middleware")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header from middleware")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header from security middleware")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header from security middleware")
	}
}
