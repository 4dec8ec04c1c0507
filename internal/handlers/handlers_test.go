package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/dispatch"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
	"github.com/bobmcallan/calc-portal/internal/registry"
	"github.com/bobmcallan/calc-portal/internal/schema"
)

type ohmsLaw struct{}

func (ohmsLaw) Calculate(_ context.Context, scenario string, p calculator.Params) (*calculator.Result, error) {
	switch scenario {
	case "current":
		u, _ := p.Float("voltage")
		r, _ := p.Float("resistance")
		if r == 0 {
			return nil, calculator.Errorf("Resistance must not be 0")
		}
		return &calculator.Result{Result: u / r, Unit: "A", Formula: "I = U / R", ScenarioName: "Current"}, nil
	case "crash":
		panic("divide by nothing")
	}
	return nil, calculator.UnknownScenario(scenario)
}

const ohmYAML = `
id: ohm
displayName: Ohm's law
description: Current through a resistor.
calculatorRef: test.ohm
templateRef: ohm.html
parameters:
  - {name: voltage, label: Voltage, type: number, unit: V, required: true}
  - {name: resistance, label: Resistance, type: number, unit: Ω, minimum: 0}
scenarios:
  - {id: current, title: Current, parameterNames: [voltage, resistance]}
  - {id: crash, title: Crash}
`

const anotherYAML = `
id: another
displayName: Another
calculatorRef: test.ohm
templateRef: another.html
`

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ohm.yaml"), []byte(ohmYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "another.yaml"), []byte(anotherYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	f := calculator.NewFactories()
	f.MustRegister("test.ohm", func() (any, error) { return ohmsLaw{}, nil })
	reg := registry.New(dir, f, schema.Validator, nil)
	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	return reg
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal error body %q: %v", w.Body.String(), err)
	}
	return body["detail"]
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestHealthHandler_ReportsToolCount(t *testing.T) {
	handler := NewHealthHandler(nil, newTestRegistry(t))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["tools"] != float64(2) {
		t.Errorf("expected 2 tools, got %v", body["tools"])
	}
	if body["generation"] != float64(1) {
		t.Errorf("expected generation 1, got %v", body["generation"])
	}
}

func TestHealthHandler_RejectsNonGET(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("POST", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if d := decodeDetail(t, w); d != "method not allowed" {
		t.Errorf("expected detail 'method not allowed', got %q", d)
	}
}

func TestVersionHandler_ReturnsJSON(t *testing.T) {
	handler := NewVersionHandler(nil)

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	for _, key := range []string{"version", "build", "git_commit"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %s field in response", key)
		}
	}
}

func TestRequireMethod_HeadAllowedForGet(t *testing.T) {
	req := httptest.NewRequest("HEAD", "/test", nil)
	w := httptest.NewRecorder()

	if !RequireMethod(w, req, "GET") {
		t.Error("expected HEAD to be accepted for a GET endpoint")
	}
}

func TestRequireMethod_Mismatch(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", nil)
	w := httptest.NewRecorder()

	if RequireMethod(w, req, "GET") {
		t.Error("expected RequireMethod to return false for mismatching method")
	}
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if w.Header().Get("Allow") != "GET" {
		t.Errorf("expected Allow: GET, got %q", w.Header().Get("Allow"))
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusBadRequest, "voltage: is required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if d := decodeDetail(t, w); d != "voltage: is required" {
		t.Errorf("unexpected detail %q", d)
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]any{"result": math.Inf(1)})

	if err == nil {
		t.Error("expected encoding error to be returned")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if d := decodeDetail(t, w); d != "internal error" {
		t.Errorf("unexpected detail %q", d)
	}
}

func calculate(t *testing.T, h *CalculateHandler, method, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/tools/"+id+"/calculate", strings.NewReader(body))
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCalculateHandler_Success(t *testing.T) {
	h := NewCalculateHandler(nil, dispatch.New(newTestRegistry(t), nil))

	w := calculate(t, h, "POST", "ohm", `{"scenario": "current", "voltage": 12, "resistance": 4}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body["result"] != 3.0 {
		t.Errorf("expected result 3, got %v", body["result"])
	}
	if body["unit"] != "A" || body["formula"] != "I = U / R" || body["scenarioName"] != "Current" {
		t.Errorf("unexpected envelope %v", body)
	}
	if _, ok := body["mass"]; ok {
		t.Error("mass should be omitted when not reported")
	}
}

func TestCalculateHandler_Errors(t *testing.T) {
	h := NewCalculateHandler(nil, dispatch.New(newTestRegistry(t), nil))

	tests := []struct {
		name   string
		method string
		id     string
		body   string
		status int
		detail string
	}{
		{"missing scenario", "POST", "ohm", `{"voltage": 12}`, http.StatusBadRequest, "scenario"},
		{"missing required", "POST", "ohm", `{"scenario": "current"}`, http.StatusBadRequest, "voltage"},
		{"below minimum", "POST", "ohm", `{"scenario": "current", "voltage": 1, "resistance": -1}`, http.StatusBadRequest, "resistance"},
		{"domain error", "POST", "ohm", `{"scenario": "current", "voltage": 1, "resistance": 0}`, http.StatusBadRequest, "Resistance must not be 0"},
		{"malformed json", "POST", "ohm", `{"voltage":`, http.StatusBadRequest, ""},
		{"overflowing result", "POST", "ohm", `{"scenario": "current", "voltage": 1e308, "resistance": 1e-300}`, http.StatusInternalServerError, "internal error"},
		{"overflowing input", "POST", "ohm", `{"scenario": "current", "voltage": 1e400, "resistance": 2}`, http.StatusBadRequest, "finite"},
		{"panic", "POST", "ohm", `{"scenario": "crash", "voltage": 1}`, http.StatusInternalServerError, "internal error"},
		{"unknown tool", "POST", "nope", `{}`, http.StatusNotFound, "nope"},
		{"wrong method", "GET", "ohm", ``, http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := calculate(t, h, tt.method, tt.id, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if d := decodeDetail(t, w); !strings.Contains(d, tt.detail) {
				t.Errorf("expected detail containing %q, got %q", tt.detail, d)
			}
		})
	}
}

func TestCalculateHandler_BodyTooLarge(t *testing.T) {
	h := NewCalculateHandler(nil, dispatch.New(newTestRegistry(t), nil))

	big := `{"scenario": "current", "voltage": 1, "pad": "` + strings.Repeat("x", maxBodyBytes) + `"}`
	w := calculate(t, h, "POST", "ohm", big)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", w.Code)
	}
}

func TestToolsHandler_List(t *testing.T) {
	h := NewToolsHandler(nil, newTestRegistry(t))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/tools", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var tools []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &tools); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(tools) != 2 || tools[0]["id"] != "another" || tools[1]["id"] != "ohm" {
		t.Fatalf("expected tools sorted by id, got %v", tools)
	}
	if tools[1]["displayName"] != "Ohm's law" || tools[1]["description"] != "Current through a resistor." {
		t.Errorf("unexpected summary %v", tools[1])
	}
}

func TestToolsHandler_Get(t *testing.T) {
	h := NewToolsHandler(nil, newTestRegistry(t))

	req := httptest.NewRequest("GET", "/api/tools/ohm", nil)
	req.SetPathValue("id", "ohm")
	w := httptest.NewRecorder()
	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var tool registry.ToolSpec
	if err := json.Unmarshal(w.Body.Bytes(), &tool); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(tool.Parameters) != 2 || len(tool.Scenarios) != 2 {
		t.Errorf("expected full tool definition, got %+v", tool)
	}
	if strings.Contains(w.Body.String(), "ohm.yaml") {
		t.Error("source file path must not be exposed")
	}

	req = httptest.NewRequest("GET", "/api/tools/missing", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestToolsHandler_RequestSchema(t *testing.T) {
	h := NewToolsHandler(nil, newTestRegistry(t))

	req := httptest.NewRequest("GET", "/api/tools/ohm/schema", nil)
	req.SetPathValue("id", "ohm")
	w := httptest.NewRecorder()
	h.RequestSchema(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var s struct {
		Properties map[string]map[string]interface{} `json:"properties"`
		Required   []string                          `json:"required"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(s.Required) != 1 || s.Required[0] != "voltage" {
		t.Errorf("expected voltage required, got %v", s.Required)
	}
	if _, ok := s.Properties["scenario"]; !ok {
		t.Error("expected scenario property")
	}
}

func TestToolsHandler_DefinitionSchema(t *testing.T) {
	h := NewToolsHandler(nil, newTestRegistry(t))

	w := httptest.NewRecorder()
	h.DefinitionSchema(w, httptest.NewRequest("GET", "/api/tool-schema", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "calculatorRef") {
		t.Error("expected calculatorRef in definition schema")
	}
}

type stubCurves struct {
	curves map[string][]models.PerformancePoint
	err    error
}

func (s *stubCurves) Get(_ context.Context, model string) ([]models.PerformancePoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	pts, ok := s.curves[model]
	if !ok {
		return nil, interfaces.ErrCurveNotFound
	}
	return pts, nil
}

func (s *stubCurves) Upsert(context.Context, string, models.PerformancePoint) error { return nil }

func (s *stubCurves) Models(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []string
	for m := range s.curves {
		out = append(out, m)
	}
	return out, nil
}

func TestFansHandler(t *testing.T) {
	store := &stubCurves{curves: map[string][]models.PerformancePoint{
		"4-68": {{Index: 1, FlowCoefficient: 0.165, PressureCoefficient: 0.498, Efficiency: 87.6}},
	}}
	h := NewFansHandler(nil, store)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/fans", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"4-68"`) {
		t.Errorf("unexpected list response %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/api/fans/4-68", nil)
	req.SetPathValue("model", "4-68")
	w = httptest.NewRecorder()
	h.Get(w, req)
	var curve models.PerformanceCurve
	if err := json.Unmarshal(w.Body.Bytes(), &curve); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if curve.Model != "4-68" || len(curve.Points) != 1 {
		t.Errorf("unexpected curve %+v", curve)
	}

	req = httptest.NewRequest("GET", "/api/fans/9-19", nil)
	req.SetPathValue("model", "9-19")
	w = httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestFansHandler_StoreFailure(t *testing.T) {
	h := NewFansHandler(nil, &stubCurves{err: errors.New("disk gone")})

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/fans", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk gone") {
		t.Error("store error must not leak to the client")
	}
}

func TestPageHandler_Index(t *testing.T) {
	h := NewPageHandler(nil, newTestRegistry(t), true)

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Ohm&#39;s law", "/api/tools/ohm/calculate", "/mcp"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}

	w = httptest.NewRecorder()
	h.Index(w, httptest.NewRequest("GET", "/elsewhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown page, got %d", w.Code)
	}
}
