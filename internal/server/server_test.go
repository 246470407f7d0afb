package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/upfit/internal/observability"
	"github.com/chazu/upfit/pkg/catalog"
	"github.com/chazu/upfit/pkg/evaluate"
)

const demoProject = `{
  "id": "vsav-demo",
  "name": "VSAV demo",
  "vehicle": {"blueprintId": "vsav-master-l2h2", "payloadReserve_kg": 600},
  "placements": [
    {"instanceId": "drawer-1200-01", "moduleSku": "DRAWER-1200", "position_mm": [-850, 550, 230], "rotation_deg": [0, 0, 0]},
    {"instanceId": "rack-ari-01", "moduleSku": "RACK-ARI-DOUBLE", "position_mm": [-1000, 650, 1000], "rotation_deg": [0, 0, 0]},
    {"instanceId": "ext-01", "moduleSku": "EXT-6KG", "position_mm": [1400, 350, 1000], "rotation_deg": [0, 0, 0]},
    {"instanceId": "hose-01", "moduleSku": "HOSE-CHEST", "position_mm": [1000, -550, 535], "rotation_deg": [0, 0, 0]},
    {"instanceId": "drawer-800-01", "moduleSku": "DRAWER-800", "position_mm": [-1100, -590, 150], "rotation_deg": [0, 0, 0]}
  ],
  "settings": {"walkway": {"minWidth_mm": 500}}
}`

const demoScript = `
(project "Scripted demo" :id "scripted")
(vehicle "vsav-master-l2h2")
(place "DRAWER-1200" :id "d1" :at (vec3 -850 550 230))
(place "EXT-6KG" :at (vec3 1400 350 1000))
`

type testServer struct {
	handler http.Handler
	metrics *observability.Collector
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	m, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return testServer{handler: New(cat, Options{Metrics: m}).Handler(), metrics: m}
}

func (ts testServer) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	decodeBody(t, rr, &body)
	code, _ := body["error"].(string)
	return code
}

func TestHealthz(t *testing.T) {
	rr := newTestServer(t).do(t, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var modules []map[string]any
	rr := ts.do(t, http.MethodGet, "/v1/catalog/modules", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("modules status = %d", rr.Code)
	}
	decodeBody(t, rr, &modules)
	if len(modules) != 9 {
		t.Errorf("expected 9 modules, got %d", len(modules))
	}

	var vehicles []map[string]any
	rr = ts.do(t, http.MethodGet, "/v1/catalog/vehicles", "", "")
	decodeBody(t, rr, &vehicles)
	if len(vehicles) != 3 {
		t.Errorf("expected 3 vehicles, got %d", len(vehicles))
	}
}

func TestEvaluate(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/v1/evaluate", "application/json", demoProject)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var s evaluate.Summary
	decodeBody(t, rr, &s)
	if s.ProjectID != "vsav-demo" || s.MaxSeverity != "" || len(s.Issues) != 0 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.BOM) != 5 || len(s.Exports) != 6 {
		t.Errorf("bom = %d, exports = %d", len(s.BOM), len(s.Exports))
	}

	metrics := ts.do(t, http.MethodGet, "/metrics", "", "").Body.String()
	if !strings.Contains(metrics, `upfit_evaluations_total{outcome="ok"} 1`) {
		t.Errorf("evaluation not counted:\n%s", metrics)
	}
}

func TestEvaluateYAML(t *testing.T) {
	body := `id: yaml-demo
vehicle: {blueprintId: vtu-trafic-l2h1}
placements: []
`
	rr := newTestServer(t).do(t, http.MethodPost, "/v1/evaluate", "application/yaml", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"id": `, http.StatusBadRequest, CodeBadRequest},
		{"missing vehicle", `{"id": "p"}`, http.StatusUnprocessableEntity, CodeInvalid},
		{"duplicate instance", `{"id": "p", "vehicle": {"blueprintId": "vsav-master-l2h2"},
			"placements": [{"instanceId": "a", "moduleSku": "EXT-6KG"}, {"instanceId": "a", "moduleSku": "EXT-6KG"}]}`,
			http.StatusUnprocessableEntity, CodeInvalid},
		{"unknown vehicle", `{"id": "p", "vehicle": {"blueprintId": "no-such-van"}}`, http.StatusUnprocessableEntity, CodeUnresolved},
		{"unknown module", `{"id": "p", "vehicle": {"blueprintId": "vsav-master-l2h2"},
			"placements": [{"instanceId": "a", "moduleSku": "NOPE"}]}`,
			http.StatusUnprocessableEntity, CodeUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := newTestServer(t).do(t, http.MethodPost, "/v1/evaluate", "application/json", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if code := errorCode(t, rr); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	h := New(cat, Options{MaxBodyBytes: 16}).Handler()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(demoProject))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestExports(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/v1/exports/dxf", "application/json", demoProject)
	if rr.Code != http.StatusOK {
		t.Fatalf("dxf status = %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/vnd.dxf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `"floorplan.dxf"`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasSuffix(rr.Body.Bytes(), []byte("EOF\n")) {
		t.Error("dxf payload should end with EOF")
	}

	rr = ts.do(t, http.MethodPost, "/v1/exports/svg", "application/json", demoProject)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<svg") {
		t.Errorf("svg status = %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/v1/exports/docx", "application/json", demoProject)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != CodeUnknownFormat {
		t.Errorf("unknown format status = %d", rr.Code)
	}

	metrics := ts.do(t, http.MethodGet, "/metrics", "", "").Body.String()
	if !strings.Contains(metrics, `upfit_exports_total{format="dxf"} 1`) {
		t.Errorf("export not counted:\n%s", metrics)
	}
}

func TestScriptEvaluate(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/v1/scripts/evaluate", "text/plain", demoScript)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp scriptResponse
	decodeBody(t, rr, &resp)
	if resp.Project == nil || len(resp.Project.Placements) != 2 {
		t.Fatalf("project = %+v", resp.Project)
	}
	if resp.Project.Placements[1].InstanceID != "ext-6kg-1" {
		t.Errorf("generated id = %q", resp.Project.Placements[1].InstanceID)
	}
	if resp.Summary.ProjectID != "scripted" || len(resp.Summary.BOM) != 2 {
		t.Errorf("summary = %+v", resp.Summary)
	}
}

func TestScriptErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/v1/scripts/evaluate", "text/plain", `(place "EXT-6KG"`)
	if rr.Code != http.StatusUnprocessableEntity || errorCode(t, rr) != CodeScript {
		t.Errorf("syntax error status = %d", rr.Code)
	}

	// Runs, but never names a vehicle.
	rr = ts.do(t, http.MethodPost, "/v1/scripts/evaluate", "text/plain", `(project "x" :id "x")`)
	if rr.Code != http.StatusUnprocessableEntity || errorCode(t, rr) != CodeInvalid {
		t.Errorf("invalid project status = %d", rr.Code)
	}
}
