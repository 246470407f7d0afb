package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chazu/upfit/pkg/layout/layouttest"
)

func TestBuildBOM(t *testing.T) {
	bom := BuildBOM(sampleContext(t))
	if len(bom) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(bom))
	}
	e := bom[0]
	if e.InstanceID != "drawer-1" || e.SKU != "DRAWER" || e.Quantity != 1 || e.Mass != 48.5 {
		t.Errorf("entry = %+v", e)
	}
	if e.Position != [3]float64{1200, 650, 200} {
		t.Errorf("position = %v", e.Position)
	}
}

func TestBOMCSV(t *testing.T) {
	bom := BuildBOM(sampleContext(t))
	out, err := BOMCSV(bom)
	if err != nil {
		t.Fatalf("BOMCSV: %v", err)
	}
	if strings.HasSuffix(string(out), "\n") {
		t.Error("last record should not end with a newline")
	}
	if lines := strings.Split(string(out), "\n"); len(lines) != len(bom)+1 {
		t.Fatalf("expected %d lines, got %d: %q", len(bom)+1, len(lines), lines)
	}

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != len(bom)+1 {
		t.Fatalf("expected %d records, got %d", len(bom)+1, len(records))
	}
	if got := strings.Join(records[0], ","); got != "instanceId,sku,name,quantity,mass_kg,pos_x_mm,pos_y_mm,pos_z_mm" {
		t.Errorf("header = %q", got)
	}
	want := []string{"drawer-1", "DRAWER", "DRAWER", "1", "48.50", "1200.0", "650.0", "200.0"}
	if got := records[1]; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("row = %v, want %v", got, want)
	}
}

func TestBOMCSVQuotesNames(t *testing.T) {
	bom := []BOMEntry{{InstanceID: "a", SKU: "S", Name: `Shelf, "wide"`, Quantity: 1}}
	out, err := BOMCSV(bom)
	if err != nil {
		t.Fatalf("BOMCSV: %v", err)
	}
	if !strings.Contains(string(out), `"Shelf, ""wide"""`) {
		t.Fatalf("name not quoted: %s", out)
	}
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil || records[1][2] != `Shelf, "wide"` {
		t.Fatalf("round trip failed: %v %v", records, err)
	}
}

func TestBOMJSONMatchesCSV(t *testing.T) {
	bom := BuildBOM(sampleContext(t))
	out, err := BOMJSON(bom)
	if err != nil {
		t.Fatalf("BOMJSON: %v", err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(parsed) != len(bom) {
		t.Fatalf("expected %d entries, got %d", len(bom), len(parsed))
	}
	if parsed[1]["sku"] != "RACK" || parsed[1]["mass_kg"] != 20.0 {
		t.Errorf("entry = %v", parsed[1])
	}
	if !strings.Contains(string(out), "\n  {") {
		t.Error("expected two-space indentation")
	}
}

func TestBOMEmpty(t *testing.T) {
	bom := BuildBOM(emptyContext(t, layouttest.Van()))
	out, err := BOMJSON(bom)
	if err != nil || string(out) != "[]" {
		t.Fatalf("BOMJSON = %q, %v", out, err)
	}
	csvOut, err := BOMCSV(bom)
	if err != nil || string(csvOut) != "instanceId,sku,name,quantity,mass_kg,pos_x_mm,pos_y_mm,pos_z_mm" {
		t.Fatalf("BOMCSV = %q, %v", csvOut, err)
	}
}
