package export

import (
	"strings"
	"testing"

	"github.com/chazu/upfit/pkg/layout/layouttest"
	"github.com/chazu/upfit/pkg/rules"
)

func TestSVGFloorPlan(t *testing.T) {
	ctx := sampleContext(t)
	out := string(SVG(ctx, nil))

	if !strings.Contains(out, "<svg") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Fatal("not an SVG document")
	}
	for _, id := range []string{`id="floor"`, `id="walkway"`, `id="modules"`} {
		if !strings.Contains(out, id) {
			t.Errorf("missing group %s", id)
		}
	}
	if strings.Count(out, "<polygon") != 2 {
		t.Errorf("expected one polygon per module")
	}
	if !strings.Contains(out, ">DRAWER<") || !strings.Contains(out, ">RACK<") {
		t.Error("missing SKU labels")
	}
	if strings.Contains(out, severityFill[rules.SeverityCritical]) {
		t.Error("no module should be flagged without issues")
	}
	// 4000 x 2000 mm interior plus the margin.
	if !strings.Contains(out, `width="4200"`) || !strings.Contains(out, `height="2200"`) {
		t.Error("canvas should cover the interior and margin")
	}
}

func TestSVGColoursBySeverity(t *testing.T) {
	ctx := sampleContext(t)
	issues := []rules.Issue{
		{Code: rules.CodeCollisionModules, Severity: rules.SeverityCritical, RelatedInstanceIDs: []string{"drawer-1"}},
		{Code: rules.CodeWalkwayBlocked, Severity: rules.SeverityWarning, RelatedInstanceIDs: []string{"drawer-1", "rack-1"}},
	}
	worst := moduleSeverity(issues)
	if worst["drawer-1"] != rules.SeverityCritical || worst["rack-1"] != rules.SeverityWarning {
		t.Fatalf("worst = %v", worst)
	}
	out := string(SVG(ctx, issues))
	if !strings.Contains(out, severityFill[rules.SeverityCritical]) || !strings.Contains(out, severityFill[rules.SeverityWarning]) {
		t.Fatal("module fills should follow issue severity")
	}
}

func TestSVGWithoutInterior(t *testing.T) {
	v := layouttest.Van()
	v.Interior = nil
	out := string(SVG(emptyContext(t, v), nil))
	if strings.Contains(out, `id="floor"`) {
		t.Error("no floor expected without an interior")
	}
	if !strings.Contains(out, `width="2200"`) {
		t.Error("empty plan should fall back to a 2 m square")
	}
}
