package rules

import (
	"math/rand"
	"testing"

	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/layout/layouttest"
	"github.com/chazu/upfit/pkg/model"
)

// hasIssue reports whether issues contains code with the given severity.
func hasIssue(issues []Issue, code string, sev Severity) bool {
	for _, is := range issues {
		if is.Code == code && is.Severity == sev {
			return true
		}
	}
	return false
}

func countCode(issues []Issue, code string) int {
	n := 0
	for _, is := range issues {
		if is.Code == code {
			n++
		}
	}
	return n
}

var box = layouttest.Module("BOX", 400, 400, 400, 20)

func buildCtx(t *testing.T, placements ...model.Placement) *layout.Context {
	t.Helper()
	return layouttest.Build(t, layouttest.Project(placements...), layouttest.Van(), layouttest.Catalog(box))
}

func TestCollisionIdenticalPlacements(t *testing.T) {
	ctx := buildCtx(t,
		layouttest.Place("a", "BOX", 0, 700, 200),
		layouttest.Place("b", "BOX", 0, 700, 200),
	)
	res := CheckCollisions(ctx)
	if !hasIssue(res.Issues, CodeCollisionModules, SeverityCritical) {
		t.Fatalf("expected critical collision, got %v", res.Issues)
	}
	if len(res.Pairs) != 1 || res.Pairs[0] != (Pair{A: 0, B: 1}) {
		t.Fatalf("pairs = %v", res.Pairs)
	}
	is := res.Issues[0]
	if len(is.RelatedInstanceIDs) != 2 || is.RelatedInstanceIDs[0] != "a" || is.RelatedInstanceIDs[1] != "b" {
		t.Errorf("related = %v", is.RelatedInstanceIDs)
	}
	if v := is.Metadata["overlapVolume_mm3"].(float64); v != 400*400*400 {
		t.Errorf("overlap = %v", v)
	}
}

func TestCollisionTouchingIsWarning(t *testing.T) {
	ctx := buildCtx(t,
		layouttest.Place("a", "BOX", 0, 700, 200),
		layouttest.Place("b", "BOX", 400, 700, 200),
	)
	res := CheckCollisions(ctx)
	if !hasIssue(res.Issues, CodeCollisionModules, SeverityWarning) {
		t.Fatalf("expected warning for touching modules, got %v", res.Issues)
	}
}

func TestCollisionSeparated(t *testing.T) {
	ctx := buildCtx(t,
		layouttest.Place("a", "BOX", 0, 700, 200),
		layouttest.Place("b", "BOX", 401, 700, 200),
	)
	res := CheckCollisions(ctx)
	if len(res.Issues) != 0 || len(res.Pairs) != 0 {
		t.Fatalf("expected no issues, got %v", res.Issues)
	}
}

func TestInteriorBounds(t *testing.T) {
	tests := []struct {
		name string
		pos  [3]float64
		code string
		sev  Severity
	}{
		{"past rear", [3]float64{1900, 0, 200}, CodeInteriorMaxX, SeverityCritical},
		{"past front", [3]float64{-1900, 0, 200}, CodeInteriorMinX, SeverityCritical},
		{"left wall", [3]float64{0, -900, 200}, CodeInteriorMinY, SeverityWarning},
		{"right wall", [3]float64{0, 900, 200}, CodeInteriorMaxY, SeverityWarning},
		{"roof", [3]float64{0, 0, 1900}, CodeInteriorMaxZ, SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := buildCtx(t, layouttest.Place("a", "BOX", tt.pos[0], tt.pos[1], tt.pos[2]))
			res := CheckCollisions(ctx)
			if !hasIssue(res.Issues, tt.code, tt.sev) {
				t.Fatalf("expected %s/%s, got %v", tt.code, tt.sev, res.Issues)
			}
			if len(res.Issues) != 1 {
				t.Errorf("expected exactly one issue, got %v", res.Issues)
			}
		})
	}
}

func TestInteriorFlushAndBelowFloor(t *testing.T) {
	// Flush with the rear wall and sunk below the floor: neither is flagged.
	ctx := buildCtx(t, layouttest.Place("a", "BOX", 1800, 0, 100))
	if res := CheckCollisions(ctx); len(res.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", res.Issues)
	}
}

func TestNoInteriorSkipsBoundsCheck(t *testing.T) {
	v := layouttest.Van()
	v.Interior = nil
	ctx := layouttest.Build(t, layouttest.Project(layouttest.Place("a", "BOX", 5000, 0, 200)), v, layouttest.Catalog(box))
	if res := CheckCollisions(ctx); len(res.Issues) != 0 {
		t.Fatalf("expected no issues without interior, got %v", res.Issues)
	}
}

func TestForbiddenZones(t *testing.T) {
	v := layouttest.Van()
	v.ForbiddenZones = []model.ForbiddenZone{
		{ID: "arch", Origin: [3]float64{1500, 800, 150}, Size: [3]float64{800, 400, 300}, Critical: true},
		{ID: "hatch", Origin: [3]float64{-1000, 0, 10}, Size: [3]float64{500, 500, 20}},
	}
	p := layouttest.Project(
		layouttest.Place("a", "BOX", 1500, 700, 200),
		layouttest.Place("b", "BOX", -1000, 0, 200),
		layouttest.Place("c", "BOX", 0, -700, 200),
	)
	ctx := layouttest.Build(t, p, v, layouttest.Catalog(box))
	res := CheckCollisions(ctx)

	if !hasIssue(res.Issues, CodeForbiddenCritical, SeverityCritical) {
		t.Errorf("expected critical zone issue, got %v", res.Issues)
	}
	if !hasIssue(res.Issues, CodeForbiddenZone, SeverityWarning) {
		t.Errorf("expected advisory zone issue, got %v", res.Issues)
	}
	for _, is := range res.Issues {
		if is.Code == CodeForbiddenCritical && is.Metadata["zoneId"] != "arch" {
			t.Errorf("zone metadata = %v", is.Metadata)
		}
		for _, id := range is.RelatedInstanceIDs {
			if id == "c" {
				t.Errorf("module c is clear of every zone: %v", is)
			}
		}
	}
}

func TestForbiddenZoneTouchingFace(t *testing.T) {
	v := layouttest.Van()
	// Spans y in [-250, 250].
	v.ForbiddenZones = []model.ForbiddenZone{
		{ID: "hatch", Origin: [3]float64{-1000, 0, 10}, Size: [3]float64{500, 500, 20}},
	}
	tests := []struct {
		name string
		y    float64
		want int
	}{
		{"overlapping", 400, 1},
		{"face touching", 450, 1},
		{"just clear", 450.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := layouttest.Project(layouttest.Place("a", "BOX", -1000, tt.y, 200))
			ctx := layouttest.Build(t, p, v, layouttest.Catalog(box))
			res := CheckCollisions(ctx)
			if got := countCode(res.Issues, CodeForbiddenZone); got != tt.want {
				t.Errorf("y=%g: %d zone issues, want %d: %v", tt.y, got, tt.want, res.Issues)
			}
		})
	}
}

func TestCollisionIssueOrder(t *testing.T) {
	v := layouttest.Van()
	v.ForbiddenZones = []model.ForbiddenZone{
		{ID: "z", Origin: [3]float64{1900, 0, 200}, Size: [3]float64{100, 100, 100}},
	}
	p := layouttest.Project(
		layouttest.Place("a", "BOX", 1900, 0, 200),
		layouttest.Place("b", "BOX", 1900, 0, 200),
	)
	ctx := layouttest.Build(t, p, v, layouttest.Catalog(box))
	res := CheckCollisions(ctx)
	want := []string{
		CodeCollisionModules,
		CodeInteriorMaxX, CodeInteriorMaxX,
		CodeForbiddenZone, CodeForbiddenZone,
	}
	if len(res.Issues) != len(want) {
		t.Fatalf("got %d issues, want %d: %v", len(res.Issues), len(want), res.Issues)
	}
	for i, code := range want {
		if res.Issues[i].Code != code {
			t.Errorf("issue %d = %s, want %s", i, res.Issues[i].Code, code)
		}
	}
}

// bruteForcePairs is the plain O(n^2) narrow phase.
func bruteForcePairs(ctx *layout.Context) []Pair {
	var out []Pair
	for i := range ctx.Modules {
		for j := i + 1; j < len(ctx.Modules); j++ {
			if ctx.Modules[i].OBB.Intersects(ctx.Modules[j].OBB) {
				out = append(out, Pair{A: i, B: j})
			}
		}
	}
	return out
}

func TestBroadphaseMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var placements []model.Placement
	for i := 0; i < 120; i++ {
		pl := layouttest.Place(
			string(rune('a'+i%26))+string(rune('0'+i/26)),
			"BOX",
			rng.Float64()*4000-2000,
			rng.Float64()*2000-1000,
			200+rng.Float64()*400,
		)
		pl.Rotation = [3]float64{0, 0, rng.Float64() * 360}
		placements = append(placements, pl)
	}
	// Two exactly touching boxes must survive the broad phase.
	placements = append(placements,
		layouttest.Place("touch-a", "BOX", 5000, 0, 200),
		layouttest.Place("touch-b", "BOX", 5400, 0, 200),
	)
	ctx := buildCtx(t, placements...)

	got := CheckCollisions(ctx).Pairs
	want := bruteForcePairs(ctx)
	if len(got) != len(want) {
		t.Fatalf("broadphase found %d pairs, brute force %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}
	if want[len(want)-1] != (Pair{A: 120, B: 121}) {
		t.Errorf("touching pair missing: last pair %v", want[len(want)-1])
	}
}
