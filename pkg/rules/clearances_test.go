package rules

import (
	"testing"

	"github.com/chazu/upfit/pkg/layout/layouttest"
	"github.com/chazu/upfit/pkg/model"
)

func TestWalkwayBlocked(t *testing.T) {
	tests := []struct {
		name    string
		y       float64
		blocked bool
	}{
		{"centred", 0, true},
		{"straddling edge", 400, true},
		// Box spans y 250..650; the 500 mm walkway spans -250..250.
		{"touching edge", 450, false},
		{"clear", 700, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := buildCtx(t, layouttest.Place("a", "BOX", 0, tt.y, 200))
			issues := CheckClearances(ctx)
			got := countCode(issues, CodeWalkwayBlocked) == 1
			if got != tt.blocked {
				t.Fatalf("blocked = %v, want %v (%v)", got, tt.blocked, issues)
			}
			if got {
				is := issues[0]
				if is.Severity != SeverityWarning || is.Metadata["walkwayWidth_mm"] != 500.0 {
					t.Errorf("unexpected issue %+v", is)
				}
			}
		})
	}
}

func TestClearanceBlocked(t *testing.T) {
	front := layouttest.Module("FRONT", 400, 400, 400, 10)
	front.Clearances = &model.Clearances{Front: model.Float(300), Left: model.Float(0)}
	cat := layouttest.Catalog(box, front)

	tests := []struct {
		name     string
		otherX   float64
		rotation float64
		blocked  bool
	}{
		// Clearance slab spans x 200..500 when unrotated.
		{"obstacle in front", 600, 0, true},
		{"obstacle beyond clearance", 701, 0, false},
		// Rotated 180 degrees the front faces -X.
		{"rotated away", 600, 180, false},
		{"rotated towards", -600, 180, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := layouttest.Place("m", "FRONT", 0, 700, 200)
			m.Rotation = [3]float64{0, 0, tt.rotation}
			p := layouttest.Project(m, layouttest.Place("o", "BOX", tt.otherX, 700, 200))
			ctx := layouttest.Build(t, p, layouttest.Van(), cat)
			issues := CheckClearances(ctx)
			got := hasIssue(issues, CodeClearanceBlocked, SeverityCritical)
			if got != tt.blocked {
				t.Fatalf("blocked = %v, want %v (%v)", got, tt.blocked, issues)
			}
			if got {
				for _, is := range issues {
					if is.Code != CodeClearanceBlocked {
						continue
					}
					if is.Metadata["clearance"] != "front" || is.Metadata["required_mm"] != 300.0 {
						t.Errorf("metadata = %v", is.Metadata)
					}
					if is.RelatedInstanceIDs[0] != "m" || is.RelatedInstanceIDs[1] != "o" {
						t.Errorf("related = %v", is.RelatedInstanceIDs)
					}
				}
			}
		})
	}
}

func TestClearanceZeroIsIgnored(t *testing.T) {
	side := layouttest.Module("SIDE", 400, 400, 400, 10)
	side.Clearances = &model.Clearances{Left: model.Float(0), Top: model.Float(-10)}
	p := layouttest.Project(
		layouttest.Place("m", "SIDE", 0, 700, 200),
		layouttest.Place("o", "BOX", 0, 700, 600),
	)
	ctx := layouttest.Build(t, p, layouttest.Van(), layouttest.Catalog(box, side))
	if n := countCode(CheckClearances(ctx), CodeClearanceBlocked); n != 0 {
		t.Fatalf("expected zero/negative clearances to be skipped, got %d issues", n)
	}
}

func TestExtensionBlocked(t *testing.T) {
	drawer := layouttest.Module("DRAWER", 400, 400, 400, 10)
	drawer.Clearances = &model.Clearances{Extend: model.Float(500)}
	cat := layouttest.Catalog(box, drawer)

	t.Run("blocked along +x", func(t *testing.T) {
		p := layouttest.Project(
			layouttest.Place("d", "DRAWER", 0, 700, 200),
			layouttest.Place("o", "BOX", 800, 700, 200),
		)
		issues := CheckClearances(layouttest.Build(t, p, layouttest.Van(), cat))
		if !hasIssue(issues, CodeExtensionBlocked, SeverityCritical) {
			t.Fatalf("expected extension.blocked, got %v", issues)
		}
	})
	t.Run("never checks -x", func(t *testing.T) {
		p := layouttest.Project(
			layouttest.Place("d", "DRAWER", 0, 700, 200),
			layouttest.Place("o", "BOX", -500, 700, 200),
		)
		issues := CheckClearances(layouttest.Build(t, p, layouttest.Van(), cat))
		if countCode(issues, CodeExtensionBlocked) != 0 {
			t.Fatalf("extension must only look along local +X, got %v", issues)
		}
	})
}

func TestClearanceBox(t *testing.T) {
	ctx := buildCtx(t, layouttest.Place("a", "BOX", 0, 0, 200))
	obb := ctx.Modules[0].OBB
	top := clearanceBox(obb, 2, 1, 100)
	if top.Center.Z != 450 || top.HalfSize.Z != 50 || top.HalfSize.X != 200 {
		t.Fatalf("top slab = %+v", top)
	}
	right := clearanceBox(obb, 1, -1, 300)
	if right.Center.Y != -350 || right.HalfSize.Y != 150 {
		t.Fatalf("right slab = %+v", right)
	}
}
