package rules

import (
	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

// criticalOverlapMM3 is the AABB overlap volume above which a module
// collision is critical rather than a warning.
const criticalOverlapMM3 = 1.0

// ZoneCriticality says whether entering a forbidden zone is a hard failure.
type ZoneCriticality int

const (
	ZoneAdvisory ZoneCriticality = iota
	ZoneCritical
)

func zoneCriticality(z model.ForbiddenZone) ZoneCriticality {
	if z.Critical {
		return ZoneCritical
	}
	return ZoneAdvisory
}

func (c ZoneCriticality) code() string {
	if c == ZoneCritical {
		return CodeForbiddenCritical
	}
	return CodeForbiddenZone
}

func (c ZoneCriticality) severity() Severity {
	if c == ZoneCritical {
		return SeverityCritical
	}
	return SeverityWarning
}

// Pair is two intersecting modules, by index into Context.Modules, with A < B.
type Pair struct {
	A, B int
}

// CollisionResult is the output of CheckCollisions.
type CollisionResult struct {
	Issues []Issue
	Pairs  []Pair
}

// CheckCollisions reports module/module intersections, modules poking out of
// the interior volume, and modules entering forbidden zones, in that order.
func CheckCollisions(ctx *layout.Context) CollisionResult {
	var res CollisionResult
	mods := ctx.Modules
	bp := newBroadphase(mods)

	for i := range mods {
		a := &mods[i]
		for _, j := range bp.candidates(a.AABB) {
			if j <= i {
				continue
			}
			b := &mods[j]
			if !a.OBB.Intersects(b.OBB) {
				continue
			}
			res.Pairs = append(res.Pairs, Pair{A: i, B: j})
			overlap := a.AABB.OverlapVolume(b.AABB)
			sev := SeverityWarning
			if overlap > criticalOverlapMM3 {
				sev = SeverityCritical
			}
			res.Issues = append(res.Issues, newIssue(CodeCollisionModules, sev,
				[]string{a.Placement.InstanceID, b.Placement.InstanceID},
				map[string]any{"overlapVolume_mm3": overlap},
				"collision between %s and %s", a.Module.SKU, b.Module.SKU))
		}
	}

	if interior, ok := ctx.InteriorAABB(); ok {
		for i := range mods {
			res.Issues = append(res.Issues, outsideInterior(&mods[i], interior)...)
		}
	}

	for _, zone := range ctx.Vehicle.ForbiddenZones {
		zb := geom.NewOBB(geom.FromArray(zone.Origin), geom.FromArray(zone.Size), geom.Vec3{})
		crit := zoneCriticality(zone)
		for _, i := range bp.candidates(zb.AABB()) {
			m := &mods[i]
			if !zb.Intersects(m.OBB) {
				continue
			}
			res.Issues = append(res.Issues, newIssue(crit.code(), crit.severity(),
				[]string{m.Placement.InstanceID},
				map[string]any{"zoneId": zone.ID},
				"module %s intersects zone %s", m.Module.SKU, zone.ID))
		}
	}
	return res
}

type boundCheck struct {
	code    string
	sev     Severity
	axis    string
	side    string
	message string
	outside func(m, in geom.AABB) bool
}

// The floor is not checked: modules may sit in wells below z = 0.
var interiorChecks = []boundCheck{
	{CodeInteriorMinX, SeverityCritical, "x", "min", "module %s exceeds the front limit",
		func(m, in geom.AABB) bool { return m.Min.X < in.Min.X-geom.ContainmentTolerance }},
	{CodeInteriorMaxX, SeverityCritical, "x", "max", "module %s exceeds the rear limit",
		func(m, in geom.AABB) bool { return m.Max.X > in.Max.X+geom.ContainmentTolerance }},
	{CodeInteriorMinY, SeverityWarning, "y", "min", "module %s encroaches on the left wall",
		func(m, in geom.AABB) bool { return m.Min.Y < in.Min.Y-geom.ContainmentTolerance }},
	{CodeInteriorMaxY, SeverityWarning, "y", "max", "module %s encroaches on the right wall",
		func(m, in geom.AABB) bool { return m.Max.Y > in.Max.Y+geom.ContainmentTolerance }},
	{CodeInteriorMaxZ, SeverityWarning, "z", "max", "module %s exceeds the usable height",
		func(m, in geom.AABB) bool { return m.Max.Z > in.Max.Z+geom.ContainmentTolerance }},
}

func outsideInterior(m *layout.ModuleInstance, interior geom.AABB) []Issue {
	var out []Issue
	for _, c := range interiorChecks {
		if !c.outside(m.AABB, interior) {
			continue
		}
		out = append(out, newIssue(c.code, c.sev,
			[]string{m.Placement.InstanceID},
			map[string]any{"axis": c.axis, "side": c.side},
			c.message, m.Module.SKU))
	}
	return out
}
