package rules

import (
	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

// clearanceSide maps a named clearance to a local box axis and direction.
type clearanceSide struct {
	label string
	axis  int
	dir   float64
	value func(c *model.Clearances) *float64
}

var clearanceSides = []clearanceSide{
	{"front", 0, 1, func(c *model.Clearances) *float64 { return c.Front }},
	{"rear", 0, -1, func(c *model.Clearances) *float64 { return c.Rear }},
	{"left", 1, 1, func(c *model.Clearances) *float64 { return c.Left }},
	{"right", 1, -1, func(c *model.Clearances) *float64 { return c.Right }},
	{"top", 2, 1, func(c *model.Clearances) *float64 { return c.Top }},
	{"bottom", 2, -1, func(c *model.Clearances) *float64 { return c.Bottom }},
}

// clearanceBox is the slab of free space of depth d adjacent to the face of
// m that points along local axis in direction dir. It keeps the module's
// footprint on the other two axes and its orientation.
func clearanceBox(m geom.OBB, axis int, dir, d float64) geom.OBB {
	half := m.HalfSize
	extent := half.Get(axis)
	switch axis {
	case 0:
		half.X = d / 2
	case 1:
		half.Y = d / 2
	default:
		half.Z = d / 2
	}
	offset := m.Axis(axis).Scale((extent + d/2) * dir)
	return geom.OBB{
		Center:      m.Center.Add(offset),
		HalfSize:    half,
		Orientation: m.Orientation,
	}
}

// CheckClearances reports modules that intrude on the central walkway and
// modules whose service clearances or drawer extension are obstructed by
// another module. Issues are grouped per module in placement order.
func CheckClearances(ctx *layout.Context) []Issue {
	var issues []Issue
	half := ctx.HalfWalkway()
	mods := ctx.Modules
	bp := newBroadphase(mods)

	for i := range mods {
		m := &mods[i]
		if m.AABB.Min.Y < half && m.AABB.Max.Y > -half {
			issues = append(issues, newIssue(CodeWalkwayBlocked, SeverityWarning,
				[]string{m.Placement.InstanceID},
				map[string]any{"walkwayWidth_mm": ctx.WalkwayMinWidth},
				"module %s narrows the central walkway (<%g mm)", m.Module.SKU, ctx.WalkwayMinWidth))
		}

		c := m.Module.Clearances
		if c == nil {
			continue
		}
		for _, side := range clearanceSides {
			v := side.value(c)
			if v == nil || *v <= 0 {
				continue
			}
			box := clearanceBox(m.OBB, side.axis, side.dir, *v)
			for _, j := range obstructions(bp, mods, i, box) {
				o := &mods[j]
				issues = append(issues, newIssue(CodeClearanceBlocked, SeverityCritical,
					[]string{m.Placement.InstanceID, o.Placement.InstanceID},
					map[string]any{"clearance": side.label, "required_mm": *v},
					"%s clearance (%g mm) of module %s is obstructed by %s", side.label, *v, m.Module.SKU, o.Module.SKU))
			}
		}

		// Drawers and slides only travel along local +X.
		if c.Extend != nil && *c.Extend > 0 {
			box := clearanceBox(m.OBB, 0, 1, *c.Extend)
			for _, j := range obstructions(bp, mods, i, box) {
				o := &mods[j]
				issues = append(issues, newIssue(CodeExtensionBlocked, SeverityCritical,
					[]string{m.Placement.InstanceID, o.Placement.InstanceID},
					map[string]any{"extend_mm": *c.Extend},
					"extension (%g mm) of module %s is blocked by %s", *c.Extend, m.Module.SKU, o.Module.SKU))
			}
		}
	}
	return issues
}

// obstructions lists, in placement order, the modules other than self that
// intersect box.
func obstructions(bp *broadphase, mods []layout.ModuleInstance, self int, box geom.OBB) []int {
	var out []int
	for _, j := range bp.candidates(box.AABB()) {
		if j != self && box.Intersects(mods[j].OBB) {
			out = append(out, j)
		}
	}
	return out
}
