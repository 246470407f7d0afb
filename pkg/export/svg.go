package export

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/rules"
)

// svgMargin is the blank border around the drawing, in millimetres.
const svgMargin = 100.0

var severityFill = map[rules.Severity]string{
	rules.SeverityCritical: "#d64545",
	rules.SeverityWarning:  "#e0a030",
	rules.SeverityInfo:     "#4a7bd0",
	"":                     "#4a7bd0",
}

// planView maps vehicle-frame millimetres to SVG user units. The view looks
// down on the floor with the front of the vehicle on the left and the
// vehicle's left side (+Y) at the top.
type planView struct {
	bounds geom.AABB
}

func (v planView) x(mm float64) int { return int(math.Round(mm - v.bounds.Min.X + svgMargin)) }
func (v planView) y(mm float64) int { return int(math.Round(v.bounds.Max.Y - mm + svgMargin)) }

func (v planView) size() (w, h int) {
	s := v.bounds.Size()
	return int(math.Ceil(s.X + 2*svgMargin)), int(math.Ceil(s.Y + 2*svgMargin))
}

func (v planView) polygon(pts []geom.Vec3) (xs, ys []int) {
	for _, p := range pts {
		xs = append(xs, v.x(p.X))
		ys = append(ys, v.y(p.Y))
	}
	return xs, ys
}

// planBounds covers the interior and every module footprint.
func planBounds(ctx *layout.Context) geom.AABB {
	b, ok := ctx.InteriorAABB()
	for i := range ctx.Modules {
		a := ctx.Modules[i].AABB
		if !ok {
			b, ok = a, true
			continue
		}
		b = geom.NewAABB(b.Min.Min(a.Min), b.Max.Max(a.Max))
	}
	if !ok {
		b = geom.NewAABB(geom.V(-1000, -1000, 0), geom.V(1000, 1000, 0))
	}
	return b
}

// moduleSeverity is the worst severity among issues that name each instance.
func moduleSeverity(issues []rules.Issue) map[string]rules.Severity {
	out := make(map[string]rules.Severity)
	for _, is := range issues {
		for _, id := range is.RelatedInstanceIDs {
			if is.Severity.Rank() > out[id].Rank() {
				out[id] = is.Severity
			}
		}
	}
	return out
}

// SVG draws a top-down floor plan: the interior outline, the walkway band,
// forbidden zones, and every module footprint filled by the worst severity of
// the issues that name it, with its SKU as label. One SVG unit is one
// millimetre.
func SVG(ctx *layout.Context, issues []rules.Issue) []byte {
	var buf bytes.Buffer
	view := planView{bounds: planBounds(ctx)}
	w, h := view.size()

	canvas := svg.New(&buf)
	canvas.Start(w, h)
	canvas.Title(fmt.Sprintf("%s - %s", ctx.Project.Name, ctx.Vehicle.Label))

	if in := ctx.Vehicle.Interior; in != nil {
		hl, hw := in.Length/2, in.Width/2
		canvas.Gid("floor")
		canvas.Rect(view.x(-hl), view.y(hw), int(math.Round(in.Length)), int(math.Round(in.Width)),
			"fill:#f4f4f4;stroke:#555555;stroke-width:10")
		canvas.Gend()

		half := ctx.HalfWalkway()
		canvas.Gid("walkway")
		canvas.Rect(view.x(-hl), view.y(half), int(math.Round(in.Length)), int(math.Round(2*half)),
			"fill:#b8e0b8;fill-opacity:0.5;stroke:none")
		canvas.Text(view.x(-hl)+20, view.y(0)+25, fmt.Sprintf("Walkway %s mm", fixed(ctx.WalkwayMinWidth, 0)),
			"font-family:sans-serif;font-size:70px;fill:#2f6b2f")
		canvas.Gend()
	}

	if zones := ctx.Vehicle.ForbiddenZones; len(zones) > 0 {
		canvas.Gid("zones")
		for _, z := range zones {
			box := geom.NewOBB(geom.FromArray(z.Origin), geom.FromArray(z.Size), geom.Vec3{})
			xs, ys := view.polygon(footprint(box))
			style := "fill:none;stroke:#999999;stroke-width:8;stroke-dasharray:40,20"
			if z.Critical {
				style = "fill:none;stroke:#d64545;stroke-width:8;stroke-dasharray:40,20"
			}
			canvas.Polygon(xs, ys, style)
		}
		canvas.Gend()
	}

	worst := moduleSeverity(issues)
	canvas.Gid("modules")
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		xs, ys := view.polygon(footprint(m.OBB))
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:0.8;stroke:#222222;stroke-width:6", severityFill[worst[m.Placement.InstanceID]]))
	}
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		canvas.Text(view.x(m.OBB.Center.X), view.y(m.OBB.Center.Y), m.Module.SKU,
			"font-family:sans-serif;font-size:60px;text-anchor:middle;fill:#111111")
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}
