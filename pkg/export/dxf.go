package export

import (
	"fmt"
	"strings"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
)

// DXF layer names.
const (
	LayerFloor   = "FLOOR"
	LayerWalkway = "WALKWAY"
	LayerModules = "MODULES"
	LayerDims    = "DIMS"
)

// dxfLayers are declared in the LAYER table with their ACI colour.
var dxfLayers = []struct {
	name  string
	color int
}{
	{LayerFloor, 8},
	{LayerWalkway, 3},
	{LayerModules, 5},
	{LayerDims, 1},
}

const (
	dimsTextHeight  = 120.0
	skuTextHeight   = 100.0
	walkTextHeight  = 80.0
	dimsLabelOffset = 50.0
)

// dxfWriter emits DXF group code / value pairs, one per line.
type dxfWriter struct {
	b strings.Builder
}

func (w *dxfWriter) pair(code int, value string) {
	fmt.Fprintf(&w.b, "%d\n%s\n", code, value)
}

func (w *dxfWriter) num(code int, v float64) {
	w.pair(code, fixed(v, 2))
}

func (w *dxfWriter) polyline(layer string, pts []geom.Vec3) {
	w.pair(0, "LWPOLYLINE")
	w.pair(8, layer)
	w.pair(90, fmt.Sprint(len(pts)))
	w.pair(70, "1")
	for _, p := range pts {
		w.num(10, p.X)
		w.num(20, p.Y)
	}
}

func (w *dxfWriter) text(layer string, at geom.Vec3, height float64, s string) {
	w.pair(0, "TEXT")
	w.pair(8, layer)
	w.num(10, at.X)
	w.num(20, at.Y)
	w.num(40, height)
	w.pair(1, s)
}

func rectangle(minX, minY, maxX, maxY float64) []geom.Vec3 {
	return []geom.Vec3{
		geom.V(minX, minY, 0),
		geom.V(maxX, minY, 0),
		geom.V(maxX, maxY, 0),
		geom.V(minX, maxY, 0),
	}
}

// footprint returns the four bottom corners of a module's oriented box.
func footprint(obb geom.OBB) []geom.Vec3 {
	h := obb.HalfSize
	local := []geom.Vec3{
		geom.V(h.X, h.Y, -h.Z),
		geom.V(h.X, -h.Y, -h.Z),
		geom.V(-h.X, -h.Y, -h.Z),
		geom.V(-h.X, h.Y, -h.Z),
	}
	out := make([]geom.Vec3, len(local))
	for i, p := range local {
		out[i] = obb.Center.Add(obb.Orientation.MulVec(p))
	}
	return out
}

// DXF draws the floor plan as an R12-style ASCII DXF: the interior outline
// on FLOOR, the walkway corridor and its width label on WALKWAY, each module
// footprint on MODULES with its name and size on DIMS, and finally the SKU
// labels on MODULES. Units are millimetres.
func DXF(ctx *layout.Context) []byte {
	var w dxfWriter

	w.pair(0, "SECTION")
	w.pair(2, "HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, "AC1009")
	w.pair(9, "$INSUNITS")
	w.pair(70, "4")
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "TABLES")
	w.pair(0, "TABLE")
	w.pair(2, "LAYER")
	w.pair(70, fmt.Sprint(len(dxfLayers)))
	for _, l := range dxfLayers {
		w.pair(0, "LAYER")
		w.pair(2, l.name)
		w.pair(70, "0")
		w.pair(62, fmt.Sprint(l.color))
		w.pair(6, "CONTINUOUS")
	}
	w.pair(0, "ENDTAB")
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "ENTITIES")

	if in := ctx.Vehicle.Interior; in != nil {
		hl, hw := in.Length/2, in.Width/2
		w.polyline(LayerFloor, rectangle(-hl, -hw, hl, hw))

		half := ctx.HalfWalkway()
		w.polyline(LayerWalkway, rectangle(-hl, -half, hl, half))
		w.text(LayerWalkway, geom.V(-hl+dimsLabelOffset, -walkTextHeight/2, 0), walkTextHeight,
			fmt.Sprintf("Walkway %s mm", fixed(ctx.WalkwayMinWidth, 0)))
	}

	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		w.polyline(LayerModules, footprint(m.OBB))
		at := m.OBB.Center.Add(geom.V(m.OBB.HalfSize.X+dimsLabelOffset, 0, 0))
		w.text(LayerDims, at, dimsTextHeight,
			fmt.Sprintf("%s (%gx%g)", m.Module.Name, m.Module.BBox.Length, m.Module.BBox.Width))
	}
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		w.text(LayerModules, m.OBB.Center, skuTextHeight, m.Module.SKU)
	}

	w.pair(0, "ENDSEC")
	w.pair(0, "EOF")
	return []byte(w.b.String())
}
