package export

import (
	"fmt"
	"strings"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
)

// unitCorners are the corners of a cube spanning ±1, bottom face first.
var unitCorners = [8]geom.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: 1},
}

// cubeFaces index unitCorners (1-based) as quads.
var cubeFaces = [6][4]int{
	{1, 2, 3, 4},
	{5, 6, 7, 8},
	{1, 5, 8, 4},
	{2, 6, 7, 3},
	{3, 7, 8, 4},
	{1, 2, 6, 5},
}

// OBJ writes one object per module named <sku>_<instanceId>, each made of
// exactly 8 vertices (the oriented box corners) and 6 quad faces.
func OBJ(ctx *layout.Context) []byte {
	var b strings.Builder
	b.WriteString("# upfit layout\n")
	offset := 0
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		fmt.Fprintf(&b, "o %s_%s\n", m.Module.SKU, m.Placement.InstanceID)
		for _, c := range unitCorners {
			local := geom.V(c.X*m.OBB.HalfSize.X, c.Y*m.OBB.HalfSize.Y, c.Z*m.OBB.HalfSize.Z)
			p := m.OBB.Center.Add(m.OBB.Orientation.MulVec(local))
			fmt.Fprintf(&b, "v %s %s %s\n", fixed(p.X, 4), fixed(p.Y, 4), fixed(p.Z, 4))
		}
		for _, f := range cubeFaces {
			fmt.Fprintf(&b, "f %d %d %d %d\n", f[0]+offset, f[1]+offset, f[2]+offset, f[3]+offset)
		}
		offset += len(unitCorners)
	}
	return []byte(b.String())
}
