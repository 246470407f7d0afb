package geom

import "math"

// ContainmentTolerance is the slack, in millimetres, applied by point-in-box
// and interior-boundary checks.
const ContainmentTolerance = 1e-6

// degenerateAxis is the squared length under which a SAT cross-product axis is
// treated as zero (parallel edges) and skipped.
const degenerateAxis = 1e-18

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// NewAABB returns the box spanning min..max.
func NewAABB(min, max Vec3) AABB { return AABB{Min: min, Max: max} }

// Size returns the box extent along each axis.
func (b AABB) Size() Vec3 { return b.Max.Sub(b.Min) }

// Center returns the box centre.
func (b AABB) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Intersects reports whether the two boxes overlap. Touching faces count as
// overlapping.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// OverlapVolume returns the volume of the intersection of the two boxes, or 0
// when they are disjoint.
func (b AABB) OverlapVolume(o AABB) float64 {
	dx := math.Max(0, math.Min(b.Max.X, o.Max.X)-math.Max(b.Min.X, o.Min.X))
	dy := math.Max(0, math.Min(b.Max.Y, o.Max.Y)-math.Max(b.Min.Y, o.Min.Y))
	dz := math.Max(0, math.Min(b.Max.Z, o.Max.Z)-math.Max(b.Min.Z, o.Min.Z))
	return dx * dy * dz
}

// Expand returns the box grown by d on every side.
func (b AABB) Expand(d float64) AABB {
	pad := Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// OBB is an oriented bounding box. The columns of Orientation are the box's
// local X, Y and Z axes expressed in world space.
type OBB struct {
	Center      Vec3 `json:"center"`
	HalfSize    Vec3 `json:"halfSize"`
	Orientation Mat3 `json:"-"`
}

// NewOBB builds an oriented box centred at center with full dimensions size,
// rotated by Euler angles in degrees.
func NewOBB(center, size, rotationDeg Vec3) OBB {
	return OBB{
		Center:      center,
		HalfSize:    size.Scale(0.5),
		Orientation: RotationFromEuler(rotationDeg),
	}
}

// Axis returns local axis i in world space.
func (b OBB) Axis(i int) Vec3 { return b.Orientation.Cols[i] }

// Corners returns the 8 corners of the box in world space.
func (b OBB) Corners() [8]Vec3 {
	h := b.HalfSize
	local := [8]Vec3{
		{h.X, h.Y, h.Z},
		{h.X, h.Y, -h.Z},
		{h.X, -h.Y, h.Z},
		{h.X, -h.Y, -h.Z},
		{-h.X, h.Y, h.Z},
		{-h.X, h.Y, -h.Z},
		{-h.X, -h.Y, h.Z},
		{-h.X, -h.Y, -h.Z},
	}
	var out [8]Vec3
	for i, c := range local {
		out[i] = b.Center.Add(b.Orientation.MulVec(c))
	}
	return out
}

// AABB returns the tightest axis-aligned box enclosing b.
func (b OBB) AABB() AABB {
	min := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, c := range b.Corners() {
		min = min.Min(c)
		max = max.Max(c)
	}
	return AABB{Min: min, Max: max}
}

// project returns the interval covered by b on the given unit axis.
func (b OBB) project(axis Vec3) (lo, hi float64) {
	r := math.Abs(b.Orientation.Cols[0].Dot(axis))*b.HalfSize.X +
		math.Abs(b.Orientation.Cols[1].Dot(axis))*b.HalfSize.Y +
		math.Abs(b.Orientation.Cols[2].Dot(axis))*b.HalfSize.Z
	c := b.Center.Dot(axis)
	return c - r, c + r
}

// overlapOn reports whether a and b overlap when projected on axis. Degenerate
// axes cannot separate anything and count as overlapping.
func overlapOn(a, b OBB, axis Vec3) bool {
	if axis.Dot(axis) <= degenerateAxis {
		return true
	}
	axis = axis.Normalize()
	aMin, aMax := a.project(axis)
	bMin, bMax := b.project(axis)
	return aMin <= bMax && aMax >= bMin
}

// Intersects runs the separating axis test over the 15 candidate axes: the 3
// face normals of each box and the 9 pairwise edge cross products. Touching
// boxes count as intersecting.
func (b OBB) Intersects(o OBB) bool {
	for i := 0; i < 3; i++ {
		if !overlapOn(b, o, b.Axis(i)) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if !overlapOn(b, o, o.Axis(i)) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !overlapOn(b, o, b.Axis(i).Cross(o.Axis(j))) {
				return false
			}
		}
	}
	return true
}

// ToLocal expresses a world point in the box's local frame.
func (b OBB) ToLocal(p Vec3) Vec3 {
	return b.Orientation.Transpose().MulVec(p.Sub(b.Center))
}

// ContainsPoint reports whether p lies inside b, within ContainmentTolerance.
func (b OBB) ContainsPoint(p Vec3) bool {
	l := b.ToLocal(p)
	return math.Abs(l.X) <= b.HalfSize.X+ContainmentTolerance &&
		math.Abs(l.Y) <= b.HalfSize.Y+ContainmentTolerance &&
		math.Abs(l.Z) <= b.HalfSize.Z+ContainmentTolerance
}
