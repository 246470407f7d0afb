package geom

import "math"

// Quat is a rotation quaternion (x, y, z vector part, w scalar part).
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// QuatFromEuler returns the unit quaternion for Euler angles in degrees. It
// encodes the same rotation as RotationFromEuler (Rz * Ry * Rx), so a glTF node
// built from it lines up with the oriented box used by the rule evaluators.
func QuatFromEuler(deg Vec3) Quat {
	hx, hy, hz := DegToRad(deg.X)/2, DegToRad(deg.Y)/2, DegToRad(deg.Z)/2
	cx, sx := math.Cos(hx), math.Sin(hx)
	cy, sy := math.Cos(hy), math.Sin(hy)
	cz, sz := math.Cos(hz), math.Sin(hz)

	return Quat{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

// Array returns the quaternion as [x, y, z, w], the glTF component order.
func (q Quat) Array() [4]float64 { return [4]float64{q.X, q.Y, q.Z, q.W} }

// Norm returns the quaternion magnitude.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	// v' = v + 2w(u x v) + 2u x (u x v)
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}
