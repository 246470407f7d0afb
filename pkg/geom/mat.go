package geom

import "math"

// Mat3 is a 3x3 matrix stored as three column vectors. For rotation matrices
// the columns are the images of the world X, Y and Z axes, which makes them
// the local axes of an oriented box.
type Mat3 struct {
	Cols [3]Vec3
}

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{Cols: [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 { return m.Cols[i] }

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	c0, c1, c2 := m.Cols[0], m.Cols[1], m.Cols[2]
	return Vec3{
		c0.X*v.X + c1.X*v.Y + c2.X*v.Z,
		c0.Y*v.X + c1.Y*v.Y + c2.Y*v.Z,
		c0.Z*v.X + c1.Z*v.Y + c2.Z*v.Z,
	}
}

// Transpose returns the transpose of m. For a rotation this is its inverse.
func (m Mat3) Transpose() Mat3 {
	c0, c1, c2 := m.Cols[0], m.Cols[1], m.Cols[2]
	return Mat3{Cols: [3]Vec3{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}}
}

// Determinant returns det(m).
func (m Mat3) Determinant() float64 {
	c0, c1, c2 := m.Cols[0], m.Cols[1], m.Cols[2]
	return c0.X*(c1.Y*c2.Z-c1.Z*c2.Y) -
		c1.X*(c0.Y*c2.Z-c0.Z*c2.Y) +
		c2.X*(c0.Y*c1.Z-c0.Z*c1.Y)
}

// RotationFromEuler builds the rotation Rz * Ry * Rx from Euler angles given in
// degrees: X is applied first, then Y, then Z.
func RotationFromEuler(deg Vec3) Mat3 {
	rx, ry, rz := DegToRad(deg.X), DegToRad(deg.Y), DegToRad(deg.Z)
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	m00 := cz * cy
	m01 := cz*sy*sx - sz*cx
	m02 := cz*sy*cx + sz*sx
	m10 := sz * cy
	m11 := sz*sy*sx + cz*cx
	m12 := sz*sy*cx - cz*sx
	m20 := -sy
	m21 := cy * sx
	m22 := cy * cx

	return Mat3{Cols: [3]Vec3{
		{m00, m10, m20},
		{m01, m11, m21},
		{m02, m12, m22},
	}}
}
