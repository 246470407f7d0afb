// Package kernel defines the solid-modelling interface used to turn module
// boxes into triangle meshes for 3D previews. The sdfx subpackage provides
// the implementation; tests use a stub.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and meshes solids. Lengths are millimetres, angles degrees.
type Kernel interface {
	// Box returns a box of the given size centred on the origin.
	Box(x, y, z float64) Solid

	Union(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	// Rotate applies Euler angles as Rz·Ry·Rx, the same convention as the
	// layout's oriented boxes.
	Rotate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}
