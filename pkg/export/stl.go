package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chazu/upfit/pkg/kernel"
)

const stlHeaderSize = 80

// stlTriangle is one binary STL facet record.
type stlTriangle struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

// WriteSTL writes meshes as a single binary STL solid. The facet normal is
// the normal of the triangle's first vertex.
func WriteSTL(w io.Writer, name string, meshes []*kernel.Mesh) error {
	var header [stlHeaderSize]byte
	copy(header[:], "upfit "+name)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	count := 0
	for _, m := range meshes {
		count += m.TriangleCount()
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(count)); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	for _, m := range meshes {
		for t := 0; t < m.TriangleCount(); t++ {
			idx := m.Indices[3*t : 3*t+3]
			var tri stlTriangle
			if len(m.Normals) >= int(3*idx[0]+3) {
				n := m.Normals[3*idx[0] : 3*idx[0]+3]
				tri.Normal = [3]float32{n[0], n[1], n[2]}
			}
			for k, i := range idx {
				tri.Vertices[k] = m.Vertex(i)
			}
			if err := binary.Write(w, binary.LittleEndian, tri); err != nil {
				return fmt.Errorf("stl: %w", err)
			}
		}
	}
	return nil
}

// STL renders meshes to a binary STL in memory.
func STL(name string, meshes []*kernel.Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, name, meshes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
