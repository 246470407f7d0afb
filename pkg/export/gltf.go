package export

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/layout"
)

// glTF enums.
const (
	gltfArrayBuffer        = 34962
	gltfElementArrayBuffer = 34963
	gltfFloat              = 5126
	gltfUnsignedShort      = 5123
)

// CubeMeshName names the single mesh shared by every module node.
const CubeMeshName = "ModuleCube"

var cubePositions = [24]float32{
	-0.5, -0.5, -0.5,
	0.5, -0.5, -0.5,
	0.5, 0.5, -0.5,
	-0.5, 0.5, -0.5,
	-0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,
	0.5, 0.5, 0.5,
	-0.5, 0.5, 0.5,
}

var cubeIndices = [36]uint16{
	0, 1, 2, 0, 2, 3,
	4, 5, 6, 4, 6, 7,
	0, 1, 5, 0, 5, 4,
	2, 3, 7, 2, 7, 6,
	1, 2, 6, 1, 6, 5,
	0, 3, 7, 0, 7, 4,
}

type gltfDoc struct {
	Asset       gltfAsset        `json:"asset"`
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
	Meshes      []gltfMesh       `json:"meshes"`
	Nodes       []gltfNode       `json:"nodes"`
	Scenes      []gltfScene      `json:"scenes"`
	Scene       int              `json:"scene"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
}

type gltfNode struct {
	Name        string            `json:"name"`
	Mesh        int               `json:"mesh"`
	Translation [3]float64        `json:"translation"`
	Scale       [3]float64        `json:"scale"`
	Rotation    [4]float64        `json:"rotation"`
	Extras      map[string]string `json:"extras"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

// cubeBuffer packs the cube positions followed by its indices, little
// endian, as glTF requires.
func cubeBuffer() (data []byte, positionBytes int) {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, cubePositions)
	positionBytes = buf.Len()
	_ = binary.Write(&buf, binary.LittleEndian, cubeIndices)
	return buf.Bytes(), positionBytes
}

// GLTF writes a glTF 2.0 JSON scene with one unit cube mesh embedded as a
// base64 data URI and one node per module. Each node scales the cube to the
// module size, rotates it by the placement's Euler angles as a quaternion and
// moves it to the placement position. Nodes carry the instance id in extras.
func GLTF(ctx *layout.Context) ([]byte, error) {
	data, posBytes := cubeBuffer()

	doc := gltfDoc{
		Asset: gltfAsset{Version: "2.0", Generator: "upfit"},
		Buffers: []gltfBuffer{{
			ByteLength: len(data),
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data),
		}},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: posBytes, Target: gltfArrayBuffer},
			{Buffer: 0, ByteOffset: posBytes, ByteLength: len(data) - posBytes, Target: gltfElementArrayBuffer},
		},
		Accessors: []gltfAccessor{
			{
				BufferView:    0,
				ComponentType: gltfFloat,
				Count:         len(cubePositions) / 3,
				Type:          "VEC3",
				Min:           []float64{-0.5, -0.5, -0.5},
				Max:           []float64{0.5, 0.5, 0.5},
			},
			{BufferView: 1, ComponentType: gltfUnsignedShort, Count: len(cubeIndices), Type: "SCALAR"},
		},
		Meshes: []gltfMesh{{
			Name:       CubeMeshName,
			Primitives: []gltfPrimitive{{Attributes: map[string]int{"POSITION": 0}, Indices: 1}},
		}},
		Nodes:  make([]gltfNode, 0, len(ctx.Modules)),
		Scenes: []gltfScene{{Nodes: make([]int, 0, len(ctx.Modules))}},
	}

	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		q := geom.QuatFromEuler(m.Rotation())
		bb := m.Module.BBox
		doc.Nodes = append(doc.Nodes, gltfNode{
			Name:        m.Module.SKU,
			Mesh:        0,
			Translation: m.Placement.Position,
			Scale:       [3]float64{bb.Length, bb.Width, bb.Height},
			Rotation:    q.Array(),
			Extras:      map[string]string{"instanceId": m.Placement.InstanceID},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, i)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}
	return b, nil
}
