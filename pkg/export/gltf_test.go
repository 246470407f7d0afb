package export

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/chazu/upfit/pkg/layout/layouttest"
)

type parsedGLTF struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Buffers []struct {
		ByteLength int    `json:"byteLength"`
		URI        string `json:"uri"`
	} `json:"buffers"`
	Meshes []struct {
		Name string `json:"name"`
	} `json:"meshes"`
	Nodes []struct {
		Name        string            `json:"name"`
		Mesh        int               `json:"mesh"`
		Translation []float64         `json:"translation"`
		Scale       []float64         `json:"scale"`
		Rotation    []float64         `json:"rotation"`
		Extras      map[string]string `json:"extras"`
	} `json:"nodes"`
	Scenes []struct {
		Nodes []int `json:"nodes"`
	} `json:"scenes"`
}

func TestGLTF(t *testing.T) {
	out, err := GLTF(sampleContext(t))
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}
	var doc parsedGLTF
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Asset.Version != "2.0" {
		t.Errorf("version = %q", doc.Asset.Version)
	}
	if len(doc.Meshes) != 1 || doc.Meshes[0].Name != CubeMeshName {
		t.Fatalf("meshes = %+v", doc.Meshes)
	}
	if len(doc.Nodes) != 2 || len(doc.Scenes) != 1 || len(doc.Scenes[0].Nodes) != 2 {
		t.Fatalf("nodes = %d, scene = %+v", len(doc.Nodes), doc.Scenes)
	}

	const prefix = "data:application/octet-stream;base64,"
	uri := doc.Buffers[0].URI
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri = %q", uri)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode buffer: %v", err)
	}
	// 8 float32 VEC3 positions and 36 uint16 indices.
	if len(data) != 8*3*4+36*2 || doc.Buffers[0].ByteLength != len(data) {
		t.Errorf("buffer is %d bytes, byteLength %d", len(data), doc.Buffers[0].ByteLength)
	}

	drawerNode := doc.Nodes[0]
	if drawerNode.Extras["instanceId"] != "drawer-1" || drawerNode.Name != "DRAWER" {
		t.Errorf("node = %+v", drawerNode)
	}
	if drawerNode.Scale[0] != 1200 || drawerNode.Scale[1] != 600 || drawerNode.Scale[2] != 400 {
		t.Errorf("scale = %v", drawerNode.Scale)
	}
	if drawerNode.Rotation[3] != 1 {
		t.Errorf("unrotated node should carry the identity quaternion, got %v", drawerNode.Rotation)
	}

	rackNode := doc.Nodes[1]
	s := math.Sqrt2 / 2
	if math.Abs(rackNode.Rotation[2]-s) > 1e-9 || math.Abs(rackNode.Rotation[3]-s) > 1e-9 {
		t.Errorf("quarter turn about Z = %v", rackNode.Rotation)
	}
	if rackNode.Translation[0] != -800 || rackNode.Translation[1] != -700 {
		t.Errorf("translation = %v", rackNode.Translation)
	}
}

func TestGLTFEmptyLayout(t *testing.T) {
	out, err := GLTF(emptyContext(t, layouttest.Van()))
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}
	var doc parsedGLTF
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Nodes == nil || len(doc.Nodes) != 0 || len(doc.Meshes) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
}
