package models

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
)

func TestLoadGLTFInvalidPath(t *testing.T) {
	_, err := LoadGLTF("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
}

// triangleDocument builds a one-triangle document with ushort indices.
func triangleDocument() *gltf.Document {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	data := make([]byte, 0, 36+6)
	for _, p := range positions {
		for _, f := range p {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
		}
	}
	for _, idx := range []uint16{0, 1, 2} {
		data = binary.LittleEndian.AppendUint16(data, idx)
	}

	red := [4]float64{1, 0, 0, 1}
	rough := 0.5
	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(1), ComponentType: gltf.ComponentUshort, Count: 3, Type: gltf.AccessorScalar},
		},
		Materials: []*gltf.Material{{
			Name: "red",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &red,
				RoughnessFactor: &rough,
			},
		}},
		Meshes: []*gltf.Mesh{{
			Name: "tri",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: 0},
				Indices:    gltf.Index(1),
				Material:   gltf.Index(0),
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
	}
}

func TestSceneFromDocument(t *testing.T) {
	scene, err := NewGLTFLoader().sceneFromDocument(triangleDocument(), "tri.glb", ".")
	if err != nil {
		t.Fatalf("sceneFromDocument: %v", err)
	}
	if len(scene.Instances) != 1 {
		t.Fatalf("instances = %d, want 1", len(scene.Instances))
	}
	in := scene.Instances[0]
	if in.Name != "tri" || len(in.Faces) != 1 {
		t.Fatalf("instance = %q with %d faces, want tri with 1", in.Name, len(in.Faces))
	}

	face := scene.Mesh.Faces[in.Faces[0]]
	for i, want := range []int{1, 2, 3} {
		if face.Corners[i].V != want {
			t.Errorf("corner %d vertex = %d, want %d", i, face.Corners[i].V, want)
		}
		if face.Corners[i].VN == 0 {
			t.Errorf("corner %d has no normal after CalculateNormals", i)
		}
	}
	n := scene.Mesh.Normal(face.Corners[0].VN)
	if n[2] < 0.999 {
		t.Errorf("flat normal = %v, want +Z", n)
	}

	mat := in.Material(face.Material)
	if mat == nil {
		t.Fatal("face has no bound material")
	}
	if mat.Kd[0] != 1 || mat.Kd[1] != 0 {
		t.Errorf("Kd = %v, want red", mat.Kd)
	}
	if err := scene.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadIndicesPastEnd(t *testing.T) {
	doc := triangleDocument()
	doc.Accessors[1].Count = 10
	if _, err := readIndices(doc, 1); err == nil {
		t.Error("expected error reading past the end of the buffer")
	}
}

func TestRoughnessToShininess(t *testing.T) {
	tests := []struct {
		roughness float64
		want      float64
	}{
		{1, 1},
		{0, 256},
		{0.5, 30},
	}
	for _, tt := range tests {
		if got := roughnessToShininess(tt.roughness); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("roughnessToShininess(%v) = %v, want %v", tt.roughness, got, tt.want)
		}
	}
}
