package models

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/lumen/pkg/math3d"
)

// GLTFLoader loads glTF/GLB files into the scene model.
type GLTFLoader struct {
	// CalculateNormals fills flat normals for primitives without NORMAL.
	CalculateNormals bool
}

// NewGLTFLoader creates a new glTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true}
}

// LoadGLTF loads a .gltf or .glb file with the default loader options.
func LoadGLTF(path string) (*Scene, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a glTF or GLB file. Every glTF mesh becomes one instance.
func (l *GLTFLoader) Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.sceneFromDocument(doc, filepath.Base(path), filepath.Dir(path))
}

func (l *GLTFLoader) sceneFromDocument(doc *gltf.Document, name, dir string) (*Scene, error) {
	mesh := NewMesh(name)
	for i, m := range doc.Materials {
		mesh.Materials = append(mesh.Materials, convertMaterial(doc, m, i, dir))
	}

	var instances []Instance
	for i, m := range doc.Meshes {
		in := Instance{Name: m.Name}
		if in.Name == "" {
			in.Name = fmt.Sprintf("mesh%d", i)
		}
		if err := l.processMesh(doc, m, mesh, &in); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", in.Name, err)
		}
		if len(in.Faces) > 0 {
			instances = append(instances, in)
		}
	}

	if l.CalculateNormals {
		mesh.CalculateNormals()
	}
	for i := range instances {
		in := &instances[i]
		var tangentFaces []int
		for _, fi := range in.Faces {
			if m := in.Material(mesh.Faces[fi].Material); m != nil && m.HasTangentMaps() {
				tangentFaces = append(tangentFaces, fi)
			}
		}
		mesh.CalculateTangents(tangentFaces)
	}

	return &Scene{
		Mesh:      mesh,
		Instances: instances,
		Camera:    DefaultCamera(),
	}, nil
}

// processMesh appends the triangle primitives of m to the shared pools.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, in *Instance) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip lines, points and strips
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		// Pool offsets for this primitive's 1-based indices
		basePos := len(mesh.Positions)
		baseNorm := len(mesh.Normals)
		baseUV := len(mesh.UVs)
		mesh.Positions = append(mesh.Positions, positions...)
		mesh.Normals = append(mesh.Normals, normals...)
		mesh.UVs = append(mesh.UVs, uvs...)

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = in.bindMaterial(mesh.Materials[*prim.Material])
		}

		for i := 0; i+2 < len(indices); i += 3 {
			var face Face
			for j := range 3 {
				idx := indices[i+j]
				if idx < 0 || idx >= len(positions) {
					return fmt.Errorf("index %d out of range", idx)
				}
				c := Corner{V: basePos + idx + 1}
				if idx < len(normals) {
					c.VN = baseNorm + idx + 1
				}
				if idx < len(uvs) {
					c.VT = baseUV + idx + 1
				}
				face.Corners[j] = c
			}
			face.Material = material
			mesh.Faces = append(mesh.Faces, face)
			in.Faces = append(in.Faces, len(mesh.Faces)-1)
		}
	}
	return nil
}

// convertMaterial maps a metallic-roughness material onto Phong terms.
func convertMaterial(doc *gltf.Document, m *gltf.Material, idx int, dir string) Material {
	mat := Material{
		Name: m.Name,
		Kd:   math3d.V3(1, 1, 1),
		Ns:   64,
	}
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material%d", idx)
	}

	roughness := 1.0
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			mat.Kd = math3d.V3(f[0], f[1], f[2])
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			mat.ColorMap = textureURI(doc, pbr.BaseColorTexture.Index, dir)
		}
	}
	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		mat.NormalMap = textureURI(doc, *m.NormalTexture.Index, dir)
	}

	mat.Ka = mat.Kd.Mul(0.1)
	mat.Ke = math3d.V3(m.EmissiveFactor[0], m.EmissiveFactor[1], m.EmissiveFactor[2])
	s := 0.5 * (1 - roughness)
	mat.Ks = math3d.V3(s, s, s)
	mat.Ns = roughnessToShininess(roughness)
	return mat
}

// roughnessToShininess converts a roughness in [0,1] to a Phong exponent.
func roughnessToShininess(roughness float64) float64 {
	r4 := math.Pow(math3d.Clamp(roughness, 0.01, 1), 4)
	return math3d.Clamp(2/r4-2, 1, 256)
}

// textureURI returns the file path of an external texture image, or an
// empty string for embedded images.
func textureURI(doc *gltf.Document, texIdx int, dir string) string {
	if texIdx < 0 || texIdx >= len(doc.Textures) {
		return ""
	}
	src := doc.Textures[texIdx].Source
	if src == nil || *src >= len(doc.Images) {
		return ""
	}
	uri := doc.Images[*src].URI
	if uri == "" || strings.HasPrefix(uri, "data:") {
		return ""
	}
	return filepath.Join(dir, filepath.FromSlash(uri))
}

// readVec3Accessor reads Vec3 data from a float accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	floats, err := readFloats(doc, accessor, 3)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		result[i] = math3d.V3(floats[i*3], floats[i*3+1], floats[i*3+2])
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a float accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}
	floats, err := readFloats(doc, accessor, 2)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec2, accessor.Count)
	for i := range result {
		result[i] = math3d.V2(floats[i*2], floats[i*2+1])
	}
	return result, nil
}

// readIndices reads an unsigned scalar index accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}
	result := make([]int, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return result, nil
}

func accessorAt(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// readFloats reads count*n little-endian float32 components.
func readFloats(doc *gltf.Document, accessor *gltf.Accessor, n int) ([]float64, error) {
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, n*4)
	if err != nil {
		return nil, err
	}
	result := make([]float64, accessor.Count*n)
	for i := range accessor.Count {
		for j := range n {
			bits := binary.LittleEndian.Uint32(data[i*stride+j*4:])
			result[i*n+j] = float64(math.Float32frombits(bits))
		}
	}
	return result, nil
}

// accessorBytes returns the bytes backing an accessor starting at its first
// element, plus the element stride. elemSize is the packed element size.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	view := doc.BufferViews[*accessor.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	if accessor.Count > 0 {
		end := start + (accessor.Count-1)*stride + elemSize
		if end > len(data) {
			return nil, 0, fmt.Errorf("accessor reads past end of buffer (%d > %d)", end, len(data))
		}
	}
	return data[start:], stride, nil
}
