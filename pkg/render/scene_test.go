package render

import (
	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// sceneBuilder assembles small scenes for rendering tests.
type sceneBuilder struct {
	scene *models.Scene
}

func newSceneBuilder(cam models.Camera) *sceneBuilder {
	return &sceneBuilder{scene: &models.Scene{
		Mesh:      models.NewMesh("test"),
		Instances: []models.Instance{{Name: "main"}},
		Camera:    cam,
	}}
}

// material binds m to the main instance and returns its index.
func (b *sceneBuilder) material(m models.Material) int {
	in := &b.scene.Instances[0]
	in.Materials = append(in.Materials, m)
	return len(in.Materials) - 1
}

// tri adds a triangle without normals or UVs to the main instance.
func (b *sceneBuilder) tri(material int, p0, p1, p2 math3d.Vec3) {
	mesh := b.scene.Mesh
	base := len(mesh.Positions)
	mesh.Positions = append(mesh.Positions, p0, p1, p2)
	uvBase := len(mesh.UVs)
	mesh.UVs = append(mesh.UVs, math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1))

	var f models.Face
	for i := range 3 {
		f.Corners[i] = models.Corner{V: base + i + 1, VT: uvBase + i + 1}
	}
	f.Material = material
	mesh.Faces = append(mesh.Faces, f)
	in := &b.scene.Instances[0]
	in.Faces = append(in.Faces, len(mesh.Faces)-1)
}

// quad adds the two triangles p0 p1 p2 and p0 p2 p3.
func (b *sceneBuilder) quad(material int, p0, p1, p2, p3 math3d.Vec3) {
	b.tri(material, p0, p1, p2)
	b.tri(material, p0, p2, p3)
}

// emissive returns an unlit material that renders exactly as color * 255.
func emissive(name string, color math3d.Vec3) models.Material {
	return models.Material{
		Name: name,
		Kd:   color,
		Ke:   math3d.V3(1, 1, 1),
		Ns:   1,
	}
}

func render(scene *models.Scene, w, h int, engine *lighting.Engine, opts ...Option) (*Device, error) {
	d, err := NewDevice(w, h, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.RenderScene(scene, engine); err != nil {
		return nil, err
	}
	return d, nil
}
