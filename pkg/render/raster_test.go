package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

func TestEdgeCoeffsMatchEdgeFunction(t *testing.T) {
	A, B, C := edgeCoeffs(1, 2, 7, 5)
	for _, p := range [][2]float64{{0, 0}, {3.5, 2.5}, {10, -4}} {
		want := edgeFunction(1, 2, 7, 5, p[0], p[1])
		if got := edgeFunc(A, B, C, p[0], p[1]); math.Abs(got-want) > 1e-9 {
			t.Errorf("edge at %v = %v, want %v", p, got, want)
		}
	}
}

func TestDepthMatchesPlane(t *testing.T) {
	const w, h = 80, 60
	b := newSceneBuilder(models.DefaultCamera())
	m := b.material(emissive("white", math3d.V3(1, 1, 1)))
	b.quad(m, math3d.V3(-2, -2, -5), math3d.V3(2, -2, -5), math3d.V3(2, 2, -5), math3d.V3(-2, 2, -5))

	d, err := render(b.scene, w, h, nil)
	if err != nil {
		t.Fatalf("RenderScene: %v", err)
	}

	ndc, _ := math3d.Project(d.Camera().ViewProjectionMatrix(), math3d.V3(0, 0, -5))
	want := math3d.WindowDepth(ndc[2])

	fb := d.Framebuffer()
	covered := 0
	for y := range h {
		for x := range w {
			got, ok := fb.Depth(x, y)
			if !ok {
				continue
			}
			covered++
			if math.Abs(got-want) > 1e-6 {
				t.Fatalf("depth at (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if covered == 0 {
		t.Fatal("plane covered no pixels")
	}
}

func TestWeightsSumToOne(t *testing.T) {
	cam := NewCamera(models.DefaultCamera(), 4.0/3.0)
	fs := &frameSetup{
		width:         80,
		height:        60,
		projView:      cam.ViewProjectionMatrix(),
		frustum:       cam.Frustum(),
		camera:        cam.Position,
		cullBackfaces: true,
	}
	fallback := models.DefaultMaterial()
	is := &instanceSetup{world: math3d.World(math3d.V3(0, 0, 0), math3d.V3(0, 0, 0)), fallback: &fallback}
	is.normalMatrix = math3d.NormalMatrix(is.world)

	b := newSceneBuilder(models.DefaultCamera())
	b.tri(-1, math3d.V3(-1, -1, 0), math3d.V3(1.5, -0.5, -1), math3d.V3(0, 1, 0.5))

	var stats Stats
	tri, ok := setupTriangle(fs, is, b.scene.Mesh, &b.scene.Mesh.Faces[0], &stats)
	if !ok {
		t.Fatalf("triangle culled: %+v", stats)
	}
	for y := tri.minY; y <= tri.maxY; y++ {
		for x := tri.minX; x <= tri.maxX; x++ {
			w0, w1, w2 := tri.weights(float64(x)+0.5, float64(y)+0.5)
			if math.Abs(w0+w1+w2-1) > 1e-9 {
				t.Fatalf("weights at (%d, %d) sum to %v", x, y, w0+w1+w2)
			}
		}
	}
}

// overlapScene returns two overlapping, non-coplanar triangles in the given
// order.
func overlapScene(swap bool) *models.Scene {
	b := newSceneBuilder(models.DefaultCamera())
	red := b.material(emissive("red", math3d.V3(1, 0, 0)))
	green := b.material(emissive("green", math3d.V3(0, 1, 0)))

	front := func() {
		b.tri(red, math3d.V3(-2, -1.5, 1), math3d.V3(2, -1.5, 1.5), math3d.V3(0, 2, 1.2))
	}
	back := func() {
		b.tri(green, math3d.V3(-1, -2, 0), math3d.V3(2.5, 0, -0.5), math3d.V3(-1.5, 2, 0))
	}
	if swap {
		back()
		front()
	} else {
		front()
		back()
	}
	return b.scene
}

func TestOrderIndependence(t *testing.T) {
	const w, h = 96, 64
	engine := lighting.NewEngine(models.Light{
		Name: "sun", Type: models.Directional,
		Direction: math3d.V3(1, 1, -1), Color: math3d.V3(1, 1, 1),
	})

	a, err := render(overlapScene(false), w, h, engine, WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := render(overlapScene(true), w, h, engine, WithWorkers(8))
	if err != nil {
		t.Fatal(err)
	}

	fa, fb := a.Framebuffer(), b.Framebuffer()
	if !bytes.Equal(fa.Color, fb.Color) {
		t.Error("color buffers differ between submission orders")
	}
	if !bytes.Equal(fa.Normal, fb.Normal) {
		t.Error("normal buffers differ between submission orders")
	}
	if !bytes.Equal(fa.DepthImage(), fb.DepthImage()) {
		t.Error("depth buffers differ between submission orders")
	}

	// The nearer red triangle must own the overlap.
	if got := fa.ColorAt(w/2, h/2); got != [3]uint8{255, 0, 0} {
		t.Errorf("center pixel = %v, want red", got)
	}
}

func TestRepeatedRendersIdentical(t *testing.T) {
	const w, h = 64, 48
	d, err := NewDevice(w, h, WithWorkers(6))
	if err != nil {
		t.Fatal(err)
	}
	scene := overlapScene(false)

	if err := d.RenderScene(scene, nil); err != nil {
		t.Fatal(err)
	}
	first := bytes.Clone(d.Framebuffer().Color)
	if err := d.RenderScene(scene, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, d.Framebuffer().Color) {
		t.Error("second render of the same scene differs")
	}
}

func TestCulling(t *testing.T) {
	tests := []struct {
		name    string
		p       [3]math3d.Vec3
		check   func(Stats) bool
		visible bool
	}{
		{
			name:    "front facing",
			p:       [3]math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0)},
			check:   func(s Stats) bool { return s.Rasterized == 1 },
			visible: true,
		},
		{
			name:  "back facing",
			p:     [3]math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(0, 1, 0), math3d.V3(1, -1, 0)},
			check: func(s Stats) bool { return s.BackfaceCulled == 1 },
		},
		{
			name:  "outside frustum",
			p:     [3]math3d.Vec3{math3d.V3(-60, -1, 0), math3d.V3(-50, -1, 0), math3d.V3(-55, 1, 0)},
			check: func(s Stats) bool { return s.FrustumCulled+s.InstanceCulled == 1 },
		},
		{
			name:    "straddling left plane",
			p:       [3]math3d.Vec3{math3d.V3(-30, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0)},
			check:   func(s Stats) bool { return s.Rasterized == 1 },
			visible: true,
		},
		{
			name:  "vertex behind camera",
			p:     [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 20)},
			check: func(s Stats) bool { return s.BehindCamera == 1 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newSceneBuilder(models.DefaultCamera())
			m := b.material(emissive("white", math3d.V3(1, 1, 1)))
			b.tri(m, tc.p[0], tc.p[1], tc.p[2])

			d, err := render(b.scene, 64, 48, nil)
			if err != nil {
				t.Fatal(err)
			}
			stats := d.Stats()
			if !tc.check(stats) {
				t.Errorf("unexpected stats %+v", stats)
			}
			if stats.Faces != 1 {
				t.Errorf("Faces = %d, want 1", stats.Faces)
			}

			covered := coveredPixels(d.Framebuffer())
			if tc.visible && covered == 0 {
				t.Error("visible triangle covered no pixels")
			}
			if !tc.visible && covered != 0 {
				t.Errorf("culled triangle covered %d pixels", covered)
			}
		})
	}
}

func TestInstanceCulling(t *testing.T) {
	b := newSceneBuilder(models.DefaultCamera())
	m := b.material(emissive("white", math3d.V3(1, 1, 1)))
	b.quad(m, math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0))
	b.scene.Instances[0].Position = math3d.V3(0, 500, 0)

	d, err := render(b.scene, 32, 32, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := d.Stats(); s.InstanceCulled != 2 || s.Culled() != 2 {
		t.Errorf("stats = %+v, want both faces culled with the instance", s)
	}
}

func coveredPixels(fb *Framebuffer) int {
	n := 0
	for y := range fb.Height {
		for x := range fb.Width {
			if _, ok := fb.Depth(x, y); ok {
				n++
			}
		}
	}
	return n
}

func BenchmarkRenderOverlap(b *testing.B) {
	scene := overlapScene(false)
	d, err := NewDevice(320, 240)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		if err := d.RenderScene(scene, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func TestFaceTBN(t *testing.T) {
	identity := math3d.Mat3FromCols(math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1))
	world := [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 2, 0)}
	n := math3d.V3(0, 0, 1)

	withTangents := models.Face{}
	withTangents.Corners[0].Tangent = math3d.V3(0, 1, 0)
	withTangents.Corners[0].Bitangent = math3d.V3(-1, 0, 0)

	tests := []struct {
		name     string
		face     models.Face
		tan, bit math3d.Vec3
	}{
		{"missing tangents use the first edge", models.Face{}, math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		{"corner tangents", withTangents, math3d.V3(0, 1, 0), math3d.V3(-1, 0, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbn := faceTBN(&tc.face, n, world, identity)
			for i, want := range []math3d.Vec3{tc.tan, tc.bit, n} {
				if got := tbn.Col(i); got.Sub(want).Len() > 1e-12 {
					t.Errorf("column %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}
