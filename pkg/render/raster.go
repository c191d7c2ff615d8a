package render

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// minW rejects triangles with a vertex on or behind the camera plane.
const minW = 1e-6

// edgeCoeffs returns A, B, C such that A*x + B*y + C equals
// (x-x0)*(y1-y0) - (y-y0)*(x1-x0) for the edge (x0,y0) -> (x1,y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y1 - y0
	B = x0 - x1
	C = -(A*x0 + B*y0)
	return
}

// edgeFunc evaluates edge function at point (x, y)
func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

// edgeFunction is the signed double area of (a, b, p).
func edgeFunction(ax, ay, bx, by, px, py float64) float64 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

// triangle is the immutable, fully prepared state of one face. It is built
// once per frame and read concurrently by the visibility and shading jobs.
type triangle struct {
	id uint32

	// Screen space
	sx, sy [3]float64
	depth  [3]float64 // window depth in [0, 1]
	invW   [3]float64
	area   float64
	edges  [3][3]float64 // A, B, C of edges b->c, c->a, a->b
	minX   int
	maxX   int
	minY   int
	maxY   int

	// World space
	world        [3]math3d.Vec3
	normals      [3]math3d.Vec3
	faceNormal   math3d.Vec3
	uv           [3]math3d.Vec2
	normalMatrix math3d.Mat3
	tbn          math3d.Mat3

	material  *models.Material
	colorMap  *Image
	normalMap *Image
	heightMap *Image
}

// Stats counts what happened to the faces of the last frame.
type Stats struct {
	Faces          int // Faces examined
	InstanceCulled int // Faces skipped with their whole instance
	FrustumCulled  int
	BackfaceCulled int
	BehindCamera   int
	Offscreen      int
	Degenerate     int
	Rasterized     int // Triangles handed to the visibility pass
}

// Culled returns the number of faces rejected before rasterization.
func (s Stats) Culled() int {
	return s.InstanceCulled + s.FrustumCulled + s.BackfaceCulled + s.BehindCamera + s.Offscreen + s.Degenerate
}

// frameSetup holds per-frame constants shared by every triangle.
type frameSetup struct {
	width, height int
	projView      math3d.Mat4
	frustum       Frustum
	camera        math3d.Vec3
	cullBackfaces bool
}

// instanceSetup holds the per-instance transforms and resolved textures.
type instanceSetup struct {
	world        math3d.Mat4
	normalMatrix math3d.Mat3
	materials    []boundMaterial
	fallback     *models.Material
}

type boundMaterial struct {
	material  *models.Material
	colorMap  *Image
	normalMap *Image
	heightMap *Image
}

// setupTriangle prepares face f for rasterization, or returns false when
// the face is culled. The reason is recorded in stats.
func setupTriangle(fs *frameSetup, is *instanceSetup, mesh *models.Mesh, f *models.Face, stats *Stats) (triangle, bool) {
	var t triangle
	for i, c := range f.Corners {
		t.world[i] = math3d.TransformPoint(is.world, mesh.Vertex(c.V))
		t.normals[i] = math3d.Normalize(is.normalMatrix.Mul3x1(mesh.Normal(c.VN)))
		t.uv[i] = mesh.UV(c.VT)
	}

	if fs.frustum.IsTriangleOutside(t.world[0], t.world[1], t.world[2]) {
		stats.FrustumCulled++
		return t, false
	}
	if fs.cullBackfaces && IsBackface(t.world[0], t.world[1], t.world[2], fs.camera) {
		stats.BackfaceCulled++
		return t, false
	}

	for i := range 3 {
		ndc, w := math3d.Project(fs.projView, t.world[i])
		if w <= minW {
			stats.BehindCamera++
			return t, false
		}
		t.sx[i], t.sy[i] = math3d.ToScreen(ndc, fs.width, fs.height)
		t.depth[i] = math3d.WindowDepth(ndc[2])
		t.invW[i] = 1 / w
	}

	t.area = edgeFunction(t.sx[0], t.sy[0], t.sx[1], t.sy[1], t.sx[2], t.sy[2])
	if !(t.area > 0) {
		stats.Degenerate++
		return t, false
	}

	// Bounding box (clamped to screen)
	minX := math.Floor(min(t.sx[0], t.sx[1], t.sx[2]))
	maxX := math.Ceil(max(t.sx[0], t.sx[1], t.sx[2]))
	minY := math.Floor(min(t.sy[0], t.sy[1], t.sy[2]))
	maxY := math.Ceil(max(t.sy[0], t.sy[1], t.sy[2]))
	if maxX < 0 || maxY < 0 || minX > float64(fs.width-1) || minY > float64(fs.height-1) {
		stats.Offscreen++
		return t, false
	}
	t.minX = int(math.Max(0, minX))
	t.maxX = int(math.Min(float64(fs.width-1), maxX))
	t.minY = int(math.Max(0, minY))
	t.maxY = int(math.Min(float64(fs.height-1), maxY))

	// Edge 0: b -> c, Edge 1: c -> a, Edge 2: a -> b
	for i := range 3 {
		j, k := (i+1)%3, (i+2)%3
		A, B, C := edgeCoeffs(t.sx[j], t.sy[j], t.sx[k], t.sy[k])
		t.edges[i] = [3]float64{A, B, C}
	}

	t.faceNormal = math3d.Normalize(t.world[1].Sub(t.world[0]).Cross(t.world[2].Sub(t.world[0])))
	t.normalMatrix = is.normalMatrix
	bm := boundMaterial{material: is.fallback}
	if f.Material >= 0 && f.Material < len(is.materials) {
		bm = is.materials[f.Material]
	}
	t.material = bm.material
	t.colorMap = bm.colorMap
	t.normalMap = bm.normalMap
	t.heightMap = bm.heightMap
	if t.normalMap != nil || t.heightMap != nil {
		t.tbn = faceTBN(f, t.faceNormal, t.world, is.normalMatrix)
	}

	stats.Rasterized++
	return t, true
}

// faceTBN builds the world-space tangent frame of a face from the corner
// tangents and the world-space geometric normal.
func faceTBN(f *models.Face, n math3d.Vec3, world [3]math3d.Vec3, nm math3d.Mat3) math3d.Mat3 {
	tan := math3d.Normalize(nm.Mul3x1(f.Corners[0].Tangent))
	bit := math3d.Normalize(nm.Mul3x1(f.Corners[0].Bitangent))
	if math3d.IsZero(tan) || math3d.IsZero(bit) {
		// No tangents were generated for this face.
		tan = math3d.Normalize(world[1].Sub(world[0]))
		bit = n.Cross(tan)
	}
	return math3d.Mat3FromCols(tan, bit, n)
}

// weights returns the normalized barycentric weights of pixel center
// (px, py), which sum to 1.
func (t *triangle) weights(px, py float64) (w0, w1, w2 float64) {
	inv := 1 / t.area
	w0 = edgeFunc(t.edges[0][0], t.edges[0][1], t.edges[0][2], px, py) * inv
	w1 = edgeFunc(t.edges[1][0], t.edges[1][1], t.edges[1][2], px, py) * inv
	w2 = edgeFunc(t.edges[2][0], t.edges[2][1], t.edges[2][2], px, py) * inv
	return
}

// interpolateDepth returns the linearly interpolated window depth.
func (t *triangle) interpolateDepth(w0, w1, w2 float64) float64 {
	return w0*t.depth[0] + w1*t.depth[1] + w2*t.depth[2]
}

// resolveVisibility scans t and claims every covered pixel it is nearest at.
// Only the atomic depth words of fb are written.
func resolveVisibility(fb *Framebuffer, t *triangle) {
	e0, e1, e2 := t.edges[0], t.edges[1], t.edges[2]
	inv := 1 / t.area

	// Evaluate edge functions at top-left corner of bounding box
	px := float64(t.minX) + 0.5
	py := float64(t.minY) + 0.5
	w0Row := edgeFunc(e0[0], e0[1], e0[2], px, py)
	w1Row := edgeFunc(e1[0], e1[1], e1[2], px, py)
	w2Row := edgeFunc(e2[0], e2[1], e2[2], px, py)

	for y := t.minY; y <= t.maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		rowOffset := y * fb.Width

		for x := t.minX; x <= t.maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				d := t.interpolateDepth(w0*inv, w1*inv, w2*inv)
				if d >= 0 && d <= 1 {
					if d == 0 {
						d = 0 // drop a negative zero
					}
					fb.claim(rowOffset+x, float32(d), t.id)
				}
			}
			w0 += e0[0]
			w1 += e1[0]
			w2 += e2[0]
		}
		w0Row += e0[1]
		w1Row += e1[1]
		w2Row += e2[1]
	}
}
