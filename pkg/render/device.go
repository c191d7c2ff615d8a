package render

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// Output file names written by WriteImages.
const (
	DepthFile      = "output_zbuffer.pgm"
	NormalFile     = "output_normal.ppm"
	ColorFile      = "output_rendered.ppm"
	ReflectionFile = "output_screen_space_reflections.ppm"
)

// Device renders scenes into a framebuffer of fixed size. A Device keeps a
// single scheduler for its lifetime and renders one frame at a time.
type Device struct {
	fb        *Framebuffer
	composite *Image
	scheduler *Scheduler
	textures  *TextureCache
	log       *zap.Logger

	shading ShadingConfig
	ssr     SSRConfig

	// DisableBackfaceCulling rasterizes faces pointing away from the camera.
	DisableBackfaceCulling bool

	stats  Stats
	camera *Camera
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for frame statistics and texture warnings.
func WithLogger(log *zap.Logger) Option {
	return func(d *Device) { d.log = log }
}

// WithWorkers bounds the number of concurrent rendering jobs.
func WithWorkers(n int) Option {
	return func(d *Device) { d.scheduler = NewScheduler(n) }
}

// WithShading overrides the shading parameters.
func WithShading(cfg ShadingConfig) Option {
	return func(d *Device) { d.shading = cfg }
}

// WithSSR overrides the screen-space reflection parameters.
func WithSSR(cfg SSRConfig) Option {
	return func(d *Device) { d.ssr = cfg }
}

// WithTextureCache shares an existing texture cache.
func WithTextureCache(c *TextureCache) Option {
	return func(d *Device) { d.textures = c }
}

// NewDevice creates a device rendering width x height frames.
func NewDevice(width, height int, opts ...Option) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	d := &Device{
		fb:        NewFramebuffer(width, height),
		composite: NewImage(width, height),
		shading:   DefaultShadingConfig(),
		ssr:       DefaultSSRConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.scheduler == nil {
		d.scheduler = NewScheduler(0)
	}
	if d.textures == nil {
		d.textures = NewTextureCache(d.log)
	}
	return d, nil
}

// Framebuffer returns the buffers of the last frame.
func (d *Device) Framebuffer() *Framebuffer { return d.fb }

// Composite returns the color buffer with reflections applied.
func (d *Device) Composite() *Image { return d.composite }

// Stats returns the culling counters of the last frame.
func (d *Device) Stats() Stats { return d.stats }

// Camera returns the camera of the last frame, or nil before the first one.
func (d *Device) Camera() *Camera { return d.camera }

// RenderScene draws scene lit by engine. The frame runs in three passes:
// visibility (one job per triangle, depth only), shading (one job per row)
// and reflections (one job per row). Each pass completes before the next
// begins.
func (d *Device) RenderScene(scene *models.Scene, engine *lighting.Engine) error {
	if scene == nil {
		return errors.New("render: nil scene")
	}
	if engine == nil {
		engine = lighting.NewEngine()
	}
	if err := scene.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	start := time.Now()

	d.fb.Clear()
	cam := NewCamera(scene.Camera, float64(d.fb.Width)/float64(d.fb.Height))
	d.camera = cam

	fs := &frameSetup{
		width:         d.fb.Width,
		height:        d.fb.Height,
		projView:      cam.ViewProjectionMatrix(),
		frustum:       cam.Frustum(),
		camera:        cam.Position,
		cullBackfaces: !d.DisableBackfaceCulling,
	}

	tris, stats := d.setup(scene, fs)
	d.stats = stats
	if len(tris) > int(noWinner) {
		return fmt.Errorf("render: %d triangles exceed the id range", len(tris))
	}

	if err := d.scheduler.Run(len(tris), func(i int) error {
		resolveVisibility(d.fb, &tris[i])
		return nil
	}); err != nil {
		return fmt.Errorf("render: visibility: %w", err)
	}

	if err := d.scheduler.Run(d.fb.Height, func(y int) error {
		shadeRow(d.fb, tris, y, engine.NewShader(), cam.Position, d.shading)
		return nil
	}); err != nil {
		return fmt.Errorf("render: shading: %w", err)
	}

	pass := &ssrPass{
		fb:     d.fb,
		out:    d.composite,
		pv:     cam.ViewProjectionMatrix(),
		invPV:  cam.InverseViewProjection(),
		camera: cam.Position,
		near:   cam.Near,
		far:    cam.Far,
		cfg:    d.ssr,
	}
	if err := d.scheduler.Run(d.fb.Height, func(y int) error {
		pass.row(y)
		return nil
	}); err != nil {
		return fmt.Errorf("render: reflections: %w", err)
	}

	d.log.Debug("frame rendered",
		zap.Int("faces", stats.Faces),
		zap.Int("rasterized", stats.Rasterized),
		zap.Int("instance_culled", stats.InstanceCulled),
		zap.Int("frustum_culled", stats.FrustumCulled),
		zap.Int("backface_culled", stats.BackfaceCulled),
		zap.Int("behind_camera", stats.BehindCamera),
		zap.Int("offscreen", stats.Offscreen),
		zap.Int("degenerate", stats.Degenerate),
		zap.Int("workers", d.scheduler.Workers()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// setup transforms and culls every face of the scene on the calling
// goroutine. Triangle ids equal their index in the returned slice.
func (d *Device) setup(scene *models.Scene, fs *frameSetup) ([]triangle, Stats) {
	var stats Stats
	tris := make([]triangle, 0, scene.TriangleCount())
	fallback := models.DefaultMaterial()

	for i := range scene.Instances {
		in := &scene.Instances[i]
		is := &instanceSetup{
			world:    in.World(),
			fallback: &fallback,
		}
		is.normalMatrix = math3d.NormalMatrix(is.world)

		if len(in.Faces) > 0 {
			lo, hi := scene.Mesh.Bounds(in.Faces)
			box := AABB{Min: lo, Max: hi}.Transform(is.world)
			if !fs.frustum.IntersectAABB(box) {
				stats.Faces += len(in.Faces)
				stats.InstanceCulled += len(in.Faces)
				continue
			}
		}

		is.materials = make([]boundMaterial, len(in.Materials))
		for j := range in.Materials {
			m := &in.Materials[j]
			is.materials[j] = boundMaterial{
				material:  m,
				colorMap:  d.textures.Get(m.ColorMap),
				normalMap: d.textures.Get(m.NormalMap),
				heightMap: d.textures.Get(m.HeightMap),
			}
		}

		for _, fi := range in.Faces {
			stats.Faces++
			t, ok := setupTriangle(fs, is, scene.Mesh, &scene.Mesh.Faces[fi], &stats)
			if !ok {
				continue
			}
			t.id = uint32(len(tris))
			tris = append(tris, t)
		}
	}
	return tris, stats
}

// WriteImages writes the four output images of the last frame into dir.
func (d *Device) WriteImages(dir string) error {
	if err := WritePGM(filepath.Join(dir, DepthFile), d.fb.Width, d.fb.Height, d.fb.DepthImage()); err != nil {
		return err
	}
	if err := WritePPM(filepath.Join(dir, NormalFile), d.fb.NormalImage()); err != nil {
		return err
	}
	if err := WritePPM(filepath.Join(dir, ColorFile), d.fb.ColorImage()); err != nil {
		return err
	}
	return WritePPM(filepath.Join(dir, ReflectionFile), d.composite)
}

// WritePNGs writes PNG copies of the color, normal and reflection images.
func (d *Device) WritePNGs(dir string) error {
	images := []struct {
		name string
		img  *Image
	}{
		{"output_normal.png", d.fb.NormalImage()},
		{"output_rendered.png", d.fb.ColorImage()},
		{"output_screen_space_reflections.png", d.composite},
	}
	for _, e := range images {
		if err := SavePNG(filepath.Join(dir, e.name), e.img); err != nil {
			return err
		}
	}
	return nil
}
