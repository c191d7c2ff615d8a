package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/charmbracelet/harmonica"
	"go.uber.org/zap"

	"github.com/taigrr/lumen/internal/config"
	"github.com/taigrr/lumen/internal/logger"
	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

// Orbit tracks the camera yaw around its target, eased toward one full turn
// with a critically damped spring.
type Orbit struct {
	Yaw      float64
	velocity float64
	target   float64
	spring   harmonica.Spring
}

// NewOrbit creates an orbit that settles on a full turn over frames frames
// played at fps.
func NewOrbit(frames, fps int) *Orbit {
	// Pick the spring frequency so the turn settles within the clip.
	seconds := float64(frames) / float64(fps)
	freq := math.Max(8.0/seconds, 0.5)
	return &Orbit{
		target: 2 * math.Pi,
		spring: harmonica.NewSpring(harmonica.FPS(fps), freq, 1.0),
	}
}

// Update advances the orbit by one frame.
func (o *Orbit) Update() {
	o.Yaw, o.velocity = o.spring.Update(o.Yaw, o.velocity, o.target)
}

// renderOrbit renders the configured number of frames, moving the camera
// around its target, into numbered frame directories.
func renderOrbit(ctx context.Context, device *render.Device, scene *models.Scene, engine *lighting.Engine, cfg *config.Config) error {
	frames := cfg.Render.Orbit
	orbit := NewOrbit(frames, cfg.Render.OrbitFPS)
	aspect := float64(cfg.Render.Width) / float64(cfg.Render.Height)
	base := scene.Camera

	start := time.Now()
	for i := range frames {
		select {
		case <-ctx.Done():
			logger.Warn("orbit interrupted", zap.Int("frames", i))
			return ctx.Err()
		default:
		}

		cam := render.NewCamera(base, aspect)
		cam.Orbit(math.Atan2(base.Position[0]-base.Target[0], base.Position[2]-base.Target[2]) + orbit.Yaw)
		scene.Camera.Position = cam.Position

		dir := filepath.Join(cfg.Render.OutputDir, fmt.Sprintf("frame_%04d", i))
		if err := renderFrame(device, scene, engine, dir, cfg.Render.PNG); err != nil {
			logger.Error("orbit frame failed", zap.Int("frame", i), zap.Error(err))
			return fmt.Errorf("frame %d: %w", i, err)
		}
		logger.Debug("orbit frame", zap.Int("frame", i), zap.Float64("yaw", orbit.Yaw))
		orbit.Update()
	}

	logger.Info("orbit rendered",
		zap.Int("frames", frames),
		zap.String("dir", cfg.Render.OutputDir),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func renderFrame(device *render.Device, scene *models.Scene, engine *lighting.Engine, dir string, png bool) error {
	if err := device.RenderScene(scene, engine); err != nil {
		return err
	}
	return writeOutputs(device, dir, png)
}
