// lumen - CPU scene renderer
// Renders an OBJ or glTF scene with Phong lighting and screen-space
// reflections and writes the depth, normal, color and reflection images.
//
// Usage:
//
//	lumen [options] <scene.obj|scene.gltf|scene.glb>
//
// Options are listed with -help. A lumen.yaml in the working directory or
// the user config directory supplies defaults for every option.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/lumen/internal/config"
	"github.com/taigrr/lumen/internal/logger"
	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			config.Usage(os.Stderr)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Scene == "" {
		config.Usage(os.Stderr)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Context for clean shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	scene, err := models.Load(cfg.Scene)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	scene.Camera = cfg.Camera.ModelCamera()
	logger.Info("scene loaded",
		zap.String("file", cfg.Scene),
		zap.Int("instances", len(scene.Instances)),
		zap.Int("triangles", scene.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	device, err := render.NewDevice(cfg.Render.Width, cfg.Render.Height,
		render.WithLogger(logger.Named("render")),
		render.WithWorkers(cfg.Render.Workers),
		render.WithShading(cfg.Shading.Options()),
		render.WithSSR(cfg.SSR.Options()),
	)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}

	if cfg.Render.Orbit > 0 {
		return renderOrbit(ctx, device, scene, engine, cfg)
	}

	start = time.Now()
	if err := device.RenderScene(scene, engine); err != nil {
		return err
	}
	stats := device.Stats()
	logger.Info("rendered",
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
		zap.Int("faces", stats.Faces),
		zap.Int("rasterized", stats.Rasterized),
		zap.Int("culled", stats.Culled()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := writeOutputs(device, cfg.Render.OutputDir, cfg.Render.PNG); err != nil {
		return err
	}
	logger.Info("images written", zap.String("dir", cfg.Render.OutputDir))

	if cfg.Render.Preview {
		return preview(ctx, device.Composite())
	}
	return nil
}

// buildEngine creates the lighting engine from the selected lights and
// applies the per-light overrides. Overrides naming a light that is not
// present are reported and skipped.
func buildEngine(cfg *config.Config) (*lighting.Engine, error) {
	lights, err := cfg.SceneLights()
	if err != nil {
		return nil, err
	}
	engine := lighting.NewEngine(lights...)
	engine.AmbientOcclusion = cfg.Shading.AmbientOcclusion
	engine.Shininess = cfg.Shading.Shininess

	for _, o := range cfg.Overrides {
		if a, ok := o.Attenuation(); ok && !engine.SetAttenuation(o.Light, a) {
			logger.Warn("light not found, keeping defaults", zap.String("light", o.Light), zap.String("override", "attenuation"))
		}
		if c, ok := o.Cone(); ok && !engine.SetCone(o.Light, c) {
			logger.Warn("light not found, keeping defaults", zap.String("light", o.Light), zap.String("override", "cone"))
		}
	}

	for _, l := range engine.Lights() {
		logger.Debug("light", zap.String("name", l.Name), zap.Stringer("type", l.Type))
	}
	return engine, nil
}

func writeOutputs(device *render.Device, dir string, png bool) error {
	if err := device.WriteImages(dir); err != nil {
		return fmt.Errorf("write images: %w", err)
	}
	if png {
		if err := device.WritePNGs(dir); err != nil {
			return fmt.Errorf("write png images: %w", err)
		}
	}
	return nil
}
