package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// flagValues holds what was given on the command line. Zero values mean
// "not set" and leave the file or default value alone.
type flagValues struct {
	config  string
	camera  Vector
	hasCam  bool
	lights  string
	output  string
	width   int
	height  int
	workers int
	debug   bool
	logFile string
	png     bool
	preview bool
	orbit   int
	scene   string
}

// Usage writes the command-line help to w.
func Usage(w io.Writer) {
	fs := newFlagSet(&flagValues{})
	fs.SetOutput(w)
	fmt.Fprintf(w, "lumen - CPU scene renderer\n\n")
	fmt.Fprintf(w, "Usage: lumen [options] <scene.obj|scene.gltf|scene.glb>\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
}

func newFlagSet(fl *flagValues) *flag.FlagSet {
	fs := flag.NewFlagSet("lumen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&fl.config, "config", "", "Path to config file")
	fs.Var(&cameraFlag{fl: fl}, "c", "Camera position as x,y,z")
	fs.StringVar(&fl.lights, "l", "", "Comma-separated light names to enable (e.g. sun,pointlight,spot)")
	fs.StringVar(&fl.output, "o", "", "Output directory")
	fs.IntVar(&fl.width, "w", 0, "Image width")
	fs.IntVar(&fl.height, "h", 0, "Image height")
	fs.IntVar(&fl.workers, "workers", 0, "Worker count (default one per CPU)")
	fs.BoolVar(&fl.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&fl.logFile, "log", "", "Also log to this file")
	fs.BoolVar(&fl.png, "png", false, "Also write PNG images")
	fs.BoolVar(&fl.preview, "preview", false, "Show the result in the terminal")
	fs.IntVar(&fl.orbit, "orbit", 0, "Render N frames orbiting the camera target")
	return fs
}

// cameraFlag records -c into flagValues.
type cameraFlag struct {
	fl *flagValues
}

func (c *cameraFlag) String() string {
	if c == nil || c.fl == nil || !c.fl.hasCam {
		return ""
	}
	return c.fl.camera.String()
}

func (c *cameraFlag) Set(s string) error {
	if err := c.fl.camera.Set(s); err != nil {
		return err
	}
	c.fl.hasCam = true
	return nil
}

// parseFlags parses args. flag.ErrHelp is returned for -help.
func parseFlags(args []string) (*flagValues, error) {
	fl := &flagValues{}
	fs := newFlagSet(fl)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		fl.scene = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected one scene file, got %d arguments", fs.NArg())
	}
	return fl, nil
}

// apply writes the flags that were set over cfg.
func (fl *flagValues) apply(cfg *Config) error {
	if fl.scene != "" {
		cfg.Scene = fl.scene
	}
	if fl.hasCam {
		cfg.Camera.Position = fl.camera
	}
	if fl.lights != "" {
		lights, err := selectLights(cfg.Lights, strings.Split(fl.lights, ","))
		if err != nil {
			return err
		}
		cfg.Lights = lights
	}
	if fl.output != "" {
		cfg.Render.OutputDir = fl.output
	}
	if fl.width > 0 {
		cfg.Render.Width = fl.width
	}
	if fl.height > 0 {
		cfg.Render.Height = fl.height
	}
	if fl.workers > 0 {
		cfg.Render.Workers = fl.workers
	}
	if fl.debug {
		cfg.Logging.Level = "debug"
	}
	if fl.logFile != "" {
		cfg.Logging.LogFile = fl.logFile
	}
	if fl.png {
		cfg.Render.PNG = true
	}
	if fl.preview {
		cfg.Render.Preview = true
	}
	if fl.orbit > 0 {
		cfg.Render.Orbit = fl.orbit
	}
	return nil
}

// selectLights keeps the named lights in the order they are configured.
func selectLights(all []LightConfig, names []string) ([]LightConfig, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		found := false
		for _, l := range all {
			if l.Name == n {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("-l: unknown light %q", n)
		}
		want[n] = true
	}

	var out []LightConfig
	for _, l := range all {
		if want[l.Name] {
			out = append(out, l)
		}
	}
	return out, nil
}

// IsHelp reports whether err asks for the usage text.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
