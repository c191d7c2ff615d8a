package config

import (
	"errors"
	"fmt"

	"github.com/taigrr/lumen/pkg/models"
)

// Validate checks the configuration for values the renderer cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", c.Render.Workers))
	}
	if c.Render.Orbit < 0 {
		errs = append(errs, fmt.Errorf("orbit frame count %d must not be negative", c.Render.Orbit))
	}
	if c.Render.Orbit > 0 && c.Render.OrbitFPS <= 0 {
		errs = append(errs, fmt.Errorf("orbit_fps %d must be positive", c.Render.OrbitFPS))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %v must be in (0, 180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far {
		errs = append(errs, fmt.Errorf("camera near %v must be positive and below far %v", c.Camera.Near, c.Camera.Far))
	}
	if c.SSR.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("ssr max_steps %d must not be negative", c.SSR.MaxSteps))
	}

	seen := make(map[string]bool, len(c.Lights))
	for i, l := range c.Lights {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("light %d has no name", i))
		} else if seen[l.Name] {
			errs = append(errs, fmt.Errorf("light %q is defined twice", l.Name))
		}
		seen[l.Name] = true

		if _, err := models.ParseLightType(l.Type); err != nil {
			errs = append(errs, fmt.Errorf("light %q: %w", l.Name, err))
		}
		if (l.Inner != 0 || l.Outer != 0) && l.Inner >= l.Outer {
			errs = append(errs, fmt.Errorf("light %q: inner cone %v must be below outer %v degrees", l.Name, l.Inner, l.Outer))
		}
	}
	for _, o := range c.Overrides {
		if o.Light == "" {
			errs = append(errs, errors.New("light override without a light name"))
		}
		if (o.Inner != 0 || o.Outer != 0) && o.Inner >= o.Outer {
			errs = append(errs, fmt.Errorf("override %q: inner cone %v must be below outer %v degrees", o.Light, o.Inner, o.Outer))
		}
	}
	return errors.Join(errs...)
}
