// Package config loads editor settings from a TOML file and watches it for
// changes.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/stage/pkg/gizmo"
	"github.com/taigrr/stage/pkg/orbit"
	"github.com/taigrr/stage/pkg/render"
)

// DefaultPath is the settings file looked up when none is given.
const DefaultPath = "stage.toml"

// File mirrors the settings file.
type File struct {
	View  View  `toml:"view"`
	Orbit Orbit `toml:"orbit"`
	Gizmo Gizmo `toml:"gizmo"`
}

// View holds frame loop and display settings.
type View struct {
	FPS        int     `toml:"fps"`
	Background string  `toml:"background"`
	FOV        float64 `toml:"fov"` // degrees
	Grid       bool    `toml:"grid"`
}

// Orbit mirrors orbit.Config.
type Orbit struct {
	ScrollScale    float64 `toml:"scroll_scale"`
	RotateSpeed    float64 `toml:"rotate_speed"`
	PanSpeed       float64 `toml:"pan_speed"`
	EyeOffset      float64 `toml:"eye_offset"`
	PoleThreshold  float64 `toml:"pole_threshold"`
	FocusFrequency float64 `toml:"focus_frequency"`
	FocusDamping   float64 `toml:"focus_damping"`
}

// Gizmo mirrors gizmo.Config. Colors are "#rrggbb".
type Gizmo struct {
	HandleSize        float64   `toml:"handle_size"`
	MinHandlePixels   float64   `toml:"min_handle_pixels"`
	ShaftPixels       float64   `toml:"shaft_pixels"`
	PickPixels        float64   `toml:"pick_pixels"`
	DegenerateEpsilon float64   `toml:"degenerate_epsilon"`
	Colors            [3]string `toml:"colors"`
	Highlight         string    `toml:"highlight"`
}

// Default returns the built-in settings.
func Default() File {
	o := orbit.DefaultConfig()
	g := gizmo.DefaultConfig()
	return File{
		View: View{
			FPS:        o.FPS,
			Background: FormatColor(render.RGB(20, 20, 28)),
			FOV:        60,
			Grid:       true,
		},
		Orbit: Orbit{
			ScrollScale:    o.ScrollScale,
			RotateSpeed:    o.RotateSpeed,
			PanSpeed:       o.PanSpeed,
			EyeOffset:      o.EyeOffset,
			PoleThreshold:  o.PoleThreshold,
			FocusFrequency: o.FocusFrequency,
			FocusDamping:   o.FocusDamping,
		},
		Gizmo: Gizmo{
			HandleSize:        g.HandleSize,
			MinHandlePixels:   g.MinHandlePixels,
			ShaftPixels:       g.ShaftPixels,
			PickPixels:        g.PickPixels,
			DegenerateEpsilon: g.DegenerateEpsilon,
			Colors: [3]string{
				FormatColor(g.AxisColors[0]),
				FormatColor(g.AxisColors[1]),
				FormatColor(g.AxisColors[2]),
			},
			Highlight: FormatColor(g.HighlightColor),
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values, and a missing file yields the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and colors.
func (f File) Validate() error {
	if f.View.FPS <= 0 {
		return fmt.Errorf("view.fps must be positive, got %d", f.View.FPS)
	}
	if f.View.FOV <= 0 || f.View.FOV >= 180 {
		return fmt.Errorf("view.fov must be in (0, 180), got %g", f.View.FOV)
	}
	if f.Orbit.PoleThreshold <= 0 || f.Orbit.PoleThreshold >= 1 {
		return fmt.Errorf("orbit.pole_threshold must be in (0, 1), got %g", f.Orbit.PoleThreshold)
	}
	if f.Gizmo.HandleSize <= 0 || f.Gizmo.HandleSize > 1 {
		return fmt.Errorf("gizmo.handle_size must be in (0, 1], got %g", f.Gizmo.HandleSize)
	}
	if f.Gizmo.MinHandlePixels <= 0 || f.Gizmo.ShaftPixels <= 0 || f.Gizmo.PickPixels < 0 {
		return errors.New("gizmo.min_handle_pixels and gizmo.shaft_pixels must be positive, gizmo.pick_pixels non-negative")
	}
	colors := append([]string{f.View.Background, f.Gizmo.Highlight}, f.Gizmo.Colors[:]...)
	for _, c := range colors {
		if _, err := ParseColor(c); err != nil {
			return err
		}
	}
	return nil
}

// OrbitConfig converts the orbit section.
func (f File) OrbitConfig() orbit.Config {
	return orbit.Config{
		ScrollScale:    f.Orbit.ScrollScale,
		RotateSpeed:    f.Orbit.RotateSpeed,
		PanSpeed:       f.Orbit.PanSpeed,
		EyeOffset:      f.Orbit.EyeOffset,
		PoleThreshold:  f.Orbit.PoleThreshold,
		FocusFrequency: f.Orbit.FocusFrequency,
		FocusDamping:   f.Orbit.FocusDamping,
		FPS:            f.View.FPS,
	}
}

// GizmoConfig converts the gizmo section. Colors that fail to parse fall
// back to the defaults; Load has already rejected them.
func (f File) GizmoConfig() gizmo.Config {
	cfg := gizmo.DefaultConfig()
	cfg.HandleSize = f.Gizmo.HandleSize
	cfg.MinHandlePixels = f.Gizmo.MinHandlePixels
	cfg.ShaftPixels = f.Gizmo.ShaftPixels
	cfg.PickPixels = f.Gizmo.PickPixels
	cfg.DegenerateEpsilon = f.Gizmo.DegenerateEpsilon
	for i, s := range f.Gizmo.Colors {
		if c, err := ParseColor(s); err == nil {
			cfg.AxisColors[i] = c
		}
	}
	if c, err := ParseColor(f.Gizmo.Highlight); err == nil {
		cfg.HighlightColor = c
	}
	return cfg
}

// BackgroundColor returns the parsed view background.
func (f File) BackgroundColor() render.Color {
	c, err := ParseColor(f.View.Background)
	if err != nil {
		return render.RGB(20, 20, 28)
	}
	return c
}

// FOVRadians returns the vertical field of view in radians.
func (f File) FOVRadians() float64 {
	return f.View.FOV * math.Pi / 180
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (render.Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return render.Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return render.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return render.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c render.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Watch reloads path whenever it changes and passes the result to fn until
// ctx is done. fn runs on the watcher goroutine. The parent directory is
// watched so editors that replace the file on save are seen.
func Watch(ctx context.Context, path string, fn func(File, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				fn(Load(path))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(File{}, fmt.Errorf("watch %s: %w", path, err))
		}
	}
}
