package gizmo

import (
	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/render"
)

// Config holds the widget's look and tolerances. Sizes are in viewport
// pixels: handles are built one overlay unit long and the overlay camera
// is placed so that one unit spans the requested number of pixels.
type Config struct {
	// HandleSize is the on-screen handle length as a fraction of the
	// viewport height.
	HandleSize float64
	// MinHandlePixels keeps handles usable on tiny viewports.
	MinHandlePixels float64
	// ShaftPixels is the shaft radius. Heads are 2.5 times wider.
	ShaftPixels float64
	// PickPixels fattens the collision proxies around each handle.
	PickPixels float64
	// DegenerateEpsilon is the smallest sine between the view direction and
	// a drag axis that still allows a drag.
	DegenerateEpsilon float64

	AxisColors     [3]render.Color
	HighlightColor render.Color
	LightDir       math3d.Vec3
}

// DefaultConfig returns red/green/blue handles with a yellow highlight.
func DefaultConfig() Config {
	return Config{
		HandleSize:        0.18,
		MinHandlePixels:   12,
		ShaftPixels:       1,
		PickPixels:        2,
		DegenerateEpsilon: 1e-3,
		AxisColors:        [3]render.Color{render.ColorRed, render.ColorGreen, render.ColorBlue},
		HighlightColor:    render.ColorYellow,
		LightDir:          math3d.V3(0.4, 0.8, 0.6).Normalize(),
	}
}

// handlePixels is the on-screen handle length for a viewport height.
func (c Config) handlePixels(height float64) float64 {
	return max(c.HandleSize*height, c.MinHandlePixels, 1)
}

// arrowShape returns a unit handle whose widths match the configured
// pixel sizes when one unit spans pixels, plus the proxy margin.
func (c Config) arrowShape(pixels float64) (models.ArrowShape, float64) {
	unit := 1 / pixels
	return models.ArrowShape{
		Length:      1,
		ShaftRadius: c.ShaftPixels * unit,
		HeadLength:  0.25,
		HeadRadius:  2.5 * c.ShaftPixels * unit,
	}, c.PickPixels * unit
}
