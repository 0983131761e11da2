// Package orbit moves a camera around a pivot from pointer gestures:
// rotate, pan and dolly.
package orbit

import (
	"log/slog"
	"math"

	"github.com/taigrr/stage/pkg/input"
	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/render"
)

// Controls is an orbit camera controller.
type Controls struct {
	cfg      Config
	log      *slog.Logger
	camera   *render.Camera
	viewport math3d.Viewport
	pivot    math3d.Vec3

	// frames counts events of the current drag; after the first one the
	// previous end position is used as the start.
	frames int
	last   math3d.Vec2

	focus *glide
}

// Option configures Controls.
type Option func(*Controls)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Controls) { c.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controls) { c.log = l }
}

// WithPivot sets the initial pivot. The default is the world origin.
func WithPivot(p math3d.Vec3) Option {
	return func(c *Controls) { c.pivot = p }
}

// New creates controls driving cam, with pointer positions in vp.
func New(cam *render.Camera, vp math3d.Viewport, opts ...Option) *Controls {
	c := &Controls{
		cfg:      DefaultConfig(),
		log:      slog.New(slog.DiscardHandler),
		camera:   cam,
		viewport: vp,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pivot returns the orbit center.
func (c *Controls) Pivot() math3d.Vec3 {
	return c.pivot
}

// SetPivot moves the orbit center without moving the camera.
func (c *Controls) SetPivot(p math3d.Vec3) {
	c.pivot = p
	c.focus = nil
}

// SetViewport updates the pixel rectangle pointer positions refer to.
func (c *Controls) SetViewport(vp math3d.Viewport) {
	c.viewport = vp
}

// SetConfig replaces the configuration.
func (c *Controls) SetConfig(cfg Config) {
	c.cfg = cfg
}

// Config returns the active configuration.
func (c *Controls) Config() Config {
	return c.cfg
}

// Reset marks the start of a new physical drag.
func (c *Controls) Reset() {
	c.frames = 0
}

// HandleGesture applies g and reports whether the camera moved.
func (c *Controls) HandleGesture(g input.Gesture) bool {
	switch g.Kind {
	case input.Scroll:
		return c.Dolly(g.Scroll)
	case input.Drag:
		start := g.Start
		if c.frames > 0 {
			start = c.last
		}
		c.frames++
		c.last = g.End

		switch g.Button {
		case input.ButtonRotate:
			c.focus = nil
			return c.Rotate(start, g.End)
		case input.ButtonPan:
			c.focus = nil
			return c.Pan(start, g.End)
		}
	}
	return false
}

// Dolly moves the camera along its view direction by amount scroll steps.
func (c *Controls) Dolly(amount float64) bool {
	if amount == 0 {
		return false
	}
	c.camera.Translate(c.camera.Forward().Scale(amount * c.cfg.ScrollScale))
	return true
}

// viewDir returns the direction from the eye point through pixel p.
func (c *Controls) viewDir(eye math3d.Vec3, p math3d.Vec2) math3d.Vec3 {
	r := c.camera.Ray(c.viewport, p.X, p.Y)
	return c.camera.Position.Add(r.Dir).Sub(eye).Normalize()
}

// Rotate orbits the camera around the pivot for a pointer move from start
// to end. The scene follows the pointer, so the camera moves the other way.
func (c *Controls) Rotate(start, end math3d.Vec2) bool {
	cam := c.camera
	offset := cam.Position.Sub(c.pivot)
	if offset.IsZero(math3d.Epsilon) {
		return false
	}

	eye := cam.Position.Sub(cam.Forward().Scale(c.cfg.EyeOffset))
	v1 := c.viewDir(eye, start)
	v2 := c.viewDir(eye, end)
	if v1.ApproxEqual(v2, math3d.Epsilon) {
		return false
	}

	up := math3d.Up()
	elevation := math.Abs(offset.Normalize().Dot(up))

	var q math3d.Quat
	if elevation > c.cfg.PoleThreshold {
		angle := math.Acos(math.Max(-1, math.Min(1, v1.Dot(v2))))
		q = math3d.QuatAxisAngle(v1.Cross(v2), angle*c.cfg.RotateSpeed)
	} else {
		yaw := math.Atan2(v1.Z*v2.X-v1.X*v2.Z, v1.X*v2.X+v1.Z*v2.Z)
		pitch := math.Asin(v2.Y) - math.Asin(v1.Y)
		q = math3d.QuatAxisAngle(up, yaw*c.cfg.RotateSpeed).
			Mul(math3d.QuatAxisAngle(cam.Right(), pitch*c.cfg.RotateSpeed))
	}

	next := q.Rotate(offset)
	if !next.IsFinite() {
		return false
	}
	// Refuse to move further into a pole, where the look-at basis
	// degenerates. Moving out of one is always allowed.
	if e := math.Abs(next.Normalize().Dot(up)); e > c.cfg.PoleThreshold && e > elevation {
		c.log.Debug("orbit rotation rejected near pole", "elevation", e)
		return false
	}

	cam.SetPosition(c.pivot.Add(next))
	cam.LookAt(c.pivot)
	return true
}

// Pan slides the camera and pivot across the plane through the pivot
// facing the camera, so the point under the pointer stays under it.
func (c *Controls) Pan(start, end math3d.Vec2) bool {
	cam := c.camera
	plane := math3d.PlaneFromPointNormal(c.pivot, cam.Forward())
	p1, ok1 := math3d.IntersectPlane(cam.Ray(c.viewport, start.X, start.Y), plane)
	p2, ok2 := math3d.IntersectPlane(cam.Ray(c.viewport, end.X, end.Y), plane)
	if !ok1 || !ok2 {
		return false
	}
	delta := p1.Sub(p2).Scale(c.cfg.PanSpeed)
	if !delta.IsFinite() || delta.IsZero(math3d.Epsilon) {
		return false
	}
	cam.Translate(delta)
	c.pivot = c.pivot.Add(delta)
	return true
}

// Focus starts gliding the pivot to target. The camera keeps its offset
// from the pivot while it moves.
func (c *Controls) Focus(target math3d.Vec3) {
	c.focus = newGlide(c.cfg, c.pivot, target)
	c.log.Debug("orbit focus", "from", c.pivot, "to", target)
}

// Focusing reports whether a focus glide is in progress.
func (c *Controls) Focusing() bool {
	return c.focus != nil
}

// Step advances a focus glide by one frame. It reports whether the camera
// moved.
func (c *Controls) Step() bool {
	if c.focus == nil {
		return false
	}
	p, done := c.focus.step()
	if done {
		c.focus = nil
	}
	delta := p.Sub(c.pivot)
	c.pivot = p
	c.camera.Translate(delta)
	return true
}
