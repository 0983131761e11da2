package orbit

import (
	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/stage/pkg/math3d"
)

// springAxis animates one coordinate toward a target.
type springAxis struct {
	Position float64
	Velocity float64
	spring   harmonica.Spring
}

func newSpringAxis(fps int, freq, damping, pos float64) springAxis {
	return springAxis{
		Position: pos,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), freq, damping),
	}
}

func (a *springAxis) update(target float64) {
	a.Position, a.Velocity = a.spring.Update(a.Position, a.Velocity, target)
}

// glide moves the pivot to a target over several frames.
type glide struct {
	x, y, z springAxis
	target  math3d.Vec3
}

const settleDistance = 1e-3

func newGlide(cfg Config, from, to math3d.Vec3) *glide {
	fps := max(cfg.FPS, 1)
	return &glide{
		x:      newSpringAxis(fps, cfg.FocusFrequency, cfg.FocusDamping, from.X),
		y:      newSpringAxis(fps, cfg.FocusFrequency, cfg.FocusDamping, from.Y),
		z:      newSpringAxis(fps, cfg.FocusFrequency, cfg.FocusDamping, from.Z),
		target: to,
	}
}

// step advances one frame and reports whether the glide has settled.
func (g *glide) step() (math3d.Vec3, bool) {
	g.x.update(g.target.X)
	g.y.update(g.target.Y)
	g.z.update(g.target.Z)
	p := math3d.V3(g.x.Position, g.y.Position, g.z.Position)
	speed := math3d.V3(g.x.Velocity, g.y.Velocity, g.z.Velocity).Len()
	if p.Distance(g.target) < settleDistance && speed < settleDistance {
		return g.target, true
	}
	return p, false
}
