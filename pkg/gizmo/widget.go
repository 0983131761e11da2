// Package gizmo implements the translate widget: three axis handles drawn
// through a private overlay camera and dragged along a world axis.
//
// Each frame the host calls UpdatePlacement with the selected nodes, routes
// pointer input to Hover, BeginDrag, UpdateDrag and EndDrag, and calls
// Render after the main scene has been drawn.
package gizmo

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/picking"
	"github.com/taigrr/stage/pkg/render"
	"github.com/taigrr/stage/pkg/scene"
)

// Axis names a handle.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// State is the interaction state of the widget.
type State int

const (
	Idle State = iota
	Hovering
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Hovering:
		return "hovering"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Renderer is the drawing surface the widget renders into.
// *render.Rasterizer satisfies it.
type Renderer interface {
	Camera() *render.Camera
	SetCamera(*render.Camera)
	ClearDepth()
	DrawMeshGouraud(mesh render.MeshRenderer, transform math3d.Mat4, color render.Color, lightDir math3d.Vec3)
}

// drag is the state captured by BeginDrag. None of it changes until the
// drag ends.
type drag struct {
	axis   math3d.Vec3
	plane  math3d.Plane
	anchor math3d.Vec3
	offset math3d.Vec3
}

// Widget is the translate gizmo.
type Widget struct {
	cfg      Config
	log      *slog.Logger
	renderer Renderer
	camera   *render.Camera
	overlay  *render.Camera
	viewport math3d.Viewport

	graph   *scene.Graph
	root    *scene.Node
	handles [3]*scene.Node
	proxies [3]*picking.MeshCollider
	ids     [3]picking.ID
	picker  *picking.Registry[Axis]
	// pixels is the handle length the current meshes were built for.
	pixels float64

	targets     []*scene.Node
	highlighted picking.ID
	active      *drag
}

// Option configures a Widget.
type Option func(*Widget)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(w *Widget) { w.cfg = cfg }
}

// WithLogger sets the logger for drag lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(w *Widget) { w.log = l }
}

// WithViewport sets the pixel rectangle pointer coordinates refer to.
func WithViewport(vp math3d.Viewport) Option {
	return func(w *Widget) { w.viewport = vp }
}

// New builds the widget for the main camera cam, drawing through r.
func New(cam *render.Camera, r Renderer, opts ...Option) *Widget {
	w := &Widget{
		cfg:      DefaultConfig(),
		log:      slog.New(slog.DiscardHandler),
		renderer: r,
		camera:   cam,
		overlay:  render.NewCamera(),
		viewport: math3d.NewViewport(1, 1),
		graph:    scene.NewGraph(),
		picker:   picking.NewRegistry[Axis](),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.root = w.graph.NewNode("gizmo", nil)
	for i := range w.handles {
		axis := Axis(i)
		h := w.graph.NewMeshNode("gizmo."+axis.String(), w.root, nil, w.cfg.AxisColors[i])
		w.handles[i] = h
		w.proxies[i] = picking.NewMeshCollider(nil, h)
		w.ids[i] = w.picker.Add(axis, w.proxies[i])
	}
	w.rebuild()
	return w
}

// rebuild regenerates handle and proxy meshes when the on-screen handle
// length changes, so shafts and pick margins keep their pixel widths.
// Picking IDs are unchanged.
func (w *Widget) rebuild() {
	pixels := w.cfg.handlePixels(w.viewport.Height)
	if pixels == w.pixels {
		return
	}
	w.pixels = pixels
	shape, margin := w.cfg.arrowShape(pixels)
	for i, h := range w.handles {
		name := "gizmo." + Axis(i).String()
		dir := math3d.Identity().Column(i)
		h.Mesh = models.NewArrow(name, dir, shape)
		w.proxies[i].Mesh = models.NewArrowProxy(name+".proxy", dir, shape, margin)
	}
}

// SetViewport updates the pixel rectangle pointer coordinates refer to and
// resizes the handles for it.
func (w *Widget) SetViewport(vp math3d.Viewport) {
	w.viewport = vp
	w.rebuild()
}

// SetConfig applies sizes, colors and tolerances.
func (w *Widget) SetConfig(cfg Config) {
	w.cfg = cfg
	w.pixels = 0
	w.rebuild()
	for i, h := range w.handles {
		h.Material.SetColor(cfg.AxisColors[i])
	}
	if w.highlighted != picking.None {
		w.handleFor(w.highlighted).Material.SetColor(cfg.HighlightColor)
	}
}

// State returns the current interaction state.
func (w *Widget) State() State {
	switch {
	case w.active != nil:
		return Dragging
	case w.highlighted != picking.None:
		return Hovering
	}
	return Idle
}

// Visible reports whether the widget has targets to manipulate.
func (w *Widget) Visible() bool {
	return len(w.targets) > 0
}

// Targets returns the current target set.
func (w *Widget) Targets() []*scene.Node {
	return append([]*scene.Node(nil), w.targets...)
}

// Position returns the gizmo's world position.
func (w *Widget) Position() math3d.Vec3 {
	return w.root.WorldPosition()
}

// Axis returns the world direction of handle a.
func (w *Widget) Axis(a Axis) math3d.Vec3 {
	return w.root.WorldMatrix().Column(int(a)).Normalize()
}

// Highlighted returns the handle under the pointer, if any.
func (w *Widget) Highlighted() (Axis, bool) {
	return w.picker.Visual(w.highlighted)
}

// OverlayCamera returns the camera the handles are drawn and picked with.
func (w *Widget) OverlayCamera() *render.Camera {
	w.syncOverlay()
	return w.overlay
}

// UpdatePlacement moves the gizmo to the centroid of targets, oriented by
// the first target's basis. An empty set leaves the placement untouched
// and hides the widget.
func (w *Widget) UpdatePlacement(targets []*scene.Node) {
	w.targets = w.targets[:0]
	for _, t := range targets {
		if t != nil && t.Alive() {
			w.targets = append(w.targets, t)
		}
	}
	if len(w.targets) == 0 {
		w.setHighlight(picking.None)
		return
	}

	positions := make([]math3d.Vec3, len(w.targets))
	for i, t := range w.targets {
		positions[i] = t.WorldPosition()
	}
	first := w.targets[0]
	w.root.SetWorldMatrix(math3d.BasisFromForwardUp(first.Forward(), first.Up(), math3d.Centroid(positions)))
	w.syncOverlay()
}

// OverlayDistance returns how far the overlay camera sits from the gizmo:
// the distance at which one overlay unit spans the handle length in
// pixels under the main camera's vertical field of view.
func (w *Widget) OverlayDistance() float64 {
	height := max(w.viewport.Height, 1)
	return height / (2 * math.Tan(w.camera.FOV/2) * w.pixels)
}

// HandlePixels returns the on-screen handle length.
func (w *Widget) HandlePixels() float64 {
	return w.pixels
}

// syncOverlay places the overlay camera on the line from the gizmo to the
// main camera, OverlayDistance from the gizmo, with the main camera's
// orientation and lens. The gizmo then projects to the same pixel as in
// the main view at a constant size.
func (w *Widget) syncOverlay() {
	gizmo := w.root.WorldPosition()
	dir := w.camera.Position.Sub(gizmo)
	if dir.IsZero(math3d.Epsilon) {
		dir = w.camera.Forward().Negate()
	}
	w.overlay.CopyLens(w.camera)
	w.overlay.SetRotation(w.camera.Pitch, w.camera.Yaw, w.camera.Roll)
	w.overlay.SetPosition(gizmo.Add(dir.Normalize().Scale(w.OverlayDistance())))
}

func (w *Widget) handleFor(id picking.ID) *scene.Node {
	for i, hid := range w.ids {
		if hid == id {
			return w.handles[i]
		}
	}
	return nil
}

func (w *Widget) setHighlight(id picking.ID) {
	if id == w.highlighted {
		return
	}
	if h := w.handleFor(w.highlighted); h != nil {
		a, _ := w.picker.Visual(w.highlighted)
		h.Material.SetColor(w.cfg.AxisColors[a])
	}
	if h := w.handleFor(id); h != nil {
		h.Material.SetColor(w.cfg.HighlightColor)
	}
	w.highlighted = id
}

// Hover highlights the handle under pixel (x, y). It does nothing during a
// drag and reports whether a handle is highlighted.
func (w *Widget) Hover(x, y float64) bool {
	if w.active != nil {
		return true
	}
	if !w.Visible() {
		w.setHighlight(picking.None)
		return false
	}
	w.syncOverlay()
	hit, ok := w.picker.Nearest(w.overlay.Ray(w.viewport, x, y))
	if !ok {
		w.setHighlight(picking.None)
		return false
	}
	w.setHighlight(hit.ID)
	return true
}

// BeginDrag starts dragging the highlighted handle. It returns false when
// no handle is highlighted, a drag is already active, the axis is too
// close to the view direction, or the pointer ray misses the drag plane.
func (w *Widget) BeginDrag(x, y float64) bool {
	if w.active != nil || w.highlighted == picking.None || !w.Visible() {
		return false
	}
	a, _ := w.picker.Visual(w.highlighted)
	axis := w.Axis(a)
	origin := w.root.WorldPosition()

	view := origin.Sub(w.camera.Position)
	if view.IsZero(math3d.Epsilon) {
		view = w.camera.Forward()
	}
	side := view.Normalize().Cross(axis)
	if side.Len() < w.cfg.DegenerateEpsilon {
		w.log.Debug("gizmo drag refused, axis parallel to view", "axis", a)
		return false
	}
	// The plane contains the axis and faces the camera as much as it can.
	plane := math3d.PlaneFromPointNormal(origin, axis.Cross(side).Normalize())

	anchor, ok := math3d.IntersectPlane(w.camera.Ray(w.viewport, x, y), plane)
	if !ok {
		w.log.Debug("gizmo drag refused, pointer misses drag plane", "axis", a)
		return false
	}
	w.active = &drag{
		axis:   axis,
		plane:  plane,
		anchor: anchor,
		offset: origin.Sub(anchor),
	}
	w.log.Debug("gizmo drag begin", "axis", a, "origin", origin, "targets", len(w.targets))
	return true
}

// UpdateDrag moves the root targets and the gizmo so the gizmo follows the
// pointer along the drag axis. It returns false when idle or when the
// pointer ray misses the drag plane, in which case nothing moves.
func (w *Widget) UpdateDrag(x, y float64) bool {
	d := w.active
	if d == nil {
		return false
	}
	p, ok := math3d.IntersectPlane(w.camera.Ray(w.viewport, x, y), d.plane)
	if !ok {
		return false
	}
	want := d.anchor.Add(d.axis.Scale(p.Sub(d.anchor).Dot(d.axis))).Add(d.offset)
	delta := want.Sub(w.root.WorldPosition())
	if !delta.IsFinite() {
		return false
	}
	for _, t := range scene.Roots(w.targets) {
		t.TranslateWorld(delta)
	}
	w.root.TranslateWorld(delta)
	return true
}

// EndDrag clears any drag and re-evaluates the hover at (x, y).
func (w *Widget) EndDrag(x, y float64) {
	if w.active != nil {
		w.log.Debug("gizmo drag end", "position", w.root.WorldPosition())
	}
	w.active = nil
	w.Hover(x, y)
}

// Render draws the handles over the current frame. Depth is cleared so
// the handles are never hidden by scene geometry; color is kept.
func (w *Widget) Render() {
	if !w.Visible() {
		return
	}
	w.syncOverlay()
	prev := w.renderer.Camera()
	w.renderer.SetCamera(w.overlay)
	defer w.renderer.SetCamera(prev)

	w.renderer.ClearDepth()
	for _, h := range w.handles {
		w.renderer.DrawMeshGouraud(h.Mesh, h.WorldMatrix(), h.Material.Color(), w.cfg.LightDir)
	}
}
