// Package editor wires the scene, selection, translate gizmo and orbit
// camera into one interactive viewport. All methods except Post and
// LoadModels must be called from the render goroutine.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/stage/pkg/config"
	"github.com/taigrr/stage/pkg/frame"
	"github.com/taigrr/stage/pkg/gizmo"
	"github.com/taigrr/stage/pkg/input"
	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/orbit"
	"github.com/taigrr/stage/pkg/picking"
	"github.com/taigrr/stage/pkg/render"
	"github.com/taigrr/stage/pkg/scene"
	"github.com/taigrr/stage/pkg/selection"
)

const (
	// ModelSize is the largest dimension loaded models are scaled to.
	ModelSize = 2.0
	// slotSpacing separates models placed side by side.
	slotSpacing = 3.0
	// clickSlop is how far in pixels the pointer may travel between press
	// and release for the release to count as a click.
	clickSlop = 2.0
	gridSize  = 10.0
)

var (
	modelColor    = render.RGB(200, 200, 200)
	selectedColor = render.ColorOrange
	gridColor     = render.RGB(60, 60, 70)
	lightDir      = math3d.V3(0.5, 1, 0.3).Normalize()
	homePosition  = math3d.V3(0, 3, 8)
)

// Editor is the interactive viewport.
type Editor struct {
	log    *slog.Logger
	cfg    config.File
	raster *render.Rasterizer
	camera *render.Camera

	graph     *scene.Graph
	selection *selection.Scene
	gizmo     *gizmo.Widget
	orbit     *orbit.Controls
	queue     frame.Queue

	background render.Color
	showGrid   bool
	slots      int

	grabbing bool
	pressAt  math3d.Vec2
	dragged  bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger shared by the editor's components.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// WithConfig replaces the default settings.
func WithConfig(cfg config.File) Option {
	return func(e *Editor) { e.cfg = cfg }
}

// New creates an editor drawing through r. The editor drives r's camera.
func New(r *render.Rasterizer, opts ...Option) *Editor {
	e := &Editor{
		log:    slog.New(slog.DiscardHandler),
		cfg:    config.Default(),
		raster: r,
		camera: r.Camera(),
		graph:  scene.NewGraph(),
	}
	for _, opt := range opts {
		opt(e)
	}

	vp := r.Viewport()
	e.selection = selection.New(selection.WithLogger(e.log))
	e.gizmo = gizmo.New(e.camera, r,
		gizmo.WithConfig(e.cfg.GizmoConfig()),
		gizmo.WithViewport(vp),
		gizmo.WithLogger(e.log),
	)
	e.orbit = orbit.New(e.camera, vp,
		orbit.WithConfig(e.cfg.OrbitConfig()),
		orbit.WithLogger(e.log),
	)
	e.selection.Subscribe(func(selection.Change) {
		e.gizmo.UpdatePlacement(e.selection.Selected())
	})

	e.camera.SetAspectRatio(vp.Aspect())
	e.applyView(e.cfg)
	e.Home()
	return e
}

// Graph returns the scene graph.
func (e *Editor) Graph() *scene.Graph { return e.graph }

// Selection returns the selection scene.
func (e *Editor) Selection() *selection.Scene { return e.selection }

// Gizmo returns the translate gizmo.
func (e *Editor) Gizmo() *gizmo.Widget { return e.gizmo }

// Orbit returns the camera controls.
func (e *Editor) Orbit() *orbit.Controls { return e.orbit }

// Camera returns the main camera.
func (e *Editor) Camera() *render.Camera { return e.camera }

// Viewport returns the pixel rectangle pointer positions refer to.
func (e *Editor) Viewport() math3d.Viewport { return e.raster.Viewport() }

// Post schedules fn to run on the render goroutine during the next Frame.
// Safe for concurrent use.
func (e *Editor) Post(fn func()) {
	e.queue.Post(fn)
}

// Pending returns the number of tasks waiting for the next Frame.
func (e *Editor) Pending() int {
	return e.queue.Len()
}

// Frame runs posted work, advances the camera focus animation and
// re-places the gizmo on the selection.
func (e *Editor) Frame() {
	if n := e.queue.Drain(); n > 0 {
		e.log.Debug("drained frame queue", "tasks", n)
	}
	e.orbit.Step()
	e.gizmo.UpdatePlacement(e.selection.Selected())
}

// HandleGesture routes one pointer gesture and reports whether anything
// changed. A press on a gizmo handle grabs it; any other drag orbits. A
// primary-button click that did not travel selects, with shift toggling.
func (e *Editor) HandleGesture(g input.Gesture) bool {
	x, y := g.End.X, g.End.Y
	switch g.Kind {
	case input.Move:
		return e.gizmo.Hover(x, y)

	case input.Press:
		e.orbit.Reset()
		e.pressAt, e.dragged = g.End, false
		if g.Button == input.ButtonRotate && e.gizmo.Hover(x, y) && e.gizmo.BeginDrag(x, y) {
			e.grabbing = true
			return true
		}
		return false

	case input.Drag:
		if g.End.Sub(e.pressAt).Len() > clickSlop {
			e.dragged = true
		}
		if e.grabbing {
			return e.gizmo.UpdateDrag(x, y)
		}
		return e.orbit.HandleGesture(g)

	case input.Release:
		if e.grabbing {
			e.grabbing = false
			e.gizmo.EndDrag(x, y)
			return true
		}
		if e.dragged || g.Button != input.ButtonRotate {
			e.gizmo.Hover(x, y)
			return false
		}
		add := g.Mods.Has(input.ModShift)
		e.selection.CastForSelection(e.camera, e.Viewport(), x, y, !add, add)
		e.gizmo.Hover(x, y)
		return true

	case input.Scroll:
		return e.orbit.HandleGesture(g)
	}
	return false
}

// AddModel adds mesh as a selectable root node in the next free slot.
func (e *Editor) AddModel(name string, mesh *models.Mesh) *scene.Node {
	n := e.graph.NewMeshNode(name, nil, mesh, modelColor)
	n.SetLocal(math3d.Translate(e.nextSlot()))
	e.selection.AddSelectable(n, picking.NewMeshCollider(mesh, n))
	e.log.Info("model added", "name", name, "triangles", mesh.TriangleCount())
	return n
}

// AddGroup adds an empty root named name with one selectable child per
// mesh. The meshes keep their relative placement.
func (e *Editor) AddGroup(name string, meshes []*models.Mesh) *scene.Node {
	root := e.graph.NewNode(name, nil)
	root.SetLocal(math3d.Translate(e.nextSlot()))
	for _, m := range meshes {
		child := e.graph.NewMeshNode(m.Name, root, m, modelColor)
		e.selection.AddSelectable(child, picking.NewMeshCollider(m, child))
	}
	e.log.Info("group added", "name", name, "meshes", len(meshes))
	return root
}

// nextSlot returns the position for the next model: the origin, then
// alternating right and left of it.
func (e *Editor) nextSlot() math3d.Vec3 {
	i := e.slots
	e.slots++
	step := float64((i + 1) / 2)
	if i%2 == 0 {
		step = -step
	}
	return math3d.V3(step*slotSpacing, 0, 0)
}

// RemoveNode deletes n and its subtree, dropping them from the selection.
func (e *Editor) RemoveNode(n *scene.Node) int {
	if n == nil || !n.Alive() {
		return 0
	}
	var drop func(*scene.Node)
	drop = func(n *scene.Node) {
		e.selection.RemoveSelectable(n)
		for _, c := range n.Children() {
			drop(c)
		}
	}
	drop(n)
	removed := e.graph.Remove(n)
	e.gizmo.UpdatePlacement(e.selection.Selected())
	e.log.Info("node removed", "name", n.Name, "nodes", removed)
	return removed
}

// DeleteSelection removes every selected subtree.
func (e *Editor) DeleteSelection() int {
	removed := 0
	for _, n := range scene.Roots(e.selection.Selected()) {
		removed += e.RemoveNode(n)
	}
	return removed
}

// LoadModels loads glTF files concurrently and posts each model onto the
// frame queue as it finishes. Files with several meshes become groups.
// It blocks until every load ends and returns the first error; the other
// loads are cancelled when one fails.
func (e *Editor) LoadModels(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			meshes, err := models.LoadGLBMeshes(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			fitMeshes(meshes, ModelSize)

			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			e.queue.Post(func() {
				if len(meshes) == 1 {
					e.AddModel(name, meshes[0])
					return
				}
				e.AddGroup(name, meshes)
			})
			return nil
		})
	}
	return g.Wait()
}

// fitMeshes centers the combined bounds of meshes on the origin and scales
// them uniformly so the largest dimension equals size.
func fitMeshes(meshes []*models.Mesh, size float64) {
	if len(meshes) == 0 {
		return
	}
	bounds := meshes[0].Bounds()
	for _, m := range meshes[1:] {
		b := m.Bounds()
		bounds = math3d.NewAABB(bounds.Min.Min(b.Min), bounds.Max.Max(b.Max))
	}
	dims := bounds.Size()
	largest := max(dims.X, dims.Y, dims.Z)
	if largest <= 0 {
		return
	}
	fit := math3d.ScaleUniform(size / largest).Mul(math3d.Translate(bounds.Center().Negate()))
	for _, m := range meshes {
		m.Transform(fit)
	}
}

// Home puts the camera back at its starting pose looking at the origin.
func (e *Editor) Home() {
	e.orbit.SetPivot(math3d.Zero3())
	e.camera.SetPosition(homePosition)
	e.camera.LookAt(math3d.Zero3())
}

// FocusSelection glides the orbit pivot to the center of the selection.
func (e *Editor) FocusSelection() bool {
	sel := e.selection.Selected()
	if len(sel) == 0 {
		return false
	}
	centers := make([]math3d.Vec3, 0, len(sel))
	for _, n := range sel {
		if b, ok := n.WorldBounds(); ok {
			centers = append(centers, b.Center())
		} else {
			centers = append(centers, n.WorldPosition())
		}
	}
	e.orbit.Focus(math3d.Centroid(centers))
	return true
}

// ToggleGrid shows or hides the ground grid and returns the new state.
func (e *Editor) ToggleGrid() bool {
	e.showGrid = !e.showGrid
	return e.showGrid
}

// ApplyConfig switches every component to cfg.
func (e *Editor) ApplyConfig(cfg config.File) {
	e.cfg = cfg
	e.orbit.SetConfig(cfg.OrbitConfig())
	e.gizmo.SetConfig(cfg.GizmoConfig())
	e.applyView(cfg)
	e.log.Info("config applied", "fps", cfg.View.FPS, "fov", cfg.View.FOV)
}

func (e *Editor) applyView(cfg config.File) {
	e.background = cfg.BackgroundColor()
	e.showGrid = cfg.View.Grid
	e.camera.SetFOV(cfg.FOVRadians())
}

// Config returns the active settings.
func (e *Editor) Config() config.File {
	return e.cfg
}

// Resize matches the framebuffer, camera and pointer mapping to a new
// pixel size.
func (e *Editor) Resize(width, height int) {
	e.raster.Framebuffer().Resize(width, height)
	e.raster.Resize()
	vp := e.raster.Viewport()
	e.camera.SetAspectRatio(vp.Aspect())
	e.orbit.SetViewport(vp)
	e.gizmo.SetViewport(vp)
}

// Render draws the grid, the scene with the selection highlighted, and
// the gizmo on top.
func (e *Editor) Render() {
	e.raster.Framebuffer().Clear(e.background)
	e.raster.ClearDepth()
	e.raster.ResetCullingStats()

	if e.showGrid {
		e.raster.DrawGrid(gridSize, 1, gridColor)
	}
	e.graph.Walk(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh == nil || n.Material == nil {
			return true
		}
		world := n.WorldMatrix()
		if e.selection.IsSelected(n) {
			e.raster.DrawMeshGouraud(n.Mesh, world, selectedColor, lightDir)
			e.raster.DrawBox(n.Mesh.Bounds(), world, selectedColor)
			return true
		}
		e.raster.DrawMeshGouraud(n.Mesh, world, n.Material.Color(), lightDir)
		return true
	})
	e.gizmo.Render()
}

// Status is a one-line summary for the HUD.
func (e *Editor) Status() string {
	stats := e.raster.CullingStats
	return fmt.Sprintf("%d nodes  %d selected  %d/%d drawn  gizmo %s",
		e.graph.Len(), len(e.selection.Selected()),
		stats.MeshesDrawn, stats.MeshesTested, e.gizmo.State())
}
