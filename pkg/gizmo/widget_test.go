package gizmo

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/render"
	"github.com/taigrr/stage/pkg/scene"
)

// fakeRenderer records what the widget draws.
type fakeRenderer struct {
	cam         *render.Camera
	swaps       []*render.Camera
	depthClears int
	draws       []render.Color
	drawCams    []*render.Camera
}

func (f *fakeRenderer) Camera() *render.Camera { return f.cam }

func (f *fakeRenderer) SetCamera(c *render.Camera) {
	f.cam = c
	f.swaps = append(f.swaps, c)
}

func (f *fakeRenderer) ClearDepth() { f.depthClears++ }

func (f *fakeRenderer) DrawMeshGouraud(_ render.MeshRenderer, _ math3d.Mat4, c render.Color, _ math3d.Vec3) {
	f.draws = append(f.draws, c)
	f.drawCams = append(f.drawCams, f.cam)
}

var testViewport = math3d.NewViewport(1024, 768)

// fixture is a camera at (0, 0, camZ) looking down -Z at one target at
// the origin.
type fixture struct {
	cam    *render.Camera
	r      *fakeRenderer
	w      *Widget
	graph  *scene.Graph
	target *scene.Node
}

func newFixture(t *testing.T, camZ float64, opts ...Option) *fixture {
	t.Helper()
	cam := render.NewCamera()
	cam.SetAspectRatio(testViewport.Aspect())
	cam.SetPosition(math3d.V3(0, 0, camZ))
	cam.LookAt(math3d.Zero3())

	r := &fakeRenderer{cam: cam}
	opts = append([]Option{WithViewport(testViewport)}, opts...)
	w := New(cam, r, opts...)

	g := scene.NewGraph()
	target := g.NewMeshNode("target", nil, models.NewCube("cube", 1), render.ColorGray)
	w.UpdatePlacement([]*scene.Node{target})
	return &fixture{cam: cam, r: r, w: w, graph: g, target: target}
}

// overlayPixel returns the pixel a world point occupies in the overlay view.
func (f *fixture) overlayPixel(t *testing.T, p math3d.Vec3) (float64, float64) {
	t.Helper()
	x, y, _, visible := f.w.OverlayCamera().Project(p, testViewport)
	require.True(t, visible)
	return x, y
}

// hoverAxis points at the middle of handle a, nudged off the axis so the
// ray does not graze a proxy edge.
func (f *fixture) hoverAxis(t *testing.T, a Axis) {
	t.Helper()
	axis := f.w.Axis(a)
	nudge := math3d.V3(0.013, 0.021, 0.017)
	nudge = nudge.Sub(axis.Scale(nudge.Dot(axis)))
	x, y := f.overlayPixel(t, f.w.Position().Add(axis.Scale(0.5)).Add(nudge))
	require.True(t, f.w.Hover(x, y))
	got, ok := f.w.Highlighted()
	require.True(t, ok)
	require.Equal(t, a, got)
}

func TestUpdatePlacementCentroidAndBasis(t *testing.T) {
	f := newFixture(t, 10)
	other := f.graph.NewNode("other", nil)
	other.SetLocal(math3d.Translate(math3d.V3(4, 2, 0)))
	f.target.SetLocal(math3d.RotateY(math.Pi / 2))

	f.w.UpdatePlacement([]*scene.Node{f.target, other})
	assert.True(t, f.w.Position().ApproxEqual(math3d.V3(2, 1, 0), 1e-9))
	assert.True(t, f.w.Axis(AxisX).ApproxEqual(math3d.V3(0, 0, -1), 1e-9), "oriented by the first target")
	assert.True(t, f.w.Visible())

	f.w.UpdatePlacement(nil)
	assert.True(t, f.w.Position().ApproxEqual(math3d.V3(2, 1, 0), 1e-9), "empty set keeps the placement")
	assert.False(t, f.w.Visible())
	assert.Empty(t, f.w.Targets())
}

func TestOverlayCameraKeepsScreenPosition(t *testing.T) {
	f := newFixture(t, 10)
	f.target.SetLocal(math3d.Translate(math3d.V3(1, 0.5, -3)))
	f.cam.SetPosition(math3d.V3(2, 3, 12))
	f.cam.LookAt(math3d.V3(0, 0, -2))
	f.w.UpdatePlacement([]*scene.Node{f.target})

	overlay := f.w.OverlayCamera()
	assert.InDelta(t, f.w.OverlayDistance(), overlay.Position.Distance(f.w.Position()), 1e-9)

	mx, my, _, ok := f.cam.Project(f.w.Position(), testViewport)
	require.True(t, ok)
	ox, oy, _, ok := overlay.Project(f.w.Position(), testViewport)
	require.True(t, ok)
	assert.InDelta(t, mx, ox, 1e-6)
	assert.InDelta(t, my, oy, 1e-6)
}

func TestHandleLengthFollowsViewport(t *testing.T) {
	f := newFixture(t, 10)
	cfg := DefaultConfig()
	want := cfg.HandleSize * testViewport.Height
	assert.InDelta(t, want, f.w.HandlePixels(), 1e-9)

	_, oy := f.overlayPixel(t, f.w.Position())
	_, ty := f.overlayPixel(t, f.w.Position().Add(f.w.Axis(AxisY)))
	assert.InDelta(t, want, oy-ty, 1e-6)

	// Moving the main camera away does not shrink the handles.
	f.cam.SetPosition(math3d.V3(0, 0, 40))
	_, oy = f.overlayPixel(t, f.w.Position())
	_, ty = f.overlayPixel(t, f.w.Position().Add(f.w.Axis(AxisY)))
	assert.InDelta(t, want, oy-ty, 1e-6)
}

func TestSetViewportResizesHandles(t *testing.T) {
	f := newFixture(t, 10)
	ids := f.w.ids
	small := math3d.NewViewport(80, 48)
	f.cam.SetAspectRatio(small.Aspect())
	f.w.SetViewport(small)

	assert.Equal(t, DefaultConfig().MinHandlePixels, f.w.HandlePixels())
	assert.Equal(t, ids, f.w.ids, "picking IDs survive a rebuild")
	head := f.w.handles[AxisY].Mesh.Bounds().Size().X
	assert.InDelta(t, 5*DefaultConfig().ShaftPixels/f.w.HandlePixels(), head, 1e-9, "head stays five pixels wide")

	x, y, _, ok := f.w.OverlayCamera().Project(math3d.V3(0.02, 0.5, 0.01), small)
	require.True(t, ok)
	require.True(t, f.w.Hover(x, y))
	got, _ := f.w.Highlighted()
	assert.Equal(t, AxisY, got)
}

func TestHoverHighlightsAndRestoresColors(t *testing.T) {
	f := newFixture(t, 10)
	cfg := DefaultConfig()
	assert.Equal(t, Idle, f.w.State())

	f.hoverAxis(t, AxisY)
	assert.Equal(t, Hovering, f.w.State())
	assert.Equal(t, cfg.HighlightColor, f.w.handles[AxisY].Material.Color())

	f.hoverAxis(t, AxisX)
	assert.Equal(t, cfg.AxisColors[AxisY], f.w.handles[AxisY].Material.Color())
	assert.Equal(t, cfg.HighlightColor, f.w.handles[AxisX].Material.Color())

	assert.False(t, f.w.Hover(5, 5))
	assert.Equal(t, Idle, f.w.State())
	for i, h := range f.w.handles {
		assert.Equal(t, cfg.AxisColors[i], h.Material.Color())
	}
}

func TestBeginDragRequiresHover(t *testing.T) {
	f := newFixture(t, 10)
	assert.False(t, f.w.BeginDrag(512, 384))
	assert.Equal(t, Idle, f.w.State())
}

func TestBeginDragFailsWhileDragging(t *testing.T) {
	f := newFixture(t, 10)
	f.hoverAxis(t, AxisY)
	require.True(t, f.w.BeginDrag(512, 384))
	assert.False(t, f.w.BeginDrag(512, 384))
	assert.Equal(t, Dragging, f.w.State())

	// Hover is ignored while dragging.
	f.w.Hover(5, 5)
	got, ok := f.w.Highlighted()
	assert.True(t, ok)
	assert.Equal(t, AxisY, got)
}

func TestDragYHandleMovesTargetUp(t *testing.T) {
	f := newFixture(t, 10)
	f.hoverAxis(t, AxisY)

	require.True(t, f.w.BeginDrag(512, 384))
	require.True(t, f.w.UpdateDrag(512, 300))

	p := f.target.WorldPosition()
	assert.Greater(t, p.Y, 0.0)
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)
	assert.True(t, f.w.Position().ApproxEqual(p, 1e-9))

	f.w.EndDrag(512, 300)
	assert.NotEqual(t, Dragging, f.w.State())
	assert.False(t, f.w.UpdateDrag(512, 200), "no-op once the drag ended")
	assert.True(t, f.target.WorldPosition().ApproxEqual(p, 1e-9))
}

func TestDragFollowsPointerIndependentOfDistance(t *testing.T) {
	for _, camZ := range []float64{5, 10, 40} {
		f := newFixture(t, camZ)
		f.hoverAxis(t, AxisX)

		// Grab the handle where the ray meets the axis, then move the
		// pointer to where the point (1.5, 0, 0) is drawn.
		gx, gy, _, _ := f.cam.Project(math3d.V3(0.25, 0, 0), testViewport)
		require.True(t, f.w.BeginDrag(gx, gy))
		tx, ty, _, _ := f.cam.Project(math3d.V3(1.75, 0, 0), testViewport)
		require.True(t, f.w.UpdateDrag(tx, ty))

		assert.True(t, f.target.WorldPosition().ApproxEqual(math3d.V3(1.5, 0, 0), 1e-6),
			"camZ=%v got %v", camZ, f.target.WorldPosition())
		f.w.EndDrag(tx, ty)
	}
}

func TestDragMovesOnlyRootTargets(t *testing.T) {
	f := newFixture(t, 10)
	child := f.graph.NewNode("child", f.target)
	child.SetLocal(math3d.Translate(math3d.V3(0, 1, 0)))
	f.w.UpdatePlacement([]*scene.Node{f.target, child})
	start := f.w.Position()

	f.hoverAxis(t, AxisX)
	gx, gy, _, _ := f.cam.Project(start, testViewport)
	require.True(t, f.w.BeginDrag(gx, gy))
	tx, ty, _, _ := f.cam.Project(start.Add(math3d.V3(1, 0, 0)), testViewport)
	require.True(t, f.w.UpdateDrag(tx, ty))

	assert.True(t, f.target.WorldPosition().ApproxEqual(math3d.V3(1, 0, 0), 1e-6))
	assert.True(t, child.WorldPosition().ApproxEqual(math3d.V3(1, 1, 0), 1e-6), "child moves once, with its parent")
}

func TestDegenerateAxisRefusesDrag(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(t, 10, WithLogger(logger))

	// The Z handle points straight at the camera.
	x, y := f.overlayPixel(t, math3d.V3(0.012, -0.006, 0.6))
	require.True(t, f.w.Hover(x, y))
	got, _ := f.w.Highlighted()
	require.Equal(t, AxisZ, got)

	assert.False(t, f.w.BeginDrag(x, y))
	assert.NotEqual(t, Dragging, f.w.State())
	assert.Contains(t, logs.String(), "axis parallel to view")
	assert.True(t, f.target.WorldPosition().ApproxEqual(math3d.Zero3(), 1e-12))
}

func TestUpdateDragSkipsFrameWhenRayMissesPlane(t *testing.T) {
	f := newFixture(t, 10)
	f.hoverAxis(t, AxisX)
	require.True(t, f.w.BeginDrag(512, 384))

	// The drag plane is z = 0; after the camera moves behind it the
	// pointer ray through the center points away from the plane.
	f.cam.SetPosition(math3d.V3(0, 0, -5))
	f.cam.LookAt(math3d.V3(0, 0, -10))
	assert.False(t, f.w.UpdateDrag(600, 384))
	assert.True(t, f.target.WorldPosition().ApproxEqual(math3d.Zero3(), 1e-12))
}

func TestEndDragIsIdempotentAndRehovers(t *testing.T) {
	f := newFixture(t, 10)
	f.w.EndDrag(5, 5)
	assert.Equal(t, Idle, f.w.State())

	f.hoverAxis(t, AxisY)
	x, y := f.overlayPixel(t, math3d.V3(0.02, 0.5, 0.01))
	require.True(t, f.w.BeginDrag(x, y))
	f.w.EndDrag(x, y)
	assert.Equal(t, Hovering, f.w.State())
	f.w.EndDrag(x, y)
	assert.Equal(t, Hovering, f.w.State())
}

func TestRenderUsesOverlayAndRestoresCamera(t *testing.T) {
	f := newFixture(t, 10)
	f.w.Render()

	assert.Same(t, f.cam, f.r.cam, "main camera restored")
	assert.Equal(t, 1, f.r.depthClears)
	require.Len(t, f.r.draws, 3)
	for _, c := range f.r.drawCams {
		assert.Same(t, f.w.overlay, c)
	}
	colors := DefaultConfig().AxisColors
	assert.Equal(t, colors[:], f.r.draws)

	f.w.UpdatePlacement(nil)
	f.r.draws = nil
	f.w.Render()
	assert.Empty(t, f.r.draws, "hidden without targets")
}

func TestRenderWithRasterizer(t *testing.T) {
	cam := render.NewCamera()
	cam.SetAspectRatio(2)
	cam.SetPosition(math3d.V3(0, 0, 10))
	cam.LookAt(math3d.Zero3())
	fb := render.NewFramebuffer(80, 40)
	r := render.NewRasterizer(cam, fb)

	w := New(cam, r, WithViewport(r.Viewport()))
	g := scene.NewGraph()
	w.UpdatePlacement([]*scene.Node{g.NewNode("t", nil)})
	w.Render()

	assert.Same(t, cam, r.Camera())
	lit := 0
	for _, p := range fb.Pixels {
		if p != (render.Color{}) {
			lit++
		}
	}
	assert.Positive(t, lit)
}

func TestSetConfigRecolorsHandles(t *testing.T) {
	f := newFixture(t, 10)
	f.hoverAxis(t, AxisZ)

	cfg := DefaultConfig()
	cfg.AxisColors = [3]render.Color{render.ColorWhite, render.ColorGray, render.ColorOrange}
	cfg.HighlightColor = render.ColorBlack
	f.w.SetConfig(cfg)

	assert.Equal(t, render.ColorWhite, f.w.handles[AxisX].Material.Color())
	assert.Equal(t, render.ColorBlack, f.w.handles[AxisZ].Material.Color())

	cfg.ShaftPixels = 3
	f.w.SetConfig(cfg)
	head := f.w.handles[AxisX].Mesh.Bounds().Size().Y
	assert.InDelta(t, 15/f.w.HandlePixels(), head, 1e-9)
}
